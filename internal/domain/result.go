package domain

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// LeadTimeStats summarises merge lead times (created to merged, in seconds)
// over the user's authored merged pull requests in the window.
type LeadTimeStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

// ActivitySummary holds aggregate counters computed over the complete,
// pre-pagination collections, never over a page slice.
type ActivitySummary struct {
	TotalCommits      int           `json:"total_commits"`
	TotalPullRequests int           `json:"total_prs"`
	TotalIssues       int           `json:"total_issues"`
	PRsAuthored       int           `json:"prs_authored"`
	PRsReviewed       int           `json:"prs_reviewed"`
	PRsMerged         int           `json:"prs_merged"`
	PRsCommented      int           `json:"prs_commented"`
	IssuesAuthored    int           `json:"issues_authored"`
	IssuesAssigned    int           `json:"issues_assigned"`
	IssuesCommented   int           `json:"issues_commented"`
	TotalAdditions    int           `json:"total_additions"`
	TotalDeletions    int           `json:"total_deletions"`
	MergeLeadTime     LeadTimeStats `json:"merge_lead_time_seconds"`
}

// PageResult describes how one collection was sliced.
type PageResult struct {
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNextPage bool `json:"has_next_page"`
	Returned    int  `json:"returned"`
}

// RepoCoverage exposes partial-failure visibility: how many repositories the
// run attempted versus how many contributed at least one record.
type RepoCoverage struct {
	Scanned      int `json:"scanned"`
	WithActivity int `json:"with_activity"`
}

// Pagination carries the shared cursor plus per-collection slicing results.
// Page and PerPage are identical across collections even though each has its
// own total and therefore its own last page.
type Pagination struct {
	Page         int          `json:"page"`
	PerPage      int          `json:"per_page"`
	Commits      PageResult   `json:"commits"`
	PullRequests PageResult   `json:"prs"`
	Issues       PageResult   `json:"issues"`
	Repos        RepoCoverage `json:"repos"`
}

// AggregationResult is the single response object of one aggregation run.
// Status is "success" even when no data was found; "error" is reserved for
// input validation failures.
type AggregationResult struct {
	Status       string              `json:"status"`
	Message      string              `json:"message,omitempty"`
	Summary      ActivitySummary     `json:"summary"`
	Commits      []CommitRecord      `json:"commits"`
	PullRequests []PullRequestRecord `json:"prs"`
	Issues       []IssueRecord       `json:"issues"`
	Pagination   Pagination          `json:"pagination"`
}
