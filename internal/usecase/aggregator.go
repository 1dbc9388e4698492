package usecase

import (
	"context"
	"sort"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/orgpulse/orgpulse/internal/domain"
	"github.com/orgpulse/orgpulse/internal/gateway"
)

// defaultConcurrency bounds in-flight repository fetches to stay inside
// GitHub's secondary rate limits.
const defaultConcurrency = 5

// Aggregator is the use case for aggregating a user's organization activity.
// It orchestrates discovery, the per-repository fan-out, classification and
// the final merge/sort/paginate pass.
type Aggregator struct {
	fetcher     gateway.Fetcher
	logger      *zap.Logger
	concurrency int
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		fetcher:     fetcher,
		logger:      logger,
		concurrency: defaultConcurrency,
	}
}

// UserOrgActivity answers "what did this user do across the organization's
// repositories in the window". Failures local to one repository are absorbed
// and reported through the repos scanned/with-activity counters; only input
// validation produces a status "error" result.
func (a *Aggregator) UserOrgActivity(ctx context.Context, query domain.ActivityQuery) (*domain.AggregationResult, error) {
	if err := query.Validate(); err != nil {
		result := emptyResult(query.Normalized())
		result.Status = domain.StatusError
		result.Message = err.Error()
		return result, err
	}
	query = query.Normalized()

	repos, err := a.fetcher.DiscoverRepositories(ctx, query.Organization, query.Username, query.From, query.To)
	if err != nil {
		// Discovery failure and "no repositories" are indistinguishable to
		// the caller: both yield an empty successful result.
		a.logger.Warn("repository discovery failed", zap.Error(err))
		repos = nil
	}
	if len(repos) == 0 {
		a.logger.Info("no candidate repositories, short-circuiting",
			zap.String("org", query.Organization), zap.String("user", query.Username))
		return emptyResult(query), nil
	}

	emails, err := a.fetcher.ResolveAuthorEmails(ctx, query.Username)
	if err != nil {
		a.logger.Warn("could not resolve author emails, falling back to client-side matching", zap.Error(err))
		emails = nil
	}

	// Fan out one fetch per repository. Each goroutine owns exactly one slot
	// of the results slice, so no synchronization beyond the group is needed.
	// A failed repository leaves a nil slot and the run continues; results
	// completed before a caller deadline still contribute.
	results := make([]*gateway.RepoActivity, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, repo := range repos {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			activity, err := a.fetcher.FetchRepoActivity(gctx, query.Organization, repo, query.Username, emails, query.From, query.To)
			if err != nil {
				a.logger.Warn("skipping repository after fetch failure",
					zap.String("repo", repo.Name), zap.Error(err))
				return nil
			}
			results[i] = activity
			return nil
		})
	}
	_ = g.Wait()

	var (
		commits []domain.CommitRecord
		prs     []domain.PullRequestRecord
		issues  []domain.IssueRecord
	)
	reposWithActivity := 0
	for _, activity := range results {
		if activity == nil {
			continue
		}
		before := len(commits) + len(prs) + len(issues)

		commits = append(commits, DedupCommits(activity.Repo.Name, query.Username, activity.Branches, activity.AuthorFiltered)...)
		for _, pr := range activity.PullRequests {
			if record, ok := ClassifyPullRequest(activity.Repo.Name, pr, query.Username); ok {
				prs = append(prs, record)
			}
		}
		for _, issue := range activity.Issues {
			if record, ok := ClassifyIssue(activity.Repo.Name, issue, query.Username); ok {
				issues = append(issues, record)
			}
		}

		if len(commits)+len(prs)+len(issues) > before {
			reposWithActivity++
		}
	}

	sort.Slice(commits, func(i, j int) bool { return commits[i].CommittedAt.After(commits[j].CommittedAt) })
	sort.Slice(prs, func(i, j int) bool { return prs[i].UpdatedAt.After(prs[j].UpdatedAt) })
	sort.Slice(issues, func(i, j int) bool { return issues[i].UpdatedAt.After(issues[j].UpdatedAt) })

	summary := buildSummary(commits, prs, issues)

	commitPage, commitInfo := pageSlice(commits, query.Page, query.PerPage)
	prPage, prInfo := pageSlice(prs, query.Page, query.PerPage)
	issuePage, issueInfo := pageSlice(issues, query.Page, query.PerPage)

	return &domain.AggregationResult{
		Status:       domain.StatusSuccess,
		Summary:      summary,
		Commits:      commitPage,
		PullRequests: prPage,
		Issues:       issuePage,
		Pagination: domain.Pagination{
			Page:         query.Page,
			PerPage:      query.PerPage,
			Commits:      commitInfo,
			PullRequests: prInfo,
			Issues:       issueInfo,
			Repos: domain.RepoCoverage{
				Scanned:      len(repos),
				WithActivity: reposWithActivity,
			},
		},
	}, nil
}

// buildSummary computes aggregate counters over the complete collections.
func buildSummary(commits []domain.CommitRecord, prs []domain.PullRequestRecord, issues []domain.IssueRecord) domain.ActivitySummary {
	summary := domain.ActivitySummary{
		TotalCommits:      len(commits),
		TotalPullRequests: len(prs),
		TotalIssues:       len(issues),
	}
	for _, c := range commits {
		summary.TotalAdditions += c.Additions
		summary.TotalDeletions += c.Deletions
	}

	var leadTimes []float64
	for _, pr := range prs {
		if domain.HasRole(pr.Roles, domain.RoleAuthor) {
			summary.PRsAuthored++
			if pr.MergedAt != nil {
				leadTimes = append(leadTimes, pr.MergedAt.Sub(pr.CreatedAt).Seconds())
			}
		}
		if domain.HasRole(pr.Roles, domain.RoleApproved) ||
			domain.HasRole(pr.Roles, domain.RoleRequestedChanges) ||
			domain.HasRole(pr.Roles, domain.RoleReviewed) {
			summary.PRsReviewed++
		}
		if domain.HasRole(pr.Roles, domain.RoleMerged) {
			summary.PRsMerged++
		}
		if domain.HasRole(pr.Roles, domain.RoleCommented) {
			summary.PRsCommented++
		}
	}
	for _, issue := range issues {
		if domain.HasRole(issue.Roles, domain.RoleAuthor) {
			summary.IssuesAuthored++
		}
		if domain.HasRole(issue.Roles, domain.RoleAssigned) {
			summary.IssuesAssigned++
		}
		if domain.HasRole(issue.Roles, domain.RoleCommented) {
			summary.IssuesCommented++
		}
	}

	summary.MergeLeadTime = leadTimeStats(leadTimes)
	return summary
}

// leadTimeStats summarises merge lead times in seconds. The stats functions
// error only on empty input, which the count guard already excludes.
func leadTimeStats(leadTimes []float64) domain.LeadTimeStats {
	if len(leadTimes) == 0 {
		return domain.LeadTimeStats{}
	}
	mean, _ := stats.Mean(leadTimes)
	median, _ := stats.Median(leadTimes)
	p95, _ := stats.Percentile(leadTimes, 95)
	return domain.LeadTimeStats{
		Count:  len(leadTimes),
		Mean:   mean,
		Median: median,
		P95:    p95,
	}
}

// emptyResult is the zero-valued successful response: all counts zero, one
// well-defined empty page per collection.
func emptyResult(query domain.ActivityQuery) *domain.AggregationResult {
	empty := domain.PageResult{TotalPages: 1}
	return &domain.AggregationResult{
		Status:       domain.StatusSuccess,
		Summary:      domain.ActivitySummary{},
		Commits:      []domain.CommitRecord{},
		PullRequests: []domain.PullRequestRecord{},
		Issues:       []domain.IssueRecord{},
		Pagination: domain.Pagination{
			Page:         query.Page,
			PerPage:      query.PerPage,
			Commits:      empty,
			PullRequests: empty,
			Issues:       empty,
		},
	}
}
