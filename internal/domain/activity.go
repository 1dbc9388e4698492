// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"errors"
	"time"
)

const (
	// MaxPerPage is the upper bound GitHub itself enforces on page sizes,
	// mirrored here so a single clamp rule applies to every collection.
	MaxPerPage     = 100
	DefaultPerPage = 50
)

// Role describes the relationship a user holds to a pull request or issue.
type Role string

const (
	RoleAuthor           Role = "author"
	RoleMerged           Role = "merged"
	RoleAssigned         Role = "assigned"
	RoleApproved         Role = "approved"
	RoleRequestedChanges Role = "requested_changes"
	RoleReviewed         Role = "reviewed"
	RoleCommented        Role = "commented"
	RoleParticipant      Role = "participant"
)

// ActivityQuery is the immutable input of one aggregation run.
type ActivityQuery struct {
	Organization string    `json:"organization"`
	Username     string    `json:"username"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Page         int       `json:"page"`
	PerPage      int       `json:"per_page"`
}

// Validate reports whether the query can be executed at all. Clamping of the
// pagination cursor is handled separately by Normalized; validation failures
// here are the only condition that yields a status "error" result.
func (q ActivityQuery) Validate() error {
	if q.Organization == "" {
		return errors.New("organization must not be empty")
	}
	if q.Username == "" {
		return errors.New("username must not be empty")
	}
	if q.From.IsZero() || q.To.IsZero() {
		return errors.New("both from and to must be set")
	}
	if !q.From.Before(q.To) {
		return errors.New("from must be before to")
	}
	return nil
}

// Normalized returns a copy with page clamped to >= 1 and per_page to [1,100].
func (q ActivityQuery) Normalized() ActivityQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	return q
}

// RepoRef identifies one candidate repository produced by discovery.
type RepoRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CommitRecord is one physical commit. Identity is FullID; a commit reachable
// from several branches appears exactly once, tagged with the branch it was
// first seen on.
type CommitRecord struct {
	Repo        string    `json:"repo"`
	Branch      string    `json:"branch"`
	ShortID     string    `json:"short_id"`
	FullID      string    `json:"full_id"`
	Message     string    `json:"message"`
	AuthorName  string    `json:"author_name"`
	CommittedAt time.Time `json:"committed_at"`
	Additions   int       `json:"additions"`
	Deletions   int       `json:"deletions"`
	URL         string    `json:"url"`
}

// PullRequestRecord is a pull request the user is related to in at least one role.
type PullRequestRecord struct {
	Repo         string     `json:"repo"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	State        string     `json:"state"`
	IsDraft      bool       `json:"is_draft"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	MergedBy     string     `json:"merged_by,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
	CommitsCount int        `json:"commits_count"`
	URL          string     `json:"url"`
	Roles        []Role     `json:"roles"`
	Labels       []string   `json:"labels,omitempty"`
}

// IssueRecord is an issue the user is related to in at least one role.
// CommentCount is the number of comments the user left on the issue.
type IssueRecord struct {
	Repo         string     `json:"repo"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	State        string     `json:"state"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	URL          string     `json:"url"`
	Roles        []Role     `json:"roles"`
	CommentCount int        `json:"comment_count"`
	Labels       []string   `json:"labels,omitempty"`
}

// HasRole reports whether r is present in the role set.
func HasRole(roles []Role, r Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}
