// Package usecase contains the business logic of the application.
package usecase

import (
	"strings"

	"github.com/orgpulse/orgpulse/internal/domain"
	"github.com/orgpulse/orgpulse/internal/gateway"
)

// DedupCommits walks every branch's history in traversal order and emits one
// record per physical commit. Identity is the full OID; the branch of the
// first encounter is kept, later sightings on other branches are discarded.
// When the history was not already narrowed server-side, commits are matched
// against the user's login (or author name when no login is linked).
func DedupCommits(repo, username string, branches []gateway.BranchCommits, authorFiltered bool) []domain.CommitRecord {
	seen := make(map[string]struct{})
	var records []domain.CommitRecord
	for _, branch := range branches {
		for _, c := range branch.Commits {
			if c.ID == "" {
				continue
			}
			if _, ok := seen[c.ID]; ok {
				continue
			}
			if !authorFiltered && !commitByUser(c, username) {
				continue
			}
			seen[c.ID] = struct{}{}
			records = append(records, domain.CommitRecord{
				Repo:        repo,
				Branch:      branch.Branch,
				ShortID:     c.ShortID,
				FullID:      c.ID,
				Message:     c.Message,
				AuthorName:  c.AuthorName,
				CommittedAt: c.CommittedAt,
				Additions:   c.Additions,
				Deletions:   c.Deletions,
				URL:         c.URL,
			})
		}
	}
	return records
}

func commitByUser(c gateway.Commit, username string) bool {
	if c.AuthorLogin != "" {
		return strings.EqualFold(c.AuthorLogin, username)
	}
	return strings.EqualFold(c.AuthorName, username)
}

// ClassifyPullRequest derives the user's role set for one pull request. The
// second return value is false when the user holds no role and the PR must be
// dropped. At most one review-state role survives, chosen by priority
// approved > requested_changes > reviewed; a generic commented role is
// suppressed once author or a review-state role is present.
func ClassifyPullRequest(repo string, pr gateway.PullRequest, username string) (domain.PullRequestRecord, bool) {
	var roles []domain.Role

	isAuthor := strings.EqualFold(pr.Author, username)
	if isAuthor {
		roles = append(roles, domain.RoleAuthor)
	}
	if strings.EqualFold(pr.MergedBy, username) {
		roles = append(roles, domain.RoleMerged)
	}
	if containsLogin(pr.Assignees, username) {
		roles = append(roles, domain.RoleAssigned)
	}

	reviewRole := strongestReviewRole(pr.Reviews, username)
	if reviewRole != "" {
		roles = append(roles, reviewRole)
	}

	if containsLogin(pr.Commenters, username) && !isAuthor && reviewRole == "" {
		roles = append(roles, domain.RoleCommented)
	}

	if len(roles) == 0 {
		return domain.PullRequestRecord{}, false
	}

	return domain.PullRequestRecord{
		Repo:         repo,
		Number:       pr.Number,
		Title:        pr.Title,
		Author:       pr.Author,
		State:        pr.State,
		IsDraft:      pr.IsDraft,
		CreatedAt:    pr.CreatedAt,
		UpdatedAt:    pr.UpdatedAt,
		MergedAt:     pr.MergedAt,
		MergedBy:     pr.MergedBy,
		Additions:    pr.Additions,
		Deletions:    pr.Deletions,
		ChangedFiles: pr.ChangedFiles,
		CommitsCount: pr.CommitsCount,
		URL:          pr.URL,
		Roles:        roles,
		Labels:       pr.Labels,
	}, true
}

// strongestReviewRole folds every review the user submitted into one role.
// Unsubmitted PENDING drafts are not review activity; any other submitted
// state (COMMENTED, DISMISSED) counts as a plain review.
func strongestReviewRole(reviews []gateway.Review, username string) domain.Role {
	var role domain.Role
	for _, r := range reviews {
		if !strings.EqualFold(r.Author, username) {
			continue
		}
		switch r.State {
		case "APPROVED":
			return domain.RoleApproved
		case "CHANGES_REQUESTED":
			role = domain.RoleRequestedChanges
		case "PENDING":
		default:
			if role == "" {
				role = domain.RoleReviewed
			}
		}
	}
	return role
}

// ClassifyIssue derives the user's role set for one issue. Participant is
// recorded only when no stronger role applies.
func ClassifyIssue(repo string, issue gateway.Issue, username string) (domain.IssueRecord, bool) {
	var roles []domain.Role

	if strings.EqualFold(issue.Author, username) {
		roles = append(roles, domain.RoleAuthor)
	}
	if containsLogin(issue.Assignees, username) {
		roles = append(roles, domain.RoleAssigned)
	}
	commentCount := 0
	for _, c := range issue.Commenters {
		if strings.EqualFold(c, username) {
			commentCount++
		}
	}
	if commentCount > 0 {
		roles = append(roles, domain.RoleCommented)
	}
	if len(roles) == 0 && containsLogin(issue.Participants, username) {
		roles = append(roles, domain.RoleParticipant)
	}

	if len(roles) == 0 {
		return domain.IssueRecord{}, false
	}

	return domain.IssueRecord{
		Repo:         repo,
		Number:       issue.Number,
		Title:        issue.Title,
		Author:       issue.Author,
		State:        issue.State,
		CreatedAt:    issue.CreatedAt,
		UpdatedAt:    issue.UpdatedAt,
		ClosedAt:     issue.ClosedAt,
		URL:          issue.URL,
		Roles:        roles,
		CommentCount: commentCount,
		Labels:       issue.Labels,
	}, true
}

func containsLogin(logins []string, username string) bool {
	for _, l := range logins {
		if strings.EqualFold(l, username) {
			return true
		}
	}
	return false
}
