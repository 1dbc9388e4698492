package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/orgpulse/orgpulse/internal/domain"
	"github.com/orgpulse/orgpulse/internal/gateway"
)

func TestDedupCommits(t *testing.T) {
	at := func(day int) time.Time {
		return time.Date(2024, 5, day, 12, 0, 0, 0, time.UTC)
	}

	testCases := []struct {
		name           string
		branches       []gateway.BranchCommits
		authorFiltered bool
		expectedIDs    []string
		expectedBranch map[string]string
	}{
		{
			name: "commit on two branches is emitted once with the first branch seen",
			branches: []gateway.BranchCommits{
				{Branch: "main", Commits: []gateway.Commit{
					{ID: "aaa111", ShortID: "aaa", AuthorLogin: "alice", CommittedAt: at(1)},
					{ID: "bbb222", ShortID: "bbb", AuthorLogin: "alice", CommittedAt: at(2)},
				}},
				{Branch: "feature-x", Commits: []gateway.Commit{
					{ID: "bbb222", ShortID: "bbb", AuthorLogin: "alice", CommittedAt: at(2)},
					{ID: "ccc333", ShortID: "ccc", AuthorLogin: "alice", CommittedAt: at(3)},
				}},
			},
			authorFiltered: true,
			expectedIDs:    []string{"aaa111", "bbb222", "ccc333"},
			expectedBranch: map[string]string{"aaa111": "main", "bbb222": "main", "ccc333": "feature-x"},
		},
		{
			name: "client-side filtering matches login case-insensitively",
			branches: []gateway.BranchCommits{
				{Branch: "main", Commits: []gateway.Commit{
					{ID: "aaa111", AuthorLogin: "Alice", CommittedAt: at(1)},
					{ID: "bbb222", AuthorLogin: "bob", CommittedAt: at(2)},
				}},
			},
			authorFiltered: false,
			expectedIDs:    []string{"aaa111"},
		},
		{
			name: "client-side filtering falls back to author name when no login is linked",
			branches: []gateway.BranchCommits{
				{Branch: "main", Commits: []gateway.Commit{
					{ID: "aaa111", AuthorName: "alice", CommittedAt: at(1)},
					{ID: "bbb222", AuthorName: "someone else", CommittedAt: at(2)},
				}},
			},
			authorFiltered: false,
			expectedIDs:    []string{"aaa111"},
		},
		{
			name: "server-side filtered history keeps commits regardless of login",
			branches: []gateway.BranchCommits{
				{Branch: "main", Commits: []gateway.Commit{
					{ID: "aaa111", AuthorName: "Alice Smith", CommittedAt: at(1)},
				}},
			},
			authorFiltered: true,
			expectedIDs:    []string{"aaa111"},
		},
		{
			name: "commits without an OID are skipped",
			branches: []gateway.BranchCommits{
				{Branch: "main", Commits: []gateway.Commit{
					{ID: "", AuthorLogin: "alice"},
					{ID: "aaa111", AuthorLogin: "alice", CommittedAt: at(1)},
				}},
			},
			authorFiltered: true,
			expectedIDs:    []string{"aaa111"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := DedupCommits("svc-a", "alice", tc.branches, tc.authorFiltered)

			ids := make([]string, 0, len(records))
			for _, r := range records {
				ids = append(ids, r.FullID)
				assert.Equal(t, "svc-a", r.Repo)
				if tc.expectedBranch != nil {
					assert.Equal(t, tc.expectedBranch[r.FullID], r.Branch)
				}
			}
			assert.ElementsMatch(t, tc.expectedIDs, ids)
		})
	}
}

func TestClassifyPullRequest(t *testing.T) {
	testCases := []struct {
		name          string
		pr            gateway.PullRequest
		expectedRoles []domain.Role
		expectedKept  bool
	}{
		{
			name:          "author only",
			pr:            gateway.PullRequest{Number: 1, Author: "alice"},
			expectedRoles: []domain.Role{domain.RoleAuthor},
			expectedKept:  true,
		},
		{
			name: "approval wins over an earlier plain review and suppresses commented",
			pr: gateway.PullRequest{
				Number: 2,
				Author: "bob",
				Reviews: []gateway.Review{
					{Author: "alice", State: "COMMENTED"},
					{Author: "alice", State: "APPROVED"},
				},
				Commenters: []string{"alice"},
			},
			expectedRoles: []domain.Role{domain.RoleApproved},
			expectedKept:  true,
		},
		{
			name: "requested changes wins over plain review",
			pr: gateway.PullRequest{
				Number: 3,
				Author: "bob",
				Reviews: []gateway.Review{
					{Author: "alice", State: "COMMENTED"},
					{Author: "alice", State: "CHANGES_REQUESTED"},
				},
			},
			expectedRoles: []domain.Role{domain.RoleRequestedChanges},
			expectedKept:  true,
		},
		{
			name: "dismissed review still counts as a plain review",
			pr: gateway.PullRequest{
				Number: 9,
				Author: "bob",
				Reviews: []gateway.Review{
					{Author: "alice", State: "DISMISSED"},
				},
			},
			expectedRoles: []domain.Role{domain.RoleReviewed},
			expectedKept:  true,
		},
		{
			name: "pending draft review is not review activity",
			pr: gateway.PullRequest{
				Number: 10,
				Author: "bob",
				Reviews: []gateway.Review{
					{Author: "alice", State: "PENDING"},
				},
			},
			expectedKept: false,
		},
		{
			name: "reviews by other users do not count",
			pr: gateway.PullRequest{
				Number: 4,
				Author: "bob",
				Reviews: []gateway.Review{
					{Author: "carol", State: "APPROVED"},
				},
			},
			expectedKept: false,
		},
		{
			name: "commenter without author or review role keeps commented",
			pr: gateway.PullRequest{
				Number:     5,
				Author:     "bob",
				Commenters: []string{"alice", "carol"},
			},
			expectedRoles: []domain.Role{domain.RoleCommented},
			expectedKept:  true,
		},
		{
			name: "author comments do not add a commented role",
			pr: gateway.PullRequest{
				Number:     6,
				Author:     "alice",
				Commenters: []string{"alice"},
			},
			expectedRoles: []domain.Role{domain.RoleAuthor},
			expectedKept:  true,
		},
		{
			name: "merger and assignee accumulate",
			pr: gateway.PullRequest{
				Number:    7,
				Author:    "bob",
				MergedBy:  "alice",
				Assignees: []string{"alice"},
			},
			expectedRoles: []domain.Role{domain.RoleMerged, domain.RoleAssigned},
			expectedKept:  true,
		},
		{
			name:         "no involvement drops the pull request",
			pr:           gateway.PullRequest{Number: 8, Author: "bob"},
			expectedKept: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record, kept := ClassifyPullRequest("svc-a", tc.pr, "alice")
			assert.Equal(t, tc.expectedKept, kept)
			if !kept {
				return
			}
			assert.ElementsMatch(t, tc.expectedRoles, record.Roles)
			assert.Equal(t, "svc-a", record.Repo)
			assert.Equal(t, tc.pr.Number, record.Number)
		})
	}
}

func TestClassifyIssue(t *testing.T) {
	testCases := []struct {
		name          string
		issue         gateway.Issue
		expectedRoles []domain.Role
		expectedCount int
		expectedKept  bool
	}{
		{
			name:          "author only",
			issue:         gateway.Issue{Number: 1, Author: "alice"},
			expectedRoles: []domain.Role{domain.RoleAuthor},
			expectedKept:  true,
		},
		{
			name: "comment count reflects only the user's comments",
			issue: gateway.Issue{
				Number:     2,
				Author:     "bob",
				Commenters: []string{"alice", "carol", "alice"},
			},
			expectedRoles: []domain.Role{domain.RoleCommented},
			expectedCount: 2,
			expectedKept:  true,
		},
		{
			name: "participant only when nothing stronger applies",
			issue: gateway.Issue{
				Number:       3,
				Author:       "bob",
				Participants: []string{"alice", "bob"},
			},
			expectedRoles: []domain.Role{domain.RoleParticipant},
			expectedKept:  true,
		},
		{
			name: "assignee suppresses the participant role",
			issue: gateway.Issue{
				Number:       4,
				Author:       "bob",
				Assignees:    []string{"alice"},
				Participants: []string{"alice"},
			},
			expectedRoles: []domain.Role{domain.RoleAssigned},
			expectedKept:  true,
		},
		{
			name:         "no involvement drops the issue",
			issue:        gateway.Issue{Number: 5, Author: "bob", Participants: []string{"bob"}},
			expectedKept: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record, kept := ClassifyIssue("svc-a", tc.issue, "alice")
			assert.Equal(t, tc.expectedKept, kept)
			if !kept {
				return
			}
			assert.ElementsMatch(t, tc.expectedRoles, record.Roles)
			assert.Equal(t, tc.expectedCount, record.CommentCount)
		})
	}
}
