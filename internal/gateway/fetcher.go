package gateway

import (
	"context"
	"time"

	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"

	"github.com/orgpulse/orgpulse/internal/domain"
)

type commitHistoryNode struct {
	AbbreviatedOid  string
	Oid             string
	MessageHeadline string
	CommittedDate   githubv4.DateTime
	Additions       int
	Deletions       int
	URL             githubv4.String
	Author          struct {
		Name  string
		Email string
		User  struct {
			Login string
		}
	}
}

type pullRequestNode struct {
	Number    int
	Title     string
	State     string
	IsDraft   bool
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	MergedAt  *githubv4.DateTime
	URL       githubv4.String
	Author    struct {
		Login string
	}
	MergedBy struct {
		Login string
	}
	Additions    int
	Deletions    int
	ChangedFiles int
	Commits      struct {
		TotalCount int
	}
	Assignees struct {
		Nodes []struct {
			Login string
		}
	} `graphql:"assignees(first: 10)"`
	Reviews struct {
		Nodes []struct {
			State       string
			SubmittedAt githubv4.DateTime
			Author      struct {
				Login string
			}
		}
	} `graphql:"reviews(first: 50)"`
	Comments struct {
		Nodes []struct {
			Author struct {
				Login string
			}
		}
	} `graphql:"comments(first: 100)"`
	Labels struct {
		Nodes []struct {
			Name string
		}
	} `graphql:"labels(first: 20)"`
}

type issueNode struct {
	Number    int
	Title     string
	State     string
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	ClosedAt  *githubv4.DateTime
	URL       githubv4.String
	Author    struct {
		Login string
	}
	Assignees struct {
		Nodes []struct {
			Login string
		}
	} `graphql:"assignees(first: 10)"`
	Participants struct {
		Nodes []struct {
			Login string
		}
	} `graphql:"participants(first: 50)"`
	Comments struct {
		Nodes []struct {
			Author struct {
				Login string
			}
		}
	} `graphql:"comments(first: 100)"`
	Labels struct {
		Nodes []struct {
			Name string
		}
	} `graphql:"labels(first: 20)"`
}

// repoActivityQuery fetches one repository's branches with windowed commit
// history, plus every pull request and issue with the fields role
// classification needs. since/until are GitTimestamp variables; the rest of
// the codebase uses DateTime, and the two must not be swapped.
type repoActivityQuery struct {
	Repository struct {
		Refs struct {
			Nodes []struct {
				Name   string
				Target struct {
					Commit struct {
						History struct {
							Nodes []commitHistoryNode
						} `graphql:"history(first: 100, since: $since, until: $until, author: $author)"`
					} `graphql:"... on Commit"`
				}
			}
		} `graphql:"refs(refPrefix: \"refs/heads/\", first: 50)"`
		PullRequests struct {
			Nodes []pullRequestNode
		} `graphql:"pullRequests(first: 100, states: [OPEN, CLOSED, MERGED], orderBy: {field: UPDATED_AT, direction: DESC})"`
		Issues struct {
			Nodes []issueNode
		} `graphql:"issues(first: 100, orderBy: {field: UPDATED_AT, direction: DESC})"`
	} `graphql:"repository(owner: $org, name: $repo)"`
}

type userEmailQuery struct {
	User struct {
		Email string
	} `graphql:"user(login: $login)"`
}

// ResolveAuthorEmails collects the author email addresses recorded on the
// user's profile, used to filter commit history server-side. Only the public
// email is visible to a token without user scope, so the result may be empty;
// callers then fall back to client-side author matching.
func (g *GitHubGateway) ResolveAuthorEmails(ctx context.Context, user string) ([]string, error) {
	var q userEmailQuery
	variables := map[string]interface{}{"login": githubv4.String(user)}
	if err := g.execute(ctx, &q, variables); err != nil {
		return nil, err
	}
	if q.User.Email == "" {
		return nil, nil
	}
	return []string{q.User.Email}, nil
}

// FetchRepoActivity retrieves all branch histories, pull requests and issues
// for one repository in a single query. Failures are attributed to this
// repository alone; the caller decides whether to skip or abort.
func (g *GitHubGateway) FetchRepoActivity(ctx context.Context, org string, repo domain.RepoRef, user string, emails []string, from, to time.Time) (*RepoActivity, error) {
	author := githubv4.CommitAuthor{}
	filtered := len(emails) > 0
	if filtered {
		v4emails := make([]githubv4.String, len(emails))
		for i, e := range emails {
			v4emails[i] = githubv4.String(e)
		}
		author.Emails = &v4emails
	}

	var q repoActivityQuery
	variables := map[string]interface{}{
		"org":    githubv4.String(org),
		"repo":   githubv4.String(repo.Name),
		"since":  githubv4.GitTimestamp{Time: from},
		"until":  githubv4.GitTimestamp{Time: to},
		"author": author,
	}
	if err := g.execute(ctx, &q, variables); err != nil {
		return nil, err
	}

	activity := &RepoActivity{Repo: repo, AuthorFiltered: filtered}
	for _, ref := range q.Repository.Refs.Nodes {
		branch := BranchCommits{Branch: ref.Name}
		for _, c := range ref.Target.Commit.History.Nodes {
			branch.Commits = append(branch.Commits, Commit{
				ShortID:     c.AbbreviatedOid,
				ID:          c.Oid,
				Message:     c.MessageHeadline,
				AuthorName:  c.Author.Name,
				AuthorEmail: c.Author.Email,
				AuthorLogin: c.Author.User.Login,
				CommittedAt: c.CommittedDate.Time,
				Additions:   c.Additions,
				Deletions:   c.Deletions,
				URL:         string(c.URL),
			})
		}
		activity.Branches = append(activity.Branches, branch)
	}
	for _, pr := range q.Repository.PullRequests.Nodes {
		activity.PullRequests = append(activity.PullRequests, convertPullRequest(pr))
	}
	for _, issue := range q.Repository.Issues.Nodes {
		activity.Issues = append(activity.Issues, convertIssue(issue))
	}

	g.logger.Debug("fetched repository activity",
		zap.String("repo", repo.Name),
		zap.Int("branches", len(activity.Branches)),
		zap.Int("prs", len(activity.PullRequests)),
		zap.Int("issues", len(activity.Issues)))
	return activity, nil
}

func convertPullRequest(pr pullRequestNode) PullRequest {
	out := PullRequest{
		Number:       pr.Number,
		Title:        pr.Title,
		Author:       pr.Author.Login,
		State:        pr.State,
		IsDraft:      pr.IsDraft,
		CreatedAt:    pr.CreatedAt.Time,
		UpdatedAt:    pr.UpdatedAt.Time,
		MergedBy:     pr.MergedBy.Login,
		Additions:    pr.Additions,
		Deletions:    pr.Deletions,
		ChangedFiles: pr.ChangedFiles,
		CommitsCount: pr.Commits.TotalCount,
		URL:          string(pr.URL),
	}
	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		out.MergedAt = &t
	}
	for _, a := range pr.Assignees.Nodes {
		out.Assignees = append(out.Assignees, a.Login)
	}
	for _, r := range pr.Reviews.Nodes {
		out.Reviews = append(out.Reviews, Review{
			Author:      r.Author.Login,
			State:       r.State,
			SubmittedAt: r.SubmittedAt.Time,
		})
	}
	for _, c := range pr.Comments.Nodes {
		out.Commenters = append(out.Commenters, c.Author.Login)
	}
	for _, l := range pr.Labels.Nodes {
		out.Labels = append(out.Labels, l.Name)
	}
	return out
}

func convertIssue(issue issueNode) Issue {
	out := Issue{
		Number:    issue.Number,
		Title:     issue.Title,
		Author:    issue.Author.Login,
		State:     issue.State,
		CreatedAt: issue.CreatedAt.Time,
		UpdatedAt: issue.UpdatedAt.Time,
		URL:       string(issue.URL),
	}
	if issue.ClosedAt != nil {
		t := issue.ClosedAt.Time
		out.ClosedAt = &t
	}
	for _, a := range issue.Assignees.Nodes {
		out.Assignees = append(out.Assignees, a.Login)
	}
	for _, p := range issue.Participants.Nodes {
		out.Participants = append(out.Participants, p.Login)
	}
	for _, c := range issue.Comments.Nodes {
		out.Commenters = append(out.Commenters, c.Author.Login)
	}
	for _, l := range issue.Labels.Nodes {
		out.Labels = append(out.Labels, l.Name)
	}
	return out
}
