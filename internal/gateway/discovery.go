package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"

	"github.com/orgpulse/orgpulse/internal/domain"
)

// contributedRepo is the repository shape shared by the three contribution buckets.
type contributedRepo struct {
	Repository struct {
		Name  string
		URL   githubv4.String
		Owner struct {
			Login string
		}
	}
}

// contributionsQuery asks the user's own contribution index for the window.
// The from/to variables are DateTime, not GitTimestamp; mixing the two up is
// rejected by the API with a variable-mismatch error.
type contributionsQuery struct {
	User struct {
		ContributionsCollection struct {
			CommitContributionsByRepository      []contributedRepo `graphql:"commitContributionsByRepository(maxRepositories: 100)"`
			PullRequestContributionsByRepository []contributedRepo `graphql:"pullRequestContributionsByRepository(maxRepositories: 100)"`
			IssueContributionsByRepository       []contributedRepo `graphql:"issueContributionsByRepository(maxRepositories: 100)"`
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

// orgReposQuery enumerates every repository in the organization, one page at a time.
type orgReposQuery struct {
	Organization struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Name string
				URL  githubv4.String
			}
		} `graphql:"repositories(first: 50, after: $cursor)"`
	} `graphql:"organization(login: $org)"`
}

// DiscoverRepositories determines the candidate repository set. The fast path
// reads the user's contribution record; when that yields nothing (private-repo
// detail missing from the index, or genuinely no contributions) it falls back
// to a full cursor-paginated organization scan. Discovery failure is reported
// as an empty set, never as an error, since "no data" and "discovery failed"
// are treated identically downstream.
func (g *GitHubGateway) DiscoverRepositories(ctx context.Context, org, user string, from, to time.Time) ([]domain.RepoRef, error) {
	repos := g.discoverFromContributions(ctx, org, user, from, to)
	if len(repos) > 0 {
		g.logger.Debug("discovery used contribution fast path",
			zap.String("org", org), zap.Int("repos", len(repos)))
		return repos, nil
	}

	repos = g.discoverFromOrgScan(ctx, org)
	g.logger.Debug("discovery used full organization scan",
		zap.String("org", org), zap.Int("repos", len(repos)))
	return repos, nil
}

func (g *GitHubGateway) discoverFromContributions(ctx context.Context, org, user string, from, to time.Time) []domain.RepoRef {
	var q contributionsQuery
	variables := map[string]interface{}{
		"login": githubv4.String(user),
		"from":  githubv4.DateTime{Time: from},
		"to":    githubv4.DateTime{Time: to},
	}
	if err := g.execute(ctx, &q, variables); err != nil {
		g.logger.Warn("contribution-based discovery failed", zap.Error(err))
		return nil
	}

	seen := make(map[string]struct{})
	var repos []domain.RepoRef
	buckets := [][]contributedRepo{
		q.User.ContributionsCollection.CommitContributionsByRepository,
		q.User.ContributionsCollection.PullRequestContributionsByRepository,
		q.User.ContributionsCollection.IssueContributionsByRepository,
	}
	for _, bucket := range buckets {
		for _, c := range bucket {
			if !strings.EqualFold(c.Repository.Owner.Login, org) {
				continue
			}
			if _, ok := seen[c.Repository.Name]; ok {
				continue
			}
			seen[c.Repository.Name] = struct{}{}
			repos = append(repos, domain.RepoRef{
				Name: c.Repository.Name,
				URL:  string(c.Repository.URL),
			})
		}
	}
	return repos
}

func (g *GitHubGateway) discoverFromOrgScan(ctx context.Context, org string) []domain.RepoRef {
	variables := map[string]interface{}{
		"org":    githubv4.String(org),
		"cursor": (*githubv4.String)(nil),
	}
	var repos []domain.RepoRef
	for {
		var q orgReposQuery
		if err := g.execute(ctx, &q, variables); err != nil {
			g.logger.Warn("organization scan failed", zap.String("org", org), zap.Error(err))
			return repos
		}
		for _, node := range q.Organization.Repositories.Nodes {
			repos = append(repos, domain.RepoRef{Name: node.Name, URL: string(node.URL)})
		}
		if !q.Organization.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Organization.Repositories.PageInfo.EndCursor)
		g.logger.Debug("fetching next page of organization repositories")
	}
	return repos
}
