// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/orgpulse/orgpulse/internal/config"
	"github.com/orgpulse/orgpulse/internal/domain"
)

// Commit is one commit as decoded at the remote boundary, before dedup.
type Commit struct {
	ShortID     string
	ID          string
	Message     string
	AuthorName  string
	AuthorEmail string
	AuthorLogin string
	CommittedAt time.Time
	Additions   int
	Deletions   int
	URL         string
}

// BranchCommits is one branch's commit history inside the window.
type BranchCommits struct {
	Branch  string
	Commits []Commit
}

// Review is one submitted pull request review.
type Review struct {
	Author      string
	State       string
	SubmittedAt time.Time
}

// PullRequest carries every field role classification needs.
type PullRequest struct {
	Number       int
	Title        string
	Author       string
	State        string
	IsDraft      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MergedAt     *time.Time
	MergedBy     string
	Additions    int
	Deletions    int
	ChangedFiles int
	CommitsCount int
	URL          string
	Assignees    []string
	Reviews      []Review
	Commenters   []string
	Labels       []string
}

// Issue carries every field role classification needs.
type Issue struct {
	Number       int
	Title        string
	Author       string
	State        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
	URL          string
	Assignees    []string
	Participants []string
	Commenters   []string
	Labels       []string
}

// RepoActivity is the raw fetch result for one repository.
// AuthorFiltered reports whether commit history was already narrowed
// server-side to the user's author emails.
type RepoActivity struct {
	Repo           domain.RepoRef
	Branches       []BranchCommits
	PullRequests   []PullRequest
	Issues         []Issue
	AuthorFiltered bool
}

// Fetcher defines the behavior of a gateway for fetching activity data from GitHub.
type Fetcher interface {
	DiscoverRepositories(ctx context.Context, org, user string, from, to time.Time) ([]domain.RepoRef, error)
	ResolveAuthorEmails(ctx context.Context, user string) ([]string, error)
	FetchRepoActivity(ctx context.Context, org string, repo domain.RepoRef, user string, emails []string, from, to time.Time) (*RepoActivity, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
// A single authenticated, rate-limit-aware transport backs both clients.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *zap.Logger
	timeout       time.Duration
	markerLabel   string
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(cfg *config.Config, logger *zap.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GithubToken})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}

	restClient := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		restClient, err = restClient.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to apply REST base URL override: %w", err)
		}
	}

	graphqlClient := githubv4.NewClient(httpClient)
	if cfg.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(cfg.GraphQLURL, httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
		timeout:       cfg.APITimeout,
		markerLabel:   cfg.IssueMarkerLabel,
	}, nil
}
