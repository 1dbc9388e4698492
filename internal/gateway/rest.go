package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v62/github"
	"go.uber.org/zap"
)

// The methods in this file are one-shot REST wrappers around single GitHub
// endpoints. They share the gateway's authenticated transport and per-call
// timeout with the GraphQL executor but are otherwise independent of the
// aggregation core.

// PRContent is the distilled detail view of one pull request.
type PRContent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	State       string    `json:"state"`
}

// CreatedPR is the distilled result of opening a pull request.
type CreatedPR struct {
	URL    string `json:"pr_url"`
	Number int    `json:"pr_number"`
	State  string `json:"status"`
	Title  string `json:"title"`
}

func (g *GitHubGateway) restContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

// GetPRContent fetches the detail view of a pull request.
func (g *GitHubGateway) GetPRContent(ctx context.Context, owner, repo string, number int) (*PRContent, error) {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	pr, _, err := g.restClient.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR %s/%s#%d: %w", owner, repo, number, err)
	}
	return &PRContent{
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		Author:      pr.GetUser().GetLogin(),
		CreatedAt:   pr.GetCreatedAt().Time,
		UpdatedAt:   pr.GetUpdatedAt().Time,
		State:       pr.GetState(),
	}, nil
}

// GetPRDiff fetches the raw patch text of a pull request.
func (g *GitHubGateway) GetPRDiff(ctx context.Context, owner, repo string, number int) (string, error) {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	patch, _, err := g.restClient.PullRequests.GetRaw(ctx, owner, repo, number, github.RawOptions{Type: github.Patch})
	if err != nil {
		return "", fmt.Errorf("failed to fetch PR patch %s/%s#%d: %w", owner, repo, number, err)
	}
	return patch, nil
}

// CreatePR opens a pull request from head into base.
func (g *GitHubGateway) CreatePR(ctx context.Context, owner, repo, title, body, head, base string, draft bool) (*CreatedPR, error) {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	pr, _, err := g.restClient.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.String(title),
		Body:  github.String(body),
		Head:  github.String(head),
		Base:  github.String(base),
		Draft: github.Bool(draft),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PR in %s/%s: %w", owner, repo, err)
	}
	return &CreatedPR{
		URL:    pr.GetHTMLURL(),
		Number: pr.GetNumber(),
		State:  pr.GetState(),
		Title:  pr.GetTitle(),
	}, nil
}

// UpdatePRDescription replaces the title and body of a pull request.
func (g *GitHubGateway) UpdatePRDescription(ctx context.Context, owner, repo string, number int, title, body string) error {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	_, _, err := g.restClient.PullRequests.Edit(ctx, owner, repo, number, &github.PullRequest{
		Title: github.String(title),
		Body:  github.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to update PR %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

// MergePR merges a pull request using the given method (merge, squash, rebase).
func (g *GitHubGateway) MergePR(ctx context.Context, owner, repo string, number int, commitTitle, commitMessage, method string) error {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	_, _, err := g.restClient.PullRequests.Merge(ctx, owner, repo, number, commitMessage, &github.PullRequestOptions{
		CommitTitle: commitTitle,
		MergeMethod: method,
	})
	if err != nil {
		return fmt.Errorf("failed to merge PR %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

// AddPRComment leaves a top-level comment on a pull request or issue.
func (g *GitHubGateway) AddPRComment(ctx context.Context, owner, repo string, number int, body string) error {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	_, _, err := g.restClient.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to add comment to %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

// AddInlinePRComment attaches a review comment to one line of a file in the
// pull request's head commit.
func (g *GitHubGateway) AddInlinePRComment(ctx context.Context, owner, repo string, number int, path string, line int, body string) error {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	pr, _, err := g.restClient.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return fmt.Errorf("failed to resolve head commit for %s/%s#%d: %w", owner, repo, number, err)
	}
	_, _, err = g.restClient.PullRequests.CreateComment(ctx, owner, repo, number, &github.PullRequestComment{
		Body:     github.String(body),
		CommitID: github.String(pr.GetHead().GetSHA()),
		Path:     github.String(path),
		Line:     github.Int(line),
		Side:     github.String("RIGHT"),
	})
	if err != nil {
		return fmt.Errorf("failed to add inline comment to %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

// SubmitReview submits a review with event APPROVE, REQUEST_CHANGES or COMMENT.
func (g *GitHubGateway) SubmitReview(ctx context.Context, owner, repo string, number int, event, body string) error {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	_, _, err := g.restClient.PullRequests.CreateReview(ctx, owner, repo, number, &github.PullRequestReviewRequest{
		Event: github.String(event),
		Body:  github.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to submit review for %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

// CreateIssue opens an issue. The configured marker label is always appended
// so issues created through this surface stay identifiable.
func (g *GitHubGateway) CreateIssue(ctx context.Context, owner, repo, title, body string, labels []string) (int, error) {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	labels = append(labels, g.markerLabel)
	issue, _, err := g.restClient.Issues.Create(ctx, owner, repo, &github.IssueRequest{
		Title:  github.String(title),
		Body:   github.String(body),
		Labels: &labels,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create issue in %s/%s: %w", owner, repo, err)
	}
	g.logger.Info("issue created", zap.String("repo", owner+"/"+repo), zap.Int("number", issue.GetNumber()))
	return issue.GetNumber(), nil
}

// UpdateIssue replaces an issue's title, body, labels and state.
func (g *GitHubGateway) UpdateIssue(ctx context.Context, owner, repo string, number int, title, body string, labels []string, state string) error {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	_, _, err := g.restClient.Issues.Edit(ctx, owner, repo, number, &github.IssueRequest{
		Title:  github.String(title),
		Body:   github.String(body),
		Labels: &labels,
		State:  github.String(state),
	})
	if err != nil {
		return fmt.Errorf("failed to update issue %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

// UpdateAssignees adds assignees to an issue or pull request.
func (g *GitHubGateway) UpdateAssignees(ctx context.Context, owner, repo string, number int, assignees []string) error {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	_, _, err := g.restClient.Issues.AddAssignees(ctx, owner, repo, number, assignees)
	if err != nil {
		return fmt.Errorf("failed to update assignees on %s/%s#%d: %w", owner, repo, number, err)
	}
	return nil
}

// LatestCommitSHA returns the SHA of the most recent commit on the default branch.
func (g *GitHubGateway) LatestCommitSHA(ctx context.Context, owner, repo string) (string, error) {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	commits, _, err := g.restClient.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("failed to list commits for %s/%s: %w", owner, repo, err)
	}
	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found in %s/%s", owner, repo)
	}
	return commits[0].GetSHA(), nil
}

// CreateTag creates a tag ref pointing at the latest commit on the default branch.
func (g *GitHubGateway) CreateTag(ctx context.Context, owner, repo, tag string) error {
	sha, err := g.LatestCommitSHA(ctx, owner, repo)
	if err != nil {
		return err
	}

	ctx, cancel := g.restContext(ctx)
	defer cancel()
	_, _, err = g.restClient.Git.CreateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String("refs/tags/" + tag),
		Object: &github.GitObject{SHA: github.String(sha)},
	})
	if err != nil {
		return fmt.Errorf("failed to create tag %s in %s/%s: %w", tag, owner, repo, err)
	}
	return nil
}

// CreateRelease publishes a release from an existing tag with generated notes.
func (g *GitHubGateway) CreateRelease(ctx context.Context, owner, repo, tag, name, body string) (string, error) {
	ctx, cancel := g.restContext(ctx)
	defer cancel()

	release, _, err := g.restClient.Repositories.CreateRelease(ctx, owner, repo, &github.RepositoryRelease{
		TagName:              github.String(tag),
		Name:                 github.String(name),
		Body:                 github.String(body),
		Draft:                github.Bool(false),
		Prerelease:           github.Bool(false),
		GenerateReleaseNotes: github.Bool(true),
		MakeLatest:           github.String("true"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create release %s in %s/%s: %w", name, owner, repo, err)
	}
	return release.GetHTMLURL(), nil
}
