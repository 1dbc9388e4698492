// Package server exposes the aggregation core and the GitHub write surface
// over HTTP. Endpoints are enumerated in a fixed table rather than discovered
// at runtime, so the surface is checked at compile time.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/orgpulse/orgpulse/internal/domain"
	"github.com/orgpulse/orgpulse/internal/gateway"
	"github.com/orgpulse/orgpulse/internal/metrics"
)

// Aggregating is the contract the activity endpoint needs from the use case layer.
type Aggregating interface {
	UserOrgActivity(ctx context.Context, query domain.ActivityQuery) (*domain.AggregationResult, error)
}

// RepoOps is the slice of the gateway's REST surface the write endpoints use.
type RepoOps interface {
	GetPRContent(ctx context.Context, owner, repo string, number int) (*gateway.PRContent, error)
	GetPRDiff(ctx context.Context, owner, repo string, number int) (string, error)
	CreatePR(ctx context.Context, owner, repo, title, body, head, base string, draft bool) (*gateway.CreatedPR, error)
	UpdatePRDescription(ctx context.Context, owner, repo string, number int, title, body string) error
	MergePR(ctx context.Context, owner, repo string, number int, commitTitle, commitMessage, method string) error
	AddPRComment(ctx context.Context, owner, repo string, number int, body string) error
	AddInlinePRComment(ctx context.Context, owner, repo string, number int, path string, line int, body string) error
	SubmitReview(ctx context.Context, owner, repo string, number int, event, body string) error
	CreateIssue(ctx context.Context, owner, repo, title, body string, labels []string) (int, error)
	UpdateIssue(ctx context.Context, owner, repo string, number int, title, body string, labels []string, state string) error
	UpdateAssignees(ctx context.Context, owner, repo string, number int, assignees []string) error
	CreateTag(ctx context.Context, owner, repo, tag string) error
	CreateRelease(ctx context.Context, owner, repo, tag, name, body string) (string, error)
}

// IPLookup is the contract of the outbound IP endpoint.
type IPLookup interface {
	Lookup(ctx context.Context) (map[string]any, error)
}

// Server is the container for API dependencies.
type Server struct {
	aggregator Aggregating
	repos      RepoOps
	ip         IPLookup
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// New creates a Server.
func New(aggregator Aggregating, repos RepoOps, ip IPLookup, m *metrics.Metrics, logger *zap.Logger) *Server {
	return &Server{
		aggregator: aggregator,
		repos:      repos,
		ip:         ip,
		metrics:    m,
		logger:     logger,
	}
}

// endpoint is one row of the API surface.
type endpoint struct {
	name    string
	method  string
	pattern string
	handler http.HandlerFunc
}

// endpoints enumerates the full API surface.
func (s *Server) endpoints() []endpoint {
	return []endpoint{
		{"activity", http.MethodGet, "/v1/activity", s.handleActivity},
		{"ip_info", http.MethodGet, "/v1/ip", s.handleIPInfo},
		{"pr_content", http.MethodGet, "/v1/repos/{owner}/{repo}/pulls/{number}", s.handlePRContent},
		{"pr_diff", http.MethodGet, "/v1/repos/{owner}/{repo}/pulls/{number}/diff", s.handlePRDiff},
		{"pr_create", http.MethodPost, "/v1/repos/{owner}/{repo}/pulls", s.handleCreatePR},
		{"pr_update", http.MethodPatch, "/v1/repos/{owner}/{repo}/pulls/{number}", s.handleUpdatePR},
		{"pr_merge", http.MethodPut, "/v1/repos/{owner}/{repo}/pulls/{number}/merge", s.handleMergePR},
		{"pr_comment", http.MethodPost, "/v1/repos/{owner}/{repo}/pulls/{number}/comments", s.handlePRComment},
		{"pr_review", http.MethodPost, "/v1/repos/{owner}/{repo}/pulls/{number}/reviews", s.handleSubmitReview},
		{"issue_create", http.MethodPost, "/v1/repos/{owner}/{repo}/issues", s.handleCreateIssue},
		{"issue_update", http.MethodPatch, "/v1/repos/{owner}/{repo}/issues/{number}", s.handleUpdateIssue},
		{"assignees_update", http.MethodPatch, "/v1/repos/{owner}/{repo}/issues/{number}/assignees", s.handleUpdateAssignees},
		{"tag_create", http.MethodPost, "/v1/repos/{owner}/{repo}/tags", s.handleCreateTag},
		{"release_create", http.MethodPost, "/v1/repos/{owner}/{repo}/releases", s.handleCreateRelease},
	}
}

// Router builds the chi router from the endpoint table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	for _, ep := range s.endpoints() {
		handler := http.Handler(ep.handler)
		if s.metrics != nil {
			handler = s.metrics.Track(ep.name, handler)
		}
		r.Method(ep.method, ep.pattern, handler)
	}

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}
