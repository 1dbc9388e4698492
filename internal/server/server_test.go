package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgpulse/orgpulse/internal/domain"
	"github.com/orgpulse/orgpulse/internal/gateway"
	"github.com/orgpulse/orgpulse/internal/metrics"
)

// stubAggregator returns a canned result, recording the query it received.
type stubAggregator struct {
	lastQuery domain.ActivityQuery
	result    *domain.AggregationResult
	err       error
}

func (s *stubAggregator) UserOrgActivity(_ context.Context, query domain.ActivityQuery) (*domain.AggregationResult, error) {
	s.lastQuery = query
	return s.result, s.err
}

// stubRepoOps records the last write operation dispatched to it.
type stubRepoOps struct {
	lastOp     string
	lastMethod string
	lastLabels []string
	err        error
}

func (s *stubRepoOps) GetPRContent(context.Context, string, string, int) (*gateway.PRContent, error) {
	s.lastOp = "pr_content"
	return &gateway.PRContent{Title: "t"}, s.err
}

func (s *stubRepoOps) GetPRDiff(context.Context, string, string, int) (string, error) {
	s.lastOp = "pr_diff"
	return "diff --git a/x b/x", s.err
}

func (s *stubRepoOps) CreatePR(context.Context, string, string, string, string, string, string, bool) (*gateway.CreatedPR, error) {
	s.lastOp = "pr_create"
	return &gateway.CreatedPR{Number: 7}, s.err
}

func (s *stubRepoOps) UpdatePRDescription(context.Context, string, string, int, string, string) error {
	s.lastOp = "pr_update"
	return s.err
}

func (s *stubRepoOps) MergePR(_ context.Context, _, _ string, _ int, _, _, method string) error {
	s.lastOp = "pr_merge"
	s.lastMethod = method
	return s.err
}

func (s *stubRepoOps) AddPRComment(context.Context, string, string, int, string) error {
	s.lastOp = "pr_comment_plain"
	return s.err
}

func (s *stubRepoOps) AddInlinePRComment(context.Context, string, string, int, string, int, string) error {
	s.lastOp = "pr_comment_inline"
	return s.err
}

func (s *stubRepoOps) SubmitReview(context.Context, string, string, int, string, string) error {
	s.lastOp = "pr_review"
	return s.err
}

func (s *stubRepoOps) CreateIssue(_ context.Context, _, _, _, _ string, labels []string) (int, error) {
	s.lastOp = "issue_create"
	s.lastLabels = labels
	return 42, s.err
}

func (s *stubRepoOps) UpdateIssue(context.Context, string, string, int, string, string, []string, string) error {
	s.lastOp = "issue_update"
	return s.err
}

func (s *stubRepoOps) UpdateAssignees(context.Context, string, string, int, []string) error {
	s.lastOp = "assignees_update"
	return s.err
}

func (s *stubRepoOps) CreateTag(context.Context, string, string, string) error {
	s.lastOp = "tag_create"
	return s.err
}

func (s *stubRepoOps) CreateRelease(context.Context, string, string, string, string, string) (string, error) {
	s.lastOp = "release_create"
	return "https://github.com/acme/svc-a/releases/v1", s.err
}

type stubIPLookup struct {
	info map[string]any
	err  error
}

func (s *stubIPLookup) Lookup(context.Context) (map[string]any, error) {
	return s.info, s.err
}

func newTestServer(agg *stubAggregator, repos *stubRepoOps, ip *stubIPLookup) *httptest.Server {
	srv := New(agg, repos, ip, metrics.New("test"), zap.NewNop())
	return httptest.NewServer(srv.Router())
}

func TestServer_ActivityEndpoint(t *testing.T) {
	t.Run("happy path passes query parameters through", func(t *testing.T) {
		agg := &stubAggregator{result: &domain.AggregationResult{Status: domain.StatusSuccess}}
		ts := newTestServer(agg, &stubRepoOps{}, &stubIPLookup{})
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/v1/activity?org=acme&user=alice&from=2024-05-01&to=2024-06-01&page=2&per_page=10")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "acme", agg.lastQuery.Organization)
		assert.Equal(t, "alice", agg.lastQuery.Username)
		assert.Equal(t, 2, agg.lastQuery.Page)
		assert.Equal(t, 10, agg.lastQuery.PerPage)

		var body domain.AggregationResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.StatusSuccess, body.Status)
	})

	t.Run("unparseable timestamps are rejected before the use case runs", func(t *testing.T) {
		agg := &stubAggregator{result: &domain.AggregationResult{Status: domain.StatusSuccess}}
		ts := newTestServer(agg, &stubRepoOps{}, &stubIPLookup{})
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/v1/activity?org=acme&user=alice&from=yesterday&to=2024-06-01")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, agg.lastQuery.Organization)
	})

	t.Run("validation failure from the use case maps to 400 with the error body", func(t *testing.T) {
		agg := &stubAggregator{
			result: &domain.AggregationResult{Status: domain.StatusError, Message: "organization must not be empty"},
			err:    errors.New("organization must not be empty"),
		}
		ts := newTestServer(agg, &stubRepoOps{}, &stubIPLookup{})
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/v1/activity?user=alice&from=2024-05-01&to=2024-06-01")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body domain.AggregationResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.StatusError, body.Status)
		assert.Equal(t, "organization must not be empty", body.Message)
	})
}

func TestServer_RepoEndpoints(t *testing.T) {
	testCases := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedOp     string
	}{
		{
			name:           "pr content",
			method:         http.MethodGet,
			path:           "/v1/repos/acme/svc-a/pulls/5",
			expectedStatus: http.StatusOK,
			expectedOp:     "pr_content",
		},
		{
			name:           "pr diff",
			method:         http.MethodGet,
			path:           "/v1/repos/acme/svc-a/pulls/5/diff",
			expectedStatus: http.StatusOK,
			expectedOp:     "pr_diff",
		},
		{
			name:           "plain comment without a path",
			method:         http.MethodPost,
			path:           "/v1/repos/acme/svc-a/pulls/5/comments",
			body:           `{"body":"looks good"}`,
			expectedStatus: http.StatusCreated,
			expectedOp:     "pr_comment_plain",
		},
		{
			name:           "inline comment when a path is given",
			method:         http.MethodPost,
			path:           "/v1/repos/acme/svc-a/pulls/5/comments",
			body:           `{"body":"rename this","path":"main.go","line":12}`,
			expectedStatus: http.StatusCreated,
			expectedOp:     "pr_comment_inline",
		},
		{
			name:           "review with a valid event",
			method:         http.MethodPost,
			path:           "/v1/repos/acme/svc-a/pulls/5/reviews",
			body:           `{"event":"APPROVE","body":"ship it"}`,
			expectedStatus: http.StatusCreated,
			expectedOp:     "pr_review",
		},
		{
			name:           "review with an invalid event is rejected",
			method:         http.MethodPost,
			path:           "/v1/repos/acme/svc-a/pulls/5/reviews",
			body:           `{"event":"SHRUG"}`,
			expectedStatus: http.StatusBadRequest,
			expectedOp:     "",
		},
		{
			name:           "issue update",
			method:         http.MethodPatch,
			path:           "/v1/repos/acme/svc-a/issues/21",
			body:           `{"title":"t","body":"b"}`,
			expectedStatus: http.StatusOK,
			expectedOp:     "issue_update",
		},
		{
			name:           "non-numeric item number is rejected",
			method:         http.MethodGet,
			path:           "/v1/repos/acme/svc-a/pulls/latest",
			expectedStatus: http.StatusBadRequest,
			expectedOp:     "",
		},
		{
			name:           "tag without a name is rejected",
			method:         http.MethodPost,
			path:           "/v1/repos/acme/svc-a/tags",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedOp:     "",
		},
		{
			name:           "release",
			method:         http.MethodPost,
			path:           "/v1/repos/acme/svc-a/releases",
			body:           `{"tag":"v1.0.0","name":"v1"}`,
			expectedStatus: http.StatusCreated,
			expectedOp:     "release_create",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repos := &stubRepoOps{}
			ts := newTestServer(&stubAggregator{}, repos, &stubIPLookup{})
			defer ts.Close()

			req, err := http.NewRequest(tc.method, ts.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
			assert.Equal(t, tc.expectedOp, repos.lastOp)
		})
	}
}

func TestServer_MergeDefaultsToSquash(t *testing.T) {
	repos := &stubRepoOps{}
	ts := newTestServer(&stubAggregator{}, repos, &stubIPLookup{})
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/v1/repos/acme/svc-a/pulls/5/merge", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pr_merge", repos.lastOp)
	assert.Equal(t, "squash", repos.lastMethod)
}

func TestServer_UpstreamFailureMapsToBadGateway(t *testing.T) {
	repos := &stubRepoOps{err: errors.New("502 from GitHub")}
	ts := newTestServer(&stubAggregator{}, repos, &stubIPLookup{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/repos/acme/svc-a/pulls/5")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(&stubAggregator{result: &domain.AggregationResult{Status: domain.StatusSuccess}}, &stubRepoOps{}, &stubIPLookup{info: map[string]any{"ip": "1.2.3.4"}})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Drive one instrumented request, then check it shows up on /metrics.
	resp, err = http.Get(ts.URL + "/v1/ip")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var sb strings.Builder
	_, err = io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), `orgpulse_requests_total{endpoint="ip_info",status="success"} 1`)
}
