package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/orgpulse/orgpulse/internal/domain"
)

// handleActivity answers GET /v1/activity?org=&user=&from=&to=&page=&per_page=.
// Validation failures surface as a status "error" body with HTTP 400; an empty
// result is a normal 200.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := parseTimestamp(q.Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid 'from' timestamp, expected RFC3339 or YYYY-MM-DD")
		return
	}
	to, err := parseTimestamp(q.Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid 'to' timestamp, expected RFC3339 or YYYY-MM-DD")
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	query := domain.ActivityQuery{
		Organization: q.Get("org"),
		Username:     q.Get("user"),
		From:         from,
		To:           to,
		Page:         page,
		PerPage:      perPage,
	}

	result, err := s.aggregator.UserOrgActivity(r.Context(), query)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleIPInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.ip.Lookup(r.Context())
	if err != nil {
		s.logger.Error("IP lookup failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "IP lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handlePRContent(w http.ResponseWriter, r *http.Request) {
	owner, repo, number, err := repoItemParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	content, err := s.repos.GetPRContent(r.Context(), owner, repo, number)
	if err != nil {
		s.respondUpstreamError(w, "pr_content", err)
		return
	}
	respondJSON(w, http.StatusOK, content)
}

func (s *Server) handlePRDiff(w http.ResponseWriter, r *http.Request) {
	owner, repo, number, err := repoItemParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	diff, err := s.repos.GetPRDiff(r.Context(), owner, repo, number)
	if err != nil {
		s.respondUpstreamError(w, "pr_diff", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(diff))
}

func (s *Server) handleCreatePR(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Head  string `json:"head"`
		Base  string `json:"base"`
		Draft bool   `json:"draft"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.repos.CreatePR(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"),
		body.Title, body.Body, body.Head, body.Base, body.Draft)
	if err != nil {
		s.respondUpstreamError(w, "pr_create", err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePR(w http.ResponseWriter, r *http.Request) {
	owner, repo, number, err := repoItemParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repos.UpdatePRDescription(r.Context(), owner, repo, number, body.Title, body.Body); err != nil {
		s.respondUpstreamError(w, "pr_update", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleMergePR(w http.ResponseWriter, r *http.Request) {
	owner, repo, number, err := repoItemParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body struct {
		CommitTitle   string `json:"commit_title"`
		CommitMessage string `json:"commit_message"`
		Method        string `json:"method"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Method == "" {
		body.Method = "squash"
	}
	if err := s.repos.MergePR(r.Context(), owner, repo, number, body.CommitTitle, body.CommitMessage, body.Method); err != nil {
		s.respondUpstreamError(w, "pr_merge", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "merged"})
}

func (s *Server) handlePRComment(w http.ResponseWriter, r *http.Request) {
	owner, repo, number, err := repoItemParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body struct {
		Body string `json:"body"`
		Path string `json:"path"`
		Line int    `json:"line"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// A path makes it an inline review comment, otherwise a plain comment.
	if body.Path != "" {
		err = s.repos.AddInlinePRComment(r.Context(), owner, repo, number, body.Path, body.Line, body.Body)
	} else {
		err = s.repos.AddPRComment(r.Context(), owner, repo, number, body.Body)
	}
	if err != nil {
		s.respondUpstreamError(w, "pr_comment", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "commented"})
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	owner, repo, number, err := repoItemParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body struct {
		Event string `json:"event"`
		Body  string `json:"body"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch body.Event {
	case "APPROVE", "REQUEST_CHANGES", "COMMENT":
	default:
		respondError(w, http.StatusBadRequest, "event must be APPROVE, REQUEST_CHANGES or COMMENT")
		return
	}
	if err := s.repos.SubmitReview(r.Context(), owner, repo, number, body.Event, body.Body); err != nil {
		s.respondUpstreamError(w, "pr_review", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "reviewed"})
}

func (s *Server) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Labels []string `json:"labels"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	number, err := s.repos.CreateIssue(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"),
		body.Title, body.Body, body.Labels)
	if err != nil {
		s.respondUpstreamError(w, "issue_create", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int{"number": number})
}

func (s *Server) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	owner, repo, number, err := repoItemParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body struct {
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Labels []string `json:"labels"`
		State  string   `json:"state"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.State == "" {
		body.State = "open"
	}
	if err := s.repos.UpdateIssue(r.Context(), owner, repo, number, body.Title, body.Body, body.Labels, body.State); err != nil {
		s.respondUpstreamError(w, "issue_update", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleUpdateAssignees(w http.ResponseWriter, r *http.Request) {
	owner, repo, number, err := repoItemParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body struct {
		Assignees []string `json:"assignees"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repos.UpdateAssignees(r.Context(), owner, repo, number, body.Assignees); err != nil {
		s.respondUpstreamError(w, "assignees_update", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tag string `json:"tag"`
	}
	if err := decodeBody(r, &body); err != nil || body.Tag == "" {
		respondError(w, http.StatusBadRequest, "tag is required")
		return
	}
	if err := s.repos.CreateTag(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), body.Tag); err != nil {
		s.respondUpstreamError(w, "tag_create", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (s *Server) handleCreateRelease(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tag  string `json:"tag"`
		Name string `json:"name"`
		Body string `json:"body"`
	}
	if err := decodeBody(r, &body); err != nil || body.Tag == "" {
		respondError(w, http.StatusBadRequest, "tag is required")
		return
	}
	url, err := s.repos.CreateRelease(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"),
		body.Tag, body.Name, body.Body)
	if err != nil {
		s.respondUpstreamError(w, "release_create", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "created", "url": url})
}

func (s *Server) respondUpstreamError(w http.ResponseWriter, endpoint string, err error) {
	s.logger.Error("upstream GitHub call failed", zap.String("endpoint", endpoint), zap.Error(err))
	if s.metrics != nil {
		s.metrics.RecordError(endpoint, "upstream_error")
	}
	respondError(w, http.StatusBadGateway, err.Error())
}

// parseTimestamp accepts RFC3339 or a bare date.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func repoItemParams(r *http.Request) (owner, repo string, number int, err error) {
	owner = chi.URLParam(r, "owner")
	repo = chi.URLParam(r, "repo")
	number, err = strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < 1 {
		return "", "", 0, errors.New("number must be a positive integer")
	}
	return owner, repo, number, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON request body")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"status": "error", "message": message})
}
