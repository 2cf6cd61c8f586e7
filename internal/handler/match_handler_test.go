package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/zillah777/fixia.com.ar-sub001/internal/lifecycle"
	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
	"github.com/zillah777/fixia.com.ar-sub001/internal/queue"
	"github.com/zillah777/fixia.com.ar-sub001/internal/repository"
)

// matchStore backs the lifecycle manager in handler tests.
type matchStore struct {
	m  *model.Match
	cs *model.CompletionStatus
}

func (s *matchStore) Get(_ context.Context, id uint64) (*model.Match, *model.CompletionStatus, error) {
	if s.m == nil || s.m.ID != id {
		return nil, nil, repository.ErrNotFound
	}
	mc, csc := *s.m, *s.cs
	return &mc, &csc, nil
}

func (s *matchStore) RequestCompletion(_ context.Context, _, actorID uint64, comment string) error {
	if s.m.Status != model.StatusActive || s.cs.RequestedBy != 0 {
		return repository.ErrInvalidState
	}
	s.cs.RequestedBy = actorID
	s.cs.RequestComment = comment
	return nil
}

func (s *matchStore) ConfirmCompletion(context.Context, uint64) error {
	now := time.Now().UTC()
	s.cs.IsCompleted = true
	s.cs.CompletedAt = &now
	s.m.Status = model.StatusCompleted
	return nil
}

func (s *matchStore) Finalize(_ context.Context, _ uint64, status model.MatchStatus) error {
	if s.m.Status != model.StatusActive {
		return repository.ErrAlreadyFinalized
	}
	s.m.Status = status
	return nil
}

func (s *matchStore) ListByParty(_ context.Context, userID uint64) ([]model.Match, error) {
	if s.m != nil && s.m.IsParty(userID) {
		return []model.Match{*s.m}, nil
	}
	return nil, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishMatchEvent(context.Context, queue.MatchEvent) error { return nil }

func newMatchFixture() (*matchStore, *MatchHandler) {
	store := &matchStore{
		m:  &model.Match{ID: 1, ClientID: 10, ProfessionalID: 20, Status: model.StatusActive},
		cs: &model.CompletionStatus{MatchID: 1},
	}
	mg := lifecycle.NewManager(store, noopPublisher{})
	return store, NewMatchHandler(mg, store)
}

func jsonCtx(method, path, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
	}
	return c, rec
}

func TestMatchList(t *testing.T) {
	_, h := newMatchFixture()

	c, rec := jsonCtx(http.MethodGet, "/v1/matches", "", 10)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []model.Match `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)

	// A stranger sees an empty list, not an error.
	c, rec = jsonCtx(http.MethodGet, "/v1/matches", "", 99)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body.Items)
}

func TestMatchGetAuthorization(t *testing.T) {
	_, h := newMatchFixture()

	c, rec := jsonCtx(http.MethodGet, "/", "", 10)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = jsonCtx(http.MethodGet, "/", "", 99)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = jsonCtx(http.MethodGet, "/", "", 10)
	c.SetParamNames("id")
	c.SetParamValues("2")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = jsonCtx(http.MethodGet, "/", "", 10)
	c.SetParamNames("id")
	c.SetParamValues("zero")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompletionFlowOverHTTP(t *testing.T) {
	_, h := newMatchFixture()

	c, rec := jsonCtx(http.MethodPost, "/", `{"comment":"done"}`, 10)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.RequestCompletion(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Requester confirming their own request maps to 400.
	c, rec = jsonCtx(http.MethodPost, "/", "", 10)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.ConfirmCompletion(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = jsonCtx(http.MethodPost, "/", "", 20)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.ConfirmCompletion(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Completion model.CompletionStatus `json:"completion"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Completion.IsCompleted)

	// Requesting again on the finalized match maps to 409.
	c, rec = jsonCtx(http.MethodPost, "/", "", 10)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.RequestCompletion(c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateStatusOverHTTP(t *testing.T) {
	store, h := newMatchFixture()

	c, rec := jsonCtx(http.MethodPatch, "/", `{"status":"completed"}`, 10)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateStatus(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = jsonCtx(http.MethodPatch, "/", `{"status":"nonsense"}`, 10)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateStatus(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = jsonCtx(http.MethodPatch, "/", `{"status":"cancelled"}`, 10)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.StatusCancelled, store.m.Status)
}
