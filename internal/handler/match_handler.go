package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zillah777/fixia.com.ar-sub001/internal/lifecycle"
	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// MatchLister lists matches where a user is one of the two parties.
type MatchLister interface {
	ListByParty(ctx context.Context, userID uint64) ([]model.Match, error)
}

// MatchHandler exposes the engagement lifecycle over HTTP.  All state
// changes are delegated to the lifecycle manager, which owns the
// per-match serialization and the event publishing; the handler only
// translates requests and sentinel errors.
type MatchHandler struct {
	Lifecycle *lifecycle.Manager
	Lister    MatchLister
}

// NewMatchHandler constructs a MatchHandler and panics on nil dependencies.
func NewMatchHandler(mg *lifecycle.Manager, lister MatchLister) *MatchHandler {
	if mg == nil || lister == nil {
		panic("nil dependency passed to NewMatchHandler")
	}
	return &MatchHandler{Lifecycle: mg, Lister: lister}
}

// List handles GET /v1/matches.  It returns every match the caller is a
// party of, newest first.
func (h *MatchHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matches, err := h.Lister.ListByParty(c.Request().Context(), userID)
	if err != nil {
		return httpError(c, err)
	}
	if matches == nil {
		matches = []model.Match{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": matches})
}

// Get handles GET /v1/matches/:id.  Only the two parties may read a
// match; everyone else gets 403 regardless of whether the match exists.
func (h *MatchHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	m, cs, err := h.Lifecycle.Get(c.Request().Context(), matchID, userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"match": m, "completion": cs})
}

// RequestCompletion handles POST /v1/matches/:id/completion/request.  The
// first party to call it records a pending completion request; the
// counterparty must confirm before the match is completed.
func (h *MatchHandler) RequestCompletion(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Comment string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	cs, err := h.Lifecycle.RequestCompletion(c.Request().Context(), matchID, userID, body.Comment)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"completion": cs})
}

// ConfirmCompletion handles POST /v1/matches/:id/completion/confirm.
// Only the party that did not file the request may confirm.
func (h *MatchHandler) ConfirmCompletion(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Comment string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	cs, err := h.Lifecycle.ConfirmCompletion(c.Request().Context(), matchID, userID, body.Comment)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"completion": cs})
}

// UpdateStatus handles PUT /v1/matches/:id/status.  It accepts only
// the terminal statuses reachable outside the completion protocol
// (disputed, cancelled, unsuccessful); "completed" must go through the
// bilateral confirmation flow.
func (h *MatchHandler) UpdateStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := model.MatchStatus(body.Status)
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	m, err := h.Lifecycle.UpdateStatus(c.Request().Context(), matchID, userID, status)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"match": m})
}
