package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
	"github.com/zillah777/fixia.com.ar-sub001/internal/review"
)

// RequestCreator persists new service requests.
type RequestCreator interface {
	Create(ctx context.Context, req *model.ServiceRequest) error
}

// RequestHandler creates service requests.  Creation is refused while
// the caller owes a review on any completed match.
type RequestHandler struct {
	Requests RequestCreator
	Blocker  *review.Blocker
}

// NewRequestHandler constructs a RequestHandler and panics on nil dependencies.
func NewRequestHandler(requests RequestCreator, blocker *review.Blocker) *RequestHandler {
	if requests == nil || blocker == nil {
		panic("nil dependency passed to NewRequestHandler")
	}
	return &RequestHandler{Requests: requests, Blocker: blocker}
}

// Create handles POST /v1/requests.
func (h *RequestHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Title = strings.TrimSpace(body.Title)
	if body.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	ctx := c.Request().Context()
	if err := h.Blocker.Check(ctx, userID); err != nil {
		return httpError(c, err)
	}
	req := &model.ServiceRequest{
		ClientID:    userID,
		Title:       body.Title,
		Description: body.Description,
	}
	if err := h.Requests.Create(ctx, req); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, req)
}
