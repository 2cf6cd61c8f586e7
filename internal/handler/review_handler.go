package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zillah777/fixia.com.ar-sub001/internal/review"
)

// ReviewHandler exposes the post-completion review gate.
type ReviewHandler struct {
	Gate    *review.Gate
	Blocker *review.Blocker
}

// NewReviewHandler constructs a ReviewHandler and panics on nil dependencies.
func NewReviewHandler(gate *review.Gate, blocker *review.Blocker) *ReviewHandler {
	if gate == nil || blocker == nil {
		panic("nil dependency passed to NewReviewHandler")
	}
	return &ReviewHandler{Gate: gate, Blocker: blocker}
}

// Status handles GET /v1/matches/:id/review-status.  The response tells
// the caller whether each party has reviewed and whether the caller's
// own gate is still open.
func (h *ReviewHandler) Status(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	st, err := h.Gate.GetReviewStatus(c.Request().Context(), matchID, userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Create handles POST /v1/matches/:id/reviews.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var in review.Input
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := in.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	rec, err := h.Gate.CreateReview(c.Request().Context(), matchID, userID, in)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// Delete handles DELETE /v1/reviews/:id.  Only the author may delete
// their own review.
func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Gate.DeleteReview(c.Request().Context(), reviewID, userID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Pending handles GET /v1/reviews/pending.  It lists completed matches
// where the caller still owes a review; the same set gates new service
// requests.
func (h *ReviewHandler) Pending(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ids, err := h.Blocker.OutstandingMatchIDs(c.Request().Context(), userID)
	if err != nil {
		return httpError(c, err)
	}
	if ids == nil {
		ids = []uint64{}
	}
	return c.JSON(http.StatusOK, echo.Map{"match_ids": ids})
}
