package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel comparisons in httpError
	"net/http"
	"strconv" // strconv converts path parameters to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/zillah777/fixia.com.ar-sub001/internal/repository" // repository holds the sentinel error set
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID reads a numeric path parameter and rejects zero or garbage values.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// httpError maps repository sentinel errors onto HTTP responses so every
// handler reports the same status for the same condition.  Unknown errors
// become a generic 500 without leaking internals.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrNotAuthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant of this match"})
	case errors.Is(err, repository.ErrInvalidState):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "operation not allowed in current state"})
	case errors.Is(err, repository.ErrAlreadyFinalized):
		return c.JSON(http.StatusConflict, echo.Map{"error": "match already finalized"})
	case errors.Is(err, repository.ErrTokenExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "token expired"})
	case errors.Is(err, repository.ErrTokenAlreadyUsed):
		return c.JSON(http.StatusGone, echo.Map{"error": "token already used"})
	case errors.Is(err, repository.ErrAlreadyReviewed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "review already submitted"})
	case errors.Is(err, repository.ErrReviewPending):
		return c.JSON(http.StatusConflict, echo.Map{"error": "pending reviews must be completed first"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
