package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zillah777/fixia.com.ar-sub001/internal/disclosure"
)

// PhoneHandler exposes the contact-disclosure flow: masked preview,
// token issuance and single-use reveal.
type PhoneHandler struct {
	Disclosure *disclosure.Service
}

// NewPhoneHandler constructs a PhoneHandler and panics on a nil service.
func NewPhoneHandler(s *disclosure.Service) *PhoneHandler {
	if s == nil {
		panic("nil service passed to NewPhoneHandler")
	}
	return &PhoneHandler{Disclosure: s}
}

// GetMasked handles GET /v1/matches/:id/phone/masked.  It returns the
// counterparty's number in masked form plus a flag telling the caller
// whether they already burned a reveal token on this match.
func (h *PhoneHandler) GetMasked(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	masked, err := h.Disclosure.GetMaskedNumber(c.Request().Context(), matchID, userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, masked)
}

// GenerateToken handles POST /v1/matches/:id/phone/token.  Each call
// mints a fresh single-use token; earlier unredeemed tokens stay valid
// until their own expiry.
func (h *PhoneHandler) GenerateToken(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	issued, err := h.Disclosure.GenerateToken(c.Request().Context(), matchID, userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, issued)
}

// Reveal handles POST /v1/matches/:id/phone/reveal.  Redemption is the
// only authorization check here: possession of a live token bound to
// this match is sufficient, and the token dies on first use whatever
// the outcome of the lookup that follows.
func (h *PhoneHandler) Reveal(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&body); err != nil || body.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	phone, err := h.Disclosure.Reveal(c.Request().Context(), matchID, body.Token)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"phone": phone})
}
