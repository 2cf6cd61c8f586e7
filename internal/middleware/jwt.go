package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strconv"  // numeric parsing for string subject claims
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject as a uint64 user ID into the request context.
// The provided secret must match the one the identity service signs with;
// issuance itself happens outside this service, which only consumes the
// credential. Handlers access the authenticated party via
// `c.Get("user_id").(uint64)`.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 and our secret; reject any other signing
			// method so a caller cannot downgrade the algorithm.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// The subject is the numeric user ID. JSON numbers arrive as
			// float64; string subjects are accepted for interoperability
			// with identity services that stringify IDs.
			var userID uint64
			switch sub := claims["sub"].(type) {
			case float64:
				userID = uint64(sub)
			case string:
				userID, err = strconv.ParseUint(sub, 10, 64)
				if err != nil {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
				}
			default:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}
			if userID == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}

			c.Set("user_id", userID)
			return next(c)
		}
	}
}
