package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	errLoginRequired      = echo.NewHTTPError(http.StatusUnauthorized, "login required")
	errAdminLoginRequired = echo.NewHTTPError(http.StatusUnauthorized, "admin login required")
)

// loadSession puts the session claims in the context. Missing, expired or tampered cookies yield an empty session.
func loadSession(s *sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims := Claims{}
			if cookie, err := ctx.Cookie(s.cookie); err == nil && cookie.Value != "" {
				if parsed, err := s.parseToken(cookie.Value); err == nil {
					claims = parsed
				}
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

func studentRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if getContextClaims(ctx).Student == nil {
			return errLoginRequired
		}
		return next(ctx)
	}
}

func adminRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if getContextClaims(ctx).Admin == nil {
			return errAdminLoginRequired
		}
		return next(ctx)
	}
}
