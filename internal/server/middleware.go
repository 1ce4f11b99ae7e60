package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"OtaUpdateServer/internal/auth"

	"github.com/labstack/echo/v4"
)

// Validates the ApiKey passed via Authorization header(if any)
// and sets the appId of the key on the echo Context
func (s *Server) APIKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		apiKey := c.Request().Header.Get("Authorization")
		if apiKey == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No authorization")
		}

		apiKey = strings.TrimPrefix(apiKey, "Bearer ")

		hashedApiKey := auth.HashApiKey(apiKey)

		if ok := s.db.ValidateApiKey(hashedApiKey); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
		}

		appId, err := s.db.GetAppId(hashedApiKey)
		if err != nil {
			log.Println(err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Could not get info based on api key")
		}

		c.Set("appId", appId)

		return next(c)
	}
}

// Validates the publisher session token passed via Authorization header and
// sets the session entity on the echo Context
func (s *Server) AppAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionId := c.Request().Header.Get("Authorization")
		if sessionId == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}

		sessionId = strings.TrimPrefix(sessionId, "Bearer ")

		session, err := s.db.GetAuthSession(sessionId)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid session")
		}

		if session.Expiry < time.Now().Unix() {
			return echo.NewHTTPError(http.StatusUnauthorized, "Session expired")
		}

		c.Set("session", session)

		return next(c)
	}
}
