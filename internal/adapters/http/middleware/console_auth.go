package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type Mode string

const (
	ModeNone   Mode = "none"
	ModeAPIKey Mode = "api_key"
)

const APIKeyHeader = "X-API-Key"

func ParseAuthMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case "":
		return ModeNone, nil
	case ModeNone, ModeAPIKey:
		return mode, nil
	default:
		return "", errors.New("invalid auth mode")
	}
}

// ConsoleAuth gates the local console itself, independently of the remote
// session. Paths in open bypass the check.
func ConsoleAuth(mode Mode, apiKey string, open ...string) (echo.MiddlewareFunc, error) {
	if mode == ModeAPIKey && apiKey == "" {
		return nil, errors.New("an api key is required when auth mode is api_key")
	}
	skip := make(map[string]struct{}, len(open))
	for _, p := range open {
		skip[p] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch mode {
			case ModeNone:
				return next(c)
			case ModeAPIKey:
				if _, ok := skip[c.Request().URL.Path]; ok {
					return next(c)
				}
				given := c.Request().Header.Get(APIKeyHeader)
				if subtle.ConstantTimeCompare([]byte(given), []byte(apiKey)) != 1 {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
				}
				return next(c)
			default:
				return echo.NewHTTPError(http.StatusInternalServerError, "invalid auth mode")
			}
		}
	}, nil
}
