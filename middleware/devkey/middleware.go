package devkey

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openauthhq/openauth/services/developer"
)

// HeaderName carries the Developer API key on developer-scope operations.
const HeaderName = "X-Developer-Key"

const developerKey = "_devkey_developer"

// RequireDeveloperKey resolves the X-Developer-Key header to exactly one
// Developer and attaches it to the request context. Absent and unrecognized
// keys produce the same response so tenants cannot be enumerated.
func RequireDeveloperKey(developers *developer.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderName)
			if key == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid developer key")
			}

			dev, err := developers.FindByAPIKey(key)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid developer key")
			}

			c.Set(developerKey, dev)

			return next(c)
		}
	}
}

func GetDeveloper(c echo.Context) *developer.Developer {
	if dev, ok := c.Get(developerKey).(*developer.Developer); ok {
		return dev
	}
	return nil
}
