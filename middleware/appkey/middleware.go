package appkey

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openauthhq/openauth/services/developer"
)

// HeaderName carries the App secret key on app-scope MFA operations.
const HeaderName = "X-App-Secret"

const appKey = "_appkey_app"

// RequireAppKey resolves the X-App-Secret header to exactly one App and
// attaches it to the request context, establishing the tenant scope every
// downstream handler operates in. Absent and unrecognized keys produce the
// same response so tenants cannot be enumerated.
func RequireAppKey(developers *developer.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderName)
			if key == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid app secret")
			}

			app, err := developers.FindAppBySecretKey(key)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid app secret")
			}

			c.Set(appKey, app)

			return next(c)
		}
	}
}

func GetApp(c echo.Context) *developer.App {
	if app, ok := c.Get(appKey).(*developer.App); ok {
		return app
	}
	return nil
}
