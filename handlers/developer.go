package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openauthhq/openauth/middleware/devkey"
	"github.com/openauthhq/openauth/services/developer"
)

type RegisterDeveloperRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateAppRequest struct {
	AppName string `json:"app_name" validate:"required"`
}

// RegisterDeveloper creates a tenant account. The API key appears in this
// response and is never exposed again.
func (h *Handlers) RegisterDeveloper(c echo.Context) error {
	var req RegisterDeveloperRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	dev, err := h.developers.Register(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, developer.ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "email address is already registered")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to register developer")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success":           true,
		"developer_api_key": dev.APIKey,
	})
}

// CreateApp creates an App under the authenticated Developer. The secret key
// appears in this response and is never exposed again.
func (h *Handlers) CreateApp(c echo.Context) error {
	dev := devkey.GetDeveloper(c)
	if dev == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid developer key")
	}

	var req CreateAppRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	app, err := h.developers.CreateApp(dev, req.AppName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create app")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success":        true,
		"app_id":         app.ID,
		"app_secret_key": app.SecretKey,
	})
}
