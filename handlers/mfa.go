package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openauthhq/openauth/middleware/appkey"
	"github.com/openauthhq/openauth/services/emailotp"
)

type TOTPSetupRequest struct {
	ExternalUserID string `json:"external_user_id" validate:"required"`
}

type EmailSetupRequest struct {
	ExternalUserID string `json:"external_user_id" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
}

type EmailSendRequest struct {
	ExternalUserID string `json:"external_user_id" validate:"required"`
}

type EmailVerifyRequest struct {
	ExternalUserID string `json:"external_user_id" validate:"required"`
	OTP            string `json:"otp" validate:"required"`
}

// TOTPSetup enrolls a Client in TOTP and returns the shared secret plus the
// provisioning URI for external QR encoding. Repeat calls return the same
// secret.
func (h *Handlers) TOTPSetup(c echo.Context) error {
	app := appkey.GetApp(c)
	if app == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid app secret")
	}

	var req TOTPSetupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	enrollment, err := h.totp.Enroll(app, req.ExternalUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to set up TOTP")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success":          true,
		"secret_key":       enrollment.Secret,
		"provisioning_uri": enrollment.ProvisioningURI,
	})
}

// EmailSetup configures email OTP for a Client, creating it if necessary.
func (h *Handlers) EmailSetup(c echo.Context) error {
	app := appkey.GetApp(c)
	if app == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid app secret")
	}

	var req EmailSetupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.emailOTP.Setup(app, req.ExternalUserID, req.Email); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to set up email MFA")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"message": "Email MFA setup completed",
	})
}

// EmailSend issues a fresh OTP to the Client's configured address. The
// plaintext code leaves only via the mailer.
func (h *Handlers) EmailSend(c echo.Context) error {
	app := appkey.GetApp(c)
	if app == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid app secret")
	}

	var req EmailSendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.emailOTP.Send(app, req.ExternalUserID); err != nil {
		if errors.Is(err, emailotp.ErrNotConfigured) {
			return echo.NewHTTPError(http.StatusNotFound, "email MFA not set up")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to send OTP")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "OTP sent",
	})
}

// EmailVerify consumes the Client's newest outstanding OTP. Wrong, expired,
// used and superseded codes all produce the same rejection.
func (h *Handlers) EmailVerify(c echo.Context) error {
	app := appkey.GetApp(c)
	if app == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid app secret")
	}

	var req EmailVerifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	verified, err := h.emailOTP.Verify(app, req.ExternalUserID, req.OTP)
	if err != nil {
		if errors.Is(err, emailotp.ErrNotConfigured) {
			return echo.NewHTTPError(http.StatusNotFound, "client not found")
		}
		if errors.Is(err, emailotp.ErrInvalidOrExpired) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired OTP")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to verify OTP")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"verified": verified,
	})
}

// MFAStatus reports the Client's configured factor and active flag.
func (h *Handlers) MFAStatus(c echo.Context) error {
	app := appkey.GetApp(c)
	if app == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid app secret")
	}

	externalUserID := c.QueryParam("external_user_id")
	if externalUserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "external_user_id is required")
	}

	status, err := h.clients.Status(app, externalUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to query MFA status")
	}

	return c.JSON(http.StatusOK, status)
}
