package handlers

import (
	"github.com/openauthhq/openauth/middleware/appkey"
	"github.com/openauthhq/openauth/middleware/devkey"
	"github.com/openauthhq/openauth/server"
	"github.com/openauthhq/openauth/services/client"
	"github.com/openauthhq/openauth/services/developer"
	"github.com/openauthhq/openauth/services/emailotp"
	"github.com/openauthhq/openauth/services/logging"
	"github.com/openauthhq/openauth/services/totp"
	"go.uber.org/fx"
)

type Handlers struct {
	developers *developer.Service
	clients    *client.Service
	totp       *totp.Service
	emailOTP   *emailotp.Service
	logger     *logging.Service
}

func New(developers *developer.Service, clients *client.Service, totpService *totp.Service, emailOTP *emailotp.Service, logger *logging.Service) *Handlers {
	return &Handlers{
		developers: developers,
		clients:    clients,
		totp:       totpService,
		emailOTP:   emailOTP,
		logger:     logger,
	}
}

// RegisterRoutes wires the API surface: developer-scope operations behind the
// X-Developer-Key header, MFA operations behind X-App-Secret.
func RegisterRoutes(srv *server.Server, h *Handlers) {
	srv.Post("/developers/register", h.RegisterDeveloper)
	srv.Post("/developers/apps", h.CreateApp, devkey.RequireDeveloperKey(h.developers))

	mfa := srv.Group("/mfa", appkey.RequireAppKey(h.developers))
	mfa.POST("/totp/setup", h.TOTPSetup)
	mfa.POST("/email/setup", h.EmailSetup)
	mfa.POST("/email/send", h.EmailSend)
	mfa.POST("/email/verify", h.EmailVerify)
	mfa.GET("/status", h.MFAStatus)
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(RegisterRoutes),
)
