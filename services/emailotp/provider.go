package emailotp

import (
	"github.com/openauthhq/openauth/config"
	"github.com/openauthhq/openauth/services/client"
	"github.com/openauthhq/openauth/services/logging"
	"github.com/openauthhq/openauth/services/mail"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewProvider(cfg *config.Config, db *gorm.DB, clients *client.Service, mailService *mail.Service, logger *logging.Service) *Service {
	return NewService(cfg, db, clients, mailService, logger)
}

var Module = fx.Options(
	fx.Provide(NewProvider),
)
