package totp

import (
	"github.com/openauthhq/openauth/config"
	"github.com/openauthhq/openauth/services/client"
	"github.com/openauthhq/openauth/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewProvider(cfg *config.Config, db *gorm.DB, clients *client.Service, logger *logging.Service) *Service {
	return NewService(cfg, db, clients, logger)
}

var Module = fx.Options(
	fx.Provide(NewProvider),
)
