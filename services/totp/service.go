package totp

import (
	"errors"
	"fmt"

	"github.com/openauthhq/openauth/config"
	"github.com/openauthhq/openauth/services/client"
	"github.com/openauthhq/openauth/services/developer"
	"github.com/openauthhq/openauth/services/logging"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDeviceNotFound = errors.New("TOTP device not found for client")

// secretSize is the shared-secret entropy in bytes: 20 bytes, 160 bits.
const secretSize = 20

// Enrollment is the result of a TOTP setup call: the shared secret and the
// otpauth provisioning URI an external encoder turns into a scannable image.
type Enrollment struct {
	Client          *client.Client
	Secret          string
	ProvisioningURI string
}

type Service struct {
	config  *config.Config
	db      *gorm.DB
	clients *client.Service
	logger  *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, clients *client.Service, logger *logging.Service) *Service {
	return &Service{
		config:  cfg,
		db:      db,
		clients: clients,
		logger:  logger,
	}
}

// Enroll finds or creates the Client for (app, externalUserID) and returns its
// TOTP shared secret. Enrollment is idempotent: an existing secret is reused
// and never rotated. New Clients are created with factor type totp and active.
func (s *Service) Enroll(app *developer.App, externalUserID string) (*Enrollment, error) {
	if s.logger != nil {
		s.logger.Info("enrolling TOTP",
			zap.String("app_id", app.ID),
			zap.String("external_user_id", externalUserID))
	}

	c, _, err := s.clients.FindOrCreate(app, externalUserID, client.MFATypeTOTP)
	if err != nil {
		return nil, err
	}

	device, err := s.findDevice(c)
	if err != nil && !errors.Is(err, ErrDeviceNotFound) {
		return nil, err
	}

	if device == nil {
		device, err = s.createDevice(app, c, externalUserID)
		if err != nil {
			return nil, err
		}
	}

	uri := s.provisioningURI(app, externalUserID, device.Secret)

	return &Enrollment{
		Client:          c,
		Secret:          device.Secret,
		ProvisioningURI: uri,
	}, nil
}

func (s *Service) findDevice(c *client.Client) (*TOTPDevice, error) {
	var device TOTPDevice
	if err := s.db.Where("client_id = ?", c.ID).First(&device).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to look up TOTP device: %w", err)
	}
	return &device, nil
}

// createDevice generates a fresh secret and inserts the device. The unique
// index on client_id arbitrates concurrent enrollments for the same new
// Client: exactly one insert wins and everyone reads back the winner's secret.
func (s *Service) createDevice(app *developer.App, c *client.Client, externalUserID string) (*TOTPDevice, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer(app),
		AccountName: externalUserID,
		SecretSize:  secretSize,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("TOTP key generation failed",
				zap.Error(err),
				zap.String("client_id", c.ID))
		}
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	device := &TOTPDevice{
		ClientID: c.ID,
		Secret:   key.Secret(),
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoNothing: true,
	}).Create(device)
	if result.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to store TOTP device",
				zap.Error(result.Error),
				zap.String("client_id", c.ID))
		}
		return nil, fmt.Errorf("failed to store TOTP device: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return s.findDevice(c)
	}

	if s.logger != nil {
		s.logger.Info("TOTP device created",
			zap.String("client_id", c.ID),
			zap.String("device_id", device.ID))
	}

	return device, nil
}

func (s *Service) provisioningURI(app *developer.App, accountName, secret string) string {
	issuer := s.issuer(app)
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s", issuer, accountName, secret, issuer)
}

func (s *Service) issuer(app *developer.App) string {
	if app.Name != "" {
		return app.Name
	}
	return s.config.TOTP.Issuer
}
