package client

import (
	"errors"
	"fmt"

	"github.com/openauthhq/openauth/config"
	"github.com/openauthhq/openauth/services/developer"
	"github.com/openauthhq/openauth/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrClientNotFound = errors.New("client not found")

// Status is the read-only projection of a Client's configured factor.
type Status struct {
	Exists  bool   `json:"exists"`
	MFAType string `json:"mfa_type,omitempty"`
	Active  bool   `json:"active"`
}

type Service struct {
	config *config.Config
	db     *gorm.DB
	logger *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		db:     db,
		logger: logger,
	}
}

// FindOrCreate returns the Client for (app, externalUserID), creating it with
// the given factor type if absent. The insert relies on the unique index over
// (app_id, external_user_id) so concurrent calls for a new identifier settle
// on exactly one row; losers of the race fall through to the fetch.
func (s *Service) FindOrCreate(app *developer.App, externalUserID, mfaType string) (*Client, bool, error) {
	c := &Client{
		AppID:          app.ID,
		ExternalUserID: externalUserID,
		MFAType:        mfaType,
		Active:         true,
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "app_id"}, {Name: "external_user_id"}},
		DoNothing: true,
	}).Create(c)
	if result.Error != nil {
		if s.logger != nil {
			s.logger.Error("failed to upsert client",
				zap.Error(result.Error),
				zap.String("app_id", app.ID),
				zap.String("external_user_id", externalUserID))
		}
		return nil, false, fmt.Errorf("failed to create client: %w", result.Error)
	}

	created := result.RowsAffected > 0

	existing, err := s.Find(app, externalUserID)
	if err != nil {
		return nil, false, err
	}

	if created && s.logger != nil {
		s.logger.Info("client created",
			zap.String("client_id", existing.ID),
			zap.String("app_id", app.ID),
			zap.String("mfa_type", mfaType))
	}

	return existing, created, nil
}

// Find looks up the Client for (app, externalUserID). Every lookup is scoped
// by the owning App; a Client is never resolved by external identifier alone.
func (s *Service) Find(app *developer.App, externalUserID string) (*Client, error) {
	var c Client
	if err := s.db.Where("app_id = ? AND external_user_id = ?", app.ID, externalUserID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to look up client: %w", err)
	}
	return &c, nil
}

// Status reports whether a Client exists under app and, if so, its configured
// factor type and active flag. No side effects.
func (s *Service) Status(app *developer.App, externalUserID string) (*Status, error) {
	c, err := s.Find(app, externalUserID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return &Status{Exists: false}, nil
		}
		return nil, err
	}

	return &Status{
		Exists:  true,
		MFAType: c.MFAType,
		Active:  c.Active,
	}, nil
}
