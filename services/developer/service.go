package developer

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/openauthhq/openauth/config"
	"github.com/openauthhq/openauth/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken            = errors.New("email address is already registered")
	ErrPasswordHashingFailed = errors.New("failed to hash password")
	ErrKeyNotFound           = errors.New("no record matches the presented key")
	ErrKeyGenerationFailed   = errors.New("failed to generate a unique key")
	ErrDeveloperNotFound     = errors.New("developer not found")
)

// keyBytes is the entropy of API and secret keys: 32 bytes, 64 hex characters.
const keyBytes = 32

// keyGenAttempts bounds the collision retry loop. A collision at 256 bits
// should never happen; the loop exists to uphold the uniqueness invariant.
const keyGenAttempts = 5

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

// Register creates a Developer account and issues its API key. The key is
// returned only once, in the created record.
func (s *Service) Register(name, email, password string) (*Developer, error) {
	if s.logger != nil {
		s.logger.Info("registering developer", zap.String("email", email))
	}

	var count int64
	if err := s.db.Model(&Developer{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if count > 0 {
		if s.logger != nil {
			s.logger.Warn("developer registration failed - email already registered",
				zap.String("email", email))
		}
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("password hashing failed", zap.Error(err))
		}
		return nil, ErrPasswordHashingFailed
	}

	apiKey, err := s.uniqueKey(&Developer{}, "api_key")
	if err != nil {
		return nil, err
	}

	dev := &Developer{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		APIKey:       apiKey,
	}

	if err := s.db.Create(dev).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to create developer", zap.Error(err), zap.String("email", email))
		}
		return nil, fmt.Errorf("failed to create developer: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("developer registered successfully",
			zap.String("developer_id", dev.ID),
			zap.String("email", email))
	}

	return dev, nil
}

// VerifyPassword checks a plaintext password against a Developer's stored hash.
func (s *Service) VerifyPassword(dev *Developer, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(dev.PasswordHash), []byte(password)); err != nil {
		return ErrDeveloperNotFound
	}
	return nil
}

// CreateApp creates an App owned by dev and issues its secret key.
func (s *Service) CreateApp(dev *Developer, name string) (*App, error) {
	if s.logger != nil {
		s.logger.Info("creating app",
			zap.String("developer_id", dev.ID),
			zap.String("app_name", name))
	}

	secretKey, err := s.uniqueKey(&App{}, "secret_key")
	if err != nil {
		return nil, err
	}

	app := &App{
		DeveloperID: dev.ID,
		Name:        name,
		SecretKey:   secretKey,
	}

	if err := s.db.Create(app).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to create app",
				zap.Error(err),
				zap.String("developer_id", dev.ID))
		}
		return nil, fmt.Errorf("failed to create app: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("app created successfully",
			zap.String("app_id", app.ID),
			zap.String("developer_id", dev.ID))
	}

	return app, nil
}

// FindByAPIKey resolves a presented Developer API key to exactly one Developer.
// Missing and unknown keys are not distinguished.
func (s *Service) FindByAPIKey(key string) (*Developer, error) {
	var dev Developer
	if err := s.db.Where("api_key = ?", key).First(&dev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to look up developer key: %w", err)
	}
	return &dev, nil
}

// FindAppBySecretKey resolves a presented App secret key to exactly one App.
func (s *Service) FindAppBySecretKey(key string) (*App, error) {
	var app App
	if err := s.db.Where("secret_key = ?", key).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to look up app key: %w", err)
	}
	return &app, nil
}

// DeleteDeveloper removes a Developer and everything it owns: Apps, Clients
// and the Clients' factor records.
func (s *Service) DeleteDeveloper(dev *Developer) error {
	if s.logger != nil {
		s.logger.Info("deleting developer", zap.String("developer_id", dev.ID))
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var appIDs []string
		if err := tx.Model(&App{}).Where("developer_id = ?", dev.ID).Pluck("id", &appIDs).Error; err != nil {
			return fmt.Errorf("failed to list apps: %w", err)
		}

		if len(appIDs) > 0 {
			var clientIDs []string
			if err := tx.Table("clients").Where("app_id IN ?", appIDs).Pluck("id", &clientIDs).Error; err != nil {
				return fmt.Errorf("failed to list clients: %w", err)
			}

			if len(clientIDs) > 0 {
				if err := tx.Exec("DELETE FROM totp_devices WHERE client_id IN ?", clientIDs).Error; err != nil {
					return fmt.Errorf("failed to delete totp devices: %w", err)
				}
				if err := tx.Exec("DELETE FROM email_otps WHERE client_id IN ?", clientIDs).Error; err != nil {
					return fmt.Errorf("failed to delete email otps: %w", err)
				}
				if err := tx.Exec("DELETE FROM clients WHERE app_id IN ?", appIDs).Error; err != nil {
					return fmt.Errorf("failed to delete clients: %w", err)
				}
			}

			if err := tx.Where("developer_id = ?", dev.ID).Delete(&App{}).Error; err != nil {
				return fmt.Errorf("failed to delete apps: %w", err)
			}
		}

		if err := tx.Delete(&Developer{}, "id = ?", dev.ID).Error; err != nil {
			return fmt.Errorf("failed to delete developer: %w", err)
		}

		return nil
	})
}

func (s *Service) uniqueKey(model any, column string) (string, error) {
	for attempt := 0; attempt < keyGenAttempts; attempt++ {
		key, err := generateKey()
		if err != nil {
			return "", err
		}

		var count int64
		if err := s.db.Model(model).Where(column+" = ?", key).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check key uniqueness: %w", err)
		}
		if count == 0 {
			return key, nil
		}

		if s.logger != nil {
			s.logger.Warn("key collision detected, regenerating",
				zap.String("column", column),
				zap.Int("attempt", attempt+1))
		}
	}
	return "", ErrKeyGenerationFailed
}

func generateKey() (string, error) {
	bytes := make([]byte, keyBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
