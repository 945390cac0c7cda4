package emailotp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/openauthhq/openauth/config"
	"github.com/openauthhq/openauth/services/client"
	"github.com/openauthhq/openauth/services/developer"
	"github.com/openauthhq/openauth/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotConfigured means the Client has not completed email MFA setup.
	ErrNotConfigured = errors.New("email MFA is not configured for client")
	// ErrInvalidOrExpired deliberately covers wrong, expired, used and
	// superseded codes alike.
	ErrInvalidOrExpired = errors.New("invalid or expired OTP")
)

// codeMin and codeSpan define the 6-digit code space [100000, 999999].
const (
	codeMin  = 100000
	codeSpan = 900000
)

// Mailer is the outbound delivery collaborator. Delivery happens after the
// OTP row is persisted and never blocks the caller's response.
type Mailer interface {
	SendPlain(to, subject, body string) error
}

type Service struct {
	config  *config.Config
	db      *gorm.DB
	clients *client.Service
	mailer  Mailer
	logger  *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, clients *client.Service, mailer Mailer, logger *logging.Service) *Service {
	return &Service{
		config:  cfg,
		db:      db,
		clients: clients,
		mailer:  mailer,
		logger:  logger,
	}
}

// Setup configures (or reconfigures) a Client for email OTP. The factor type,
// email and active flag are overwritten unconditionally: a Client previously
// enrolled in TOTP is switched to email and its TOTPDevice left in place.
func (s *Service) Setup(app *developer.App, externalUserID, email string) error {
	if s.logger != nil {
		s.logger.Info("setting up email MFA",
			zap.String("app_id", app.ID),
			zap.String("external_user_id", externalUserID))
	}

	c, _, err := s.clients.FindOrCreate(app, externalUserID, client.MFATypeEmail)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"mfa_type": client.MFATypeEmail,
		"email":    email,
		"active":   true,
	}
	if err := s.db.Model(&client.Client{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to update client for email MFA",
				zap.Error(err),
				zap.String("client_id", c.ID))
		}
		return fmt.Errorf("failed to configure email MFA: %w", err)
	}

	return nil
}

// Send issues a fresh 6-digit code for the Client: the sha256 digest and
// expiry are persisted first, then the plaintext goes out via the mailer.
// The plaintext code is never stored and never appears in a response.
func (s *Service) Send(app *developer.App, externalUserID string) error {
	c, err := s.clients.Find(app, externalUserID)
	if err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			return ErrNotConfigured
		}
		return err
	}

	if c.MFAType != client.MFATypeEmail || !c.Active || c.Email == "" {
		if s.logger != nil {
			s.logger.Warn("OTP send rejected - client not configured for email MFA",
				zap.String("client_id", c.ID),
				zap.String("mfa_type", c.MFAType),
				zap.Bool("active", c.Active))
		}
		return ErrNotConfigured
	}

	code, err := generateCode()
	if err != nil {
		if s.logger != nil {
			s.logger.Error("OTP code generation failed", zap.Error(err))
		}
		return err
	}

	record := &EmailOTP{
		ClientID:  c.ID,
		Email:     c.Email,
		CodeHash:  hashCode(code),
		ExpiresAt: time.Now().Add(s.config.OTP.Expiry),
	}

	if err := s.db.Create(record).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to store OTP",
				zap.Error(err),
				zap.String("client_id", c.ID))
		}
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("OTP issued",
			zap.String("client_id", c.ID),
			zap.String("otp_id", record.ID),
			zap.Time("expires_at", record.ExpiresAt))
	}

	// Delivery is fire-and-forget with respect to the caller: the row is
	// already persisted and a slow or failing send must not undo it.
	go s.deliver(c.Email, code, record.ID)

	return nil
}

func (s *Service) deliver(email, code, otpID string) {
	body := fmt.Sprintf("Your verification code is %s", code)
	if err := s.mailer.SendPlain(email, "Your verification code", body); err != nil {
		if s.logger != nil {
			s.logger.Error("OTP delivery failed",
				zap.Error(err),
				zap.String("otp_id", otpID))
		}
		return
	}

	if s.logger != nil {
		s.logger.Debug("OTP delivered", zap.String("otp_id", otpID))
	}
}

// Verify checks a submitted code against the Client's newest outstanding OTP.
// Only the most recently issued unused row is ever eligible: once a newer code
// has been sent, older ones stop being accepted even while still unexpired.
// Success flips the used flag exactly once; a concurrent duplicate submission
// loses the conditional update and fails.
func (s *Service) Verify(app *developer.App, externalUserID, code string) (bool, error) {
	c, err := s.clients.Find(app, externalUserID)
	if err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			return false, ErrNotConfigured
		}
		return false, err
	}

	// The active flag is intentionally not checked here, matching issuance-
	// time enforcement only.
	if c.MFAType != client.MFATypeEmail {
		return false, ErrNotConfigured
	}

	var record EmailOTP
	err = s.db.Where("client_id = ? AND used = ?", c.ID, false).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logger != nil {
				s.logger.Warn("OTP verification failed - no outstanding code",
					zap.String("client_id", c.ID))
			}
			return false, ErrInvalidOrExpired
		}
		return false, fmt.Errorf("failed to look up OTP: %w", err)
	}

	submitted := hashCode(code)
	if subtle.ConstantTimeCompare([]byte(record.CodeHash), []byte(submitted)) != 1 {
		if s.logger != nil {
			s.logger.Warn("OTP verification failed - code mismatch",
				zap.String("client_id", c.ID),
				zap.String("otp_id", record.ID))
		}
		return false, ErrInvalidOrExpired
	}

	if time.Now().After(record.ExpiresAt) {
		if s.logger != nil {
			s.logger.Warn("OTP verification failed - code expired",
				zap.String("client_id", c.ID),
				zap.String("otp_id", record.ID))
		}
		return false, ErrInvalidOrExpired
	}

	result := s.db.Model(&EmailOTP{}).
		Where("id = ? AND used = ?", record.ID, false).
		Update("used", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to consume OTP: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if s.logger != nil {
			s.logger.Warn("OTP verification failed - code already consumed",
				zap.String("client_id", c.ID),
				zap.String("otp_id", record.ID))
		}
		return false, ErrInvalidOrExpired
	}

	if s.logger != nil {
		s.logger.Info("OTP verified",
			zap.String("client_id", c.ID),
			zap.String("otp_id", record.ID))
	}

	return true, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
