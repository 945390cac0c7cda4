package testutils

import (
	"time"

	"github.com/openauthhq/openauth/config"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "openauth-test",
		},
		TOTP: config.TOTPConfig{
			Issuer: "openauth-test",
		},
		OTP: config.OTPConfig{
			Expiry: 5 * time.Minute,
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
	}
}
