package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig      `envPrefix:"OPENAUTH_APP_"`
	Server   ServerConfig   `envPrefix:"OPENAUTH_SERVER_"`
	Log      LogConfig      `envPrefix:"OPENAUTH_LOG_"`
	Database DatabaseConfig `envPrefix:"OPENAUTH_DATABASE_"`
	Mail     MailConfig     `envPrefix:"OPENAUTH_MAIL_"`
	TOTP     TOTPConfig     `envPrefix:"OPENAUTH_TOTP_"`
	OTP      OTPConfig      `envPrefix:"OPENAUTH_OTP_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"openauth"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"localhost"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"openauth.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type MailConfig struct {
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME" envDefault:"openauth"`
}

type TOTPConfig struct {
	// Issuer is the fallback issuer label used when an App has no name.
	Issuer string `env:"ISSUER" envDefault:"openauth"`
}

type OTPConfig struct {
	Expiry time.Duration `env:"EXPIRY" envDefault:"5m"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}
