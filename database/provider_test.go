package database

import (
	"testing"

	"github.com/openauthhq/openauth/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testModel struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestProvideDatabase_Sqlite(t *testing.T) {
	cfg := config.Config{
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
	}

	db, err := ProvideDatabase(cfg, WithModels(&testModel{}), nil)

	require.NoError(t, err)
	require.NotNil(t, db)
	assert.True(t, db.Migrator().HasTable(&testModel{}))
}

func TestProvideDatabase_NoAutoMigrate(t *testing.T) {
	cfg := config.Config{
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
	}

	db, err := ProvideDatabase(cfg, WithModels(&testModel{}), nil)

	require.NoError(t, err)
	assert.False(t, db.Migrator().HasTable(&testModel{}))
}

func TestProvideDatabase_UnsupportedDriver(t *testing.T) {
	cfg := config.Config{
		Database: config.DatabaseConfig{
			Driver: "oracle",
		},
	}

	db, err := ProvideDatabase(cfg, nil, nil)

	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
