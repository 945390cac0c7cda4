package testutils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a throwaway sqlite database in the test's temp directory.
// A file-backed database (rather than :memory:) keeps the connection pool
// coherent for concurrency tests; the busy timeout lets parallel writers wait
// instead of failing.
func SetupTestDB(t *testing.T, models ...any) *gorm.DB {
	dsn := filepath.Join(t.TempDir(), "openauth_test.db") + "?_busy_timeout=5000"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	if len(models) > 0 {
		err = db.AutoMigrate(models...)
		require.NoError(t, err)
	}

	return db
}

func AssertErrorType(t *testing.T, expected error, actual error) {
	require.Error(t, actual)
	require.Equal(t, expected.Error(), actual.Error())
}
