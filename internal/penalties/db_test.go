package penalties

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return openDSN(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}

// openFileDB backs the connection with a real file so goroutines get their own
// connections. Immediate transactions queue on the busy timeout instead of
// failing on lock upgrade.
func openFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "penalties.db")
	return openDSN(t, fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate", path))
}

func openDSN(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
