package di

import (
	"fmt"
	"path/filepath"
	"testing"

	"TechMart/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, database string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(fmt.Sprintf(`
environment: test
logger:
  level: error
metrics:
  enabled: true
rate_limit:
  enabled: true
%s
`, database)))
	require.NoError(t, err)
	return cfg
}

// With every optional backend disabled the injector must still build the
// whole graph on the embedded database.
func TestInitializeAppStandalone(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "techmart.db")
	cfg := testConfig(t, fmt.Sprintf("database:\n  driver: sqlite\n  dsn: %q", dsn))

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	require.NotNil(t, cleanup)
	cleanup()
}

func TestInitializeAppDatabaseDown(t *testing.T) {
	cfg := testConfig(t, `database:
  driver: postgres
  dsn: "postgres://techmart@127.0.0.1:1/techmart?sslmode=disable&connect_timeout=1"`)

	app, cleanup, err := InitializeApp(cfg)
	assert.Error(t, err)
	assert.Nil(t, app)
	assert.Nil(t, cleanup)
}
