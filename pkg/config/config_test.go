package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, 24*time.Hour, cfg.Wizard.TTL)
	assert.Equal(t, "https://brasilapi.com.br", cfg.Postal.BaseURL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.yml")
	content := []byte("server:\n  port: \"9090\"\ncommerce:\n  base_url: http://api.local\n  timeout: 5s\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("STOREFRONT_COMMERCE_BASE_URL", "http://env.local")
	t.Setenv("STOREFRONT_WIZARD_TTL", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://env.local", cfg.Commerce.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Commerce.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.Wizard.TTL)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_DB_DRIVER", "mysql")

	_, err := Load("")
	assert.ErrorContains(t, err, "db.driver")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
