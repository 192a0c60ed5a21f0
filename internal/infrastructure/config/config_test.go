package config

import (
	"errors"
	"testing"
	"time"

	"recipe-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_URL", "https://inference.test/v1/models/m:generateContent")
	t.Setenv("GEMINI_API_KEY", "test-key-123456")
	t.Setenv("STORE_DRIVER", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 2, cfg.Gemini.MaxRetries)
	assert.Equal(t, time.Second, cfg.Gemini.RetryDelay)
	assert.Equal(t, 3, cfg.Recipe.MaxRecipes)
	assert.Equal(t, 10, cfg.Recipe.MaxIngredients)
	assert.Equal(t, 2, cfg.Recipe.MinIngredientLength)
	assert.Equal(t, 50, cfg.Recipe.MaxIngredientLength)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Queue.Workers)
	assert.Equal(t, 100, cfg.Queue.MaxSize)
}

func TestLoadConfigMissingEndpoint(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GEMINI_API_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)

	var cfgErr *common.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "GEMINI_API_URL", cfgErr.Field)
}

func TestLoadConfigMissingKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GEMINI_API_KEY", "")

	_, err := LoadConfig()

	var cfgErr *common.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Field)
}

func TestLoadConfigUnknownStoreDriver(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORE_DRIVER", "firestore")

	_, err := LoadConfig()

	var cfgErr *common.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "store.driver", cfgErr.Field)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcd...wxyz", maskAPIKey("abcdefghijklmnopqrstuvwxyz"))
}
