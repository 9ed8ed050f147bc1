package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv(EnvKeyFleetDBType, "memory")
	t.Setenv(EnvKeyFleetDefaultRate, "2.5")
	t.Setenv(EnvKeyFleetDefaultBurst, "4")
	t.Setenv(EnvKeyFleetHttpHostPort, "")
	t.Setenv(EnvKeyFleetTickInterval, "")
	t.Setenv(EnvKeyFleetWsSendBuffer, "")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.DBType)
	assert.Equal(t, DefaultHttpHostPort, cfg.HttpHostPort)
	assert.Equal(t, 2.5, cfg.DefaultRate)
	assert.Equal(t, 4, cfg.DefaultBurst)
	assert.Equal(t, 5*time.Second, cfg.TickInterval)
	assert.Equal(t, DefaultWsSendBuffer, cfg.WsSendBuffer)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv(EnvKeyFleetTickInterval, "250ms")
	t.Setenv(EnvKeyFleetWsSendBuffer, "8")
	t.Setenv(EnvKeyFleetHttpHostPort, " :8080 ")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 8, cfg.WsSendBuffer)
	assert.Equal(t, ":8080", cfg.HttpHostPort)
}

func TestLoadConfig_EdgeCases(t *testing.T) {
	{
		setBaseEnv(t)
		t.Setenv(EnvKeyFleetDBType, "postgres")
		_, err := LoadConfig()
		assert.Error(t, err)
	}

	{
		setBaseEnv(t)
		t.Setenv(EnvKeyFleetDefaultRate, "fast")
		_, err := LoadConfig()
		assert.Error(t, err)
	}

	{
		setBaseEnv(t)
		t.Setenv(EnvKeyFleetDefaultBurst, "1.5")
		_, err := LoadConfig()
		assert.Error(t, err)
	}

	{
		setBaseEnv(t)
		t.Setenv(EnvKeyFleetTickInterval, "-1s")
		_, err := LoadConfig()
		assert.Error(t, err)
	}

	{
		setBaseEnv(t)
		t.Setenv(EnvKeyFleetWsSendBuffer, "0")
		_, err := LoadConfig()
		assert.Error(t, err)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3, 0, 100))
	assert.Equal(t, 100, Clamp(130, 0, 100))
	assert.Equal(t, 42, Clamp(42, 0, 100))
}

func TestGoEnv(t *testing.T) {
	t.Setenv(EnvKeyGoEnv, "development")
	assert.True(t, IsDevelopment())
	assert.False(t, IsProduction())

	t.Setenv(EnvKeyGoEnv, "production")
	assert.False(t, IsDevelopment())
	assert.True(t, IsProduction())

	t.Setenv(EnvKeyGoEnv, "")
	assert.False(t, IsDevelopment())
	assert.False(t, IsProduction())
}
