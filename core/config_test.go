package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	t.Setenv("ENV", "test")

	t.Run("defaults", func(t *testing.T) {
		conf := NewConfig()
		assert.Equal(t, "TEST", conf.Env)
		assert.True(t, conf.TestMode)
		assert.Equal(t, EngineMemory, conf.Database.Engine)
		assert.Equal(t, 10*time.Second, conf.Database.ConnectTimeout)
		assert.Equal(t, 5*time.Second, conf.Nats.ConnectTimeout)
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("RATIBA_DATABASE_ENGINE", "SQLite")
		t.Setenv("RATIBA_DATABASE_CONNECTTIMEOUT", "30s")
		t.Setenv("RATIBA_NATS_CONNECTTIMEOUT", "2s")
		t.Setenv("RATIBA_NATS_URL", "nats://localhost:4222")

		conf := NewConfig()
		assert.Equal(t, EngineSQLite, conf.Database.Engine)
		assert.Equal(t, 30*time.Second, conf.Database.ConnectTimeout)
		assert.Equal(t, 2*time.Second, conf.Nats.ConnectTimeout)
		assert.Equal(t, "nats://localhost:4222", conf.Nats.URL)
	})
}
