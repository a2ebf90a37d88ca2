package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "http://localhost:5173", cfg.CORSOrigin)
	assert.Equal(t, time.Minute, cfg.ListCacheTTL)
	assert.False(t, cfg.CacheEnabled())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "0.0.0.0:8001", cfg.Addr())
}

func TestLoad_MongoRequiresURI(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGODB_SECRET_ID", "")

	_, err := Load("testdata/does-not-exist.env")
	require.Error(t, err)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := Load("testdata/does-not-exist.env")
	require.ErrorContains(t, err, "unknown STORE_DRIVER")
}

func TestLoad_DynamoAndCache(t *testing.T) {
	t.Setenv("STORE_DRIVER", "dynamodb")
	t.Setenv("CONTACT_TABLE", "contacts-dev")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LIST_CACHE_TTL", "30s")

	cfg, err := Load("testdata/does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, "contacts-dev", cfg.ContactTable)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 30*time.Second, cfg.ListCacheTTL)
}
