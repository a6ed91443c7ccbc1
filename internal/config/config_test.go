package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := fromViper(newViper(map[string]interface{}{
		"STORAGE_TYPE":      "MEMORY",
		"JWT_ACCESS_SECRET": testSecret,
	}))

	require.NoError(t, cfg.Validate())
	assert.Equal(t, StorageTypeMemory, cfg.Storage.Type)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Discovery.DecisionWindow)
	assert.Equal(t, 2800, cfg.Discovery.DefaultMaxReputation)
	assert.Equal(t, 500, cfg.Ethos.BulkLimit)
	assert.Equal(t, 5*time.Minute, cfg.Ethos.CacheTTL)
	assert.False(t, cfg.Redis.Enabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]interface{}
		wantErr string
	}{
		{
			name:    "postgres needs a host",
			values:  map[string]interface{}{"JWT_ACCESS_SECRET": testSecret},
			wantErr: "database host",
		},
		{
			name: "postgres complete",
			values: map[string]interface{}{
				"JWT_ACCESS_SECRET": testSecret,
				"DB_HOST":           "localhost",
				"DB_USER":           "ethos",
				"DB_NAME":           "ethospair",
			},
		},
		{
			name:    "unknown storage",
			values:  map[string]interface{}{"STORAGE_TYPE": "sqlite", "JWT_ACCESS_SECRET": testSecret},
			wantErr: "unknown storage type",
		},
		{
			name:    "short secret",
			values:  map[string]interface{}{"STORAGE_TYPE": "memory", "JWT_ACCESS_SECRET": "short"},
			wantErr: "at least 32",
		},
		{
			name: "bulk limit over api cap",
			values: map[string]interface{}{
				"STORAGE_TYPE":      "memory",
				"JWT_ACCESS_SECRET": testSecret,
				"ETHOS_BULK_LIMIT":  501,
			},
			wantErr: "bulk limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fromViper(newViper(tt.values)).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", db.GetDSN())
}
