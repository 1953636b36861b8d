package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDecodeDefaults(t *testing.T) {
	v := newViper()
	v.Set("security.jwtsecret", "s3cret")

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, int64(1000*MiB), cfg.Quota.AccountCeilingBytes)
	assert.Equal(t, int64(10*MiB), cfg.Quota.ObjectCeilingBytes)
	assert.Equal(t, 8, cfg.Upload.DefaultNameLength)
	assert.Equal(t, time.Hour, cfg.Security.TokenTTL)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "bcrypt", cfg.Security.PasswordAlgorithm)
	assert.Equal(t, 10, cfg.Throttle.Requests)
	assert.Equal(t, time.Minute, cfg.Throttle.Window)
}

func TestDecodeEnvironmentOverrides(t *testing.T) {
	t.Setenv("PIXELDUST_SECURITY_JWTSECRET", "from-env")
	t.Setenv("PIXELDUST_QUOTA_ACCOUNTCEILINGBYTES", "2048")
	t.Setenv("PIXELDUST_ALLOWCORSORIGINS", "https://a.example,https://b.example")

	v := viper.New()
	v.SetEnvPrefix("PIXELDUST")
	v.SetEnvKeyReplacer(replacer())
	v.AutomaticEnv()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Security.JWTSecret)
	assert.Equal(t, int64(2048), cfg.Quota.AccountCeilingBytes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowCORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*viper.Viper)
	}{
		{"missing secret", func(v *viper.Viper) {}},
		{"zero account ceiling", func(v *viper.Viper) {
			v.Set("security.jwtsecret", "x")
			v.Set("quota.accountceilingbytes", 0)
		}},
		{"unknown driver", func(v *viper.Viper) {
			v.Set("security.jwtsecret", "x")
			v.Set("storage.driver", "ftp")
		}},
		{"non-positive name length", func(v *viper.Viper) {
			v.Set("security.jwtsecret", "x")
			v.Set("upload.defaultnamelength", -1)
		}},
		{"name length above maximum", func(v *viper.Viper) {
			v.Set("security.jwtsecret", "x")
			v.Set("upload.defaultnamelength", MaxNameLength+1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			tt.mutate(v)
			_, err := decode(v)
			assert.Error(t, err)
		})
	}
}

func TestPostgresInMemory(t *testing.T) {
	assert.True(t, PostgresConfig{DSN: "memory://"}.InMemory())
	assert.False(t, PostgresConfig{DSN: "postgresql://localhost/db"}.InMemory())
}

func TestValidateNameLengthBounds(t *testing.T) {
	for _, n := range []int{1, MaxNameLength} {
		v := newViper()
		v.Set("security.jwtsecret", "x")
		v.Set("upload.defaultnamelength", n)
		cfg, err := decode(v)
		require.NoError(t, err, n)
		assert.Equal(t, n, cfg.Upload.DefaultNameLength)
	}
}
