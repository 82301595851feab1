package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// clearEnv blanks every override Load consults so host env vars cannot
// leak into assertions. Load treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"RABBITMQ_HOST", "RABBITMQ_PORT", "RABBITMQ_USER", "RABBITMQ_PASSWORD", "RABBITMQ_VHOST",
		"REDIS_HOST", "REDIS_PORT", "REDIS_DB",
		"WS_PORT", "VISIT_SERVICE_PORT", "LOCATION_SERVICE_PORT", "ADMIN_SERVICE_PORT",
		"JWT_SECRET", "JWT_EXPIRY_MINUTES",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWhenConfigDirMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_DIR", filepath.Join(t.TempDir(), "does-not-exist"))

	cfg := Load()

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 3000, cfg.Services.VisitServicePort)
	assert.Equal(t, 3001, cfg.Services.LocationServicePort)
	assert.Equal(t, 3004, cfg.Services.AdminServicePort)
	assert.Equal(t, "dev_secret", cfg.JWT.Secret)
	assert.Equal(t, 60, cfg.JWT.ExpiryMinutes)
}

func TestLoadReadsYAMLFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "db.yaml", "host: db.internal\nport: 6543\nuser: svc\npassword: s3cret\ndatabase: visits\nsslmode: require\n")
	writeFile(t, dir, "service.yaml", "visit_service: 4000\nlocation_service: 4001\nadmin_service: 4004\n")
	writeFile(t, dir, "jwt.yaml", "jwt:\n  secret: topsecret\n  expiry_minutes: 15\n")
	t.Setenv("CONFIG_DIR", dir)

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 4000, cfg.Services.VisitServicePort)
	assert.Equal(t, "topsecret", cfg.JWT.Secret)
	assert.Equal(t, 15, cfg.JWT.ExpiryMinutes)
}

func TestLoadFlatJWTFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "jwt.yaml", "secret: flatsecret\nexpiry_minutes: 30\n")
	t.Setenv("CONFIG_DIR", dir)

	cfg := Load()

	assert.Equal(t, "flatsecret", cfg.JWT.Secret)
	assert.Equal(t, 30, cfg.JWT.ExpiryMinutes)
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "db.yaml", "host: from-yaml\nport: 5433\n")
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("DB_HOST", "from-env")
	t.Setenv("DB_PORT", "9999")

	cfg := Load()

	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, 9999, cfg.Database.Port)
}

func TestDSNAndURLs(t *testing.T) {
	db := DBConfig{Host: "h", Port: 1, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", db.DSN())

	mq := MQConfig{Host: "mq", Port: 5672, User: "guest", Password: "guest", VHost: "/"}
	assert.Equal(t, "amqp://guest:guest@mq:5672/", mq.AMQPURL())

	rd := RedisConfig{Host: "cache", Port: 6379}
	assert.Equal(t, "cache:6379", rd.Addr())
}
