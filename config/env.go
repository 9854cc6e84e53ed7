package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDatabaseDriver = "sqlite"
	defaultSQLiteDSN      = "souq.db"
	defaultPostgresDSN    = "host=localhost user=postgres password=postgres dbname=souq port=5432 sslmode=disable"
	defaultRedisAddr      = ""
	defaultJWTSecret      = "change-me-in-production"
	defaultJWTTTL         = 7 * 24 * time.Hour
	defaultAppPort        = "8080"
	defaultAppEnv         = "local"
	defaultAppURL         = "http://localhost:8080"
	defaultFrontendURL    = "http://localhost:3000"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json, .env and the process environment over the
// defaults. Later sources win. Safe to call many times.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFrom("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":        defaultAppEnv,
		"APP_PORT":       defaultAppPort,
		"APP_URL":        defaultAppURL,
		"FRONTEND_URL":   defaultFrontendURL,
		"DB_DRIVER":      defaultDatabaseDriver,
		"DATABASE_DSN":   "",
		"REDIS_ADDR":     defaultRedisAddr,
		"REDIS_PASSWORD": "",
		"JWT_SECRET":     defaultJWTSecret,
		"MAIL_DRIVER":    "log",
	}
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// IsProduction reports whether internal error detail must be hidden.
func IsProduction() bool {
	switch strings.ToLower(AppEnv()) {
	case "production", "prod":
		return true
	}
	return false
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func AppURL() string {
	_ = Load()
	return strings.TrimRight(get("APP_URL", defaultAppURL), "/")
}

// FrontendURL is the storefront origin used to build links in emails.
func FrontendURL() string {
	_ = Load()
	return strings.TrimRight(get("FRONTEND_URL", defaultFrontendURL), "/")
}

func DatabaseDriver() string {
	_ = Load()

	driver := strings.ToLower(get("DB_DRIVER", defaultDatabaseDriver))
	switch driver {
	case "sqlite", "postgres":
		return driver
	default:
		return defaultDatabaseDriver
	}
}

func DatabaseDSN() string {
	_ = Load()

	if override := get("DATABASE_DSN", ""); override != "" {
		return override
	}
	if DatabaseDriver() == "postgres" {
		return defaultPostgresDSN
	}
	return defaultSQLiteDSN
}

func DBMaxOpenConns() int { return GetInt("DB_MAX_OPEN_CONNS", 25) }
func DBMaxIdleConns() int { return GetInt("DB_MAX_IDLE_CONNS", 10) }

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", defaultJWTSecret)
}

// JWTTTL is the lifetime of issued session tokens (JWT_TTL, e.g. "72h").
func JWTTTL() time.Duration { return GetDuration("JWT_TTL", defaultJWTTTL) }

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

func StorageUploadTTL() time.Duration { return GetDuration("S3_UPLOAD_TTL", 15*time.Minute) }

// ── Mail ─────────────────────────────────────────────────────────────────────

func MailDriver() string { _ = Load(); return strings.ToLower(get("MAIL_DRIVER", "log")) }
func MailAPIURL() string { _ = Load(); return get("MAIL_API_URL", "https://api.resend.com/emails") }
func MailAPIKey() string { _ = Load(); return get("MAIL_API_KEY", "") }
func MailFrom() string   { _ = Load(); return get("MAIL_FROM", "orders@souq.local") }
func MailFromName() string {
	_ = Load()
	return get("MAIL_FROM_NAME", "Souq")
}

// AdminEmail receives a copy of every order confirmation when set.
func AdminEmail() string { _ = Load(); return get("ADMIN_EMAIL", "") }

func loadFrom(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := mergeDotEnv(envPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}

	mergeEnviron(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		switch v := val.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case float64, bool:
			out[k] = fmt.Sprint(v)
		}
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return statErr
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	for key, value := range env {
		out[strings.ToUpper(strings.TrimSpace(key))] = value
	}
	return nil
}

// mergeEnviron lets real environment variables override file values for
// every key the files or defaults already know about, plus any key set with
// the SOUQ_ prefix stripped.
func mergeEnviron(out map[string]string) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		if trimmed, found := strings.CutPrefix(key, "SOUQ_"); found {
			out[trimmed] = value
			continue
		}
		if _, known := out[key]; known {
			out[key] = value
		}
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// GetInt reads an integer key; unparsable values yield fallback.
func GetInt(key string, fallback int) int {
	n, err := strconv.Atoi(Get(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// GetDuration reads a time.ParseDuration value; unparsable values yield fallback.
func GetDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(Get(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Set overrides a key at runtime. Intended for tests and CLI flags.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}

// CORSOrigins lists allowed browser origins (CORS_ORIGINS, comma separated).
// The default "*" allows any origin.
func CORSOrigins() []string {
	raw := Get("CORS_ORIGINS", "*")
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// RateLimit is the global per-client request budget per minute.
func RateLimit() int { return GetInt("RATE_LIMIT", 200) }

func WorkerCount() int { return GetInt("WORKERS", 4) }
func WorkerQueue() int { return GetInt("WORKER_QUEUE", 256) }
