package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/gardenbarter-backend/internal/observability"
	"github.com/yungbote/gardenbarter-backend/internal/platform/envutil"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port            string
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BarterLifespan  time.Duration
	CookieSecure    bool
	CookieDomain    string
	CORSOrigins     []string
	RedisAddr       string
	MetricsEnabled  bool
	Otel            observability.OtelConfig
}

// LoadEnvironment seeds the process environment from .env and from the
// YAML file named by CONFIG_FILE. Variables already set are never
// overwritten, so the real environment wins over both files.
//
// The YAML file is a flat mapping of variable names to values:
//
//	PORT: 8080
//	BARTER_LIFESPAN_DAYS: 14
func LoadEnvironment() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	vals := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &vals); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range vals {
		k = strings.ToUpper(strings.TrimSpace(k))
		if _, set := os.LookupEnv(k); set || k == "" {
			continue
		}
		var s string
		switch t := v.(type) {
		case []interface{}:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, fmt.Sprint(p))
			}
			s = strings.Join(parts, ",")
		case nil:
			continue
		default:
			s = fmt.Sprint(t)
		}
		if err := os.Setenv(k, s); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

func LoadConfig(log *logger.Logger) Config {
	secret := envutil.String("JWT_SECRET_KEY", defaultJWTSecret, log)
	if secret == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}
	return Config{
		Port:            envutil.String("PORT", "8080", log),
		JWTSecretKey:    secret,
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", 300*time.Second, log),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 7*24*time.Hour, log),
		BarterLifespan:  time.Duration(envutil.Int("BARTER_LIFESPAN_DAYS", 14, log)) * 24 * time.Hour,
		CookieSecure:    envutil.Bool("COOKIE_SECURE", true, log),
		CookieDomain:    envutil.String("COOKIE_DOMAIN", "", log),
		CORSOrigins:     splitList(envutil.String("CORS_ORIGINS", "", log)),
		RedisAddr:       envutil.String("REDIS_ADDR", "", log),
		MetricsEnabled:  observability.Enabled(),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "gardenbarter", log),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: float64(envutil.Int("OTEL_SAMPLE_PERCENT", 100, log)) / 100,
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
