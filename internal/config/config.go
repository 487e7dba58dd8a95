package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default sentinel identities used by demo mode.
const (
	DefaultDemoAdminID      = "00000000-0000-4000-8000-00000000d001"
	DefaultDemoInstructorID = "00000000-0000-4000-8000-00000000d002"
	DefaultDemoStudentID    = "00000000-0000-4000-8000-00000000d003"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	LogLevel          string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	EventChannel      string
	JWTSecret         string
	JWTTTL            time.Duration
	DemoEnabled       bool
	DemoAdminID       string
	DemoInstructorID  string
	DemoStudentID     string
	DemoSessionTTL    time.Duration
	AdminEmail        string
	AdminPassword     string
	LookupCacheTTL    time.Duration
	EnrollRateLimit   int
	EnrollRateWindow  time.Duration
	DashboardLogLimit int
	CORSAllowOrigins  string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ENROLL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Enrollment API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("events.channel", "enroll:events")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("demo.enabled", true)
	v.SetDefault("demo.admin_id", DefaultDemoAdminID)
	v.SetDefault("demo.instructor_id", DefaultDemoInstructorID)
	v.SetDefault("demo.student_id", DefaultDemoStudentID)
	v.SetDefault("demo.session_ttl", "2h")
	v.SetDefault("lookup.cache_ttl", "5m")
	v.SetDefault("enroll.rate_limit", 20)
	v.SetDefault("enroll.rate_window", "1m")
	v.SetDefault("dashboard.log_limit", 20)
	v.SetDefault("cors.allow_origins", "*")

	jwtTTL, err := parseDuration(v, "jwt.ttl", "24h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	demoTTL, err := parseDuration(v, "demo.session_ttl", "2h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid demo session ttl: %w", err)
	}

	lookupTTL, err := parseDuration(v, "lookup.cache_ttl", "5m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid lookup cache ttl: %w", err)
	}

	rateWindow, err := parseDuration(v, "enroll.rate_window", "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid enroll rate window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		LogLevel:          strings.ToLower(v.GetString("log.level")),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		EventChannel:      v.GetString("events.channel"),
		JWTSecret:         v.GetString("jwt.secret"),
		JWTTTL:            jwtTTL,
		DemoEnabled:       v.GetBool("demo.enabled"),
		DemoAdminID:       strings.TrimSpace(v.GetString("demo.admin_id")),
		DemoInstructorID:  strings.TrimSpace(v.GetString("demo.instructor_id")),
		DemoStudentID:     strings.TrimSpace(v.GetString("demo.student_id")),
		DemoSessionTTL:    demoTTL,
		AdminEmail:        strings.TrimSpace(v.GetString("admin.email")),
		AdminPassword:     v.GetString("admin.password"),
		LookupCacheTTL:    lookupTTL,
		EnrollRateLimit:   v.GetInt("enroll.rate_limit"),
		EnrollRateWindow:  rateWindow,
		DashboardLogLimit: v.GetInt("dashboard.log_limit"),
		CORSAllowOrigins:  strings.TrimSpace(v.GetString("cors.allow_origins")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DemoEnabled && (cfg.DemoAdminID == "" || cfg.DemoInstructorID == "" || cfg.DemoStudentID == "") {
		return Config{}, fmt.Errorf("demo identities must not be empty when demo mode is enabled")
	}

	if cfg.DashboardLogLimit <= 0 {
		cfg.DashboardLogLimit = 20
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		raw = fallback
	}
	return time.ParseDuration(raw)
}
