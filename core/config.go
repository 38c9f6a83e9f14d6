package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const insecureDefaultKey = "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy"

type (
	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration

		JWTExpirationDelta         time.Duration // ordinary roles
		JWTElevatedExpirationDelta time.Duration // admin & superadmin
		JWTRefreshExpirationDelta  time.Duration // counted from the original login
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		URL string // empty: in-memory attempt limiter
	}

	RateLimitConfig struct {
		MaxFailures int
		BaseLockout time.Duration
		MaxLockout  time.Duration
	}

	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool
		WorkDir  string

		AppName             string
		SecretKey           string
		SuperadminSecretKey string
		MasterKey           string
		DeviceFingerprint   string

		FrontendBaseURL           string
		DefaultFromEmail          mail.Address
		SendgridApiKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		Server    ServerConfig
		Database  DatabaseConfig
		Redis     RedisConfig
		RateLimit RateLimitConfig
	}
)

func (dbc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dbc.Host, dbc.Port)
}

// NewConfig loads the configuration of the current ENV (DEV by default).
// Values come from defaults, then `config/.env.<env>` if it exists, then `<ENV>_*` environment variables.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	isTest := env == "TEST"

	// defaults
	v.SetDefault("debug", env == "DEV" || isTest)
	v.SetDefault("testMode", isTest)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Shule")
	v.SetDefault("secretKey", insecureDefaultKey)
	v.SetDefault("superadminSecretKey", "superadmin-"+insecureDefaultKey)
	v.SetDefault("masterKey", "")
	v.SetDefault("deviceFingerprint", "")
	v.SetDefault("frontendBaseURL", "http://localhost:4200")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("passwordResetTimeoutDelta", 30*time.Minute)

	v.SetDefault("serverHost", "0.0.0.0:8000")
	v.SetDefault("serverDebugHost", "0.0.0.0:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("jwtElevatedExpirationDelta", time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "shule")
	v.SetDefault("dbUser", "shule")
	v.SetDefault("dbPassword", "shule")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("redisURL", "")

	v.SetDefault("rateLimitMaxFailures", 5)
	v.SetDefault("rateLimitBaseLockout", time.Minute)
	v.SetDefault("rateLimitMaxLockout", 15*time.Minute)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.SetEnvPrefix(env)
	v.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:      env,
		Build:    v.GetString("build"),
		Debug:    v.GetBool("debug"),
		TestMode: v.GetBool("testMode"),
		WorkDir:  wd,

		AppName:             v.GetString("appName"),
		SecretKey:           v.GetString("secretKey"),
		SuperadminSecretKey: v.GetString("superadminSecretKey"),
		MasterKey:           v.GetString("masterKey"),
		DeviceFingerprint:   v.GetString("deviceFingerprint"),

		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		DefaultFromEmail:          *fromEmail,
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                       v.GetString("serverHost"),
			DebugHost:                  v.GetString("serverDebugHost"),
			ShutdownTimeout:            v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:         v.GetDuration("jwtExpirationDelta"),
			JWTElevatedExpirationDelta: v.GetDuration("jwtElevatedExpirationDelta"),
			JWTRefreshExpirationDelta:  v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Redis: RedisConfig{
			URL: v.GetString("redisURL"),
		},
		RateLimit: RateLimitConfig{
			MaxFailures: v.GetInt("rateLimitMaxFailures"),
			BaseLockout: v.GetDuration("rateLimitBaseLockout"),
			MaxLockout:  v.GetDuration("rateLimitMaxLockout"),
		},
	}
}

// Validate checks the settings the auth layer cannot run without.
// The two signing keys are separate trust domains: they must both be set and must differ.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return errors.New("app name must not be empty: it is the token issuer")
	}
	if c.SecretKey == "" || c.SuperadminSecretKey == "" {
		return errors.New("signing keys must not be empty")
	}
	if c.SecretKey == c.SuperadminSecretKey {
		return errors.New("user and superadmin signing keys must differ")
	}
	if c.Env == "DEV" || c.Env == "TEST" {
		return nil
	}
	if strings.Contains(c.SecretKey, insecureDefaultKey) || strings.Contains(c.SuperadminSecretKey, insecureDefaultKey) {
		return errors.Errorf("default signing keys are not allowed in %s", c.Env)
	}
	if c.MasterKey == "" || c.DeviceFingerprint == "" {
		return errors.Errorf("superadmin master key and device fingerprint are required in %s", c.Env)
	}
	return nil
}

// NewTestConfig returns the configuration used across test packages. It never reads the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:      "TEST",
		Build:    "test",
		Debug:    false,
		TestMode: true,

		AppName:             "Shule",
		SecretKey:           "test-user-secret",
		SuperadminSecretKey: "test-superadmin-secret",
		MasterKey:           "test-master-key",
		DeviceFingerprint:   "test-device-fp",

		FrontendBaseURL:           "http://localhost:4200",
		DefaultFromEmail:          mail.Address{Name: "Shule", Address: "noreply@localhost"},
		PasswordResetTimeoutDelta: 30 * time.Minute,

		Server: ServerConfig{
			ShutdownTimeout:            time.Second,
			JWTExpirationDelta:         24 * time.Hour,
			JWTElevatedExpirationDelta: time.Hour,
			JWTRefreshExpirationDelta:  7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			MaxFailures: 5,
			BaseLockout: time.Minute,
			MaxLockout:  15 * time.Minute,
		},
	}
}
