package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable consumed by the backend.
	EnvPrefix = "MERKADO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MERKADO_DB_DSN"
	EnvDBHost = "MERKADO_DB_HOST"
	EnvDBUser = "MERKADO_DB_USER"
	EnvDBName = "MERKADO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Promo        PromoConfig
	Sweep        SweepConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"MERKADO_APP_ENV" required:"true"`
	Port         string   `envconfig:"MERKADO_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"MERKADO_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MERKADO_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MERKADO_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MERKADO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MERKADO_DB_DSN"`
	Driver string `envconfig:"MERKADO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MERKADO_DB_HOST"`
	LegacyPort     int    `envconfig:"MERKADO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MERKADO_DB_USER"`
	LegacyPassword string `envconfig:"MERKADO_DB_PASSWORD"`
	LegacyName     string `envconfig:"MERKADO_DB_NAME"`
	LegacySSLMode  string `envconfig:"MERKADO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MERKADO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERKADO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERKADO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERKADO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MERKADO_REDIS_URL"`
	Address      string        `envconfig:"MERKADO_REDIS_ADDR"`
	Password     string        `envconfig:"MERKADO_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERKADO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERKADO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERKADO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERKADO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERKADO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERKADO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MERKADO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MERKADO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MERKADO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MERKADO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MERKADO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MERKADO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MERKADO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MERKADO_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MERKADO_AUTO_MIGRATE" default:"false"`
}

// PromoConfig drives the automatic promotion generator.
type PromoConfig struct {
	DefaultDiscountPercent int `envconfig:"MERKADO_PROMO_DISCOUNT_PERCENT" default:"20"`
	DefaultDurationDays    int `envconfig:"MERKADO_PROMO_DURATION_DAYS" default:"7"`
}

// SweepConfig drives expiration reclassification.
type SweepConfig struct {
	ExpiringSoonDays int           `envconfig:"MERKADO_EXPIRING_SOON_DAYS" default:"15"`
	Interval         time.Duration `envconfig:"MERKADO_SWEEP_INTERVAL" default:"24h"`
	MetricsPort      string        `envconfig:"MERKADO_SWEEP_METRICS_PORT" default:"9091"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
