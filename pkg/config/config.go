package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Store    StoreConfig
	AI       AIConfig
	Telegram TelegramConfig
	Media    MediaConfig
	Drafts   DraftsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.Store.UsesDB() {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Store.UsesRedis() && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s or %s is required for the redis store", EnvRedisURL, EnvRedisAddr)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"BAZARY_APP_ENV" default:"dev"`
	Port         string   `envconfig:"BAZARY_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"BAZARY_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"BAZARY_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"BAZARY_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN         string `envconfig:"BAZARY_DB_DSN"`
	Driver      string `envconfig:"BAZARY_DB_DRIVER" default:"sqlite"`
	AutoMigrate bool   `envconfig:"BAZARY_DB_AUTO_MIGRATE" default:"true"`

	Host     string `envconfig:"BAZARY_DB_HOST"`
	Port     int    `envconfig:"BAZARY_DB_PORT" default:"5432"`
	User     string `envconfig:"BAZARY_DB_USER"`
	Password string `envconfig:"BAZARY_DB_PASSWORD"`
	Name     string `envconfig:"BAZARY_DB_NAME"`
	SSLMode  string `envconfig:"BAZARY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAZARY_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"BAZARY_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"BAZARY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAZARY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the document table lives in a local sqlite file.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"BAZARY_REDIS_URL"`
	Address      string        `envconfig:"BAZARY_REDIS_ADDR"`
	Password     string        `envconfig:"BAZARY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAZARY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAZARY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAZARY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAZARY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAZARY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAZARY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type StoreConfig struct {
	Backend string `envconfig:"BAZARY_STORE_BACKEND" default:"db"`
}

func (s StoreConfig) UsesDB() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), StoreBackendDB)
}

func (s StoreConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), StoreBackendRedis)
}

// UsesMemory selects the process-local store. State is lost on restart.
func (s StoreConfig) UsesMemory() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), StoreBackendMemory)
}

func (s StoreConfig) validate() error {
	if s.UsesDB() || s.UsesRedis() || s.UsesMemory() {
		return nil
	}
	return fmt.Errorf("%s must be %q, %q or %q, got %q", EnvStoreBackend, StoreBackendDB, StoreBackendRedis, StoreBackendMemory, s.Backend)
}

type AIConfig struct {
	APIKey            string        `envconfig:"BAZARY_AI_API_KEY"`
	FallbackAPIKey    string        `envconfig:"GEMINI_API_KEY"`
	BaseURL           string        `envconfig:"BAZARY_AI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	AnalyzeModel      string        `envconfig:"BAZARY_AI_ANALYZE_MODEL" default:"gemini-2.5-flash"`
	ImageModel        string        `envconfig:"BAZARY_AI_IMAGE_MODEL" default:"gemini-2.5-flash-image"`
	TTSModel          string        `envconfig:"BAZARY_AI_TTS_MODEL" default:"gemini-2.5-flash-preview-tts"`
	TTSVoice          string        `envconfig:"BAZARY_AI_TTS_VOICE" default:"Puck"`
	ResearchModel     string        `envconfig:"BAZARY_AI_RESEARCH_MODEL" default:"gemini-2.5-pro"`
	VideoModel        string        `envconfig:"BAZARY_AI_VIDEO_MODEL" default:"veo-3.1-fast-generate-preview"`
	VideoEnabled      bool          `envconfig:"BAZARY_AI_VIDEO_ENABLED" default:"false"`
	VideoPollInterval time.Duration `envconfig:"BAZARY_AI_VIDEO_POLL_INTERVAL" default:"10s"`
	RequestTimeout    time.Duration `envconfig:"BAZARY_AI_REQUEST_TIMEOUT" default:"120s"`
	RateLimitPerMin   int           `envconfig:"BAZARY_AI_RATE_LIMIT_PER_MIN" default:"30"`
}

// Key returns the provider credential, preferring the namespaced variable.
func (a AIConfig) Key() string {
	if key := strings.TrimSpace(a.APIKey); key != "" {
		return key
	}
	return strings.TrimSpace(a.FallbackAPIKey)
}

type TelegramConfig struct {
	BaseURL        string        `envconfig:"BAZARY_TELEGRAM_BASE_URL" default:"https://api.telegram.org"`
	RequestTimeout time.Duration `envconfig:"BAZARY_TELEGRAM_REQUEST_TIMEOUT" default:"60s"`
}

type MediaConfig struct {
	ImageMaxEdge   int `envconfig:"BAZARY_MEDIA_IMAGE_MAX_EDGE" default:"800"`
	ImageQuality   int `envconfig:"BAZARY_MEDIA_IMAGE_QUALITY" default:"70"`
	MaxUploadFiles int `envconfig:"BAZARY_MEDIA_MAX_UPLOAD_FILES" default:"10"`
	MaxUploadMB    int `envconfig:"BAZARY_MEDIA_MAX_UPLOAD_MB" default:"64"`
}

type DraftsConfig struct {
	DefaultCurrency string `envconfig:"BAZARY_DRAFTS_DEFAULT_CURRENCY" default:"UZS"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range postgresDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
