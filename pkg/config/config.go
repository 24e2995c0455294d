package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Empty-site policies for site-scoped admins.
const (
	SitePolicyTenant = "tenant"
	SitePolicyNone   = "none"
)

type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	PublicBaseURL string

	Database       DatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Log            LogConfig
	Catalog        CatalogConfig
	Dispatch       DispatchConfig
	Mail           MailConfig
	SMS            SMSConfig
	AbsenceReports AbsenceReportConfig
	Events         EventsConfig
	Access         AccessConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig holds the reserved wildcard ids and catalog cache tuning.
type CatalogConfig struct {
	GradeWildcardID   int64
	SubjectWildcardID int64
	CacheTTL          time.Duration
}

// DispatchConfig sizes the notification worker pool.
type DispatchConfig struct {
	Workers        int
	BufferSize     int
	MaxRetries     int
	RetryDelay     time.Duration
	EnqueueTimeout time.Duration
}

// MailConfig configures the SMTP transport. Empty Host disables email.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	Timeout  time.Duration
}

// SMSConfig configures the Twilio transport. Missing credentials disable SMS.
type SMSConfig struct {
	AccountSID    string
	AuthToken     string
	FromNumber    string
	DefaultPrefix string
}

// AbsenceReportConfig governs absence report generation and retention.
type AbsenceReportConfig struct {
	Enabled         bool
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
	RetentionTTL    time.Duration
	FullDayHours    float64
	Workers         int
}

// EventsConfig configures the optional Kafka domain-event publisher.
type EventsConfig struct {
	Brokers      []string
	CreatedTopic string
	FilledTopic  string
}

// AccessConfig tunes admin visibility scoping.
type AccessConfig struct {
	EmptySitePolicy string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.PublicBaseURL = strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		GradeWildcardID:   v.GetInt64("GRADE_WILDCARD_ID"),
		SubjectWildcardID: v.GetInt64("SUBJECT_WILDCARD_ID"),
		CacheTTL:          parseDuration(v.GetString("CATALOG_CACHE_TTL"), 30*time.Minute),
	}

	cfg.Dispatch = DispatchConfig{
		Workers:        v.GetInt("DISPATCH_WORKERS"),
		BufferSize:     v.GetInt("DISPATCH_BUFFER_SIZE"),
		MaxRetries:     v.GetInt("DISPATCH_MAX_RETRIES"),
		RetryDelay:     parseDuration(v.GetString("DISPATCH_RETRY_DELAY"), 5*time.Second),
		EnqueueTimeout: parseDuration(v.GetString("DISPATCH_ENQUEUE_TIMEOUT"), 2*time.Second),
	}

	cfg.Mail = MailConfig{
		Host:     v.GetString("MAIL_SERVER"),
		Port:     v.GetInt("MAIL_PORT"),
		Username: v.GetString("MAIL_USERNAME"),
		Password: v.GetString("MAIL_PASSWORD"),
		From:     v.GetString("MAIL_FROM"),
		UseTLS:   v.GetBool("MAIL_USE_TLS"),
		Timeout:  parseDuration(v.GetString("MAIL_TIMEOUT"), 15*time.Second),
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}

	cfg.SMS = SMSConfig{
		AccountSID:    v.GetString("TWILIO_ACCOUNT_SID"),
		AuthToken:     v.GetString("TWILIO_AUTH_TOKEN"),
		FromNumber:    v.GetString("TWILIO_PHONE_NUMBER"),
		DefaultPrefix: v.GetString("SMS_DEFAULT_PREFIX"),
	}

	cfg.AbsenceReports = AbsenceReportConfig{
		Enabled:         v.GetBool("ENABLE_ABSENCE_REPORTS"),
		StorageDir:      v.GetString("ABSENCE_REPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("ABSENCE_REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("ABSENCE_REPORTS_SIGNED_URL_TTL"), 7*24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("ABSENCE_REPORTS_CLEANUP_INTERVAL"), 6*time.Hour),
		RetentionTTL:    parseDuration(v.GetString("ABSENCE_REPORTS_RETENTION"), 90*24*time.Hour),
		FullDayHours:    v.GetFloat64("ABSENCE_REPORTS_FULL_DAY_HOURS"),
		Workers:         v.GetInt("ABSENCE_REPORTS_WORKERS"),
	}

	cfg.Events = EventsConfig{
		Brokers:      splitAndTrim(v.GetString("KAFKA_BROKERS")),
		CreatedTopic: v.GetString("KAFKA_TOPIC_REQUEST_CREATED"),
		FilledTopic:  v.GetString("KAFKA_TOPIC_REQUEST_FILLED"),
	}

	policy := strings.ToLower(strings.TrimSpace(v.GetString("SITE_ADMIN_EMPTY_POLICY")))
	if policy != SitePolicyNone {
		policy = SitePolicyTenant
	}
	cfg.Access = AccessConfig{EmptySitePolicy: policy}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "subcover")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "subcover-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GRADE_WILDCARD_ID", 9)
	v.SetDefault("SUBJECT_WILDCARD_ID", 8)
	v.SetDefault("CATALOG_CACHE_TTL", "30m")

	v.SetDefault("DISPATCH_WORKERS", 4)
	v.SetDefault("DISPATCH_BUFFER_SIZE", 1024)
	v.SetDefault("DISPATCH_MAX_RETRIES", 2)
	v.SetDefault("DISPATCH_RETRY_DELAY", "5s")
	v.SetDefault("DISPATCH_ENQUEUE_TIMEOUT", "2s")

	v.SetDefault("MAIL_SERVER", "")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_USE_TLS", true)
	v.SetDefault("MAIL_TIMEOUT", "15s")

	v.SetDefault("SMS_DEFAULT_PREFIX", "+1")

	v.SetDefault("ENABLE_ABSENCE_REPORTS", true)
	v.SetDefault("ABSENCE_REPORTS_STORAGE_DIR", "./absence-reports")
	v.SetDefault("ABSENCE_REPORTS_SIGNED_URL_SECRET", "dev_absence_secret")
	v.SetDefault("ABSENCE_REPORTS_SIGNED_URL_TTL", "168h")
	v.SetDefault("ABSENCE_REPORTS_CLEANUP_INTERVAL", "6h")
	v.SetDefault("ABSENCE_REPORTS_RETENTION", "2160h")
	v.SetDefault("ABSENCE_REPORTS_FULL_DAY_HOURS", 7.0)
	v.SetDefault("ABSENCE_REPORTS_WORKERS", 1)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC_REQUEST_CREATED", "coverage.request.created")
	v.SetDefault("KAFKA_TOPIC_REQUEST_FILLED", "coverage.request.filled")

	v.SetDefault("SITE_ADMIN_EMPTY_POLICY", SitePolicyTenant)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
