// Package config загружает конфигурацию сервера из окружения и .env файла.
//
// Все переменные имеют префикс BLOG_, например BLOG_JWT_KEY или BLOG_HTTP_ADDR.
// Конфигурация читается один раз при старте и дальше не меняется.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// EnvPrefix префикс всех переменных окружения сервера
	EnvPrefix = "BLOG_"

	// MinKeyLen минимальная длина ключа подписи для HS256
	MinKeyLen = 32
	// MaxTokenTTL верхняя граница времени жизни токена
	MaxTokenTTL = 60 * time.Minute

	BackendDisk = "disk"
	BackendS3   = "s3"
)

var (
	// ErrParsingConfig переменные окружения не разобраны
	ErrParsingConfig = errors.New("failed to parse config")
	// ErrInvalidConfig значения не прошли проверку
	ErrInvalidConfig = errors.New("invalid config")
)

// Config конфигурация сервера
type Config struct {
	HTTP    HTTPConfig    `envPrefix:"HTTP_"`
	JWT     JWTConfig     `envPrefix:"JWT_"`
	Log     LogConfig     `envPrefix:"LOG_"`
	Storage StorageConfig `envPrefix:"STORAGE_"`
	S3      S3Config      `envPrefix:"S3_"`
	Seed    SeedConfig    `envPrefix:"SEED_ADMIN_"`

	DatabasePath    string `env:"DATABASE_PATH" envDefault:"gopherblog.db"`
	BcryptCost      int    `env:"BCRYPT_COST" envDefault:"12"`
	UploadMaxBytes  int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
	LoginRatePerMin int    `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateBurst  int    `env:"LOGIN_RATE_BURST" envDefault:"5"`
}

// HTTPConfig параметры HTTP сервера
type HTTPConfig struct {
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	Addr               string        `env:"ADDR" envDefault:":5073"`
	APIPrefix          string        `env:"API_PREFIX" envDefault:"/api"`
	PublicBaseURL      string        `env:"PUBLIC_BASE_URL"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadHeaderTimeout  time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
}

// JWTConfig параметры выпуска токенов
type JWTConfig struct {
	Key      string        `env:"KEY"`
	KeyFile  string        `env:"KEY_FILE"`
	Issuer   string        `env:"ISSUER" envDefault:"gopherblog"`
	Audience string        `env:"AUDIENCE" envDefault:"gopherblog-frontend"`
	TTL      time.Duration `env:"TTL" envDefault:"60m"`
}

// LogConfig параметры логирования
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// StorageConfig выбор хранилища изображений
type StorageConfig struct {
	Backend    string `env:"BACKEND" envDefault:"disk"`
	UploadsDir string `env:"UPLOADS_DIR" envDefault:"uploads"`
}

// S3Config параметры S3-совместимого хранилища
type S3Config struct {
	Bucket         string `env:"BUCKET"`
	Region         string `env:"REGION"`
	AccessKeyID    string `env:"ACCESS_KEY_ID"`
	SecretKey      string `env:"SECRET_ACCESS_KEY"`
	Endpoint       string `env:"ENDPOINT"`
	Prefix         string `env:"PREFIX"`
	ForcePathStyle bool   `env:"FORCE_PATH_STYLE"`
}

// SeedConfig учетная запись администратора, создаваемая при первом старте.
// Пустой пароль отключает создание.
type SeedConfig struct {
	Username string `env:"USERNAME" envDefault:"admin"`
	Email    string `env:"EMAIL" envDefault:"admin@localhost.localdomain"`
	Password string `env:"PASSWORD"`
}

// Load читает .env файл (если есть), переменные окружения с префиксом
// BLOG_, подгружает ключ из файла и проверяет результат.
// Явно указанный envFile обязан существовать.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		// .env в рабочем каталоге необязателен
		_ = godotenv.Load()
	}

	return Parse(env.Options{Prefix: EnvPrefix})
}

// Parse разбирает окружение с заданными опциями, без чтения .env.
// Используется в тестах через Options.Environment.
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}

	if err := cfg.loadKeyFile(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) loadKeyFile() error {
	if c.JWT.KeyFile == "" {
		return nil
	}
	if c.JWT.Key != "" {
		return fmt.Errorf("%w: set either %sJWT_KEY or %sJWT_KEY_FILE, not both", ErrInvalidConfig, EnvPrefix, EnvPrefix)
	}

	data, err := os.ReadFile(c.JWT.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to read signing key file: %w", err)
	}
	c.JWT.Key = strings.TrimRight(string(data), "\r\n")
	return nil
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.JWT.Key == "":
		errs = append(errs, fmt.Errorf("signing key is required (%sJWT_KEY or %sJWT_KEY_FILE)", EnvPrefix, EnvPrefix))
	case len(c.JWT.Key) < MinKeyLen:
		errs = append(errs, fmt.Errorf("signing key must be at least %d bytes", MinKeyLen))
	}
	if c.JWT.TTL <= 0 || c.JWT.TTL > MaxTokenTTL {
		errs = append(errs, fmt.Errorf("token TTL must be in (0, %s], got %s", MaxTokenTTL, c.JWT.TTL))
	}
	if c.JWT.Issuer == "" || c.JWT.Audience == "" {
		errs = append(errs, errors.New("token issuer and audience are required"))
	}

	switch c.Storage.Backend {
	case BackendDisk:
		if c.Storage.UploadsDir == "" {
			errs = append(errs, errors.New("uploads dir is required for disk backend"))
		}
	case BackendS3:
		if c.S3.Bucket == "" || c.S3.Region == "" {
			errs = append(errs, errors.New("s3 bucket and region are required for s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, errors.New("upload max bytes must be positive"))
	}
	if c.LoginRatePerMin <= 0 || c.LoginRateBurst <= 0 {
		errs = append(errs, errors.New("login rate limit and burst must be positive"))
	}
	if c.HTTP.APIPrefix != "" && !strings.HasPrefix(c.HTTP.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("api prefix must start with /, got %q", c.HTTP.APIPrefix))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// String скрывает секреты при логировании
func (c *Config) String() string {
	return fmt.Sprintf("addr=%s prefix=%s db=%s storage=%s ttl=%s log=%s/%s cors=%v",
		c.HTTP.Addr, c.HTTP.APIPrefix, c.DatabasePath, c.Storage.Backend,
		c.JWT.TTL, c.Log.Level, c.Log.Format, c.HTTP.CORSAllowedOrigins)
}
