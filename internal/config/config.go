package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DatabaseURL   string `yaml:"databaseURL"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	SessionStrategy string `yaml:"sessionStrategy"`
	SessionSecret   string `yaml:"sessionSecret"`
	SessionTTL      string `yaml:"sessionTTL"`

	UsageTimezone  string `yaml:"usageTimezone"`
	PDFScanLimit   int    `yaml:"pdfScanLimit"`
	JDMatchLimit   int    `yaml:"jdMatchLimit"`
	BuilderAILimit int    `yaml:"builderAiLimit"`

	SignupCodeTTL string `yaml:"signupCodeTTL"`
	ResetCodeTTL  string `yaml:"resetCodeTTL"`

	AIProvider    string `yaml:"aiProvider"`
	GeminiAPIKey  string `yaml:"geminiAPIKey"`
	GeminiModel   string `yaml:"geminiModel"`
	OpenAIBaseURL string `yaml:"openaiBaseURL"`
	OpenAIAPIKey  string `yaml:"openaiAPIKey"`
	OpenAIModel   string `yaml:"openaiModel"`

	SendGridAPIKey string `yaml:"sendgridAPIKey"`
	MailFrom       string `yaml:"mailFrom"`
	MailFromName   string `yaml:"mailFromName"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	LeetCodeEndpoint string `yaml:"leetcodeEndpoint"`

	AuthRateLimitPerMinute int    `yaml:"authRateLimitPerMinute"`
	OTPResendLimit         int    `yaml:"otpResendLimit"`
	OTPResendWindow        string `yaml:"otpResendWindow"`

	SyncStream     string `yaml:"syncStream"`
	SyncGroup      string `yaml:"syncGroup"`
	SyncConsumer   string `yaml:"syncConsumer"`
	SyncMaxRetries int    `yaml:"syncMaxRetries"`
	SyncWorkers    int    `yaml:"syncWorkers"`

	TrustedProxyCIDRs []string `yaml:"trustedProxyCidrs"`
	MaxUploadBytes    int64    `yaml:"maxUploadBytes"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("SENDGRID_API_KEY"); v != "" {
		cfg.SendGridAPIKey = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("INTRAPREP_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("INTRAPREP_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	switch cfg.SessionStrategy {
	case "", "jwt":
		if strings.TrimSpace(cfg.SessionSecret) == "" {
			return errors.New("config: sessionSecret is required for jwt sessions (set in config.yaml or SESSION_SECRET)")
		}
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for redis sessions")
		}
	default:
		return fmt.Errorf("config: unknown sessionStrategy %q (want jwt or redis)", cfg.SessionStrategy)
	}
	switch cfg.AIProvider {
	case "", "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return errors.New("config: geminiAPIKey is required (set in config.yaml or GEMINI_API_KEY)")
		}
	case "openai":
		if strings.TrimSpace(cfg.OpenAIBaseURL) == "" {
			return errors.New("config: openaiBaseURL is required for the openai provider")
		}
	default:
		return fmt.Errorf("config: unknown aiProvider %q (want gemini or openai)", cfg.AIProvider)
	}
	if strings.TrimSpace(cfg.SendGridAPIKey) == "" {
		return errors.New("config: sendgridAPIKey is required (set in config.yaml or SENDGRID_API_KEY)")
	}
	if strings.TrimSpace(cfg.MailFrom) == "" {
		return errors.New("config: mailFrom is required")
	}
	if cfg.UsageTimezone != "" {
		if _, err := time.LoadLocation(cfg.UsageTimezone); err != nil {
			return fmt.Errorf("config: invalid usageTimezone: %w", err)
		}
	}
	if cfg.PDFScanLimit < 0 || cfg.JDMatchLimit < 0 || cfg.BuilderAILimit < 0 {
		return errors.New("config: quota limits must be >= 0")
	}
	if cfg.AuthRateLimitPerMinute < 0 || cfg.OTPResendLimit < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseDurationOr parses an optional duration string, returning fallback
// when the value is empty.
func ParseDurationOr(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	dur, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return dur, nil
}
