package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"

	// EnvDevelopment is the only environment in which missing secrets fall
	// back to ephemeral random keys. Everywhere else they are a startup error,
	// because tokens minted with an ephemeral key become unverifiable after
	// every restart.
	EnvDevelopment = "development"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Postgres is optional; when absent the payment store runs in memory and
	// is correct for a single-instance deployment only.
	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// SecretKey holds the token-signing material. None of these values may
	// ever appear in a response or a log line.
	SecretKey struct {
		Encryption string `json:"encryption" yaml:"encryption"` // Session token sealing key (hex).
		Signing    string `json:"signing" yaml:"signing"`       // HMAC secret for payment tokens.
		Salt       string `json:"salt" yaml:"salt"`             // Salt for session checksum derivation.
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	Payment *PaymentConfig `json:"payment" yaml:"payment"`

	RateLimit *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	// PubSub configuration for payment event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	// QRCode configuration for checkout QR codes
	QRCode *QRCodeConfig `json:"qrcode" yaml:"qrcode"`
}

// AuthConfig defines token-related configuration.
type AuthConfig struct {
	// TokenFormat selects the session credential implementation:
	// "sealed" (encrypted checksum tokens) or "jwt".
	TokenFormat string `json:"tokenFormat" yaml:"tokenFormat"`

	SessionTokenTTL time.Duration `json:"sessionTokenTtl" yaml:"sessionTokenTtl"`
	PaymentTokenTTL time.Duration `json:"paymentTokenTtl" yaml:"paymentTokenTtl"`
}

// PaymentConfig defines the payment processor integration.
type PaymentConfig struct {
	// Provider selects the gateway: "paystack" or "razorpay".
	Provider string `json:"provider" yaml:"provider"`

	// ExpectedAmount is the product price in the processor's minor currency
	// unit (kobo, paise). A captured amount that differs in any way is
	// rejected, so a cheaper unrelated transaction cannot be replayed here.
	ExpectedAmount int64  `json:"expectedAmount" yaml:"expectedAmount"`
	Currency       string `json:"currency" yaml:"currency"`

	// CheckoutBaseURL is the hosted payment page used for checkout QR links.
	CheckoutBaseURL string `json:"checkoutBaseUrl" yaml:"checkoutBaseUrl"`

	Paystack *PaystackConfig `json:"paystack" yaml:"paystack"`
	Razorpay *RazorpayConfig `json:"razorpay" yaml:"razorpay"`
}

// PaystackConfig holds Paystack credentials and endpoints.
type PaystackConfig struct {
	SecretKey     string `json:"secretKey" yaml:"secretKey"`         // Server-side verification auth.
	PublicKey     string `json:"publicKey" yaml:"publicKey"`         // Client widget initialization.
	WebhookSecret string `json:"webhookSecret" yaml:"webhookSecret"` // Raw-body HMAC verification.
	BaseURL       string `json:"baseUrl" yaml:"baseUrl"`
}

// RazorpayConfig holds Razorpay credentials and endpoints.
type RazorpayConfig struct {
	KeyID         string `json:"keyId" yaml:"keyId"`
	KeySecret     string `json:"keySecret" yaml:"keySecret"`
	WebhookSecret string `json:"webhookSecret" yaml:"webhookSecret"`
	BaseURL       string `json:"baseUrl" yaml:"baseUrl"`
}

// RateLimitConfig defines per-purpose request budgets.
type RateLimitConfig struct {
	Verify   RateLimitRule `json:"verify" yaml:"verify"`
	Validate RateLimitRule `json:"validate" yaml:"validate"`
}

// RateLimitRule is one fixed-window budget.
type RateLimitRule struct {
	MaxRequests int           `json:"maxRequests" yaml:"maxRequests"`
	Window      time.Duration `json:"window" yaml:"window"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

// QRCodeConfig defines QR code generation configuration
type QRCodeConfig struct {
	Size                 int    `json:"size" yaml:"size"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel" yaml:"errorCorrectionLevel"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: SECRETKEY_ENCRYPTION -> secretKey.encryption (not secretkey.encryption)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	cfg.applyDefaults()

	if err := cfg.validateSecrets(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in the named development mode.
func (cfg *Config) IsDevelopment() bool {
	return cfg.Env.Env == EnvDevelopment
}

func (cfg *Config) applyDefaults() {
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.TokenFormat == "" {
		cfg.Auth.TokenFormat = "sealed"
	}
	if cfg.Auth.SessionTokenTTL == 0 {
		cfg.Auth.SessionTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Auth.PaymentTokenTTL == 0 {
		cfg.Auth.PaymentTokenTTL = 24 * time.Hour
	}

	if cfg.RateLimit == nil {
		cfg.RateLimit = &RateLimitConfig{}
	}
	if cfg.RateLimit.Verify.MaxRequests == 0 {
		cfg.RateLimit.Verify = RateLimitRule{MaxRequests: 3, Window: time.Minute}
	}
	if cfg.RateLimit.Validate.MaxRequests == 0 {
		cfg.RateLimit.Validate = RateLimitRule{MaxRequests: 10, Window: time.Minute}
	}
}

// validateSecrets enforces the hard startup failure for missing secrets
// outside development. The development fallback itself (ephemeral keys) lives
// with the token service, which owns key material.
func (cfg *Config) validateSecrets() error {
	if cfg.IsDevelopment() {
		return nil
	}

	var missing []string
	if cfg.SecretKey.Encryption == "" {
		missing = append(missing, "secretKey.encryption")
	}
	if cfg.SecretKey.Signing == "" {
		missing = append(missing, "secretKey.signing")
	}
	if cfg.SecretKey.Salt == "" {
		missing = append(missing, "secretKey.salt")
	}

	if len(missing) > 0 {
		return errors.Errorf("missing required secrets %s in %q environment; only %q may fall back to ephemeral keys",
			strings.Join(missing, ", "), cfg.Env.Env, EnvDevelopment)
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
