package bequest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds configuration for the bequest service. External addresses
// and credentials only ever arrive here, through the environment.
type Config struct {
	// Addr is the listen address of the HTTP navigation surface.
	Addr string `validate:"required"`

	// CORSOrigin is the single browser origin allowed to call the API.
	CORSOrigin string

	// StoreDriver selects the session store backend: "memory" or "redis".
	StoreDriver string `validate:"oneof=memory redis"`

	// Redis connection settings, used when StoreDriver is "redis".
	RedisAddr     string `validate:"required_if=StoreDriver redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	// SessionTTL bounds how long an untouched workflow session survives.
	SessionTTL time.Duration `validate:"gt=0"`

	// MaxBeneficiaries is the largest step count a workflow may start with.
	MaxBeneficiaries int `validate:"gte=1,lte=100"`

	// TargetSum is the value every finalized allocation must reconcile to.
	TargetSum int64 `validate:"gt=0"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `validate:"gt=0"`

	SMTP   SMTPConfig
	Pinata PinataConfig
	Ledger LedgerConfig
	NATS   NATSConfig
}

// SMTPConfig configures the notification sender.
type SMTPConfig struct {
	Host     string
	Port     int `validate:"gte=1,lte=65535"`
	Username string
	Password string
	From     string `validate:"omitempty,email"`

	// RatePerSecond caps outgoing mail. Zero disables the limiter.
	RatePerSecond float64 `validate:"gte=0"`
}

// Enabled reports whether enough settings are present to send mail.
func (c SMTPConfig) Enabled() bool { return c.Host != "" && c.From != "" }

// PinataConfig configures the document-pinning gateway.
type PinataConfig struct {
	Endpoint  string `validate:"required,url"`
	JWT       string
	APIKey    string
	APISecret string
}

// Enabled reports whether any credential is configured.
func (c PinataConfig) Enabled() bool { return c.JWT != "" || (c.APIKey != "" && c.APISecret != "") }

// LedgerConfig configures the ledger gateway in front of the will contract.
type LedgerConfig struct {
	Endpoint        string `validate:"omitempty,url"`
	APIKey          string
	ContractAddress string `validate:"omitempty,eth_addr"`

	// WillDeposit is the amount, in ETH, sent along with CreateWill.
	WillDeposit string `validate:"required,numeric"`
}

// Enabled reports whether a gateway endpoint is configured.
func (c LedgerConfig) Enabled() bool { return c.Endpoint != "" }

// NATSConfig configures the disbursement event source.
type NATSConfig struct {
	URL     string
	Stream  string `validate:"required"`
	Subject string `validate:"required"`
	Durable string `validate:"required"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:             ":3000",
		CORSOrigin:       "http://localhost:5173",
		StoreDriver:      "memory",
		SessionTTL:       30 * time.Minute,
		MaxBeneficiaries: 5,
		TargetSum:        100,
		ShutdownTimeout:  10 * time.Second,
		SMTP: SMTPConfig{
			Port:          587,
			RatePerSecond: 2,
		},
		Pinata: PinataConfig{
			Endpoint: "https://api.pinata.cloud/pinning/pinFileToIPFS",
		},
		Ledger: LedgerConfig{
			WillDeposit: "0.02",
		},
		NATS: NATSConfig{
			Stream:  "BEQUEST",
			Subject: "bequest.funds.disbursed",
			Durable: "bequest-notifier",
		},
	}
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its field constraints.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("bequest: invalid config: %w", err)
	}
	return nil
}

// LoadConfig builds a Config from DefaultConfig, the optional .env files
// and the process environment, in increasing order of precedence.
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("bequest: load env file: %w", err)
	}

	cfg := DefaultConfig()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("bequest: parse %s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("bequest: parse %s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("BEQUEST_ADDR", &cfg.Addr)
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		cfg.Addr = ":" + port
	}
	str("BEQUEST_CORS_ORIGIN", &cfg.CORSOrigin)
	str("CORS_ORIGIN", &cfg.CORSOrigin)
	str("BEQUEST_STORE", &cfg.StoreDriver)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	num("REDIS_DB", &cfg.RedisDB)
	dur("BEQUEST_SESSION_TTL", &cfg.SessionTTL)
	num("BEQUEST_MAX_BENEFICIARIES", &cfg.MaxBeneficiaries)
	dur("BEQUEST_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	str("SMTP_HOST", &cfg.SMTP.Host)
	num("SMTP_PORT", &cfg.SMTP.Port)
	str("SMTP_USER", &cfg.SMTP.Username)
	str("SMTP_PASS", &cfg.SMTP.Password)
	str("SMTP_FROM", &cfg.SMTP.From)
	if v, ok := os.LookupEnv("SMTP_RATE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("bequest: parse SMTP_RATE: %w", err))
		} else {
			cfg.SMTP.RatePerSecond = f
		}
	}

	str("PINATA_ENDPOINT", &cfg.Pinata.Endpoint)
	str("PINATA_JWT", &cfg.Pinata.JWT)
	str("PINATA_API_KEY", &cfg.Pinata.APIKey)
	str("PINATA_SECRET_API_KEY", &cfg.Pinata.APISecret)

	str("LEDGER_ENDPOINT", &cfg.Ledger.Endpoint)
	str("LEDGER_API_KEY", &cfg.Ledger.APIKey)
	str("CONTRACT_ADDRESS", &cfg.Ledger.ContractAddress)
	str("WILL_DEPOSIT_ETH", &cfg.Ledger.WillDeposit)

	str("NATS_URL", &cfg.NATS.URL)
	str("NATS_STREAM", &cfg.NATS.Stream)
	str("NATS_SUBJECT", &cfg.NATS.Subject)
	str("NATS_DURABLE", &cfg.NATS.Durable)

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
