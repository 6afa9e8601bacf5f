package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

const (
	ChainEVM    = "evm"
	ChainSolana = "solana"

	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config contains all configuration parameters for the application.
// Note: the seal password is prompted on first use and stored in memory - use SealPassword()
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	BindHost string `envconfig:"BIND_HOST" default:"127.0.0.1"`

	Chain        string `envconfig:"CHAIN" default:"evm"`
	RPCURL       string `envconfig:"RPC_URL"`
	ChainID      int64  `envconfig:"CHAIN_ID"` // 0 = ask the node
	TokenAddress string `envconfig:"TOKEN_ADDRESS"`
	VaultAddress string `envconfig:"VAULT_ADDRESS"`
	OperatorKey  string `envconfig:"OPERATOR_PRIVATE_KEY"`

	FaucetAmount  string        `envconfig:"FAUCET_AMOUNT" default:"100"`
	RewardAmount  string        `envconfig:"REWARD_AMOUNT" default:"10"`
	DepositAmount string        `envconfig:"DEPOSIT_AMOUNT" default:"50"`
	RefreshDelay  time.Duration `envconfig:"REFRESH_DELAY" default:"2500ms"`

	StorageBackend   string `envconfig:"STORAGE_BACKEND" default:"file"`
	StorageDir       string `envconfig:"STORAGE_DIR" default:".browse-wallet"`
	StorageNamespace string `envconfig:"STORAGE_NAMESPACE" default:"browse-wallet"`
	RedisURL         string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	SealIdentity     bool   `envconfig:"WALLET_SEAL" default:"false"`

	SearchURL    string        `envconfig:"SEARCH_URL" default:"https://duckduckgo.com/?q="`
	QuickLinks   []string      `envconfig:"QUICK_LINKS" default:"Wikipedia=https://www.wikipedia.org,Hacker News=https://news.ycombinator.com,OpenStreetMap=https://www.openstreetmap.org"`
	ProbeFrames  bool          `envconfig:"PROBE_FRAMES" default:"true"`
	ProbeTimeout time.Duration `envconfig:"PROBE_TIMEOUT" default:"5s"`
	ProbeRetries int           `envconfig:"PROBE_RETRIES" default:"1"`

	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"6"`
	TrustedProxies     []string `envconfig:"TRUSTED_PROXIES"` // IPs or CIDRs allowed to set X-Forwarded-For

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// cfg is the global configuration instance
var cfg *Config

// Load reads configuration from environment variables without touching the global instance.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Init loads configuration from environment variables.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Chain {
	case ChainEVM, ChainSolana:
	default:
		return fmt.Errorf("CHAIN must be %s or %s, got %q", ChainEVM, ChainSolana, c.Chain)
	}
	switch c.StorageBackend {
	case StorageFile, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be file, redis or memory, got %q", c.StorageBackend)
	}
	if c.ProbeRetries < 0 {
		return errors.New("PROBE_RETRIES must not be negative")
	}
	if c.RefreshDelay < 0 {
		return errors.New("REFRESH_DELAY must not be negative")
	}
	return nil
}

// Missing lists chain settings that are not configured.
// Operations depending on them are disabled instead of failing startup.
func (c *Config) Missing() []string {
	var missing []string
	if c.RPCURL == "" {
		missing = append(missing, "RPC_URL")
	}
	if c.TokenAddress == "" {
		missing = append(missing, "TOKEN_ADDRESS")
	}
	if c.VaultAddress == "" {
		missing = append(missing, "VAULT_ADDRESS")
	}
	if c.OperatorKey == "" {
		missing = append(missing, "OPERATOR_PRIVATE_KEY")
	}
	return missing
}

// ListenAddr returns host:port for the HTTP server
func (c *Config) ListenAddr() string {
	return c.BindHost + ":" + c.Port
}

var (
	passwordMu    sync.Mutex
	passwordBytes []byte
)

// SealPassword returns the identity seal password, prompting for it in the
// terminal the first time it is needed. The answer is kept in memory.
// Caller must zero the returned slice after use.
func SealPassword() ([]byte, error) {
	passwordMu.Lock()
	defer passwordMu.Unlock()

	if len(passwordBytes) == 0 {
		raw, err := ReadPassword("Enter wallet password: ")
		if err != nil {
			return nil, err
		}
		passwordBytes = raw
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}

// ReadPassword reads one non-empty password from the terminal without echo.
// Caller must zero the returned slice after use.
func ReadPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	clear(raw)
	return out, nil
}
