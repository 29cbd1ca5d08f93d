package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL     string
	SessionFile    string
	RequestTimeout time.Duration
	ItemsPerPage   int
	PageSizes      []int
	LogLevel       string

	// shop-mock only
	MockAddr         string
	PostgresDSN      string
	JWTSecret        string
	TokenTTL         time.Duration
	MockUserEmail    string
	MockUserPassword string
}

var envKeys = map[string]string{
	"api_url":            "STOREFRONT_API_URL",
	"session_file":       "STOREFRONT_SESSION_FILE",
	"request_timeout":    "STOREFRONT_REQUEST_TIMEOUT",
	"items_per_page":     "STOREFRONT_ITEMS_PER_PAGE",
	"page_sizes":         "STOREFRONT_PAGE_SIZES",
	"log_level":          "STOREFRONT_LOG_LEVEL",
	"mock_addr":          "SHOP_MOCK_ADDR",
	"postgres_dsn":       "POSTGRES_DSN",
	"jwt_secret":         "SHOP_MOCK_JWT_SECRET",
	"token_ttl":          "SHOP_MOCK_TOKEN_TTL",
	"mock_user_email":    "SHOP_MOCK_USER_EMAIL",
	"mock_user_password": "SHOP_MOCK_USER_PASSWORD",
}

// New returns a viper instance with every storefront key bound to its
// environment variable and populated with defaults.
func New() *viper.Viper {
	v := viper.New()
	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("session_file", defaultSessionFile())
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("items_per_page", 10)
	v.SetDefault("page_sizes", "5,10,20,50,100")
	v.SetDefault("log_level", "warn")
	v.SetDefault("mock_addr", ":8080")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("jwt_secret", "dev-secret")
	v.SetDefault("token_ttl", "1h")
	v.SetDefault("mock_user_email", "demo@shop.local")
	v.SetDefault("mock_user_password", "demo1234")
	return v
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load() // load .env if it exists
	return FromViper(New())
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (Config, error) {
	sizes, err := parseSizes(v.GetString("page_sizes"))
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		APIBaseURL:       strings.TrimRight(v.GetString("api_url"), "/"),
		SessionFile:      v.GetString("session_file"),
		RequestTimeout:   v.GetDuration("request_timeout"),
		ItemsPerPage:     v.GetInt("items_per_page"),
		PageSizes:        sizes,
		LogLevel:         v.GetString("log_level"),
		MockAddr:         v.GetString("mock_addr"),
		PostgresDSN:      v.GetString("postgres_dsn"),
		JWTSecret:        v.GetString("jwt_secret"),
		TokenTTL:         v.GetDuration("token_ttl"),
		MockUserEmail:    v.GetString("mock_user_email"),
		MockUserPassword: v.GetString("mock_user_password"),
	}
	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("api_url is required")
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("request_timeout must be positive, got %s", cfg.RequestTimeout)
	}
	if !slices.Contains(cfg.PageSizes, cfg.ItemsPerPage) {
		return Config{}, fmt.Errorf("items_per_page %d is not one of page_sizes %v", cfg.ItemsPerPage, cfg.PageSizes)
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("token_ttl must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}

func parseSizes(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("page_sizes: invalid size %q", part)
		}
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("page_sizes is empty")
	}
	slices.Sort(out)
	return out, nil
}

// defaultSessionFile mirrors the XDG lookup used for CLI sessions:
// $XDG_CONFIG_HOME/storefront/session.json, then ~/.config.
func defaultSessionFile() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "storefront-session.json")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "storefront", "session.json")
}
