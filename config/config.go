package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	SearchURL  string `yaml:"search_url"`
	BaseOrigin string `yaml:"base_origin"`
	MaxAds     int    `yaml:"max_ads"`

	// Selectors for the OLX results page.
	ContainerSelector string `yaml:"container_selector"`
	SentinelClass     string `yaml:"sentinel_class"`
	TitleSelector     string `yaml:"title_selector"`
	PriceSelector     string `yaml:"price_selector"`
	LinkSelector      string `yaml:"link_selector"`
	LoadMoreSelector  string `yaml:"load_more_selector"`

	NavigateTimeout time.Duration `yaml:"navigate_timeout"`
	PageLoadTimeout time.Duration `yaml:"page_load_timeout"`
	LoadMoreTimeout time.Duration `yaml:"load_more_timeout"`
	PageSettleDelay time.Duration `yaml:"page_settle_delay"`
	ScrollDelay     time.Duration `yaml:"scroll_delay"`
	LoadMoreSettle  time.Duration `yaml:"load_more_settle"`
	Headless        bool          `yaml:"headless"`
	UserAgent       string        `yaml:"user_agent"`

	OutputDir    string `yaml:"output_dir"`
	OutputPrefix string `yaml:"output_prefix"`
	LogPath      string `yaml:"log_path"`
	LogLevel     string `yaml:"log_level"`

	DBEnabled  bool   `yaml:"db_enabled"`
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`
}

const searchURLFormat = "https://www.olx.in/items/q-%s?isSearchCall=true"

func DefaultConfig() *Config {
	return &Config{
		SearchURL:         SearchURLFor("car cover"),
		BaseOrigin:        "https://www.olx.in",
		MaxAds:            309,
		ContainerSelector: "div._2CyHG > div > div:nth-child(2) > ul",
		SentinelClass:     "TA_b7",
		TitleSelector:     "span._2poNJ",
		PriceSelector:     "span._2Ks63",
		LinkSelector:      "a[href]",
		LoadMoreSelector:  "li.TA_b7 > div > button[data-aut-id='btnLoadMore']",
		NavigateTimeout:   60 * time.Second,
		PageLoadTimeout:   15 * time.Second,
		LoadMoreTimeout:   10 * time.Second,
		PageSettleDelay:   3 * time.Second,
		ScrollDelay:       1 * time.Second,
		LoadMoreSettle:    5 * time.Second,
		Headless:          true,
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
		OutputDir:         "output",
		OutputPrefix:      "olx_car_cover_results",
		LogPath:           "olx_scraper.log",
		LogLevel:          "info",
		DBEnabled:         false,
		DBHost:            "localhost",
		DBPort:            5433,
		DBUser:            "postgres",
		DBPassword:        "postgres",
		DBName:            "olx_scraper",
		DBSSLMode:         "disable",
	}
}

// SearchURLFor renders a free-text query into an OLX search URL.
// "Car Cover" becomes .../items/q-car-cover?isSearchCall=true.
func SearchURLFor(query string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(query)), "-")
	return fmt.Sprintf(searchURLFormat, url.PathEscape(slug))
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.SearchURL = getEnv("OLX_SEARCH_URL", c.SearchURL)
	if q := os.Getenv("OLX_QUERY"); q != "" {
		c.SearchURL = SearchURLFor(q)
	}
	c.BaseOrigin = getEnv("OLX_BASE_ORIGIN", c.BaseOrigin)
	c.OutputDir = getEnv("OLX_OUTPUT_DIR", c.OutputDir)
	c.OutputPrefix = getEnv("OLX_OUTPUT_PREFIX", c.OutputPrefix)
	c.LogPath = getEnv("OLX_LOG_PATH", c.LogPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.UserAgent = getEnv("OLX_USER_AGENT", c.UserAgent)

	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.DBSSLMode = getEnv("DB_SSLMODE", c.DBSSLMode)

	var err error
	if c.MaxAds, err = getEnvInt("OLX_MAX_ADS", c.MaxAds); err != nil {
		return err
	}
	if c.DBPort, err = getEnvInt("DB_PORT", c.DBPort); err != nil {
		return err
	}
	if c.Headless, err = getEnvBool("OLX_HEADLESS", c.Headless); err != nil {
		return err
	}
	if c.DBEnabled, err = getEnvBool("DB_ENABLED", c.DBEnabled); err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations the collector cannot run with.
func (c *Config) Validate() error {
	if c.MaxAds <= 0 {
		return fmt.Errorf("max ads must be positive, got %d", c.MaxAds)
	}
	u, err := url.Parse(c.SearchURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid search url %q", c.SearchURL)
	}
	if !strings.HasPrefix(c.BaseOrigin, "http") {
		return fmt.Errorf("invalid base origin %q", c.BaseOrigin)
	}
	if c.ContainerSelector == "" || c.LoadMoreSelector == "" {
		return errors.New("container and load-more selectors are required")
	}
	if c.OutputPrefix == "" {
		return errors.New("output prefix is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
