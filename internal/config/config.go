package config

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"car-listings/internal/db"
	"car-listings/internal/models"
	"car-listings/internal/scraper"
)

//go:embed sources.yaml
var defaultSources []byte

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DBDriver string
	DBPath   string
	DBDSN    string
	Port     int

	FetchAttempts      int
	RetryDelay         time.Duration
	RequestTimeout     time.Duration
	MinRequestInterval time.Duration
	UseBrowser         bool
	Headless           bool
	ScrapingBeeKey     string

	SourcesFile string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DBDriver: getEnv("CARS_DB_DRIVER", db.DriverSQLite),
		DBPath:   getEnv("CARS_DB_PATH", "data/listings.db"),
		DBDSN:    getEnv("CARS_DB_DSN", ""),
		Port:     getEnvInt("CARS_PORT", 8080),

		FetchAttempts:      getEnvInt("CARS_FETCH_ATTEMPTS", 4),
		RetryDelay:         getEnvDuration("CARS_RETRY_DELAY", 60*time.Second),
		RequestTimeout:     getEnvDuration("CARS_REQUEST_TIMEOUT", 30*time.Second),
		MinRequestInterval: getEnvDuration("CARS_MIN_REQUEST_INTERVAL", 2*time.Second),
		UseBrowser:         getEnvBool("CARS_USE_BROWSER", false),
		Headless:           getEnvBool("CARS_HEADLESS", true),
		ScrapingBeeKey:     getEnv("SCRAPINGBEE_API_KEY", ""),

		SourcesFile: getEnv("CARS_SOURCES_FILE", ""),
	}
}

// DB returns the store settings
func (c *Config) DB() db.Config {
	return db.Config{Driver: c.DBDriver, Path: c.DBPath, DSN: c.DBDSN}
}

// Fetch returns the fetcher settings
func (c *Config) Fetch() scraper.FetchConfig {
	return scraper.FetchConfig{
		Retry:          scraper.RetryPolicy{Attempts: c.FetchAttempts, Delay: c.RetryDelay},
		RequestTimeout: c.RequestTimeout,
		MinInterval:    c.MinRequestInterval,
		UseBrowser:     c.UseBrowser,
		Headless:       c.Headless,
		ScrapingBeeKey: c.ScrapingBeeKey,
	}
}

// SourceDef is one source's search page as written in the sources file
type SourceDef struct {
	URL     string            `yaml:"url"`
	Params  map[string]string `yaml:"params"`
	Headers map[string]string `yaml:"headers"`
	Cookies map[string]string `yaml:"cookies"`
}

// LoadSources reads the source definitions from path, or the built-in
// definitions when path is empty.
func LoadSources(path string) (map[models.Source]scraper.PageRequest, error) {
	data := defaultSources
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read sources file: %w", err)
		}
		data = b
	}
	return ParseSources(data)
}

// ParseSources decodes YAML source definitions keyed by source name
func ParseSources(data []byte) (map[models.Source]scraper.PageRequest, error) {
	var defs map[string]SourceDef
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse sources: %w", err)
	}

	out := make(map[models.Source]scraper.PageRequest, len(defs))
	for name, def := range defs {
		src, err := models.ParseSource(name)
		if err != nil {
			return nil, err
		}
		if def.URL == "" {
			return nil, fmt.Errorf("source %s has no url", name)
		}
		out[src] = scraper.PageRequest{
			Source:  src,
			URL:     def.URL,
			Params:  def.Params,
			Headers: def.Headers,
			Cookies: def.Cookies,
		}
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
