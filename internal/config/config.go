package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the hazview service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Clients  ClientsConfig  `yaml:"clients"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Cache    CacheConfig    `yaml:"cache"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
}

// ClientsConfig groups remote service integrations.
type ClientsConfig struct {
	Core CoreClientConfig `yaml:"core"`
}

// CoreClientConfig configures access to the hazard core API.
type CoreClientConfig struct {
	BaseURL       string        `yaml:"baseURL"`
	HazardPath    string        `yaml:"hazardPath"`
	NZCodePath    string        `yaml:"nzCodePath"`
	DisaggPath    string        `yaml:"disaggPath"`
	UHSPath       string        `yaml:"uhsPath"`
	GMSPath       string        `yaml:"gmsPath"`
	ScenarioPath  string        `yaml:"scenarioPath"`
	SitePath      string        `yaml:"sitePath"`
	IMCatalogPath string        `yaml:"imCatalogPath"`
	SoilClassPath string        `yaml:"soilClassPath"`
	DatasetsPath  string        `yaml:"datasetsPath"`
	DownloadPath  string        `yaml:"downloadPath"`
	Timeout       time.Duration `yaml:"timeout"`
	CatalogTTL    time.Duration `yaml:"catalogTTL"`
}

// AuthConfig controls how sessions reach the service. Tokens are passed
// through to the core API; permissions arrive from the fronting gateway.
type AuthConfig struct {
	PermissionsHeader string `yaml:"permissionsHeader"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Valkey-backed caching of slow-changing lookups.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
}

// DefaultsConfig seeds the initial dashboard view.
type DefaultsConfig struct {
	Lat        float64 `yaml:"lat"`
	Lon        float64 `yaml:"lon"`
	EnsembleID string  `yaml:"ensembleID"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("HAZVIEW_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
		},
		Clients: ClientsConfig{
			Core: CoreClientConfig{
				HazardPath:    "/api/v1/hazard",
				NZCodePath:    "/api/v1/hazard/nz-code",
				DisaggPath:    "/api/v1/disagg",
				UHSPath:       "/api/v1/uhs",
				GMSPath:       "/api/v1/gms",
				ScenarioPath:  "/api/v1/scenario",
				SitePath:      "/api/v1/site",
				IMCatalogPath: "/api/v1/ims",
				SoilClassPath: "/api/v1/soil-classes",
				DatasetsPath:  "/api/v1/gm-datasets",
				DownloadPath:  "/api/v1/download",
				Timeout:       30 * time.Second,
				CatalogTTL:    10 * time.Minute,
			},
		},
		Auth:    AuthConfig{PermissionsHeader: "X-Permissions"},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
		Defaults: DefaultsConfig{
			// Christchurch CBD.
			Lat: -43.5320,
			Lon: 172.6366,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HAZVIEW_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("HAZVIEW_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("HAZVIEW_CORE_BASE_URL"); v != "" {
		cfg.Clients.Core.BaseURL = v
	}
	if v := os.Getenv("HAZVIEW_CORE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Clients.Core.Timeout = d
		}
	}
	if v := os.Getenv("HAZVIEW_CORE_CATALOG_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Clients.Core.CatalogTTL = d
		}
	}
	if v := os.Getenv("HAZVIEW_PERMISSIONS_HEADER"); v != "" {
		cfg.Auth.PermissionsHeader = v
	}
	if v := os.Getenv("HAZVIEW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HAZVIEW_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("HAZVIEW_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("HAZVIEW_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("HAZVIEW_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("HAZVIEW_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("HAZVIEW_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("HAZVIEW_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("HAZVIEW_CACHE_MAX_RETRIES"); v != "" {
		if retries, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxRetries = retries
		}
	}
	if v := os.Getenv("HAZVIEW_DEFAULT_LAT"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Defaults.Lat = lat
		}
	}
	if v := os.Getenv("HAZVIEW_DEFAULT_LON"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Defaults.Lon = lon
		}
	}
	if v := os.Getenv("HAZVIEW_DEFAULT_ENSEMBLE"); v != "" {
		cfg.Defaults.EnsembleID = v
	}
}
