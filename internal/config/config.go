package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // report time zones must load on hosts without zoneinfo

	"mysterybox/internal/models"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Report  ReportConfig  `mapstructure:"report"`
	Game    GameConfig    `mapstructure:"game"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int             `mapstructure:"port"`
	Environment     string          `mapstructure:"environment"`
	AllowedOrigins  []string        `mapstructure:"allowed_origins"`
	FrontendURL     string          `mapstructure:"frontend_url"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type StorageConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	ResultsFile string `mapstructure:"results_file"`
	StockFile   string `mapstructure:"stock_file"`
}

type ReportConfig struct {
	// Dir is relative to the data directory unless absolute.
	Dir      string `mapstructure:"dir"`
	FileName string `mapstructure:"file_name"`
	Timezone string `mapstructure:"timezone"`
	// FontFile is a UTF-8 TrueType font; empty uses Helvetica (cp1252 only).
	FontFile string `mapstructure:"font_file"`
}

type GameConfig struct {
	Prizes []PrizeConfig `mapstructure:"prizes"`
}

type PrizeConfig struct {
	Key          string   `mapstructure:"key"`
	Name         string   `mapstructure:"name"`
	Description  string   `mapstructure:"description"`
	Value        int      `mapstructure:"value"`
	Keywords     []string `mapstructure:"keywords"`
	InitialStock int      `mapstructure:"initial_stock"`
}

type LogConfig struct {
	Verbose bool   `mapstructure:"verbose"`
	File    string `mapstructure:"file"`
}

// Load reads the config file at path, if any, then applies MYSTERYBOX_*
// environment overrides. An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("mysterybox")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "MYSTERYBOX_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind PORT: %w", err)
	}
	if err := v.BindEnv("server.frontend_url", "MYSTERYBOX_SERVER_FRONTEND_URL", "FRONTEND_URL"); err != nil {
		return nil, fmt.Errorf("bind FRONTEND_URL: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3002)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.frontend_url", "")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit.requests", 100)
	v.SetDefault("server.rate_limit.window", 15*time.Minute)

	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.results_file", "game_results.json")
	v.SetDefault("storage.stock_file", "prize_stock.json")

	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.file_name", "tous_les_resultats.pdf")
	v.SetDefault("report.timezone", "Europe/Paris")
	v.SetDefault("report.font_file", "")

	v.SetDefault("log.verbose", false)
	v.SetDefault("log.file", "")

	prizes := make([]map[string]any, 0, 3)
	for _, p := range models.DefaultPrizes() {
		prizes = append(prizes, map[string]any{
			"key":           p.Key,
			"name":          p.Name,
			"description":   p.Description,
			"value":         p.Value,
			"keywords":      p.Keywords,
			"initial_stock": p.InitialStock,
		})
	}
	v.SetDefault("game.prizes", prizes)
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.RateLimit.Requests < 0 || c.Server.RateLimit.Window < 0 {
		return errors.New("server.rate_limit values must not be negative")
	}
	seen := make(map[string]bool, len(c.Game.Prizes))
	for _, p := range c.Game.Prizes {
		if p.Key == "" {
			return errors.New("game.prizes: every prize needs a key")
		}
		if seen[p.Key] {
			return fmt.Errorf("game.prizes: duplicate key %q", p.Key)
		}
		seen[p.Key] = true
		if p.InitialStock < 0 {
			return fmt.Errorf("game.prizes: %s has a negative initial_stock", p.Key)
		}
	}
	if c.Report.FontFile != "" {
		if _, err := os.Stat(c.Report.FontFile); err != nil {
			return fmt.Errorf("invalid report.font_file: %w", err)
		}
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("invalid report.timezone %q: %w", c.Report.Timezone, err)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Origins returns the CORS origins, adding the frontend URL in production.
func (c *Config) Origins() []string {
	origins := append([]string(nil), c.Server.AllowedOrigins...)
	if c.IsProduction() && c.Server.FrontendURL != "" {
		origins = append(origins, c.Server.FrontendURL)
	}
	return origins
}

func (c *Config) ResultsPath() string {
	return c.dataPath(c.Storage.ResultsFile)
}

func (c *Config) StockPath() string {
	return c.dataPath(c.Storage.StockFile)
}

func (c *Config) ReportPath() string {
	return filepath.Join(c.dataPath(c.Report.Dir), c.Report.FileName)
}

func (c *Config) dataPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Storage.DataDir, p)
}

// Location returns the report time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Prizes converts the configured prizes to the game catalog.
func (c *Config) Prizes() []models.Prize {
	prizes := make([]models.Prize, 0, len(c.Game.Prizes))
	for _, p := range c.Game.Prizes {
		prizes = append(prizes, models.Prize{
			Key:          p.Key,
			Name:         p.Name,
			Description:  p.Description,
			Value:        p.Value,
			Keywords:     p.Keywords,
			InitialStock: p.InitialStock,
		})
	}
	return prizes
}
