// Package config builds the process configuration from an optional YAML
// file, a .env file and PISTEMIND_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/events"
	"github.com/alexanderramin/pistemind/internal/llm"
)

const envPrefix = "PISTEMIND_"

// Config holds all application configuration.
type Config struct {
	DBPath      string        `yaml:"db_path"`
	TemplateDir string        `yaml:"template_dir"`
	ExportDir   string        `yaml:"export_dir"`
	Interface   string        `yaml:"interface"`
	StaleAfter  time.Duration `yaml:"stale_after"`
	HTTPAddr    string        `yaml:"http_addr"`
	Log         LogConfig     `yaml:"log"`
	Redis       RedisConfig   `yaml:"redis"`
	LLM         llm.LLMConfig `yaml:"llm"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// RedisConfig enables transition publishing when Addr is set.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		DBPath:     "~/.pistemind/sessions.db",
		ExportDir:  "sessions",
		Interface:  domain.InterfaceCLI,
		StaleAfter: 24 * time.Hour,
		HTTPAddr:   ":8080",
		Log:        LogConfig{Mode: "prod", Level: "info"},
		Redis:      RedisConfig{Channel: events.DefaultChannel},
		LLM:        llm.DefaultConfig(),
	}
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads .env when present, then builds and validates the config
// from the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv layers the YAML file named by PISTEMIND_CONFIG and then the
// environment over Default.
func FromEnv(lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if path, ok := lookup(envPrefix + "CONFIG"); ok && path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	home, _ := os.UserHomeDir()
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.TemplateDir = expandHome(cfg.TemplateDir, home)
	cfg.ExportDir = expandHome(cfg.ExportDir, home)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	// A task entry in the file replaces that task's defaults wholesale;
	// unset token and timeout limits fall back to the defaults.
	if c.LLM.Tasks == nil {
		c.LLM.Tasks = map[llm.TaskType]llm.TaskConfig{}
	}
	for task, def := range llm.DefaultConfig().Tasks {
		tc, ok := c.LLM.Tasks[task]
		if !ok {
			c.LLM.Tasks[task] = def
			continue
		}
		if tc.MaxTokens == 0 {
			tc.MaxTokens = def.MaxTokens
		}
		if tc.TimeoutMs == 0 {
			tc.TimeoutMs = def.TimeoutMs
		}
		c.LLM.Tasks[task] = tc
	}
	return nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("DB_PATH", &c.DBPath)
	str("TEMPLATE_DIR", &c.TemplateDir)
	str("EXPORT_DIR", &c.ExportDir)
	str("INTERFACE", &c.Interface)
	str("HTTP_ADDR", &c.HTTPAddr)
	str("LOG_MODE", &c.Log.Mode)
	str("LOG_LEVEL", &c.Log.Level)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_CHANNEL", &c.Redis.Channel)
	if v, ok := lookup(envPrefix + "STALE_AFTER"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSTALE_AFTER: %w", envPrefix, err))
		} else {
			c.StaleAfter = d
		}
	}

	var provider string
	str("LLM_PROVIDER", &provider)
	if provider != "" {
		c.LLM.Provider = llm.Provider(strings.ToLower(provider))
	}
	str("LLM_ENDPOINT", &c.LLM.Endpoint)
	str("LLM_MODEL", &c.LLM.Model)
	str("LLM_API_KEY", &c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if v, ok := lookup("GEMINI_API_KEY"); ok {
			c.LLM.APIKey = v
		}
	}
	integer("LLM_TIMEOUT_MS", &c.LLM.TimeoutMs)
	integer("LLM_MAX_RETRIES", &c.LLM.MaxRetries)
	boolean("LLM_LOG_CALLS", &c.LLM.LogCalls)

	if c.LLM.Tasks == nil {
		c.LLM.Tasks = map[llm.TaskType]llm.TaskConfig{}
	}
	for _, task := range llm.AllTasks {
		tc := c.LLM.Tasks[task]
		key := "LLM_" + strings.ToUpper(string(task)) + "_"
		float(key+"TEMPERATURE", &tc.Temperature)
		integer(key+"MAX_TOKENS", &tc.MaxTokens)
		integer(key+"TIMEOUT_MS", &tc.TimeoutMs)
		c.LLM.Tasks[task] = tc
	}
	return errors.Join(errs...)
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path cannot be empty"))
	}
	if c.Interface == "" {
		errs = append(errs, errors.New("interface cannot be empty"))
	}
	if c.StaleAfter <= 0 {
		errs = append(errs, fmt.Errorf("stale_after must be positive, got %s", c.StaleAfter))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr cannot be empty"))
	}
	switch c.Log.Mode {
	case "dev", "prod":
	default:
		errs = append(errs, fmt.Errorf("log mode must be dev or prod, got %q", c.Log.Mode))
	}
	if c.Redis.Addr != "" && c.Redis.Channel == "" {
		errs = append(errs, errors.New("redis channel cannot be empty when redis is enabled"))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("llm: %w", err))
	}
	return errors.Join(errs...)
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
