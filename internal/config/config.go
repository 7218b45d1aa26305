// Package config loads docsql settings from a YAML file, DOCSQL_* environment
// variables and command-line overrides, and validates the result against an
// embedded CUE schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

//go:embed schema.cue
var schemaSource string

// ErrInvalid is returned when the decoded configuration violates the schema.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all docsql settings.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Project  ProjectConfig  `mapstructure:"project"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
}

// DatabaseConfig locates the SQLite document store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ProjectConfig names the project and actor local commands run as.
type ProjectConfig struct {
	ID    string `mapstructure:"id"`
	Actor string `mapstructure:"actor"`
}

// EngineConfig tunes statement execution.
type EngineConfig struct {
	// Timezone is the IANA zone NOW() reports in; empty means UTC.
	Timezone string `mapstructure:"timezone"`
	// Dialects lists parser dialects in the order they are tried.
	Dialects []string `mapstructure:"dialects"`
}

// CacheConfig sizes the row cache. A zero TTL disables it.
type CacheConfig struct {
	TTL  time.Duration `mapstructure:"ttl"`
	Size int           `mapstructure:"size"`
}

// LogConfig sets the slog level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig configures `docsql serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "docsql.db"},
		Project:  ProjectConfig{ID: "default", Actor: "local"},
		Engine:   EngineConfig{Dialects: []string{"postgres", "mysql"}},
		Cache:    CacheConfig{TTL: 60 * time.Second, Size: 256},
		Log:      LogConfig{Level: "info"},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// Load reads configuration with increasing precedence: defaults, the config
// file, DOCSQL_* environment variables (DOCSQL_DATABASE_PATH for
// database.path), then overrides keyed by dotted name.
//
// With an empty path, docsql.yaml is searched in the working directory and
// $HOME/.docsql; a missing file is not an error. An explicit path must exist.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("project.id", def.Project.ID)
	v.SetDefault("project.actor", def.Project.Actor)
	v.SetDefault("engine.timezone", def.Engine.Timezone)
	v.SetDefault("engine.dialects", def.Engine.Dialects)
	v.SetDefault("cache.ttl", def.Cache.TTL)
	v.SetDefault("cache.size", def.Cache.Size)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("server.addr", def.Server.Addr)

	v.SetEnvPrefix("DOCSQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("docsql")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.docsql")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against the embedded CUE schema and
// resolves the timezone.
func (c *Config) Validate() error {
	cuectx := cuecontext.New()
	schema := cuectx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(cuectx.Encode(c.schemaView()))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.TrimSpace(cueerrors.Details(err, nil)))
	}

	if c.Engine.Timezone != "" {
		if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
			return fmt.Errorf("%w: engine.timezone: %v", ErrInvalid, err)
		}
	}
	return nil
}

// schemaView renders the configuration in the shape the CUE schema checks.
func (c *Config) schemaView() map[string]any {
	dialects := make([]any, len(c.Engine.Dialects))
	for i, d := range c.Engine.Dialects {
		dialects[i] = strings.ToLower(strings.TrimSpace(d))
	}
	return map[string]any{
		"database": map[string]any{"path": c.Database.Path},
		"project":  map[string]any{"id": c.Project.ID, "actor": c.Project.Actor},
		"engine":   map[string]any{"timezone": c.Engine.Timezone, "dialects": dialects},
		"cache":    map[string]any{"ttl_ms": c.Cache.TTL.Milliseconds(), "size": c.Cache.Size},
		"log":      map[string]any{"level": strings.ToLower(c.Log.Level)},
		"server":   map[string]any{"addr": c.Server.Addr},
	}
}

// SlogLevel maps log.level onto a slog level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
