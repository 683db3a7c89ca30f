// Package config provides YAML-based configuration loading for MathiBot.
// Secrets come from the environment; see Overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathibot/internal/llm"
)

// Config is the top-level MathiBot configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Chat     ChatConfig     `yaml:"chat"`
	LLM      LLMConfig      `yaml:"llm"`
	Lessons  LessonsConfig  `yaml:"lessons"`
	Sessions SessionsConfig `yaml:"sessions"`
	Variant  VariantConfig  `yaml:"variant"`
	Guided   GuidedConfig   `yaml:"guided"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ChatConfig tunes a chat turn.
type ChatConfig struct {
	// GenerationTimeout bounds the generation call of one turn.
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	// HistoryTokens and HistoryMessages cap the history sent to the
	// model. Zero sends the whole history.
	HistoryTokens   int `yaml:"history_tokens"`
	HistoryMessages int `yaml:"history_messages"`
	// MaxContext is the default number of lessons retrieved per turn.
	MaxContext int `yaml:"max_context"`
}

// LLMConfig overrides the environment-derived provider settings.
type LLMConfig struct {
	Provider       string   `yaml:"provider"`
	Models         []string `yaml:"models"`
	ModelFallbacks []string `yaml:"model_fallbacks"`
	MaxTokens      int      `yaml:"max_tokens"`
	Temperature    *float64 `yaml:"temperature"`
}

// LessonsConfig selects the lesson store.
type LessonsConfig struct {
	// Driver is "sqlite" (the local database) or "supabase".
	Driver   string         `yaml:"driver"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Semantic SemanticConfig `yaml:"semantic"`
}

// SupabaseConfig holds the PostgREST endpoint of the lessons table.
type SupabaseConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Table  string `yaml:"table"`
}

// SemanticConfig enables vector search over lessons in Qdrant.
type SemanticConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	VectorSize uint64 `yaml:"vector_size"`
}

// SessionsConfig selects the session store and its expiry.
type SessionsConfig struct {
	// Driver is "memory" or "redis".
	Driver string      `yaml:"driver"`
	Redis  RedisConfig `yaml:"redis"`
	// IdleTTL removes sessions without activity for this long.
	IdleTTL time.Duration `yaml:"idle_ttl"`
	// SweepSchedule is a 5-field cron expression.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// RedisConfig holds the Redis connection for the session store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// VariantConfig tunes numeric variant generation.
type VariantConfig struct {
	ShiftRatio float64 `yaml:"shift_ratio"`
	MinShift   float64 `yaml:"min_shift"`
}

// GuidedConfig tunes the guided-example prompts.
type GuidedConfig struct {
	TruncateAt      int `yaml:"truncate_at"`
	MaxMappingLines int `yaml:"max_mapping_lines"`
}

// Load reads a YAML config file from path and returns a validated Config.
// An empty path yields the defaults. Environment overrides are applied
// after the file.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return parse(data, os.Getenv)
}

// Parse unmarshals YAML bytes into a validated Config. It does not read
// the environment.
func Parse(data []byte) (*Config, error) {
	return parse(data, func(string) string { return "" })
}

func parse(data []byte, getenv func(string) string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv copies MATHIBOT_* variables over file values.
func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Addr, "MATHIBOT_ADDR")
	set(&c.Lessons.Driver, "MATHIBOT_LESSONS_DRIVER")
	set(&c.Lessons.Supabase.URL, "MATHIBOT_SUPABASE_URL")
	set(&c.Lessons.Supabase.APIKey, "MATHIBOT_SUPABASE_KEY")
	set(&c.Lessons.Semantic.URL, "MATHIBOT_QDRANT_URL")
	set(&c.Lessons.Semantic.APIKey, "MATHIBOT_QDRANT_API_KEY")
	set(&c.Sessions.Driver, "MATHIBOT_SESSIONS_DRIVER")
	set(&c.Sessions.Redis.Addr, "MATHIBOT_REDIS_ADDR")
	set(&c.Sessions.Redis.Password, "MATHIBOT_REDIS_PASSWORD")

	if v := getenv("MATHIBOT_SESSION_IDLE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: MATHIBOT_SESSION_IDLE_TTL: %w", err)
		}
		c.Sessions.IdleTTL = d
	}
	if v := getenv("MATHIBOT_SEMANTIC_SEARCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: MATHIBOT_SEMANTIC_SEARCH: %w", err)
		}
		c.Lessons.Semantic.Enabled = b
	}
	return nil
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Chat.GenerationTimeout == 0 {
		c.Chat.GenerationTimeout = 30 * time.Second
	}
	if c.Chat.MaxContext == 0 {
		c.Chat.MaxContext = 1
	}
	if c.Lessons.Driver == "" {
		c.Lessons.Driver = "sqlite"
	}
	if c.Lessons.Supabase.Table == "" {
		c.Lessons.Supabase.Table = "lessons"
	}
	if c.Lessons.Semantic.Collection == "" {
		c.Lessons.Semantic.Collection = "lessons"
	}
	if c.Lessons.Semantic.VectorSize == 0 {
		c.Lessons.Semantic.VectorSize = 1536
	}
	if c.Sessions.Driver == "" {
		c.Sessions.Driver = "memory"
	}
	if c.Sessions.IdleTTL == 0 {
		c.Sessions.IdleTTL = 24 * time.Hour
	}
	if c.Sessions.SweepSchedule == "" {
		c.Sessions.SweepSchedule = "*/10 * * * *"
	}
	if c.Sessions.Redis.Addr == "" {
		c.Sessions.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Variant.ShiftRatio == 0 {
		c.Variant.ShiftRatio = 0.15
	}
	if c.Variant.MinShift == 0 {
		c.Variant.MinShift = 2
	}
	if c.Guided.TruncateAt == 0 {
		c.Guided.TruncateAt = 400
	}
	if c.Guided.MaxMappingLines == 0 {
		c.Guided.MaxMappingLines = 5
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Lessons.Driver {
	case "sqlite":
	case "supabase":
		if c.Lessons.Supabase.URL == "" {
			errs = append(errs, "lessons.supabase.url is required for the supabase driver")
		}
		if c.Lessons.Supabase.APIKey == "" {
			errs = append(errs, "lessons.supabase.api_key is required for the supabase driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("lessons.driver %q is not one of sqlite, supabase", c.Lessons.Driver))
	}
	if c.Lessons.Semantic.Enabled && c.Lessons.Semantic.URL == "" {
		errs = append(errs, "lessons.semantic.url is required when semantic search is enabled")
	}
	switch c.Sessions.Driver {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("sessions.driver %q is not one of memory, redis", c.Sessions.Driver))
	}
	if c.Sessions.IdleTTL < 0 {
		errs = append(errs, "sessions.idle_ttl must not be negative")
	}
	if c.Chat.GenerationTimeout < 0 {
		errs = append(errs, "chat.generation_timeout must not be negative")
	}
	if c.Chat.MaxContext < 0 {
		errs = append(errs, "chat.max_context must not be negative")
	}
	if c.Variant.ShiftRatio < 0 || c.Variant.MinShift < 0 {
		errs = append(errs, "variant shift values must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ApplyLLM copies the file's LLM overrides onto an environment-derived
// provider config.
func (c *Config) ApplyLLM(dst *llm.Config) {
	if c.LLM.Provider != "" {
		dst.Provider = c.LLM.Provider
	}
	if len(c.LLM.Models) > 0 {
		dst.Models = c.LLM.Models
	}
	if len(c.LLM.ModelFallbacks) > 0 {
		dst.ModelFallbacks = c.LLM.ModelFallbacks
	}
	if c.LLM.MaxTokens > 0 {
		dst.MaxTokens = c.LLM.MaxTokens
	}
	if c.LLM.Temperature != nil {
		dst.Temperature = *c.LLM.Temperature
	}
}
