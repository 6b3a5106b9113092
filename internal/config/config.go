// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key read from the environment
const EnvPrefix = "ALIGN"

// Keys shared by the viper defaults, env bindings and cobra flags
const (
	KeyPort           = "port"
	KeyDatabaseURL    = "database_url"
	KeyGeminiAPIKey   = "gemini_api_key"
	KeyProfilesPath   = "profiles_path"
	KeyCorpusPath     = "corpus_path"
	KeyWatchCorpus    = "watch_corpus"
	KeyMinChars       = "min_chars"
	KeyMaxContextDocs = "max_context_docs"
	KeyLLMTimeout     = "llm_timeout"
	KeyAllowedOrigins = "allowed_origins"
	KeyVerbose        = "verbose"
	KeyJWTSecret      = "auth.jwt_secret"
	KeyJWTAudience    = "auth.audience"
	KeyJWTIssuer      = "auth.issuer"
	KeyAuthDisabled   = "auth.disabled"
)

// legacyEnv maps keys to the bare environment names used by existing deployments.
// ALIGN_-prefixed names still take precedence.
var legacyEnv = map[string]string{
	KeyDatabaseURL:  "DATABASE_URL",
	KeyGeminiAPIKey: "GEMINI_API_KEY",
	KeyJWTSecret:    "JWT_SECRET",
}

// ServerConfig holds everything the serve command needs
type ServerConfig struct {
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	DatabaseURL    string        `mapstructure:"database_url"`
	GeminiAPIKey   string        `mapstructure:"gemini_api_key"`
	ProfilesPath   string        `mapstructure:"profiles_path"`
	CorpusPath     string        `mapstructure:"corpus_path"`
	WatchCorpus    bool          `mapstructure:"watch_corpus"`
	MinChars       int           `mapstructure:"min_chars" validate:"min=0"`
	MaxContextDocs int           `mapstructure:"max_context_docs" validate:"min=1,max=20"`
	LLMTimeout     time.Duration `mapstructure:"llm_timeout" validate:"gt=0"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	Verbose        bool          `mapstructure:"verbose"`
	Auth           AuthConfig    `mapstructure:"auth"`
}

// SetDefaults registers default values on v.
// Every key gets one so that Unmarshal sees values that only come from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyGeminiAPIKey, "")
	v.SetDefault(KeyProfilesPath, "")
	v.SetDefault(KeyCorpusPath, "")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyMinChars, 0)
	v.SetDefault(KeyMaxContextDocs, 3)
	v.SetDefault(KeyLLMTimeout, 60*time.Second)
	v.SetDefault(KeyAllowedOrigins, []string{"*"})
	v.SetDefault(KeyWatchCorpus, false)
	v.SetDefault(KeyJWTSecret, "")
	v.SetDefault(KeyJWTAudience, DefaultAudience)
	v.SetDefault(KeyJWTIssuer, "")
	v.SetDefault(KeyAuthDisabled, false)
}

// BindEnv configures v to read ALIGN_* variables, plus the bare legacy names
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// Load decodes and validates the server configuration held by v
func Load(v *viper.Viper) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	// Comma-separated origins from the environment arrive as one element
	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and the auth settings
func (c *ServerConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := c.Auth.normalize(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
