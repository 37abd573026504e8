package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/pearl/pkg/dotdir"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "PEARL"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the PEARL_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PEARL_SERVER_LISTEN, PEARL_SEARCH_API_KEY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper resolves a Config from v, honoring the full precedence chain.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Listen:       v.GetString("server.listen"),
			Provider:     v.GetString("server.provider"),
			Upstream:     v.GetString("server.upstream"),
			AllowOrigins: v.GetString("server.allow_origins"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Generation: GenerationConfig{
			Model:            v.GetString("generation.model"),
			Temperature:      v.GetFloat64("generation.temperature"),
			TopP:             v.GetFloat64("generation.top_p"),
			TopK:             v.GetInt("generation.top_k"),
			RepeatPenalty:    v.GetFloat64("generation.repeat_penalty"),
			PresencePenalty:  v.GetFloat64("generation.presence_penalty"),
			FrequencyPenalty: v.GetFloat64("generation.frequency_penalty"),
			MaxTokens:        v.GetInt("generation.max_tokens"),
			Timeout:          v.GetString("generation.timeout"),
		},
		Search: SearchConfig{
			Endpoint:     v.GetString("search.endpoint"),
			APIKey:       v.GetString("search.api_key"),
			Prefix:       v.GetString("search.prefix"),
			NumResults:   v.GetInt("search.num_results"),
			TriggerTerms: v.GetStringSlice("search.trigger_terms"),
		},
		Conversation: ConversationConfig{
			Capacity: v.GetInt("conversation.capacity"),
		},
		Persona: PersonaConfig{
			Path:  v.GetString("persona.path"),
			Watch: v.GetBool("persona.watch"),
		},
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Events: EventsConfig{
			Publisher:    v.GetString("events.publisher"),
			KafkaBrokers: v.GetString("events.kafka_brokers"),
			KafkaTopic:   v.GetString("events.kafka_topic"),
		},
		Client: ClientConfig{
			Target:    v.GetString("client.target"),
			APITarget: v.GetString("client.api_target"),
		},
	}

	if len(cfg.Search.TriggerTerms) == 0 {
		cfg.Search.TriggerTerms = nil
	}

	return cfg
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.provider", d.Server.Provider)
	v.SetDefault("server.upstream", d.Server.Upstream)
	v.SetDefault("server.allow_origins", d.Server.AllowOrigins)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Generation
	v.SetDefault("generation.model", d.Generation.Model)
	v.SetDefault("generation.temperature", d.Generation.Temperature)
	v.SetDefault("generation.top_p", d.Generation.TopP)
	v.SetDefault("generation.top_k", d.Generation.TopK)
	v.SetDefault("generation.repeat_penalty", d.Generation.RepeatPenalty)
	v.SetDefault("generation.presence_penalty", d.Generation.PresencePenalty)
	v.SetDefault("generation.frequency_penalty", d.Generation.FrequencyPenalty)
	v.SetDefault("generation.max_tokens", d.Generation.MaxTokens)
	v.SetDefault("generation.timeout", d.Generation.Timeout)

	// Search
	v.SetDefault("search.endpoint", d.Search.Endpoint)
	v.SetDefault("search.api_key", d.Search.APIKey)
	v.SetDefault("search.prefix", d.Search.Prefix)
	v.SetDefault("search.num_results", d.Search.NumResults)

	// Conversation
	v.SetDefault("conversation.capacity", d.Conversation.Capacity)

	// Persona
	v.SetDefault("persona.path", d.Persona.Path)
	v.SetDefault("persona.watch", d.Persona.Watch)

	// Storage
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Events
	v.SetDefault("events.publisher", d.Events.Publisher)
	v.SetDefault("events.kafka_brokers", d.Events.KafkaBrokers)
	v.SetDefault("events.kafka_topic", d.Events.KafkaTopic)

	// Client
	v.SetDefault("client.target", d.Client.Target)
	v.SetDefault("client.api_target", d.Client.APITarget)
}

// fallbackTimeout is the generation timeout used when the configured value
// does not parse.
const fallbackTimeout = 60 * time.Second

// GenerationTimeout returns the parsed generation timeout, falling back to
// the default on a malformed value.
func (c *Config) GenerationTimeout() time.Duration {
	d, err := c.Generation.TimeoutDuration()
	if err != nil {
		return fallbackTimeout
	}
	return d
}
