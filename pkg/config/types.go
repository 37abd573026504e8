package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent pearl configuration stored as config.toml
// in the .pearl/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version      int                `toml:"version"`
	Server       ServerConfig       `toml:"server"`
	API          APIConfig          `toml:"api"`
	Generation   GenerationConfig   `toml:"generation"`
	Search       SearchConfig       `toml:"search"`
	Conversation ConversationConfig `toml:"conversation"`
	Persona      PersonaConfig      `toml:"persona"`
	Storage      StorageConfig      `toml:"storage"`
	Events       EventsConfig       `toml:"events"`
	Client       ClientConfig       `toml:"client"`
}

// ServerConfig holds the public /generate front end settings.
type ServerConfig struct {
	Listen       string `toml:"listen,omitempty"`
	Provider     string `toml:"provider,omitempty"`
	Upstream     string `toml:"upstream,omitempty"`
	AllowOrigins string `toml:"allow_origins,omitempty"`
}

// APIConfig holds admin API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// GenerationConfig holds the model and sampling parameters sent upstream.
type GenerationConfig struct {
	Model            string  `toml:"model,omitempty"`
	Temperature      float64 `toml:"temperature,omitempty"`
	TopP             float64 `toml:"top_p,omitempty"`
	TopK             int     `toml:"top_k,omitempty"`
	RepeatPenalty    float64 `toml:"repeat_penalty,omitempty"`
	PresencePenalty  float64 `toml:"presence_penalty,omitempty"`
	FrequencyPenalty float64 `toml:"frequency_penalty,omitempty"`
	MaxTokens        int     `toml:"max_tokens,omitempty"`
	Timeout          string  `toml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (g GenerationConfig) TimeoutDuration() (time.Duration, error) {
	if g.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(g.Timeout)
}

// SearchConfig holds web search settings. An empty APIKey disables search.
type SearchConfig struct {
	Endpoint     string   `toml:"endpoint,omitempty"`
	APIKey       string   `toml:"api_key,omitempty"`
	Prefix       string   `toml:"prefix,omitempty"`
	NumResults   int      `toml:"num_results,omitempty"`
	TriggerTerms []string `toml:"trigger_terms,omitempty"`
}

// ConversationConfig holds conversation window settings.
type ConversationConfig struct {
	Capacity int `toml:"capacity,omitempty"`
}

// PersonaConfig points at an optional persona TOML file. An empty path uses
// the built-in persona.
type PersonaConfig struct {
	Path  string `toml:"path,omitempty"`
	Watch bool   `toml:"watch,omitempty"`
}

// StorageConfig selects the transcript driver.
type StorageConfig struct {
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig selects the exchange event publisher.
type EventsConfig struct {
	Publisher    string `toml:"publisher,omitempty"`
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// Brokers splits KafkaBrokers on commas.
func (e EventsConfig) Brokers() []string {
	var out []string
	for _, b := range strings.Split(e.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// ClientConfig holds settings for CLI commands that connect to a running
// server (e.g. pearl chat). Values are full URLs (scheme + host + port).
type ClientConfig struct {
	Target    string `toml:"target,omitempty"`
	APITarget string `toml:"api_target,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(*field(c), 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = f
			return nil
		},
	}
}

func durationKey(name string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = v
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen":        stringKey(func(c *Config) *string { return &c.Server.Listen }),
	"server.provider":      stringKey(func(c *Config) *string { return &c.Server.Provider }),
	"server.upstream":      stringKey(func(c *Config) *string { return &c.Server.Upstream }),
	"server.allow_origins": stringKey(func(c *Config) *string { return &c.Server.AllowOrigins }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"generation.model":             stringKey(func(c *Config) *string { return &c.Generation.Model }),
	"generation.temperature":       floatKey("generation.temperature", func(c *Config) *float64 { return &c.Generation.Temperature }),
	"generation.top_p":             floatKey("generation.top_p", func(c *Config) *float64 { return &c.Generation.TopP }),
	"generation.top_k":             intKey("generation.top_k", func(c *Config) *int { return &c.Generation.TopK }),
	"generation.repeat_penalty":    floatKey("generation.repeat_penalty", func(c *Config) *float64 { return &c.Generation.RepeatPenalty }),
	"generation.presence_penalty":  floatKey("generation.presence_penalty", func(c *Config) *float64 { return &c.Generation.PresencePenalty }),
	"generation.frequency_penalty": floatKey("generation.frequency_penalty", func(c *Config) *float64 { return &c.Generation.FrequencyPenalty }),
	"generation.max_tokens":        intKey("generation.max_tokens", func(c *Config) *int { return &c.Generation.MaxTokens }),
	"generation.timeout":           durationKey("generation.timeout", func(c *Config) *string { return &c.Generation.Timeout }),

	"search.endpoint":    stringKey(func(c *Config) *string { return &c.Search.Endpoint }),
	"search.api_key":     stringKey(func(c *Config) *string { return &c.Search.APIKey }),
	"search.prefix":      stringKey(func(c *Config) *string { return &c.Search.Prefix }),
	"search.num_results": intKey("search.num_results", func(c *Config) *int { return &c.Search.NumResults }),

	"conversation.capacity": intKey("conversation.capacity", func(c *Config) *int { return &c.Conversation.Capacity }),

	"persona.path":  stringKey(func(c *Config) *string { return &c.Persona.Path }),
	"persona.watch": boolKey("persona.watch", func(c *Config) *bool { return &c.Persona.Watch }),

	"storage.driver":       stringKey(func(c *Config) *string { return &c.Storage.Driver }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"events.publisher":     stringKey(func(c *Config) *string { return &c.Events.Publisher }),
	"events.kafka_brokers": stringKey(func(c *Config) *string { return &c.Events.KafkaBrokers }),
	"events.kafka_topic":   stringKey(func(c *Config) *string { return &c.Events.KafkaTopic }),

	"client.target":     stringKey(func(c *Config) *string { return &c.Client.Target }),
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),
}

// orderedKeys lists configKeys in TOML section order.
var orderedKeys = []string{
	"server.listen",
	"server.provider",
	"server.upstream",
	"server.allow_origins",
	"api.listen",
	"generation.model",
	"generation.temperature",
	"generation.top_p",
	"generation.top_k",
	"generation.repeat_penalty",
	"generation.presence_penalty",
	"generation.frequency_penalty",
	"generation.max_tokens",
	"generation.timeout",
	"search.endpoint",
	"search.api_key",
	"search.prefix",
	"search.num_results",
	"conversation.capacity",
	"persona.path",
	"persona.watch",
	"storage.driver",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"events.publisher",
	"events.kafka_brokers",
	"events.kafka_topic",
	"client.target",
	"client.api_target",
}

// secretKeys hold credentials and are redacted by "pearl config list".
var secretKeys = map[string]bool{
	"search.api_key":       true,
	"storage.postgres_dsn": true,
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}
