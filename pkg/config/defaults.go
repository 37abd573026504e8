package config

const (
	defaultListen       = ":5000"
	defaultAPIListen    = ":5001"
	defaultProvider     = "ollama"
	defaultUpstream     = "http://localhost:11434"
	defaultAllowOrigins = "*"

	defaultModel         = "dolphin-mistral"
	defaultTemperature   = 0.7
	defaultTopP          = 0.9
	defaultTopK          = 40
	defaultRepeatPenalty = 1.1
	defaultMaxTokens     = 200
	defaultTimeout       = "60s"

	defaultSearchEndpoint   = "https://google.serper.dev/search"
	defaultSearchPrefix     = "search:"
	defaultSearchNumResults = 3

	defaultCapacity = 10

	defaultStorageDriver = "memory"
	defaultPublisher     = "none"
	defaultKafkaTopic    = "pearl.exchanges"

	defaultClientTarget    = "http://localhost:5000"
	defaultClientAPITarget = "http://localhost:5001"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen:       defaultListen,
			Provider:     defaultProvider,
			Upstream:     defaultUpstream,
			AllowOrigins: defaultAllowOrigins,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Generation: GenerationConfig{
			Model:         defaultModel,
			Temperature:   defaultTemperature,
			TopP:          defaultTopP,
			TopK:          defaultTopK,
			RepeatPenalty: defaultRepeatPenalty,
			MaxTokens:     defaultMaxTokens,
			Timeout:       defaultTimeout,
		},
		Search: SearchConfig{
			Endpoint:   defaultSearchEndpoint,
			Prefix:     defaultSearchPrefix,
			NumResults: defaultSearchNumResults,
		},
		Conversation: ConversationConfig{
			Capacity: defaultCapacity,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Events: EventsConfig{
			Publisher:  defaultPublisher,
			KafkaTopic: defaultKafkaTopic,
		},
		Client: ClientConfig{
			Target:    defaultClientTarget,
			APITarget: defaultClientAPITarget,
		},
	}
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = d.Version
	}

	fillString(&cfg.Server.Listen, d.Server.Listen)
	fillString(&cfg.Server.Provider, d.Server.Provider)
	fillString(&cfg.Server.Upstream, d.Server.Upstream)
	fillString(&cfg.Server.AllowOrigins, d.Server.AllowOrigins)

	fillString(&cfg.API.Listen, d.API.Listen)

	fillString(&cfg.Generation.Model, d.Generation.Model)
	fillFloat(&cfg.Generation.Temperature, d.Generation.Temperature)
	fillFloat(&cfg.Generation.TopP, d.Generation.TopP)
	fillInt(&cfg.Generation.TopK, d.Generation.TopK)
	fillFloat(&cfg.Generation.RepeatPenalty, d.Generation.RepeatPenalty)
	fillInt(&cfg.Generation.MaxTokens, d.Generation.MaxTokens)
	fillString(&cfg.Generation.Timeout, d.Generation.Timeout)

	fillString(&cfg.Search.Endpoint, d.Search.Endpoint)
	fillString(&cfg.Search.Prefix, d.Search.Prefix)
	fillInt(&cfg.Search.NumResults, d.Search.NumResults)

	fillInt(&cfg.Conversation.Capacity, d.Conversation.Capacity)

	fillString(&cfg.Storage.Driver, d.Storage.Driver)

	fillString(&cfg.Events.Publisher, d.Events.Publisher)
	fillString(&cfg.Events.KafkaTopic, d.Events.KafkaTopic)

	fillString(&cfg.Client.Target, d.Client.Target)
	fillString(&cfg.Client.APITarget, d.Client.APITarget)
}

func fillString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func fillInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func fillFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}
