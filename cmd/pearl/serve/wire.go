package servecmder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/papercomputeco/pearl/pkg/config"
	"github.com/papercomputeco/pearl/pkg/dotdir"
	"github.com/papercomputeco/pearl/pkg/eventstream"
	"github.com/papercomputeco/pearl/pkg/eventstream/kafka"
	"github.com/papercomputeco/pearl/pkg/eventstream/nop"
	"github.com/papercomputeco/pearl/pkg/llm"
	"github.com/papercomputeco/pearl/pkg/prompt"
	"github.com/papercomputeco/pearl/pkg/search"
	"github.com/papercomputeco/pearl/pkg/storage"
	"github.com/papercomputeco/pearl/pkg/storage/inmemory"
	"github.com/papercomputeco/pearl/pkg/storage/postgres"
	"github.com/papercomputeco/pearl/pkg/storage/sqlite"
)

// Storage driver names.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Publisher names.
const (
	PublisherNone  = "none"
	PublisherKafka = "kafka"
)

// defaultSQLiteFile is created inside the .pearl/ directory when
// storage.sqlite_path is empty.
const defaultSQLiteFile = "pearl.sqlite"

// generationParams maps the generation section onto sampling parameters.
func generationParams(g config.GenerationConfig) llm.GenerationParams {
	return llm.GenerationParams{
		Temperature:      g.Temperature,
		TopP:             g.TopP,
		TopK:             g.TopK,
		RepeatPenalty:    g.RepeatPenalty,
		PresencePenalty:  g.PresencePenalty,
		FrequencyPenalty: g.FrequencyPenalty,
		MaxTokens:        g.MaxTokens,
	}
}

// newSearcher returns nil when no API key is configured, which disables web
// context.
func newSearcher(s config.SearchConfig) search.Searcher {
	if s.APIKey == "" {
		return nil
	}
	return search.NewSerperClient(&search.SerperOpts{
		Endpoint: s.Endpoint,
		APIKey:   s.APIKey,
	})
}

// loadPersona resolves the persona file (persona.path, then
// .pearl/persona.toml) and loads it. An empty path means the built-in
// persona.
func loadPersona(p config.PersonaConfig, configDir string) (prompt.Persona, string, error) {
	path := p.Path
	if path == "" {
		found, err := dotdir.NewManager().PersonaPath(configDir)
		if err != nil {
			return prompt.Persona{}, "", err
		}
		path = found
	}

	if path == "" {
		return prompt.DefaultPersona(), "", nil
	}

	persona, err := prompt.LoadPersona(path)
	if err != nil {
		return prompt.Persona{}, "", fmt.Errorf("loading persona %s: %w", path, err)
	}
	return persona, path, nil
}

// newDriver creates the transcript driver named by s.Driver.
func newDriver(ctx context.Context, s config.StorageConfig, configDir string, logger *zap.Logger) (storage.Driver, error) {
	switch s.Driver {
	case StorageMemory, "":
		logger.Info("using in-memory transcript storage")
		return inmemory.NewDriver(), nil

	case StorageSQLite:
		path := s.SQLitePath
		if path == "" {
			dir, err := dotdir.NewManager().Target(configDir)
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, defaultSQLiteFile)
		}

		driver, err := sqlite.NewSQLiteDriver(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		logger.Info("using SQLite transcript storage", zap.String("path", path))
		return driver, nil

	case StoragePostgres:
		if s.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is required for the postgres driver")
		}

		driver, err := postgres.NewDriver(ctx, s.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		logger.Info("using PostgreSQL transcript storage")
		return driver, nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %q (supported: memory, sqlite, postgres)", s.Driver)
	}
}

// newPublisher creates the exchange event publisher named by e.Publisher.
func newPublisher(e config.EventsConfig, logger *zap.Logger) (eventstream.Publisher, error) {
	switch e.Publisher {
	case PublisherNone, "":
		return nop.NewPublisher(), nil

	case PublisherKafka:
		brokers := e.Brokers()
		if len(brokers) == 0 {
			return nil, errors.New("events.kafka_brokers is required for the kafka publisher")
		}

		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   e.KafkaTopic,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		logger.Info("publishing exchange events to kafka",
			zap.Strings("brokers", brokers),
			zap.String("topic", e.KafkaTopic),
		)
		return pub, nil

	default:
		return nil, fmt.Errorf("unknown event publisher: %q (supported: none, kafka)", e.Publisher)
	}
}
