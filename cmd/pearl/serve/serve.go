// Package servecmder provides the serve command that runs the /generate
// front end and the admin API together.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/pearl/api"
	"github.com/papercomputeco/pearl/pkg/config"
	"github.com/papercomputeco/pearl/pkg/conversation"
	"github.com/papercomputeco/pearl/pkg/llm/provider"
	"github.com/papercomputeco/pearl/pkg/logger"
	"github.com/papercomputeco/pearl/pkg/metrics"
	"github.com/papercomputeco/pearl/pkg/pipeline"
	"github.com/papercomputeco/pearl/pkg/prompt"
	"github.com/papercomputeco/pearl/pkg/sanitize"
	"github.com/papercomputeco/pearl/pkg/search"
	"github.com/papercomputeco/pearl/proxy"
)

type ServeCommander struct {
	configDir string
	debug     bool
	logFile   string
	noMCP     bool

	// Flag targets. Values are read back through viper so config.toml and
	// PEARL_* env vars apply when a flag is not set.
	listen       string
	apiListen    string
	upstream     string
	providerType string
	model        string
	temperature  float64
	capacity     int
	searchKey    string
	persona      string
	storage      string
	sqlitePath   string
	postgresDSN  string
	publisher    string
	kafkaBrokers string

	cfg    *config.Config
	logger *zap.Logger
}

// serveFlags are the registry keys bound for this command.
var serveFlags = []string{
	config.FlagListen,
	config.FlagAPIListen,
	config.FlagUpstream,
	config.FlagProvider,
	config.FlagModel,
	config.FlagTemperature,
	config.FlagCapacity,
	config.FlagSearchKey,
	config.FlagPersona,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagPublisher,
	config.FlagKafkaBrokers,
}

const serveLongDesc string = `Run Pearl.

Starts the public /generate server and the admin API together:
  /generate         POST {"prompt": "..."} -> {"response", "model", ...}
  admin API         /ping, /conversation, /transcript, /metrics, /mcp

Settings come from flags, then PEARL_* environment variables, then
config.toml in the .pearl/ directory, then built-in defaults.

Examples:
  pearl serve
  pearl serve --model llama3 --upstream http://gpu-box:11434
  PEARL_SEARCH_API_KEY=... pearl serve --storage sqlite`

const serveShortDesc string = "Run the Pearl server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.providerType)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddFloatFlag(cmd, config.Flags, config.FlagTemperature, &cmder.temperature)
	config.AddIntFlag(cmd, config.Flags, config.FlagCapacity, &cmder.capacity)
	config.AddStringFlag(cmd, config.Flags, config.FlagSearchKey, &cmder.searchKey)
	config.AddStringFlag(cmd, config.Flags, config.FlagPersona, &cmder.persona)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &cmder.storage)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagPublisher, &cmder.publisher)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Serve /mcp without any tools")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	closeLog, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()
	defer func() { _ = c.logger.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := c.cfg
	m := metrics.New()

	gen, err := provider.New(&provider.NewGeneratorOpts{
		ProviderType: cfg.Server.Provider,
		TargetURL:    cfg.Server.Upstream,
		Timeout:      cfg.GenerationTimeout(),
	})
	if err != nil {
		return err
	}

	params := generationParams(cfg.Generation)

	searcher := newSearcher(cfg.Search)
	if searcher == nil {
		c.logger.Info("web search disabled: no search.api_key configured")
	}

	store := conversation.NewStore(conversation.Config{
		Capacity:   cfg.Conversation.Capacity,
		Summarizer: conversation.NewGeneratorSummarizer(gen, cfg.Generation.Model, params),
		Logger:     c.logger,
		Metrics:    m,
	})

	persona, personaPath, err := loadPersona(cfg.Persona, c.configDir)
	if err != nil {
		return err
	}
	personaHolder := prompt.NewPersonaHolder(persona)
	c.logger.Info("persona loaded",
		zap.String("name", persona.Name),
		zap.String("path", personaPath),
	)

	pipe, err := pipeline.New(pipeline.Config{
		Decider: search.NewDecider(search.Config{
			Prefix:       cfg.Search.Prefix,
			TriggerTerms: cfg.Search.TriggerTerms,
			NumResults:   cfg.Search.NumResults,
			Searcher:     searcher,
			Logger:       c.logger,
			Metrics:      m,
		}),
		Store:     store,
		Assembler: prompt.NewAssembler(cfg.Generation.Model, params),
		Persona:   personaHolder,
		Generator: gen,
		Sanitizer: sanitize.New(),
		Logger:    c.logger,
		Metrics:   m,
	})
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	driver, err := newDriver(ctx, cfg.Storage, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := newPublisher(cfg.Events, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	p, err := proxy.New(proxy.Config{
		ListenAddr:   cfg.Server.Listen,
		UpstreamURL:  cfg.Server.Upstream,
		ProviderType: cfg.Server.Provider,
		AllowOrigins: cfg.Server.AllowOrigins,
		Publisher:    publisher,
		Metrics:      m,
	}, pipe, driver, c.logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		DisableMCP: c.noMCP,
	}, pipe, driver, m, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := p.Run(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := apiServer.Run(); err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	})

	if cfg.Persona.Watch && personaPath != "" {
		g.Go(func() error {
			return prompt.NewWatcher(personaPath, personaHolder, c.logger).Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down")
		return errors.Join(apiServer.Shutdown(), p.Close())
	})

	return g.Wait()
}

// setupLogger builds the console logger and, with --log-file, tees JSON
// output to the file.
func (c *ServeCommander) setupLogger() (func(), error) {
	console := logger.New(logger.WithDebug(c.debug))
	if c.logFile == "" {
		c.logger = console
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
	c.logger = logger.Multi(console, file)

	return func() { _ = f.Close() }, nil
}
