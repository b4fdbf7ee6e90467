package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fplboard/fplboard/internal/cache"
	"github.com/fplboard/fplboard/internal/config"
	"github.com/fplboard/fplboard/internal/gateway"
	"github.com/fplboard/fplboard/internal/logging"
	"github.com/fplboard/fplboard/internal/server"
	"github.com/fplboard/fplboard/internal/server/routes"
	"github.com/fplboard/fplboard/internal/source"
	"github.com/fplboard/fplboard/internal/version"
)

// cliOptions bundles the parsed CLI flags so run can be exercised in tests.
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	// Optional .env file: lets PORT live next to the binary in dev setups.
	_ = godotenv.Load()

	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run executes the selected mode and returns the process exit code.
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "load config failed: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "init logger failed: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["listen_port"] = cfg.Global.ListenPort
		fields["snapshot_path"] = cfg.Global.SnapshotPath
		fields["result"] = "ok"
		logger.WithFields(fields).Info("configuration valid")
		return 0
	}

	// Startup order: store → snapshot restore → fetchers → orchestrator →
	// fiber app, so every request shares the one cache instance.
	store := cache.NewStore()
	persister := cache.NewPersister(
		store,
		cfg.Global.SnapshotPath,
		cfg.Global.SnapshotInterval.DurationValue(),
		cfg.Global.SnapshotMaxAge.DurationValue(),
		logger,
	)
	restored := persister.Restore()

	httpClient := source.NewUpstreamClient()
	fetchers := source.NewFetchers(
		httpClient, store, logger,
		cfg.Global.BootstrapURL,
		cfg.Global.FixturesURL,
		cfg.Global.FeedURL,
		cfg.Global.APITimeout.DurationValue(),
		cfg.Global.FeedTimeout.DurationValue(),
	)
	users := source.NewUserClient(httpClient, cfg.Global.APIBaseURL, cfg.Global.APITimeout.DurationValue())

	orchestrator := gateway.New(gateway.Options{
		Store:    store,
		Policy:   policyFromConfig(cfg.Global),
		Fetchers: fetchers,
		Users:    users,
		Logger:   logger,
	})

	app, err := server.NewApp(server.AppOptions{
		Logger:       logger,
		Orchestrator: orchestrator,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "build http app failed: %v\n", err)
		return 1
	}
	routes.RegisterAPIRoutes(app, routes.Options{
		Orchestrator: orchestrator,
		Store:        store,
		Logger:       logger,
		StartedAt:    time.Now().UTC(),
	})

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["snapshot_restored"] = restored
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("gateway starting")

	return serve(app, persister, logger, cfg.Global.ListenPort)
}

// serve runs the HTTP listener and the snapshot ticker until a termination
// signal arrives, then writes one final snapshot and exits cleanly.
func serve(app *fiber.App, persister *cache.Persister, logger *logrus.Logger, port int) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go persister.Run(ctx)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(fmt.Sprintf(":%d", port))
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			fmt.Fprintf(stdErr, "http server failed: %v\n", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	logger.WithField("action", "shutdown").Info("termination signal received")
	if err := app.Shutdown(); err != nil {
		logger.WithError(err).Warn("http shutdown failed")
	}
	if err := persister.Write(); err != nil {
		logger.WithError(err).Warn("final snapshot failed")
	} else {
		logger.WithField("action", "shutdown").Info("final snapshot written")
	}
	return 0
}

func policyFromConfig(g config.GlobalConfig) cache.Policy {
	return cache.Policy{
		BootstrapActiveTTL: g.BootstrapActiveTTL.DurationValue(),
		BootstrapIdleTTL:   g.BootstrapIdleTTL.DurationValue(),
		FixturesTTL:        g.FixturesTTL.DurationValue(),
	}
}

// parseCLIFlags parses CLI arguments, resolving the config path from the
// flag or the FPLBOARD_CONFIG environment variable.
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("fplboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "config file path (default ./config.toml, FPLBOARD_CONFIG overrides)")
	fs.BoolVar(&checkOnly, "check-config", false, "validate the configuration and exit")
	fs.BoolVar(&showVer, "version", false, "print version information")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("parse flags: %w", err)
	}

	path := os.Getenv("FPLBOARD_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}
