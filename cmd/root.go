package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Onnokh/bookr/internal/config"
	"github.com/Onnokh/bookr/internal/jira"
	"github.com/Onnokh/bookr/internal/ledger"
	"github.com/Onnokh/bookr/internal/logging"
	"github.com/Onnokh/bookr/internal/tempo"
	"github.com/Onnokh/bookr/internal/xdg"
)

// version is set at build time with -ldflags "-X github.com/Onnokh/bookr/cmd.version=...".
var version = "dev"

var (
	logLevel string
	logFile  string
)

// now and isInteractive are replaced in tests.
var (
	now           = time.Now
	isInteractive = func() bool { return term.IsTerminal(os.Stdin.Fd()) }
)

// application holds everything a command needs, built in PersistentPreRunE.
type application struct {
	cfg        config.Config
	log        zerolog.Logger
	closer     io.Closer
	jira       *jira.Client
	tempo      *tempo.Client
	ledger     *ledger.Ledger
	ledgerPath string
}

var app *application

var rootCmd = &cobra.Command{
	Use:   "bookr [ticket] [time]",
	Short: "Log time to Jira from the terminal",
	Long: `Log time to Jira, through Tempo when a Tempo token is configured.

The ticket is optional: without one, the key is taken from the current Git
branch (e.g. feature/PROJ-123-add-login).`,
	Example: `  bookr 2h15m
  bookr PROJ-123 1h30m -m "Fixed bug"
  bookr --date 2024-01-15 4h
  bookr today
  bookr undo`,
	Args:          cobra.RangeArgs(0, 2),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "init", "version", "help", "completion":
			return nil
		}
		if cmd == cmd.Root() && len(args) == 0 {
			return nil
		}
		a, err := setup()
		if err != nil {
			return &fatalError{err: err}
		}
		app = a
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runLog(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default from LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file (default <data dir>/bookr.log)")
	addLogFlags(rootCmd)
}

// setup loads configuration and builds the clients and the ledger.
func setup() (*application, error) {
	path, err := xdg.ConfigFile()
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	file := logFile
	dataDir, err := xdg.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data dir: %w", err)
	}
	if file == "" {
		file = filepath.Join(dataDir, logging.FileName)
	}
	log, closer, err := logging.New(level, file)
	if err != nil {
		return nil, err
	}

	a := &application{
		cfg:    cfg,
		log:    log,
		closer: closer,
		jira: jira.NewClient(jira.Config{
			BaseURL:  cfg.JiraBaseURL,
			Email:    cfg.JiraEmail,
			APIToken: cfg.JiraAPIToken,
			Logger:   logging.Component(log, "jira"),
		}),
	}
	if cfg.HasTempo() {
		a.tempo = tempo.NewClient(tempo.Config{
			BaseURL: cfg.TempoBaseURL,
			Token:   cfg.TempoAPIToken,
			Logger:  logging.Component(log, "tempo"),
		})
	}

	store, err := ledger.NewFileStorage()
	if err != nil {
		return nil, fmt.Errorf("resolving ledger path: %w", err)
	}
	a.ledgerPath = store.Path
	a.ledger = ledger.New(store, ledger.Options{Now: now, Logger: logging.Component(log, "ledger")})

	log.Debug().Str("config", path).Bool("tempo", cfg.HasTempo()).Str("version", version).Msg("configured")
	return a, nil
}

// Execute runs the root command. Only setup failures exit non-zero; command
// failures are printed with a hint and exit 0.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if app != nil && app.closer != nil {
		_ = app.closer.Close()
	}
	if err == nil {
		return
	}

	printError(os.Stderr, err)
	var fatal *fatalError
	if errors.As(err, &fatal) {
		os.Exit(1)
	}
}
