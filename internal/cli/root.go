package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/deidaraiorek/snowstem/internal/config"
	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/logging"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfgFile  string
	rootDir  string
	language string
	logLevel string
	dbPath   string
	backend  string
	debug    bool

	cfg     *config.Config
	logger  *slog.Logger
	cleanup func()
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	a := &app{cleanup: func() {}}

	rootCmd := &cobra.Command{
		Use:   "snowstem",
		Short: "Snowball stemming for annotated documents",
		Long: `snowstem tokenizes documents, attaches a Snowball stem to every token
annotation and optionally stores the annotated documents.

Example usage:
  snowstem stem notes.txt                 # Stem a file and print the stems
  snowstem stem "docs/**/*.html" --save   # Stem many files and store them
  snowstem serve                          # Run the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.cleanup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./snowstem.yaml)")
	flags.StringVarP(&a.rootDir, "dir", "d", "", "directory searched for config (default is current directory)")
	flags.StringVarP(&a.language, "language", "l", "", "stemming language (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.dbPath, "db", "", "document store path (overrides config)")
	flags.StringVar(&a.backend, "backend", "", "document store backend: sqlite or bolt")
	flags.BoolVar(&a.debug, "debug", false, "show error details")

	rootCmd.AddCommand(
		newStemCmd(a),
		newTokenizeCmd(a),
		newLanguagesCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error

	if a.rootDir == "" {
		a.rootDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	if a.cfgFile != "" {
		a.cfg, err = config.Load(a.cfgFile)
	} else {
		a.cfg, err = config.LoadFromDir(a.rootDir)
	}
	if err != nil {
		return err
	}

	if a.language != "" {
		a.cfg.Stemmer.Language = a.language
	}
	if a.logLevel != "" {
		a.cfg.Logging.Level = a.logLevel
	}
	if a.dbPath != "" {
		a.cfg.Storage.Path = a.dbPath
	}
	if a.backend != "" {
		a.cfg.Storage.Backend = a.backend
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger, a.cleanup, err = logging.Setup(logging.Config{
		Level:    a.cfg.Logging.Level,
		Format:   a.cfg.Logging.Format,
		FilePath: a.cfg.Logging.File,
		Output:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	slog.SetDefault(a.logger)
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	return run(ctx, NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(ctx context.Context, rootCmd *cobra.Command, args []string, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		debug, _ := rootCmd.PersistentFlags().GetBool("debug")
		if debug {
			fmt.Fprintln(stderr, stemerrors.FormatForUser(err, true))
		} else {
			fmt.Fprint(stderr, stemerrors.FormatForCLI(err))
		}
		return 1
	}
	return 0
}
