package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/resgraph/internal/config"
	"github.com/mvp-joe/resgraph/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "resgraph",
	Short: "resgraph - map Python operations to the resources they use",
	Long: `resgraph scans Python source for functions and the resources each one
touches (parameters, file paths, database and HTTP calls, config names),
builds a bipartite operation/resource graph and reports shared and critical
resources.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <project>/.resgraph/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// project is a resolved project root with its configuration.
type project struct {
	root   string
	cfg    *config.Config
	logger *logrus.Logger
}

// loadProject resolves dir and loads its configuration and logger.
func loadProject(dir string) (*project, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	var opts []config.LoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	cfg, err := config.NewLoader(root, opts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.Logging)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return &project{root: root, cfg: cfg, logger: logger}, nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
