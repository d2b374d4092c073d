// Package cmd provides the quicksite command-line interface.
//
// Configuration is read, in increasing priority, from defaults, the
// .quicksite.yml file (or the file named by --config or
// QUICKSITE_CONFIG_FILE), QUICKSITE_<SECTION>_<KEY> environment variables
// and command-line flags.
package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/quicksite/internal/config"
	"github.com/conneroisu/quicksite/internal/logging"
	"github.com/conneroisu/quicksite/internal/project"
)

// configFileEnv names an alternative configuration file.
const configFileEnv = "QUICKSITE_CONFIG_FILE"

// app is the state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
}

// env is a loaded configuration with its logger and project.
type env struct {
	cfg     *config.Config
	logger  logging.Logger
	project *project.Project
}

// NewRootCommand builds the command tree with a fresh configuration.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "quicksite",
		Short: "Render JSON page structures to HTML",
		Long: `quicksite renders JSON page structures, reusable components and
translation catalogs to sanitised HTML, and edits structures by node path.

Quick Start:
  quicksite init --example        Create a project with a sample page
  quicksite render page:home      Render a page to stdout
  quicksite serve --editor        Start the preview server with the editor API
  quicksite check                 Render and audit every structure`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .quicksite.yml, can also use "+configFileEnv+")")
	flags.StringP("root", "r", "", "project root directory")
	flags.StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("project.root", flags.Lookup("root"))
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))

	root.AddCommand(
		newInitCmd(a),
		newRenderCmd(a),
		newPreviewCmd(a),
		newNodeCmd(a),
		newListCmd(a),
		newCheckCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree.
func Execute() error {
	return NewRootCommand().Execute()
}

// initConfig points viper at the configuration file and environment. A
// missing default file is not an error.
func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	switch {
	case a.cfgFile != "":
		a.v.SetConfigFile(a.cfgFile)
	case os.Getenv(configFileEnv) != "":
		a.v.SetConfigFile(os.Getenv(configFileEnv))
	default:
		a.v.AddConfigPath(".")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".quicksite")
	}
	config.ConfigureEnv(a.v)

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// load reads the configuration and opens the project. A relative project
// root from a configuration file is resolved against that file.
func (a *app) load(cmd *cobra.Command) (*env, error) {
	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return nil, err
	}
	if used := a.v.ConfigFileUsed(); used != "" && !filepath.IsAbs(cfg.Project.Root) &&
		!cmd.Flags().Changed("root") && os.Getenv(config.EnvPrefix+"_PROJECT_ROOT") == "" {
		cfg.Project.Root = filepath.Join(filepath.Dir(used), cfg.Project.Root)
	}

	logger := logging.NewLogger(cfg.LoggerConfig(cmd.ErrOrStderr()))
	proj, err := project.Open(cfg.Project.Root, project.Options{
		HistoryLimit: cfg.Project.HistoryLimit,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, project: proj}, nil
}
