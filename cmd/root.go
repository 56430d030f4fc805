package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/waypoint/internal/app"
	"github.com/zjrosen/waypoint/internal/config"
	"github.com/zjrosen/waypoint/internal/flags"
	"github.com/zjrosen/waypoint/internal/keys"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".waypoint/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	noColor   bool
	cfg       config.Config
	cfgErr    error
)

var rootCmd = &cobra.Command{
	Use:   "waypoint",
	Short: "A hierarchical navigation state manager",
	Long: `Waypoint keeps the navigation state of a tree of routers: a root with a
launch flow and a four-tab section flow, each router owning a stack of
typed destinations. Deep links select the owning tab and push its page.

Run without arguments to open the navigator.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
		return cfgErr
	},
	RunE: runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: "+localConfigPath+" or ~/.config/waypoint/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug records")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"render without colors")
	rootCmd.Flags().Bool("no-restore", false,
		"start with empty stacks instead of the last saved state")
}

func initConfig() {
	viper.Reset()
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	defaults := config.Defaults()
	viper.SetDefault("coalesce_delay", defaults.CoalesceDelay)
	viper.SetDefault("state.enabled", defaults.State.Enabled)
	viper.SetDefault("state.path", defaults.State.Path)
	viper.SetDefault("state.keep", defaults.State.Keep)
	viper.SetDefault("spool.enabled", defaults.Spool.Enabled)
	viper.SetDefault("spool.dir", defaults.Spool.Dir)
	viper.SetDefault("spool.debounce", defaults.Spool.Debounce)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	viper.SetDefault("flags", defaults.Flags)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .waypoint/config.yaml (current directory)
		// 2. ~/.config/waypoint/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "waypoint"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file found anywhere - create the default locally
			if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
				viper.SetConfigFile(localConfigPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	cfg = config.Defaults()
	if err := viper.Unmarshal(&cfg); err != nil {
		cfgErr = fmt.Errorf("reading configuration: %w", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		cfgErr = fmt.Errorf("invalid configuration: %w", err)
		return
	}
	cfgErr = nil
}

// configPath is the file flag changes are written to.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return localConfigPath
}

func runApp(cmd *cobra.Command, args []string) error {
	if noRestore, _ := cmd.Flags().GetBool("no-restore"); noRestore {
		cfg.Flags = withFlag(cfg.Flags, flags.FlagRestoreState, false)
	}

	rt, err := newRuntime(cmd.Context(), cfg, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	stopSpool, err := rt.startSpool()
	if err != nil {
		return err
	}
	defer stopSpool()

	model := app.New(app.Config{
		Root:       rt.root,
		Runner:     rt.queue,
		Dispatcher: rt.dispatcher,
		Logger:     rt.logger,
		Store:      rt.store,
		Keys:       keys.DefaultKeyMap(),
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func withFlag(in map[string]bool, name string, on bool) map[string]bool {
	out := make(map[string]bool, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	out[name] = on
	return out
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
