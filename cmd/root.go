package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mj1618/press-monkey/internal/config"
	"github.com/mj1618/press-monkey/internal/observability"
	"github.com/mj1618/press-monkey/internal/output"
	"github.com/mj1618/press-monkey/internal/version"
)

// configKeyAnnotation marks a flag that overrides a configuration key when
// set on the command line.
const configKeyAnnotation = "press-monkey/config-key"

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "press-monkey",
	Short: "Randomly press every reachable button in a UI",
	Long: `press-monkey finds the pressable controls a user could reach right now and
presses them at random, with jittered hold and delay times, counting every press.

The tester starts idle with its surface hidden. Press Enter three times within
0.75s to reveal the surface, then use its Start and Stop buttons.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		if pretty, err := rootCmd.PersistentFlags().GetBool("pretty"); err == nil {
			output.PrettyOutput = pretty
		}

		loaded, err := loadConfig(cmd)
		if err != nil {
			observability.InitializeLogger(config.NewDefaultConfig().Logger())
			return err
		}
		cfg = loaded
		observability.InitializeLogger(cfg.Logger())
		observability.GetLogger().Debug("Starting press-monkey", zap.String("version", version.Version))
		return nil
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./press-monkey.yaml)")
	pf.String("format", "yaml", "Output format: yaml or json")
	pf.Bool("pretty", false, "Pretty-print JSON output")

	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.Duration("hold", 0, "Base press hold time")
	pf.Duration("delay", 0, "Base delay between presses")
	pf.Float64("randomness", 0, "Jitter amount in [0, 1]")
	pf.Duration("status-interval", 0, "Minimum time between status updates")
	pf.Int64("seed", 0, "Random seed (0 picks one from the clock)")
	pf.Bool("purge-destroyed", false, "Drop destroyed controls from the press table")
	pf.StringSlice("roles", nil, "Only press controls with these roles (e.g. pressable, btn, lnk)")
	configFlag(pf, "log-level", "logger.level")
	configFlag(pf, "hold", "pressing.hold")
	configFlag(pf, "delay", "pressing.delay")
	configFlag(pf, "randomness", "pressing.randomness")
	configFlag(pf, "status-interval", "pressing.status_interval")
	configFlag(pf, "seed", "pressing.seed")
	configFlag(pf, "purge-destroyed", "pressing.purge_destroyed")
	configFlag(pf, "roles", "discovery.roles")
}

// configFlag ties flag name to a configuration key.
func configFlag(fs *pflag.FlagSet, name, key string) {
	if err := fs.SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
		panic(err)
	}
}

// loadConfig layers defaults, the config file, PRESS_MONKEY_* environment
// variables and explicitly set flags, in increasing priority.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		// No config type: with one set, viper also matches the bare name,
		// which is the binary itself when run from the build directory.
		v.SetConfigName("press-monkey")
	}
	v.SetEnvPrefix("PRESS_MONKEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[configKeyAnnotation]
		if len(keys) == 0 || !f.Changed || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(keys[0], f)
	})
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
	}
	return config.NewConfigFromViper(v)
}
