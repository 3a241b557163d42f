package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string // optional viper config file
	logLevel string // log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "pandemic-sim",
	Short: "Deterministic hourly multi-agent pandemic simulator",
	Long: `pandemic-sim simulates a town of persons moving between homes, workplaces,
schools and shops hour by hour while an infection spreads through their
contacts. Regulation stages lock locations and change behaviour; every run is
a pure function of its seed and configuration.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(viper.GetString("log"))
		if err != nil {
			return fmt.Errorf("invalid log level: %s", viper.GetString("log"))
		}
		logrus.SetLevel(level)
		return nil
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Options file (default is $HOME/.pandemic-sim.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	_ = viper.BindPFlag("log", rootCmd.PersistentFlags().Lookup("log"))

	rootCmd.AddCommand(runCmd, regulationsCmd, presetsCmd)
}

// initConfig layers options: flags over PANDEMIC_* environment variables over the options file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pandemic-sim")
	}
	viper.SetEnvPrefix("PANDEMIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logrus.Infof("using options file %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		logrus.Fatalf("reading options file %s: %v", cfgFile, err)
	}
}
