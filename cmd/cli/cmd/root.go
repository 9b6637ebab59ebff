package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ddfctl",
	Short: "ddfctl inspects a running DDF-pipeline queue monitor",
	Long: `ddfctl talks to the status API of a ddfmonitor process.

The monitor watches the fields of one cluster, keeps up to one pipeline run
(download) and one upload going, and publishes a report after every cycle.

Common workflows:

  Show the latest cycle report:
    ddfctl status

  Refresh the report every 30 seconds:
    ddfctl status --watch 30s

  Print the captured output of a pipeline run:
    ddfctl logs P12345 --kind pipeline

Configuration:
  Set the monitor endpoint via flag, environment variable or config file:
    DDF_URL    Status API endpoint (default: http://localhost:6162)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".ddfctl")
		viper.SetConfigType("yaml")
	}

	// DDF_URL and friends
	viper.SetEnvPrefix("DDF")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ddfctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6162", "ddfmonitor status API URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}
