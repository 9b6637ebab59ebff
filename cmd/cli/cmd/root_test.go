package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
	viper.SetEnvPrefix("DDF")
	viper.AutomaticEnv()
}

func TestRootCommand_DefaultURL(t *testing.T) {
	resetViper()

	cmd := &cobra.Command{}
	cmd.PersistentFlags().String("url", "http://localhost:6162", "ddfmonitor status API URL")
	viper.BindPFlag("url", cmd.PersistentFlags().Lookup("url"))

	if url := viper.GetString("url"); url != "http://localhost:6162" {
		t.Errorf("expected default url http://localhost:6162, got: %s", url)
	}
}

func TestRootCommand_EnvVarBinding(t *testing.T) {
	resetViper()
	t.Setenv("DDF_URL", "http://monitor:9000")

	if url := viper.GetString("url"); url != "http://monitor:9000" {
		t.Errorf("expected url from env var, got: %s", url)
	}
}

func TestRootCommand_ExecuteHelp(t *testing.T) {
	resetViper()
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Errorf("root command should execute without error: %v", err)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := map[string]bool{"status": false, "logs [field_id]": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Use]; ok {
			want[c.Use] = true
		}
	}
	for use, found := range want {
		if !found {
			t.Errorf("expected %q subcommand to be registered", use)
		}
	}
}
