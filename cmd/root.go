package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/printhq/cloudprint/cmd/dev"
	"github.com/printhq/cloudprint/cmd/invites"
	"github.com/printhq/cloudprint/cmd/printer"
	"github.com/printhq/cloudprint/cmd/search"
	"github.com/printhq/cloudprint/cmd/submit"
	"github.com/printhq/cloudprint/cmd/version"
	"github.com/printhq/cloudprint/cmd/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cloudprint",
	Short: "Cloud print client",
}

func init() {
	cobra.OnInitialize(initConfig)

	// Flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "Config file (default \"cloudprint.yml\")")
	rootCmd.PersistentFlags().StringP("log-level", "", "info", "Log level, can be one of: debug, info, warn, error")
	rootCmd.PersistentFlags().StringP("base-url", "", "https://www.google.com/cloudprint", "Cloud print service base url (no trailing slash)")
	rootCmd.PersistentFlags().StringP("locale", "", "en", "UI locale sent as the hl parameter")
	rootCmd.PersistentFlags().BoolP("app-kiosk-mode", "", false, "Disable cookie-authenticated searches")
	rootCmd.PersistentFlags().StringP("account", "", "", "Account the requests run under")
	rootCmd.PersistentFlags().StringP("access-token", "", "", "Bearer token for device-authenticated requests")
	rootCmd.PersistentFlags().BoolP("ignore-asserts", "", false, "ignore-asserts mode")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("cloud.baseurl", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("cloud.locale", rootCmd.PersistentFlags().Lookup("locale"))
	_ = viper.BindPFlag("cloud.app-kiosk-mode", rootCmd.PersistentFlags().Lookup("app-kiosk-mode"))
	_ = viper.BindPFlag("token.access-token", rootCmd.PersistentFlags().Lookup("access-token"))
	_ = viper.BindPFlag("account", rootCmd.PersistentFlags().Lookup("account"))
	_ = viper.BindPFlag("ignore-asserts", rootCmd.PersistentFlags().Lookup("ignore-asserts"))

	viper.SetDefault("cloud.timeout", "1m")
	viper.SetDefault("cloud.conn-timeout", "10s")

	// Add Subcommands
	rootCmd.AddCommand(search.NewCmd())
	rootCmd.AddCommand(printer.NewCmd())
	rootCmd.AddCommand(submit.NewCmd())
	rootCmd.AddCommand(invites.NewCmd())
	rootCmd.AddCommand(watch.NewCmd())
	rootCmd.AddCommand(dev.NewCmd())
	rootCmd.AddCommand(version.NewCmd())

	// Set default output
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cloudprint")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("error reading config file", "error", err)
			os.Exit(1)
		}
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
