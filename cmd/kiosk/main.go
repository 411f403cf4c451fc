package main

import (
	"fmt"
	"os"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/appcontext"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "kiosk",
		Short:         "Self-service kiosk payment backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default $KIOSK_CONFIG or ./.env)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(purgeSimulatedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.ConfigPath()
}

// 一次性指令不需要監看設定檔
func loadConfig() (*config.Config, *zerolog.Logger, error) {
	cf, err := config.LoadConfig(resolveConfigPath())
	if err != nil {
		return nil, nil, err
	}
	return cf, appcontext.NewLogger(cf.LogLevel, cf.IsDevelopment()), nil
}
