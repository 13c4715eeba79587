package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wonny/aegis-screen/pkg/config"
	"github.com/wonny/aegis-screen/pkg/logger"
)

var (
	// Global flags
	envFile    string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Aegis Screen - 재무 지표 기반 종목 스크리닝",
	Long: `Aegis Screen Unified CLI

FnGuide 재무 데이터(xlsx/csv) 또는 Postgres에서 지표를 읽어
PER/PBR/PSR/PCR/ROA, F-Score, 모멘텀, 마법공식, 밸류 콤보로 종목 순위를 매깁니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant screen --strategy magic_formula
  go run ./cmd/quant screen --list
  go run ./cmd/quant magic-sheets data/magic_2016.xlsx --top 20
  go run ./cmd/quant inspect data/fnguide/invest.xlsx`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load before reading configuration (default: .env lookup)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// bootstrap loads configuration and builds the logger shared by every command
func bootstrap(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.NewWithWriter(cfg, cmd.ErrOrStderr()), nil
}
