package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/devcaliber/assistant/internal/directory"
	"github.com/devcaliber/assistant/internal/logger"
	"github.com/devcaliber/assistant/internal/quota"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show assistant usage for an identity",
	Run: func(_ *cobra.Command, _ []string) {
		usage()
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func usage() {
	ctx := context.Background()

	zapLogger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zapLogger.Fatal("getting a config", zap.Error(err))
	}

	identity := strings.TrimSpace(viper.GetString("identity"))
	if identity == "" {
		zapLogger.Fatal("identity is required", zap.String("hint", "pass --identity with the user's email"))
	}
	role := directory.ParseRole(viper.GetString("role"))

	store, err := openStore(config)
	if err != nil {
		zapLogger.Fatal("opening store", zap.Error(err))
	}
	defer store.Close()

	ledger := quota.NewLedger(store, zapLogger)
	stats := ledger.UsageStats(ctx, identity, role)

	fmt.Printf("Usage for %s (%s):\n  Session: %s\n  Daily:   %s\n", identity, role, stats.SessionLabel, stats.DailyLabel)
}
