package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/godilite/engagement-dashboard/internal/cli"
	"github.com/godilite/engagement-dashboard/internal/config"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.LoadFromEnv()

	logger := zap.NewNop()
	if os.Getenv("DASHCTL_DEBUG") != "" {
		if l, err := config.NewLogger(cfg); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	if err := cli.Execute(context.Background(), cli.WithConfig(cfg), cli.WithLogger(logger)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
