package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/matheus3301/flasher/internal/config"
	"github.com/matheus3301/flasher/internal/daemon"
	"github.com/matheus3301/flasher/internal/session"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", "", "config file (default $FLASHER_CONFIG or ~/.flasher/config.toml)")
	flag.Parse()

	// A .env next to the binary is optional.
	_ = godotenv.Load()

	cfg, err := config.Resolve(session.ResolveConfigPath(*configFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{Config: cfg}),
	)

	app.Run()
}
