// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"codeberg.org/oliverandrich/accounts-api/internal/commands"
	"codeberg.org/oliverandrich/accounts-api/internal/config"
	"codeberg.org/oliverandrich/accounts-api/internal/server"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:     "accounts-api",
		Usage:    "Serve account signup, email confirmation and token endpoints",
		Version:  fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:    config.Flags(),
		Action:   server.Run,
		Commands: commands.All(),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
