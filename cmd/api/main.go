package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"user-calc-service/cmd/api/app"
	"user-calc-service/cmd/api/server"
)

// Version is overridden at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	cliApp := &cli.App{
		Name:    "user-calc-service",
		Usage:   "User CRUD and arithmetic HTTP API with an optional gRPC surface",
		Version: Version,
		Flags:   flags(),
		Action:  run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "application exited with error: %v\n", err)
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Directory containing app.env",
			Value:   ".",
			EnvVars: []string{"CONFIG_PATH"},
		},
		&cli.StringFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Application environment (development, production); overrides APP_ENV in app.env",
			EnvVars: []string{"APP_ENV"},
		},
	}
}

// exportEnv mirrors an explicit --env into APP_ENV, which configuration
// reads. Without the flag, APP_ENV from the environment or app.env applies.
func exportEnv(c *cli.Context) error {
	if !c.IsSet("env") {
		return nil
	}
	if err := os.Setenv("APP_ENV", c.String("env")); err != nil {
		return fmt.Errorf("failed to set APP_ENV: %w", err)
	}
	return nil
}

func run(c *cli.Context) error {
	if err := exportEnv(c); err != nil {
		return err
	}

	ctx, stop := server.WithSignal(c.Context)
	defer stop()

	application, err := app.New(ctx, c.String("config"))
	if err != nil {
		return err
	}

	return application.Run(ctx)
}
