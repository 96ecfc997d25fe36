// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// syncCommand runs the reconciliation pass explicitly.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync operations",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one full Trakt → Plex sync pass",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Skip recording this run in the history database",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the run result as JSON",
					},
				},
				Action: r.Sync,
			},
		},
	}
}

// authCommand handles Trakt OAuth operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Trakt authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Trakt using OAuth2",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "manual",
						Usage: "Paste the authorization code instead of running a local callback server",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored token's freshness",
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Force a token refresh now",
				Action: r.AuthRefresh,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Convert a legacy trakt_config.txt into config.toml",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Destination configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupImport,
			},
		},
	}
}

// historyCommand lists recorded sync runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}
