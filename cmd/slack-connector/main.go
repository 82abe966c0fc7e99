// ABOUTME: Entry point for slack-connector
// ABOUTME: Cobra commands to serve the Slack webhook, validate config and print the version

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _            _                                       _
 ___| | __ _  ___| | __      ___ ___  _ __  _ __   ___  ___| |_ ___  _ __
/ __| |/ _' |/ __| |/ /____ / __/ _ \| '_ \| '_ \ / _ \/ __| __/ _ \| '__|
\__ \ | (_| | (__|   <_____| (_| (_) | | | | | | |  __/ (__| || (_) | |
|___/_|\__,_|\___|_|\_\     \___\___/|_| |_|_| |_|\___|\___|\__\___/|_|
`

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "slack-connector",
		Short:         "slack-connector - Slack front for the answer API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the webhook server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "check-config",
			Short: "Load and validate the config file",
			RunE:  runCheckConfig,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

// defaultConfigPath honors CONNECTOR_CONFIG, falling back to ./config.yaml.
func defaultConfigPath() string {
	if p := os.Getenv("CONNECTOR_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCheckConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	out := cmd.OutOrStdout()
	green.Fprint(out, "✔ ")
	fmt.Fprintf(out, "%s is valid (lang %s, chat %s, ticketing %s)\n",
		configPath, cfg.Lang, onOff(cfg.Chat.Enabled), onOff(cfg.Messenger.Enabled()))
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Sessions:  %s\n", cfg.Database.Path)
	if cfg.Messenger.Enabled() {
		green.Print("    ▶ ")
		fmt.Println("Ticketing: enabled")
	}
	fmt.Println()

	logger.Info("starting slack-connector",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"lang", cfg.Lang,
	)

	a, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.store.Close(); err != nil {
			logger.Error("closing session store", "error", err)
		}
	}()

	pruner, err := store.StartPruner(a.store, cfg.Session.PruneSchedule, cfg.Session.TTL, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		<-pruner.Stop().Done()
		return nil
	})
	return g.Wait()
}
