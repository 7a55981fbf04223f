package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recondor/recondor/internal/config"
	"github.com/recondor/recondor/internal/engine"
	"github.com/recondor/recondor/internal/output"
	"github.com/recondor/recondor/internal/probe"
	"github.com/recondor/recondor/internal/server"
	"github.com/recondor/recondor/internal/store"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	output.Version = version

	var (
		configPath string
		jsonOutput bool
		noColor    bool
		silent     bool
		verbose    bool
		runWAF     bool
		runPort    bool
		runSubdo   bool
		runCMS     bool
		runTech    bool
		runDir     bool
		runWP      bool
		axfr       bool
		proxy      string
		userAgent  string
	)

	rootCmd := &cobra.Command{
		Use:   "recondor <target>",
		Short: "Reconnaissance scan orchestrator",
		Long:  "Target reconnaissance — WAF detection, port scanning, subdomain enumeration, CMS and tech fingerprinting, directory discovery, and WordPress auditing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawTarget := strings.ToLower(strings.TrimSpace(args[0]))
			if rawTarget == "" {
				return fmt.Errorf("target is required")
			}

			// Respect NO_COLOR env var.
			if _, ok := os.LookupEnv("NO_COLOR"); ok {
				noColor = true
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			opts := cfg.Defaults
			flagBools := map[string]*bool{
				"waf": &runWAF, "port": &runPort, "subdo": &runSubdo,
				"cms": &runCMS, "tech": &runTech, "dir": &runDir,
				"wp": &runWP, "axfr": &axfr,
			}
			optBools := map[string]*bool{
				"waf": &opts.WAF, "port": &opts.Port, "subdo": &opts.Subdomain,
				"cms": &opts.CMS, "tech": &opts.Tech, "dir": &opts.Dir,
				"wp": &opts.WordPress, "axfr": &opts.AXFR,
			}
			for name, src := range flagBools {
				if cmd.Flags().Changed(name) {
					*optBools[name] = *src
				}
			}
			if cmd.Flags().Changed("proxy") {
				opts.Proxy = proxy
			}
			if cmd.Flags().Changed("user-agent") {
				opts.UserAgent = userAgent
			}

			logger := newLogger(verbose, silent)

			st := store.NewMemory()
			registry := engine.NewRegistry(probe.Adapters(cfg.Tools)...)
			orch := engine.NewOrchestrator(st, registry, logger)

			showProgress := !jsonOutput && !silent
			progress := output.NewProgress(os.Stderr, verbose, !showProgress)
			orch.Reporter = progress

			if showProgress {
				output.WriteHeader(os.Stderr, noColor)
			}

			// Set up context with signal handling for clean Ctrl+C.
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			go func() {
				<-sigCh
				fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
				cancel()
			}()

			scan := st.Create(rawTarget, opts)
			if err := orch.Run(ctx, scan.ID, opts); err != nil {
				return err
			}

			done, err := st.Load(scan.ID)
			if err != nil {
				return err
			}

			if showProgress {
				progress.Complete()
			}

			if jsonOutput {
				return output.WriteJSON(os.Stdout, done)
			}

			output.WriteTables(os.Stdout, done, noColor)
			output.WriteSummary(os.Stdout, done, noColor)

			if done.Status == engine.StatusFailed {
				return fmt.Errorf("scan failed: %s", done.Error)
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&runWAF, "waf", true, "Run WAF detection")
	rootCmd.Flags().BoolVar(&runPort, "port", true, "Run port scanning")
	rootCmd.Flags().BoolVar(&runSubdo, "subdo", true, "Run subdomain enumeration")
	rootCmd.Flags().BoolVar(&runCMS, "cms", true, "Run CMS detection")
	rootCmd.Flags().BoolVar(&runTech, "tech", true, "Run technology fingerprinting")
	rootCmd.Flags().BoolVar(&runDir, "dir", true, "Run directory discovery")
	rootCmd.Flags().BoolVar(&runWP, "wp", false, "Run WordPress enumeration")
	rootCmd.Flags().BoolVar(&axfr, "axfr", false, "Test for DNS zone transfers")
	rootCmd.Flags().StringVar(&proxy, "proxy", "", "Proxy URL for outbound requests")
	rootCmd.Flags().StringVar(&userAgent, "user-agent", "", "Override the HTTP User-Agent")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output structured JSON to stdout")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable terminal colors")
	rootCmd.Flags().BoolVar(&silent, "silent", false, "Results only, no progress output")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose per-module progress")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default "+config.DefaultPath+")")

	var listen string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scan API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			st := store.NewMemory()
			registry := engine.NewRegistry(probe.Adapters(cfg.Tools)...)
			orch := engine.NewOrchestrator(st, registry, logger)
			srv := server.New(st, orch, cfg.Defaults, logger)

			logger.Info("listening", "addr", cfg.Listen)
			return srv.Run(cfg.Listen)
		},
	}
	serveCmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("recondor {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the CLI logger. Silent mode discards everything; verbose
// lowers the level to debug.
func newLogger(verbose, silent bool) *slog.Logger {
	if silent {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
