package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/umputun/signalscope/pkg/config"
	"github.com/umputun/signalscope/pkg/report"
	"github.com/umputun/signalscope/pkg/store"
	"github.com/umputun/signalscope/server"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"c" long:"config" env:"CONFIG" description:"optional yaml configuration file"`
	EnvFile string `long:"env-file" env:"ENV_FILE" default:".env" description:"dotenv file with store credentials"`

	URL     string `long:"url" env:"SIGNALS_URL" description:"signal store base url"`
	Key     string `long:"key" env:"SIGNALS_KEY" description:"signal store access key"`
	Output  string `short:"o" long:"output" env:"OUTPUT" description:"report file, overrides config"`
	RSS     string `long:"rss" env:"RSS" description:"write RSS companion feed to this file"`
	Preview string `long:"preview" env:"PREVIEW" description:"serve the report on this address after generation"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	// dotenv has to be loaded before flags are parsed, env-backed options read it
	if err := loadEnvFile(envFileName(os.Args[1:])); err != nil {
		fmt.Fprintf(os.Stderr, "can't load env file: %v\n", err)
		os.Exit(1)
	}

	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	SetupLog(opts.Debug)

	log.Printf("[INFO] starting signalscope version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	log.Print("[INFO] completed")
}

// run loads configuration, fetches signals and writes the report. With preview enabled it keeps
// serving the report until ctx is canceled.
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOpts(cfg, opts)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	SetupLog(opts.Debug, cfg.Store.Key) // key is masked in all following log lines

	client, err := store.New(store.Params{URL: cfg.Store.URL, Key: cfg.Store.Key, Table: cfg.Store.Table, Timeout: cfg.Store.Timeout})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	renderer, err := report.New(report.Params{Title: cfg.Report.Title, PageSize: cfg.Report.PageSize, Notice: cfg.Report.Notice})
	if err != nil {
		return fmt.Errorf("failed to make renderer: %w", err)
	}

	signals, err := client.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch signals: %w", err)
	}
	log.Printf("[INFO] fetched %d signals", len(signals))

	now := time.Now().UTC()
	rows := report.Rows(signals)
	if err := renderer.GenerateRows(cfg.Report.Output, rows, now); err != nil {
		return err
	}

	if cfg.Report.RSS != "" {
		rss, err := report.NewRSSGenerator(cfg.Report.BaseURL, cfg.Report.Title).Generate(rows, filepath.Base(cfg.Report.RSS), now)
		if err != nil {
			return fmt.Errorf("generate rss: %w", err)
		}
		if err := report.WriteFile(cfg.Report.RSS, []byte(rss)); err != nil {
			return err
		}
		log.Printf("[INFO] rss feed written to %s", cfg.Report.RSS)
	}

	if cfg.Preview.Listen == "" {
		return nil
	}

	srv := server.New(cfg, server.Params{ReportPath: cfg.Report.Output, RSSPath: cfg.Report.RSS, Version: revision, Debug: opts.Debug})
	return srv.Run(ctx)
}

// applyOpts overrides config values with command line and environment ones
func applyOpts(cfg *config.Config, opts Opts) {
	cfg.Store.URL = firstNonEmpty(opts.URL, cfg.Store.URL, os.Getenv("SUPABASE_URL"))
	cfg.Store.Key = firstNonEmpty(opts.Key, cfg.Store.Key, os.Getenv("SUPABASE_ANON_KEY"))
	cfg.Report.Output = firstNonEmpty(opts.Output, cfg.Report.Output)
	cfg.Report.RSS = firstNonEmpty(opts.RSS, cfg.Report.RSS)
	cfg.Preview.Listen = firstNonEmpty(opts.Preview, cfg.Preview.Listen)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// envFileName finds --env-file in raw args, falls back to ENV_FILE and .env
func envFileName(args []string) string {
	for i, arg := range args {
		if arg == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, "--env-file="); ok && v != "" {
			return v
		}
	}
	if v := os.Getenv("ENV_FILE"); v != "" {
		return v
	}
	return ".env"
}

// loadEnvFile loads variables from a dotenv file without overriding the environment.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// SetupLog configures lgr as the std logger, secrets are masked in the output
func SetupLog(dbg bool, secs ...string) {
	logOpts := logOptions(dbg, secs...)
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}

func logOptions(dbg bool, secs ...string) []lgr.Option {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	return logOpts
}
