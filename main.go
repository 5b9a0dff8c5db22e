package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "embed"

	"github.com/pterm/pterm"
	"github.com/regginator/hashbrute/config"
	"github.com/regginator/hashbrute/crack"
	"github.com/regginator/hashbrute/digest"
	"github.com/spf13/pflag"
)

//go:embed VERSION
var hashbruteVersion string

var defaults = config.Default()

// All command-line arguments
var (
	HashFile   = pflag.StringP("file", "f", "", "Hash list to crack: a file path, \"-\" for stdin, or an http(s)/ws(s) feed URL. Reads stdin if not provided")
	ConfigPath = pflag.StringP("config", "c", "", "YAML config file, overrides $"+config.EnvVar)

	// search
	NumThreads = pflag.IntP("threads", "t", defaults.Threads, "Number of worker threads for the multi-threaded search")
	Mode       = pflag.StringP("mode", "m", string(defaults.Mode), "Which searches to run [both, sequential, parallel]")
	Charset    = pflag.String("charset", defaults.Charset, "Ordered character set candidates are built from")
	Length     = pflag.IntP("length", "l", defaults.Length, "Fixed password length")
	Batch      = pflag.Uint64("batch", defaults.Batch, "Candidates per progress update")

	// feed
	ProxyAddr = pflag.String("proxy", "", "SOCKS(4/5) proxy for feed URLs, e.g. \"socks5://127.0.0.1:1080\"")
	ProxyFile = pflag.String("proxies", "", "Path to a list of SOCKS(4/5) proxies, rotated between feed retries. File must be a txt list of proxies in the format \"scheme://[username:pass@]host[:port]\"")
	Retries   = pflag.Int("retries", defaults.Feed.Retries, "Number of retry attempts for a failed feed fetch")
	UserAgent = pflag.String("user-agent", "", "User-Agent header for feed requests")

	// bool flags
	NoProgress = pflag.Bool("no-progress", false, "Don't draw progress bars")
	NoColor    = pflag.Bool("no-color", false, "Print without colors or styling")
	Help       = pflag.BoolP("help", "h", false, "Print this help menu")
)

func usage(exitCode int) {
	pflag.Usage()
	os.Exit(exitCode)
}

// Defaults, then the config file, then any flag given explicitly
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *ConfigPath != "" {
		cfg, err = config.LoadFile(*ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flags := pflag.CommandLine
	if flags.Changed("threads") {
		cfg.Threads = *NumThreads
	}
	if flags.Changed("mode") {
		cfg.Mode = config.Mode(*Mode)
	}
	if flags.Changed("charset") {
		cfg.Charset = *Charset
	}
	if flags.Changed("length") {
		cfg.Length = *Length
	}
	if flags.Changed("batch") {
		cfg.Batch = *Batch
	}
	if flags.Changed("proxy") {
		cfg.Feed.Proxy = *ProxyAddr
	}
	if flags.Changed("proxies") {
		cfg.Feed.Proxies = *ProxyFile
	}
	if flags.Changed("retries") {
		cfg.Feed.Retries = *Retries
	}
	if flags.Changed("user-agent") {
		cfg.Feed.UserAgent = *UserAgent
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Run one engine with its own progress bar. threads == 0 selects the sequential engine
func runSearch(ctx context.Context, name string, threads int, engine crack.Engine, targets digest.Targets, showProgress bool) searchRun {
	fmt.Println()
	if threads == 0 {
		pterm.DefaultSection.Printf("Starting %s brute force\n", name)
	} else {
		pterm.DefaultSection.Printf("Starting %s brute force (%d threads)\n", name, threads)
	}

	var bar *barProgress
	if showProgress {
		var err error
		bar, err = newBarProgress("Progress", engine.Keyspace.Size())
		if err != nil {
			pterm.Warning.Printf("failed to start progress bar: %s\n", err)
		} else {
			engine.Progress = bar
		}
	}

	engine.OnFound = func(f digest.Found) {
		pterm.Success.Printf("[%s] Found: %s -> %s\n", name, f.Digest, f.Plaintext)
	}

	run := searchRun{Name: name, Threads: threads}
	start := time.Now()
	if threads == 0 {
		run.Found, run.Err = engine.Sequential(ctx, targets)
	} else {
		run.Found, run.Err = engine.Parallel(ctx, targets, threads)
	}
	run.Elapsed = time.Since(start)

	if bar != nil {
		bar.Stop()
	}

	pterm.Info.Printf("%s search finished.\n", name)
	printResults(run)

	return run
}

func main() {
	fmt.Printf(`hashbrute v%s
MIT License | Copyright (c) 2025 reggie@latte.to
https://github.com/regginator/hashbrute

`, hashbruteVersion)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "USAGE: %s [OPTION]...\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	if *Help {
		usage(0)
	}

	if *NoColor {
		pterm.DisableStyling()
	}

	cfg, err := loadConfig()
	if err != nil {
		pterm.Error.Printf("invalid configuration: %s\n", err)
		fmt.Println()
		usage(1)
	}

	ks, err := cfg.Keyspace()
	if err != nil {
		pterm.Error.Printf("invalid keyspace: %s\n", err)
		os.Exit(1)
	}

	// Ctrl+C cancels the running search, which still prints what it found so far
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := newTargetSource(*HashFile, cfg, os.Stdin)
	if err != nil {
		pterm.Error.Printf("%s\n", err)
		os.Exit(1)
	}

	targets, err := loadTargets(ctx, src)
	if ctx.Err() != nil {
		fmt.Println()
		pterm.Warning.Println("Interrupted while reading hashes. Exiting.")
		os.Exit(1)
	}
	if err != nil {
		pterm.Error.Printf("failed to load hashes: %s\n", err)
		os.Exit(1)
	}

	if len(targets) == 0 {
		pterm.Info.Println("No hash values provided. Exiting.")
		return
	}

	printTargets(targets)
	pterm.Info.Printf("Keyspace: %d candidates of length %d over %q\n", ks.Size(), ks.Length(), ks.Alphabet())

	engine := crack.Engine{Keyspace: ks, Batch: cfg.Batch}

	var runs []searchRun
	if cfg.RunsSequential() {
		runs = append(runs, runSearch(ctx, "Single-threaded", 0, engine, targets, !*NoProgress))
	}
	if cfg.RunsParallel() && ctx.Err() == nil {
		runs = append(runs, runSearch(ctx, "Multi-threaded", cfg.Threads, engine, targets, !*NoProgress))
	}

	for _, run := range runs {
		if errors.Is(run.Err, context.Canceled) {
			fmt.Print("\033[0m")
			pterm.Warning.Println("Search interrupted, results above are partial.")
			os.Exit(1)
		}
	}

	printComparison(runs)
}
