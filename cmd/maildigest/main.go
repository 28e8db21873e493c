package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/maildigest/pkg/config"
	"github.com/umputun/maildigest/server"
)

// Opts with all CLI options
type Opts struct {
	Config      string `short:"c" long:"config" env:"CONFIG" default:"maildigest.yml" description:"configuration file"`
	Listen      string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`
	VerifyToken string `long:"verify-token" env:"VERIFY_TOKEN" description:"expected X-Verify-Token of pipeline triggers, overrides config"`
	Once        bool   `long:"once" description:"run the pipeline once and exit"`
	Verbose     bool   `short:"v" long:"verbose" description:"verbose mode"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	color.NoColor = color.NoColor || opts.NoColor
	setupLog(opts.Debug || opts.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		log.Print("[INFO] stopping")
	}()

	err := run(ctx, opts)
	stop()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] shutdown complete")
}

// run loads configuration, builds the application and either runs the pipeline once or serves triggers
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	if opts.VerifyToken != "" {
		cfg.Server.VerifyToken = opts.VerifyToken
	}

	// reconfigure logging to mask secrets known only after config is loaded
	setupLog(opts.Debug || opts.Verbose, cfg.LLM.APIKey, cfg.Server.VerifyToken)
	log.Printf("[INFO] starting maildigest version %s", revision)

	app, err := newApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.close()

	if opts.Once {
		res := app.runner.RunOnce(ctx, "cli")
		printResult(os.Stdout, res)
		if !res.Success {
			return fmt.Errorf("pipeline failed: %s", res.Error)
		}
		return nil
	}

	app.runner.Start(ctx)
	defer app.runner.Stop()

	listen, timeout := cfg.GetServerConfig()
	srv := server.New(server.Config{
		Listen:      listen,
		Timeout:     timeout,
		VerifyToken: cfg.Server.VerifyToken,
		Version:     revision,
		Debug:       opts.Debug,
	}, app.serverParams())

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	logOpts = append(logOpts, lgr.Map(lgr.Mapper{
		ErrorFunc:  paint(color.FgHiRed),
		WarnFunc:   paint(color.FgHiYellow),
		InfoFunc:   paint(color.FgGreen),
		DebugFunc:  paint(color.FgHiBlack),
		CallerFunc: paint(color.FgMagenta),
		TimeFunc:   paint(color.FgCyan),
	}))

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}

func paint(attr color.Attribute) func(string) string {
	c := color.New(attr)
	return func(s string) string { return c.Sprint(s) }
}
