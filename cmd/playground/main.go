package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hookline/beforesend"
	"github.com/hookline/beforesend/config"
	"github.com/hookline/beforesend/event"
	"github.com/hookline/beforesend/samples"
	"github.com/hookline/beforesend/script"
	"github.com/hookline/beforesend/server"
	"github.com/hookline/beforesend/wasmexec"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		addr        = flag.String("addr", "", "Listen address (overrides config)")
		routineFile = flag.String("routine", "", "Routine source file for one-shot mode")
		eventFile   = flag.String("event", "", "Event JSON file for one-shot mode")
		runtimeName = flag.String("runtime", "", "Engine for one-shot mode (default from config)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	beforesend.Register(script.New(script.Options{
		EntryPoint:            cfg.Engine.EntryPoint,
		FirstCallableFallback: cfg.Engine.FallbackEnabled(),
		MaxSteps:              cfg.Engine.MaxSteps,
		Logger:                log.Named("starlark"),
	}))
	beforesend.Register(wasmexec.New(log.Named("wasm")))

	if *interactive {
		if err := runInteractive(cfg, *routineFile, *eventFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *routineFile != "" || *eventFile != "" {
		if err := runOnce(cfg, *routineFile, *eventFile, *runtimeName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func serve(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	library := samples.NewLibrary(cfg.Samples.Dir, log.Named("samples"))
	if err := library.Reload(); err != nil {
		log.Warn("sample library load failed", zap.Error(err))
	}
	if cfg.Samples.Watch {
		go func() {
			if err := library.Watch(ctx); err != nil {
				log.Warn("sample library watch failed", zap.Error(err))
			}
		}()
	}

	return server.New(cfg, library, log).Run(ctx)
}

// runOnce transforms one event from files and prints the outcome.
func runOnce(cfg config.Config, routineFile, eventFile, runtimeName string) error {
	if routineFile == "" || eventFile == "" {
		return fmt.Errorf("one-shot mode needs both -routine and -event")
	}
	source, err := os.ReadFile(routineFile)
	if err != nil {
		return err
	}
	payload, err := os.ReadFile(eventFile)
	if err != nil {
		return err
	}
	ev, err := event.Decode(payload)
	if err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	if runtimeName == "" {
		runtimeName = cfg.Engine.Default
	}
	eng, ok := beforesend.Lookup(runtimeName)
	if !ok {
		return fmt.Errorf("unknown runtime %q (have %v)", runtimeName, beforesend.Names())
	}

	out := eng.Transform(context.Background(), ev, string(source))
	switch out.Kind {
	case beforesend.OutcomeTransformed:
		data, err := event.Encode(out.Event)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case beforesend.OutcomeDropped:
		fmt.Println("null")
	case beforesend.OutcomeLoadFailure:
		return fmt.Errorf("load failure: %s", out.Diag.Message)
	case beforesend.OutcomeInvocationFailure:
		fmt.Fprintln(os.Stderr, out.Trace)
		return fmt.Errorf("invocation failure: %s", out.Message)
	}
	return nil
}

func newLogger(cfg config.LogCfg) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if !cfg.JSON {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
