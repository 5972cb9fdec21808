package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/nats-io/nats.go"

	"github.com/oddslab/scratch-analyzer/internal/analysis"
	"github.com/oddslab/scratch-analyzer/internal/events"
	"github.com/oddslab/scratch-analyzer/internal/scanner"
	"github.com/oddslab/scratch-analyzer/pkg/common/config"
	"github.com/oddslab/scratch-analyzer/pkg/common/enum"
	"github.com/oddslab/scratch-analyzer/pkg/common/logger"
	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

const appVersion = "1.0.0"

// --- CLI definitions --- //

type CLI struct {
	Analyze AnalyzeCmd `cmd:"" help:"Analyze a game document and print its expected value."`
	Compare CompareCmd `cmd:"" help:"Compare claimed vs current EV across a batch of games."`
	Watch   WatchCmd   `cmd:"" help:"Poll configured sources and emit analysis events."`
	Serve   ServeCmd   `cmd:"" help:"Serve the analysis HTTP API."`
	Events  EventsCmd  `cmd:"" help:"Subscribe to analyzer events and print them."`
}

type AnalyzeCmd struct {
	File           string  `arg:"" help:"Game document (JSON) to analyze, or - for stdin."`
	IgnoreUnder500 bool    `help:"Zero out cash prizes under $500." name:"ignore-under-500"`
	Tax            bool    `help:"Apply withholding tax to cash prizes." name:"tax"`
	TaxRate        float64 `help:"Withholding tax rate percent." default:"24" name:"tax-rate"`
	JSON           bool    `help:"Print reports as JSON." name:"json"`
	Debug          bool    `help:"Enable debug logs." name:"debug"`
}

type CompareCmd struct {
	File           string  `arg:"" help:"Batch document (JSON) to compare, or - for stdin."`
	Sort           string  `help:"Sort key." enum:"price,name,number,odds,claimed,current,delta" default:"name" name:"sort"`
	Desc           bool    `help:"Sort descending." name:"desc"`
	IgnoreUnder500 bool    `help:"Zero out cash prizes under $500." name:"ignore-under-500"`
	Tax            bool    `help:"Apply withholding tax to cash prizes." name:"tax"`
	TaxRate        float64 `help:"Withholding tax rate percent." default:"24" name:"tax-rate"`
	JSON           bool    `help:"Print comparisons as JSON." name:"json"`
	Debug          bool    `help:"Enable debug logs." name:"debug"`
}

type WatchCmd struct {
	ConfigPath string   `help:"Path to config file." default:"configs/config.yaml" name:"config"`
	Sources    []string `help:"Sources to watch (default: all configured)." name:"source"`
	Debug      bool     `help:"Enable debug logs." name:"debug"`
}

type ServeCmd struct {
	ConfigPath string `help:"Path to config file." default:"configs/config.yaml" name:"config"`
	Port       int    `help:"Override the configured HTTP port." name:"port"`
	Debug      bool   `help:"Enable debug logs." name:"debug"`
}

type EventsCmd struct {
	NATSURL string `help:"NATS server URL." default:"nats://127.0.0.1:4222" name:"nats-url"`
	Subject string `help:"NATS subject to subscribe to." default:"scratch.analysis.>" name:"subject"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("analyzer"),
		kong.Description("Scratch-off lottery expected value analyzer."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// --- Subcommands --- //

func (c *AnalyzeCmd) Run() error {
	initLogger(c.Debug)
	opts := analysis.Options{
		IgnoreUnder500: c.IgnoreUnder500,
		ApplyTax:       c.Tax,
		TaxRate:        c.TaxRate,
	}

	raws, err := loadGames(c.File)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		return fmt.Errorf("no games in %s", inputName(c.File))
	}

	analyzed := 0
	for _, raw := range raws {
		game, dropped := analysis.NormalizeGame(raw)
		report, err := analysis.Analyze(&game, opts)
		if err != nil {
			logger.Warn("Game not analyzable", "game", game.Name, "err", err)
			continue
		}
		analyzed++
		if c.JSON {
			if err := printJSON(report); err != nil {
				return err
			}
			continue
		}
		renderReport(os.Stdout, report, dropped)
	}
	if analyzed == 0 {
		return fmt.Errorf("no analyzable games in %s", inputName(c.File))
	}
	return nil
}

func (c *CompareCmd) Run() error {
	initLogger(c.Debug)
	opts := analysis.Options{
		IgnoreUnder500: c.IgnoreUnder500,
		ApplyTax:       c.Tax,
		TaxRate:        c.TaxRate,
	}

	raws, err := loadGames(c.File)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		return fmt.Errorf("no games in %s", inputName(c.File))
	}

	games := make([]types.Game, 0, len(raws))
	for _, raw := range raws {
		game, _ := analysis.NormalizeGame(raw)
		games = append(games, game)
	}

	rows := analysis.CompareAll(games, opts)
	types.SortComparisons(rows, enum.SortKey(c.Sort), c.Desc)

	if c.JSON {
		return printJSON(rows)
	}
	renderComparisons(os.Stdout, rows, len(games)-len(rows))
	return nil
}

func (c *WatchCmd) Run() error {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	initLoggerWithLevel(cfg.Log.Level, c.Debug)
	logger.Info("Config loaded", "environment", cfg.Environment)

	names := c.Sources
	if len(names) == 0 {
		names = cfg.Sources.GetAllSourceNames()
	}
	if err := cfg.Sources.ValidateSources(names); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, err := scanner.NewManager(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("create scanner: %w", err)
	}
	if err := manager.Start(names); err != nil {
		manager.Stop()
		return fmt.Errorf("start scanner: %w", err)
	}

	logger.Info("Analyzer is watching... Press Ctrl+C to stop", "sources", names)
	waitForShutdown()
	cancel()
	manager.Stop()
	return nil
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	initLoggerWithLevel(cfg.Log.Level, c.Debug)

	port := cfg.Server.Port
	if c.Port > 0 {
		port = c.Port
	}

	server := startHTTPServer(port, scanner.AnalysisOptions(cfg.Analysis))

	waitForShutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "err", err)
	}
	logger.Info("Server stopped")
	return nil
}

func (c *EventsCmd) Run() error {
	initLogger(false)

	nc, err := nats.Connect(c.NATSURL)
	if err != nil {
		return fmt.Errorf("NATS connect: %w", err)
	}
	defer nc.Close()

	logger.Info("Subscribed", "subject", c.Subject)

	_, err = nc.Subscribe(c.Subject, func(msg *nats.Msg) {
		var event events.AnalyzerEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("Unmarshal error", "err", err, "subject", msg.Subject)
			return
		}
		payload, err := json.Marshal(event.Data)
		if err != nil {
			payload = []byte("{}")
		}
		fmt.Printf("[%s] %s %s %s\n",
			time.Unix(event.Timestamp, 0).UTC().Format(time.RFC3339),
			event.Source, event.Type, payload)
	})
	if err != nil {
		return fmt.Errorf("NATS subscribe: %w", err)
	}

	select {} // block forever
}

// --- Helpers --- //

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger.Init(&logger.Options{Level: level, TimeFormat: time.RFC3339})
}

func initLoggerWithLevel(configured string, debug bool) {
	level := logger.ParseLevel(configured)
	if debug {
		level = slog.LevelDebug
	}
	logger.Init(&logger.Options{Level: level, TimeFormat: time.RFC3339})
}

func loadGames(path string) ([]types.RawGame, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", inputName(path), err)
	}
	games, err := types.DecodeRawGames(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", inputName(path), err)
	}
	return games, nil
}

func inputName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func waitForShutdown() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}
