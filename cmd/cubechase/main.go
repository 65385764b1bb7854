package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"cubechase/config"
	"cubechase/game"
	"cubechase/logging"
	"cubechase/network"
	"cubechase/room"
	"cubechase/terminal"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	mode := flag.String("mode", "", "web or terminal (overrides config)")
	flag.Parse()

	if err := run(*configPath, *mode); err != nil {
		fatalLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
		fatalLog.Fatal().Err(err).Msg("cubechase")
	}
}

func run(configPath, mode string) error {
	if err := config.InitEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if mode != "" {
		cfg.Mode = mode
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case config.ModeTerminal:
		return runTerminal(ctx, cfg)
	default:
		return runWeb(ctx, cfg)
	}
}

func newLogger(cfg config.LoggingConfig) (zerolog.Logger, func(), error) {
	log, closer, err := logging.New(logging.Config{Level: cfg.Level, Format: cfg.Format, File: cfg.File})
	if err != nil {
		return log, func() {}, err
	}
	return log, func() { _ = closer.Close() }, nil
}

func runWeb(ctx context.Context, cfg *config.Config) error {
	log, closeLog, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	roomLog := logging.Component(log, "room")
	rooms := room.NewManager(room.Options{
		Court:       game.Court{Width: cfg.Court.Width, Height: cfg.Court.Height},
		Seed:        cfg.Game.Seed,
		Logger:      &roomLog,
		IdleTimeout: cfg.Game.IdleTimeout,
	})
	defer rooms.StopAll()

	srv := network.NewServer(rooms, cfg.Network, logging.Component(log, "network"))
	log.Info().Str("mode", cfg.Mode).Int64("seed", cfg.Game.Seed).Msg("cubechase starting")
	return srv.ListenAndServe(ctx, cfg.Addr())
}

// runTerminal plays a single local session. Logs only go to a file here since
// stderr belongs to the screen.
func runTerminal(ctx context.Context, cfg *config.Config) error {
	log := zerolog.Nop()
	if cfg.Logging.File != "" {
		l, closeLog, err := newLogger(cfg.Logging)
		if err != nil {
			return err
		}
		defer closeLog()
		log = l
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	court := game.Court{Width: cfg.Court.Width, Height: cfg.Court.Height}
	renderer := terminal.NewRenderer(screen, court)
	roomLog := logging.Component(log, "room")
	rm := room.New(room.Options{
		Court:    court,
		Seed:     cfg.Game.Seed,
		Renderer: renderer,
		Logger:   &roomLog,
	})
	go rm.Run()
	defer rm.Stop()

	renderer.ModeChanged(game.ModeNotStarted)
	log.Info().Msg("terminal session started")
	err = terminal.Run(ctx, screen, court, rm.Send)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
