package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"batterycode-go/drivers/makita"
	"batterycode-go/internal/config"
	"batterycode-go/internal/platform"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	cfgPath  string
	logLevel string
	sim      string
	json     bool
}

// app is shared by every command of one process, including the shell.
type app struct {
	opts   options
	out    io.Writer
	errOut io.Writer

	log  zerolog.Logger
	hw   *platform.Hardware
	sess *makita.Session
}

func newApp() *app {
	return &app{out: os.Stdout, errOut: os.Stderr, log: zerolog.Nop()}
}

// Execute runs the command line.
func Execute() error {
	a := newApp()
	defer a.close()
	return newRootCmd(a).Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "makita",
		Short:         "Makita battery reader and repair tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.opts.cfgPath, "config", "c", "", "YAML config file")
	pf.StringVar(&a.opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	pf.StringVar(&a.opts.sim, "sim", "", "use a simulated pack: standard, legacy or tencell")
	pf.BoolVar(&a.opts.json, "json", false, "print reports as JSON")

	root.AddCommand(commands(a)...)
	root.AddCommand(newShellCmd(a))
	return root
}

func newLogger(level string, jsonLogs bool, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	out := w
	if !jsonLogs {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if a.opts.cfgPath != "" {
		var err error
		if cfg, err = config.Load(a.opts.cfgPath); err != nil {
			return nil, err
		}
	}
	if a.opts.sim != "" {
		cfg.Transport.Kind = config.TransportSim
		cfg.Sim.Kind = a.opts.sim
		cfg.Timing.Simulated = true
	}
	if a.opts.logLevel != "" {
		cfg.Log.Level = a.opts.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open builds the session once; later calls (shell lines) reuse it.
func (a *app) open() error {
	if a.sess != nil {
		return nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.log = newLogger(cfg.Log.Level, cfg.Log.JSON, a.errOut)

	hw, err := platform.Open(cfg, a.log)
	if err != nil {
		return err
	}
	a.hw = hw
	a.sess = makita.NewSession(hw.Device(&a.log))
	a.log.Debug().Str("transport", string(cfg.Transport.Kind)).Msg("session open")
	return nil
}

func (a *app) close() {
	if a.hw == nil {
		return
	}
	if err := a.hw.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close hardware")
	}
	a.hw, a.sess = nil, nil
}
