package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/mujoco-runtime/config"
	"github.com/wippyai/mujoco-runtime/native"
	"github.com/wippyai/mujoco-runtime/native/nativetest"
	"github.com/wippyai/mujoco-runtime/sim"
)

func main() {
	var (
		modelFile   = flag.String("model", "", "Path to an MJCF/URDF description or a compiled .mjb model")
		configFile  = flag.String("config", "", "YAML configuration file")
		engineName  = flag.String("engine", "native", "Engine: native (libmujoco) or fake (pure Go test engine)")
		steps       = flag.Int("steps", 0, "Number of steps to run before printing state")
		controls    = flag.String("ctrl", "", "Actuator controls (comma-separated)")
		save        = flag.String("save", "", "Write the compiled model to this .mjb file")
		metricsAddr = flag.String("metrics", "", "Serve prometheus metrics on this address (e.g. :9090)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *modelFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: mjsim -model <file.xml|file.mjb> [-steps n] [-ctrl v1,v2] [-save out.mjb]")
		fmt.Fprintln(os.Stderr, "       mjsim -model <file> -i  (interactive mode)")
		os.Exit(1)
	}

	opts := options{
		modelFile:   *modelFile,
		configFile:  *configFile,
		engine:      *engineName,
		steps:       *steps,
		controls:    *controls,
		save:        *save,
		metricsAddr: *metricsAddr,
		interactive: *interactive,
	}
	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	modelFile   string
	configFile  string
	engine      string
	steps       int
	controls    string
	save        string
	metricsAddr string
	interactive bool
}

func run(opts options, out io.Writer) error {
	cfg := config.Default()
	if opts.configFile != "" {
		var err error
		if cfg, err = config.Load(opts.configFile); err != nil {
			return err
		}
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Enabled = true
	}

	log, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	sim.SetLogger(log)
	native.SetLogger(log)

	reg := prometheus.NewRegistry()
	m, err := cfg.NewMetrics(reg)
	if err != nil {
		return err
	}
	if opts.metricsAddr != "" {
		go serveMetrics(opts.metricsAddr, reg, log)
	}

	lib, err := openLibrary(opts.engine, cfg)
	if err != nil {
		return err
	}
	eng, err := sim.New(cfg.SimConfig(lib, log, m))
	if err != nil {
		return err
	}
	defer eng.Close()

	model, err := loadModel(eng, opts.modelFile)
	if err != nil {
		return err
	}

	if opts.save != "" {
		b, err := model.Bytes()
		if err != nil {
			model.Close()
			return err
		}
		if err := os.WriteFile(opts.save, b, 0o644); err != nil {
			model.Close()
			return fmt.Errorf("write %s: %w", opts.save, err)
		}
		log.Info("model saved", zap.String("path", opts.save), zap.Int("bytes", len(b)))
	}

	s, err := sim.NewSimulation(model)
	if err != nil {
		model.Close()
		return err
	}
	defer s.Close()

	if opts.controls != "" {
		values, err := parseControls(opts.controls)
		if err != nil {
			return err
		}
		if err := s.SetControl(values); err != nil {
			return err
		}
	}

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("interactive mode needs a terminal on stdout")
		}
		return runInteractive(s, opts.modelFile)
	}

	if err := printModel(out, s.Model()); err != nil {
		return err
	}
	for i := 0; i < opts.steps; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	if err := s.EvaluateSensors(); err != nil {
		return err
	}
	return printState(out, s)
}

func openLibrary(name string, cfg *config.Config) (native.Library, error) {
	switch name {
	case "native":
		lib, err := native.Open()
		if err != nil {
			if v, perr := cfg.ProbeLibrary(); perr == nil {
				return nil, fmt.Errorf("%w (found MuJoCo %s)", err, v)
			}
			return nil, err
		}
		return lib, nil
	case "fake":
		return nativetest.New(nil), nil
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}

func loadModel(eng *sim.Engine, path string) (*sim.Model, error) {
	if strings.EqualFold(filepath.Ext(path), ".mjb") {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return eng.LoadBytes(b)
	}
	return eng.LoadFile(path)
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server stopped", zap.Error(err))
	}
}
