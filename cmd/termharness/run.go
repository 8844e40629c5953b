package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"termharness/internal/api"
	"termharness/internal/config"
	"termharness/internal/harness"
	"termharness/internal/logging"
	"termharness/internal/script"
	"termharness/internal/terminal"
)

const watchShutdownTimeout = 2 * time.Second

func runScripts(ctx context.Context, suite config.Suite, cfg RunConfig, logger *logging.Logger, out io.Writer, errOut io.Writer) int {
	source := &liveSource{}
	if cfg.WatchAddr != "" {
		stop, err := serveWatch(cfg, source, logger, errOut)
		if err != nil {
			fmt.Fprintf(errOut, "watch: %v\n", err)
			return exitCodeSetup
		}
		defer stop()
	}

	for i, path := range cfg.Scripts {
		sc, err := script.Load(path)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return exitCodeSetup
		}
		if len(cfg.Scripts) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "== %s\n", sc.Name)
		}
		if code := runScript(ctx, suite, cfg, sc, source, logger, out, errOut); code != exitCodeSuccess {
			return code
		}
	}
	return exitCodeSuccess
}

func runScript(ctx context.Context, suite config.Suite, cfg RunConfig, sc script.Script, source *liveSource, logger *logging.Logger, out io.Writer, errOut io.Writer) int {
	scratchPath := cfg.Scratch
	if scratchPath == "" {
		scratch, err := harness.NewScratchDir(suite.ScratchRoot, "termharness-"+strings.TrimSuffix(filepath.Base(sc.Name), filepath.Ext(sc.Name)), logger)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return exitCodeSetup
		}
		defer scratch.Cleanup()
		scratchPath = scratch.Path
	}

	runner := &script.Runner{
		Suite:         suite,
		Scratch:       scratchPath,
		Logger:        logger,
		TranscriptDir: cfg.TranscriptDir,
		OnStart:       source.Set,
	}
	result, err := runner.Run(ctx, sc)
	source.Set(nil)
	printScreen(out, result.Screen)
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", sc.Name, err)
		var stepErr *script.StepError
		if errors.As(err, &stepErr) {
			return exitCodeFailed
		}
		return exitCodeSetup
	}
	if result.Exited {
		logger.Info("program exited", map[string]string{
			"script":    sc.Name,
			"exit_code": fmt.Sprint(result.ExitCode),
		})
	}
	return exitCodeSuccess
}

func printScreen(out io.Writer, screen harness.Snapshot) {
	for _, row := range screen {
		fmt.Fprintln(out, row)
	}
}

// serveWatch exposes the running harness at /screen until stop is called.
func serveWatch(cfg RunConfig, source *liveSource, logger *logging.Logger, errOut io.Writer) (func(), error) {
	listener, err := net.Listen("tcp", cfg.WatchAddr)
	if err != nil {
		return nil, err
	}
	server := &http.Server{
		Handler: api.NewMux(&api.ScreenHandler{
			Source:    source,
			AuthToken: cfg.Token,
			Logger:    logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("watch server failed", map[string]string{
				"error": err.Error(),
			})
		}
	}()
	fmt.Fprintf(errOut, "watching at ws://%s/screen\n", listener.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), watchShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			_ = server.Close()
		}
	}, nil
}

// liveSource points the watch endpoint at whichever harness is running.
type liveSource struct {
	mu      sync.Mutex
	current *harness.Harness
}

func (s *liveSource) Set(h *harness.Harness) {
	s.mu.Lock()
	s.current = h
	s.mu.Unlock()
}

func (s *liveSource) get() *harness.Harness {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *liveSource) Screen() terminal.Snapshot {
	if h := s.get(); h != nil {
		return h.Screen()
	}
	return terminal.Snapshot{}
}

func (s *liveSource) Subscribe() (<-chan terminal.Snapshot, func()) {
	if h := s.get(); h != nil {
		return h.Subscribe()
	}
	ch := make(chan terminal.Snapshot)
	close(ch)
	return ch, func() {}
}

func (s *liveSource) Exited() <-chan struct{} {
	if h := s.get(); h != nil {
		return h.Exited()
	}
	return nil
}
