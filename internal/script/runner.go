package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"termharness/internal/config"
	"termharness/internal/harness"
	"termharness/internal/logging"
	"termharness/internal/terminal"
	"termharness/internal/watcher"
)

// ScratchVar is expanded to the runner's scratch directory in commands,
// args, text and paths. Other braced ${VAR} references in commands, args,
// dirs, env entries and paths read the environment.
const ScratchVar = "SCRATCH"

// Runner executes scripts with suite defaults.
type Runner struct {
	Suite      config.Suite
	Scratch    string
	Logger     *logging.Logger
	PtyFactory terminal.PtyFactory
	// TranscriptDir, when set, receives one <script>.cast recording per run.
	TranscriptDir string
	// OnStart is called with the running harness before the first step.
	OnStart func(*harness.Harness)
}

// Result is the state after the last step ran, or after the failing one.
type Result struct {
	Screen   harness.Snapshot
	Steps    int
	Exited   bool
	ExitCode int
}

// StepError identifies the step that failed.
type StepError struct {
	Index int
	Kind  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (r *Runner) Run(ctx context.Context, script Script) (Result, error) {
	if err := script.Validate(); err != nil {
		return Result{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	options := r.options(script)
	if options.Command == "" {
		return Result{}, errors.New("no command: set it in the script or the suite")
	}

	if r.TranscriptDir != "" {
		if err := os.MkdirAll(r.TranscriptDir, 0o755); err != nil {
			return Result{}, fmt.Errorf("transcript dir: %w", err)
		}
	}

	logger := options.Logger.With(map[string]string{
		"termharness.category": "script",
		"script":               script.Name,
	})
	h := harness.New(options)
	defer h.Dispose()

	if err := h.Run(); err != nil {
		return Result{}, err
	}
	if r.OnStart != nil {
		r.OnStart(h)
	}
	logger.Info("script started", map[string]string{
		"steps": strconv.Itoa(len(script.Steps)),
	})

	result := Result{ExitCode: -1}
	for i, step := range script.Steps {
		if err := r.runStep(ctx, h, options, step); err != nil {
			result.fill(h)
			logger.Warn("script step failed", map[string]string{
				"step":  strconv.Itoa(i + 1),
				"kind":  step.Kind(),
				"error": err.Error(),
			})
			return result, &StepError{Index: i + 1, Kind: step.Kind(), Err: err}
		}
		result.Steps = i + 1
	}
	result.fill(h)
	logger.Info("script finished", map[string]string{
		"exited":    strconv.FormatBool(result.Exited),
		"exit_code": strconv.Itoa(result.ExitCode),
	})
	return result, nil
}

func (r *Result) fill(h *harness.Harness) {
	r.Screen = h.Screen()
	select {
	case <-h.Exited():
		r.Exited = true
		r.ExitCode, _ = h.ExitCode()
	default:
	}
}

func (r *Runner) options(script Script) harness.Options {
	suite := r.Suite
	if script.Command != "" {
		suite.Command = script.Command
		suite.BaseArgs = nil
	}
	options := harness.FromSuite(suite, script.Args...)
	options.Command = r.expand(options.Command)
	for i, arg := range options.Args {
		options.Args[i] = r.expand(arg)
	}
	if script.Dir != "" {
		options.Dir = script.Dir
	}
	options.Dir = r.expand(options.Dir)
	for _, entry := range script.Env {
		options.Env = append(options.Env, r.expand(entry))
	}
	if script.Cols > 0 {
		options.Cols = script.Cols
	}
	if script.Rows > 0 {
		options.Rows = script.Rows
	}
	if script.SettleDelay > 0 {
		options.SettleDelay = script.SettleDelay.Std()
	}
	if script.Timeout > 0 {
		options.PollTimeout = script.Timeout.Std()
	}
	options.Logger = r.Logger
	options.PtyFactory = r.PtyFactory
	if r.TranscriptDir != "" {
		options.TranscriptPath = filepath.Join(r.TranscriptDir, transcriptName(script.Name))
	}
	return options
}

func transcriptName(scriptName string) string {
	base := filepath.Base(scriptName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "script"
	}
	return base + ".cast"
}

var bracedVar = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expand replaces braced ${NAME} references. Bare $NAME is left for the
// program to interpret, and unset variables stay as written.
func (r *Runner) expand(value string) string {
	return bracedVar.ReplaceAllStringFunc(value, func(ref string) string {
		name := ref[2 : len(ref)-1]
		if name == ScratchVar {
			return r.Scratch
		}
		if env, ok := os.LookupEnv(name); ok {
			return env
		}
		return ref
	})
}

// expandScratch replaces only ${SCRATCH}; typed text and screen patterns
// are otherwise literal.
func (r *Runner) expandScratch(value string) string {
	return strings.ReplaceAll(value, "${"+ScratchVar+"}", r.Scratch)
}

func (r *Runner) runStep(ctx context.Context, h *harness.Harness, options harness.Options, step Step) error {
	timeout := options.PollTimeout
	if step.Timeout > 0 {
		timeout = step.Timeout.Std()
	}
	wait := step.Wait.Std()
	repeat := step.Repeat
	if repeat == 0 {
		repeat = 1
	}

	switch step.Kind() {
	case kindText:
		text := r.expandScratch(step.Text)
		for i := 0; i < repeat; i++ {
			if err := h.SendText(text, wait); err != nil {
				return err
			}
		}
	case kindKey:
		key, err := terminal.ParseKey(step.Key)
		if err != nil {
			return err
		}
		for i := 0; i < repeat; i++ {
			if err := h.SendKey(key, wait); err != nil {
				return err
			}
		}
	case kindWaitFor:
		_, err := h.WaitFor(ctx, harness.Text(r.expandScratch(step.WaitFor)), harness.WithinTimeout(timeout))
		return err
	case kindWaitForRegex:
		_, err := h.WaitFor(ctx, harness.Regexp(step.WaitForRegex), harness.WithinTimeout(timeout))
		return err
	case kindWaitFile:
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return watcher.WaitForFile(waitCtx, r.expand(step.WaitFile), watcher.Options{Logger: options.Logger})
	case kindFileContains:
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		path := r.expand(step.FileContains.Path)
		return watcher.WaitForContent(waitCtx, path, r.expandScratch(step.FileContains.Text), watcher.Options{Logger: options.Logger})
	case kindExpectExit:
		code, err := h.WaitExit(ctx, harness.WithinTimeout(timeout))
		if err != nil {
			return err
		}
		if code != *step.ExpectExit {
			return fmt.Errorf("exit code %d, expected %d", code, *step.ExpectExit)
		}
	case kindSleep:
		timer := time.NewTimer(step.Sleep.Std())
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
