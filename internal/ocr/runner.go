package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// stderrTail bounds how much helper stderr is kept on an ExecError.
const stderrTail = 512

// Command is one invocation of an OCR helper binary (tesseract, pdftoppm).
type Command struct {
	// Stage names the pipeline step in logs and errors: "rasterize" or "recognize".
	Stage string
	Bin   string
	Args  []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Bin}, c.Args...), " ")
}

// ExecError reports a helper that failed to start or exited non-zero.
type ExecError struct {
	Stage    string
	Bin      string
	ExitCode int // -1 when the process never ran to completion
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s: %s: %v", e.Stage, filepath.Base(e.Bin), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

// Runner executes helper binaries and returns their stdout.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

type execRunner struct {
	logger *slog.Logger
}

func newExecRunner(logger *slog.Logger) execRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return execRunner{logger: logger}
}

func (r execRunner) Run(ctx context.Context, c Command) ([]byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start)
	if err == nil {
		r.logger.Debug("ocr.exec.ok",
			"stage", c.Stage,
			"bin", c.Bin,
			"duration_ms", elapsed.Milliseconds(),
			"stdout_bytes", stdout.Len(),
		)
		return stdout.Bytes(), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		// a killed process reports "signal: killed"; surface the cancellation
		err = errors.Join(ctxErr, err)
	}
	xe := &ExecError{Stage: c.Stage, Bin: c.Bin, ExitCode: -1, Stderr: tail(stderr.String(), stderrTail), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		xe.ExitCode = exitErr.ExitCode()
	}
	r.logger.Error("ocr.exec.failed",
		"stage", c.Stage,
		"cmd", c.String(),
		"exit_code", xe.ExitCode,
		"duration_ms", elapsed.Milliseconds(),
		"stderr", xe.Stderr,
		"error", err,
	)
	return stdout.Bytes(), xe
}

// tail keeps the last n bytes of trimmed s. tesseract and pdftoppm print
// the fatal message last.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + strings.ToValidUTF8(s[len(s)-n:], "")
}
