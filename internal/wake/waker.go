// Package wake nudges a possibly idle agent UI through an external waker
// process, with throttling, single-flight and bounded busy retries.
package wake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/bhandras/agbridge/internal/logger"
)

// Error kinds reported by ExecWaker.
const (
	ErrSpawn   = "spawn_error"
	ErrParse   = "parse_error"
	ErrTimeout = "timeout"
)

// Result is the waker's verdict. On failure either Reason (soft) or Error
// (hard) is set.
type Result struct {
	OK      bool   `json:"ok"`
	Method  string `json:"method,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
	Stdout  string `json:"stdout,omitempty"`
}

// Busy reports whether the remote UI said it is occupied.
func (r Result) Busy() bool {
	return !r.OK && strings.Contains(r.Reason, "busy")
}

// String renders r as JSON, falling back to Go syntax when Details does not
// encode.
func (r Result) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		type plain Result
		return fmt.Sprintf("%+v", plain(r))
	}
	return string(b)
}

// Waker performs one wake attempt.
type Waker interface {
	Wake(ctx context.Context) Result
}

// WakerFunc adapts a function to Waker.
type WakerFunc func(ctx context.Context) Result

// Wake implements Waker.
func (f WakerFunc) Wake(ctx context.Context) Result { return f(ctx) }

// ExecWaker runs a command and reads a single JSON Result from its stdout.
type ExecWaker struct {
	name    string
	args    []string
	dir     string
	timeout time.Duration
}

// NewExecWaker builds a waker from a whitespace separated command line.
func NewExecWaker(cmdline, dir string, timeout time.Duration) (*ExecWaker, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, errors.New("waker command is empty")
	}
	return &ExecWaker{name: fields[0], args: fields[1:], dir: dir, timeout: timeout}, nil
}

// Wake implements Waker. The exit status is not consulted; the JSON on
// stdout is the verdict.
func (w *ExecWaker) Wake(ctx context.Context) Result {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.name, w.args...)
	cmd.Dir = w.dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{Error: ErrSpawn, Details: err.Error()}
	}
	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return Result{Error: ErrTimeout, Details: ctx.Err().Error()}
	}
	if waitErr != nil && stderr.Len() > 0 {
		logger.Debugf("[POKE] Waker exited with %v: %s", waitErr, strings.TrimSpace(stderr.String()))
	}

	return ParseResult(stdout.String())
}

// ParseResult decodes waker output: the whole text first, then the last
// non-empty line.
func ParseResult(out string) Result {
	var r Result
	trimmed := strings.TrimSpace(out)
	if err := json.Unmarshal([]byte(trimmed), &r); err == nil {
		return r
	}

	lines := strings.Split(trimmed, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		r = Result{}
		if err := json.Unmarshal([]byte(line), &r); err == nil {
			return r
		}
		break
	}
	return Result{Error: ErrParse, Stdout: out}
}
