// Package sandbox runs untrusted generated scripts against a
// capability-restricted scope. Scripts are expressions compiled
// against an explicit Env; the scope holds the caller's input data,
// storage-backed file helpers, and the expression builtins, and
// nothing else. A script referencing anything outside that scope fails
// at compile time, before it runs.
package sandbox

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/expr-lang/expr"

	"github.com/swizzylabs/swizzy-cli/storage"
)

// DefaultTimeout bounds a script run when the caller sets no limit.
const DefaultTimeout = 10 * time.Second

// Kind classifies a failed run.
type Kind string

const (
	// KindSandboxViolation marks a reference to a symbol outside the
	// injected scope, caught at compile time.
	KindSandboxViolation Kind = "sandbox_violation"
	// KindTimeout marks a run that exceeded the wall-clock limit.
	KindTimeout Kind = "timeout"
	// KindRuntimeError marks a fault raised while the script ran.
	KindRuntimeError Kind = "script_runtime_error"
	// KindScriptError marks a script that reported its own error via
	// the output mapping's "error" key.
	KindScriptError Kind = "script_error"
)

// Result is the structured outcome of one run. Failures never
// propagate to the caller as errors; they are captured here.
type Result struct {
	Success bool   `json:"success"`
	Output  any    `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"error_kind,omitempty"`
	Trace   string `json:"trace,omitempty"`
}

// Executor runs scripts against a storage collaborator. A fresh
// capability scope is built for every call.
type Executor struct {
	store storage.Store

	// Timeout bounds one Run. Zero means DefaultTimeout.
	Timeout time.Duration
}

func New(store storage.Store) *Executor {
	return &Executor{store: store}
}

// Run sanitizes, compiles, and executes a script. The script's value
// is its output; an output mapping carrying an "error" key is honored
// as the script's own failure report.
func (e *Executor) Run(ctx context.Context, script string, input map[string]any) Result {
	code := Sanitize(script)
	if strings.TrimSpace(code) == "" {
		return Result{
			Error: "script is empty after sanitizing",
			Kind:  KindSandboxViolation,
		}
	}

	env := NewEnv(e.store, input)
	program, err := expr.Compile(code, expr.Env(env))
	if err != nil {
		kind := KindRuntimeError
		if strings.Contains(err.Error(), "unknown name") {
			kind = KindSandboxViolation
		}
		return Result{
			Error: fmt.Sprintf("script failed to compile: %v", err),
			Kind:  kind,
		}
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
		trace string
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{
					err:   fmt.Errorf("script panicked: %v", r),
					trace: string(debug.Stack()),
				}
			}
		}()
		v, err := expr.Run(program, env)
		done <- outcome{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		// The runner goroutine is abandoned; compiled programs cannot
		// be preempted mid-run.
		return Result{
			Error: fmt.Sprintf("script exceeded the %s time limit", timeout),
			Kind:  KindTimeout,
		}
	case out := <-done:
		if out.err != nil {
			return Result{
				Error: out.err.Error(),
				Kind:  KindRuntimeError,
				Trace: out.trace,
			}
		}
		if m, ok := out.value.(map[string]any); ok {
			if msg, failed := m["error"]; failed {
				return Result{
					Output: out.value,
					Error:  fmt.Sprintf("%v", msg),
					Kind:   KindScriptError,
				}
			}
		}
		return Result{Success: true, Output: out.value}
	}
}
