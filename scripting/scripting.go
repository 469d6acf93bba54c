// Package scripting evaluates per-field validation scripts with a
// JavaScript engine. A script sees the candidate value and field name
// as globals and accepts the commit by evaluating to a truthy result.
package scripting

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// DefaultTimeout bounds a single script evaluation.
const DefaultTimeout = 250 * time.Millisecond

// Runner executes scripts against a fresh VM per call, so one field's
// script can never leak state into another's.
type Runner struct {
	// Timeout bounds each evaluation; zero means DefaultTimeout.
	Timeout time.Duration
}

// Execute runs script with the given global bindings and returns the
// exported result. The context cancels or times out the evaluation.
func (r *Runner) Execute(ctx context.Context, script string, bindings map[string]interface{}) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vm := goja.New()
	for name, val := range bindings {
		if err := vm.Set(name, val); err != nil {
			return nil, fmt.Errorf("scripting: bind %s: %w", name, err)
		}
	}

	done := make(chan struct{})
	defer close(done)
	defer vm.ClearInterrupt()
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := vm.RunString(script)
	if err != nil {
		if interrupted, ok := err.(*goja.InterruptedError); ok {
			if cause := interrupted.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

// Validator adapts the runner to the surface's field-validation hook.
type Validator struct {
	Runner Runner
}

// NewValidator returns a validator with default limits.
func NewValidator() *Validator { return &Validator{} }

// Validate runs a field's validation script against a candidate value.
// The script sees `value` and `field`; a falsy result or thrown error
// rejects the commit.
func (v *Validator) Validate(script, fieldName, value string) error {
	res, err := v.Runner.Execute(context.Background(), script, map[string]interface{}{
		"value": value,
		"field": fieldName,
	})
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	if !truthy(res) {
		return fmt.Errorf("scripting: script rejected value for field %q", fieldName)
	}
	return nil
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}
