// Package celrule evaluates the optional CELCondition extension on an
// EndpointPolicy: a boolean CEL expression over the candidate endpoint's
// structural attributes. This is an extension point beyond the three
// required structural match rules, not a replacement for them.
package celrule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
)

const (
	maxExpressionLength = 1024
	maxCostBudget       = 100_000
	maxNestingDepth      = 50
	evalTimeout          = 5 * time.Second
	interruptCheckFreq   = 100
)

// Evaluator compiles and evaluates CEL expressions against Vars. It caches
// compiled programs by expression text since the same policy condition is
// evaluated against every candidate endpoint during a compile run.
type Evaluator struct {
	env *cel.Env

	mu       sync.RWMutex
	compiled map[string]cel.Program
}

// NewEvaluator constructs an Evaluator with the endpoint-condition
// environment.
func NewEvaluator() (*Evaluator, error) {
	env, err := newEnvironment()
	if err != nil {
		return nil, fmt.Errorf("celrule: failed to build environment: %w", err)
	}
	return &Evaluator{env: env, compiled: make(map[string]cel.Program)}, nil
}

func (e *Evaluator) compile(expr string) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}

	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}
	return prg, nil
}

func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}

// Validate checks that expr is syntactically valid, within the length and
// nesting limits, and compiles cleanly. It does not cache the result.
func (e *Evaluator) Validate(expr string) error {
	if expr == "" {
		return errors.New("expression is empty")
	}
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("expression too long: %d characters (max %d)", len(expr), maxExpressionLength)
	}
	if err := validateNesting(expr); err != nil {
		return err
	}
	if _, err := e.compile(expr); err != nil {
		return fmt.Errorf("invalid CEL expression: %w", err)
	}
	return nil
}

// Evaluate compiles (if not already cached) and runs expr against vars,
// bounded by evalTimeout. Returns an error if the expression does not
// evaluate to a boolean.
func (e *Evaluator) Evaluate(expr string, vars Vars) (bool, error) {
	prg, err := e.programFor(expr)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	result, _, err := prg.ContextEval(ctx, vars.activation())
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}

	boolResult, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean, got %T", result.Value())
	}
	return boolResult, nil
}

func (e *Evaluator) programFor(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.compiled[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	prg, err := e.compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid CEL expression: %w", err)
	}

	e.mu.Lock()
	e.compiled[expr] = prg
	e.mu.Unlock()
	return prg, nil
}
