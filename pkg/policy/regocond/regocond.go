// Package regocond adapts Open Policy Agent Rego decisions into synchronous
// policy conditions. Modules are parsed and compiled once; each entrypoint is
// prepared lazily and cached, so a condition built from an engine evaluates
// without recompiling anything.
package regocond

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	//nolint:staticcheck // OPA v1 migration pending
	"github.com/open-policy-agent/opa/ast"
	//nolint:staticcheck // OPA v1 migration pending
	"github.com/open-policy-agent/opa/rego"

	"github.com/polisai/polis-guard/pkg/policy"
)

const defaultEntrypoint = "guard/allow"

// Options control engine construction.
type Options struct {
	// Modules contains the Rego modules to load, keyed by filename.
	Modules map[string]string
	// Entrypoint is the default decision path (e.g. "guard/allow").
	Entrypoint string
}

// Engine compiles Rego modules and answers boolean decisions for entrypoints.
type Engine struct {
	parsedModules map[string]*ast.Module
	moduleOrder   []string
	entrypoint    string
	queries       map[string]*rego.PreparedEvalQuery
	mu            sync.RWMutex
}

// New parses the supplied modules and warms the default entrypoint so syntax
// errors surface at construction rather than first evaluation.
func New(ctx context.Context, opts Options) (*Engine, error) {
	entry := strings.TrimSpace(opts.Entrypoint)
	if entry == "" {
		entry = defaultEntrypoint
	}

	if len(opts.Modules) == 0 {
		return nil, errors.New("regocond: at least one rego module is required")
	}

	moduleOrder := make([]string, 0, len(opts.Modules))
	for name := range opts.Modules {
		moduleOrder = append(moduleOrder, name)
	}
	sort.Strings(moduleOrder)

	parsedModules := make(map[string]*ast.Module, len(opts.Modules))
	for _, name := range moduleOrder {
		module, err := ast.ParseModuleWithOpts(name, opts.Modules[name], ast.ParserOptions{RegoVersion: ast.RegoV1})
		if err != nil {
			return nil, fmt.Errorf("parse rego module %q: %w", name, err)
		}
		parsedModules[name] = module
	}

	engine := &Engine{
		parsedModules: parsedModules,
		moduleOrder:   moduleOrder,
		entrypoint:    entry,
		queries:       make(map[string]*rego.PreparedEvalQuery),
	}

	if _, err := engine.getPreparedQuery(ctx, entry); err != nil {
		return nil, fmt.Errorf("compile rego modules: %w", err)
	}

	return engine, nil
}

// Decide evaluates the entrypoint (or the engine default when empty) against
// the input document. The decision value must be a boolean; an undefined
// decision is false.
func (e *Engine) Decide(ctx context.Context, entrypoint string, input map[string]any) (bool, error) {
	entry := strings.TrimSpace(entrypoint)
	if entry == "" {
		entry = e.entrypoint
	}

	prepared, err := e.getPreparedQuery(ctx, entry)
	if err != nil {
		return false, fmt.Errorf("prepare query: %w", err)
	}

	results, err := prepared.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("rego decision: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}

	decision, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("rego decision: entrypoint %q must produce a boolean, got %T",
			entry, results[0].Expressions[0].Value)
	}

	return decision, nil
}

// Condition wraps an entrypoint as a synchronous policy condition over an
// input document. Evaluation errors (undefined entrypoints, non-boolean
// decisions) resolve to false; use Decide directly when the error matters.
func (e *Engine) Condition(entrypoint string) policy.Condition[map[string]any] {
	return policy.Value(func(input map[string]any) bool {
		decision, err := e.Decide(context.Background(), entrypoint, input)
		return err == nil && decision
	})
}

// Validator wraps an entrypoint as a validation collaborator suitable for
// policy.FromValidator: a true decision validates, anything else reports why.
func (e *Engine) Validator(entrypoint string) policy.Validator {
	return &validator{engine: e, entrypoint: entrypoint}
}

type validator struct {
	engine     *Engine
	entrypoint string
}

func (v *validator) Validate(value any) error {
	input, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("regocond: input must be map[string]any, got %T", value)
	}

	decision, err := v.engine.Decide(context.Background(), v.entrypoint, input)
	if err != nil {
		return err
	}
	if !decision {
		return fmt.Errorf("regocond: input rejected by entrypoint %q", v.entrypoint)
	}
	return nil
}

func (e *Engine) getPreparedQuery(ctx context.Context, entry string) (*rego.PreparedEvalQuery, error) {
	e.mu.RLock()
	if prepared, ok := e.queries[entry]; ok {
		e.mu.RUnlock()
		return prepared, nil
	}
	e.mu.RUnlock()

	query := "data." + strings.ReplaceAll(entry, "/", ".")

	opts := make([]func(*rego.Rego), 0, len(e.parsedModules)+1)
	opts = append(opts, rego.Query(query))
	for _, name := range e.moduleOrder {
		opts = append(opts, rego.ParsedModule(e.parsedModules[name]))
	}

	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Another goroutine may have already prepared the query; respect first entry.
	if existing, ok := e.queries[entry]; ok {
		return existing, nil
	}

	e.queries[entry] = &prepared
	return &prepared, nil
}
