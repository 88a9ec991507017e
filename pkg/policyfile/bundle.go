// Package policyfile loads declarative policy bundles: YAML documents that
// bind policy names to Rego entrypoints, with the Rego modules carried inline.
// A loaded bundle becomes an ordinary policy set over JSON-shaped input
// documents, and a Watcher can rebuild it when the file changes on disk.
package policyfile

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/polisai/polis-guard/pkg/policy"
	"github.com/polisai/polis-guard/pkg/policy/regocond"
)

// Bundle is the on-disk shape of a policy bundle.
type Bundle struct {
	// Modules holds Rego module sources keyed by filename.
	Modules map[string]string `yaml:"modules"`
	// Policies binds policy names to decision entrypoints.
	Policies []Spec `yaml:"policies"`
}

// Spec describes one declarative policy.
type Spec struct {
	Name       string `yaml:"name"`
	Entrypoint string `yaml:"entrypoint"`
	// Message optionally replaces the default rejection message.
	Message string `yaml:"message,omitempty"`
}

// Parse decodes and validates a bundle document. Unlike code-level set
// construction, duplicate names in a bundle fail parsing: a declarative file
// repeating a name is a mistake, not a precedence choice.
func Parse(data []byte) (*Bundle, error) {
	var bundle Bundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parse policy bundle: %w", err)
	}

	if len(bundle.Modules) == 0 {
		return nil, fmt.Errorf("policy bundle: at least one rego module is required")
	}
	if len(bundle.Policies) == 0 {
		return nil, fmt.Errorf("policy bundle: at least one policy is required")
	}

	seen := make(map[string]struct{}, len(bundle.Policies))
	for i, spec := range bundle.Policies {
		if spec.Name == "" {
			return nil, fmt.Errorf("policy bundle: policy %d has no name", i)
		}
		if spec.Entrypoint == "" {
			return nil, fmt.Errorf("policy bundle: policy %q has no entrypoint", spec.Name)
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("policy bundle: duplicate policy name %q", spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}

	return &bundle, nil
}

// Build compiles the bundle's modules and constructs the policy set.
func (b *Bundle) Build(ctx context.Context) (*policy.Set[map[string]any], error) {
	engine, err := regocond.New(ctx, regocond.Options{
		Modules:    b.Modules,
		Entrypoint: b.Policies[0].Entrypoint,
	})
	if err != nil {
		return nil, err
	}

	policies := make([]*policy.Policy[map[string]any], 0, len(b.Policies))
	for _, spec := range b.Policies {
		var opts []policy.Option[map[string]any]
		if spec.Message != "" {
			opts = append(opts, policy.WithMessage[map[string]any](spec.Message))
		}
		policies = append(policies, policy.New(spec.Name, engine.Condition(spec.Entrypoint), opts...))
	}

	return policy.NewSet(policies...), nil
}

// Load reads, parses, and builds a bundle file in one step.
func Load(ctx context.Context, path string) (*policy.Set[map[string]any], error) {
	//nolint:gosec // Bundle path is controlled by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy bundle %s: %w", path, err)
	}

	bundle, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy bundle %s: %w", path, err)
	}

	return bundle.Build(ctx)
}
