package regocond

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisai/polis-guard/pkg/policy"
)

const guardModule = `package guard

default allow := false

allow if count(input.items) > 0

default admin := false

admin if input.role == "admin"
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := New(context.Background(), Options{
		Modules:    map[string]string{"guard.rego": guardModule},
		Entrypoint: "guard/allow",
	})
	require.NoError(t, err)
	return engine
}

func TestNew_RequiresModules(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
}

func TestNew_SurfacesSyntaxErrors(t *testing.T) {
	_, err := New(context.Background(), Options{
		Modules: map[string]string{"broken.rego": "package guard\n\nallow if {"},
	})
	require.Error(t, err)
}

func TestEngine_Decide(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	allowed, err := engine.Decide(ctx, "", map[string]any{"items": []any{"a"}})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = engine.Decide(ctx, "guard/allow", map[string]any{"items": []any{}})
	require.NoError(t, err)
	assert.False(t, allowed)

	admin, err := engine.Decide(ctx, "guard/admin", map[string]any{"role": "admin"})
	require.NoError(t, err)
	assert.True(t, admin)
}

func TestEngine_Condition(t *testing.T) {
	engine := newTestEngine(t)

	hasItems := policy.New("has items", engine.Condition("guard/allow"))

	assert.True(t, hasItems.Check(map[string]any{"items": []any{1}}))
	assert.False(t, hasItems.Check(map[string]any{"items": []any{}}))
	require.Error(t, hasItems.Assert(map[string]any{"items": []any{}}))
}

func TestEngine_ConditionInsideSet(t *testing.T) {
	engine := newTestEngine(t)

	set := policy.NewSet(
		policy.New("has items", engine.Condition("guard/allow")),
		policy.New("is admin", engine.Condition("guard/admin")),
	)

	doc := map[string]any{"items": []any{1}, "role": "user"}
	assert.True(t, set.Policy("has items").Check(doc))
	assert.False(t, set.Policy("is admin").Check(doc))
}

func TestEngine_Validator(t *testing.T) {
	engine := newTestEngine(t)

	validator := engine.Validator("guard/allow")

	require.NoError(t, validator.Validate(map[string]any{"items": []any{1}}))
	require.Error(t, validator.Validate(map[string]any{"items": []any{}}))
	require.Error(t, validator.Validate("not a document"))

	viaCondition := policy.New("valid document", policy.FromValidator[map[string]any](validator))
	assert.True(t, viaCondition.Check(map[string]any{"items": []any{1}}))
	assert.False(t, viaCondition.Check(map[string]any{"items": []any{}}))
}
