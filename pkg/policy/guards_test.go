package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCheck_InlineShape(t *testing.T) {
	assert.True(t, Check("has items", func(v []int) bool { return len(v) > 0 }, []int{1}))
	assert.False(t, Check("has items", func(v []int) bool { return len(v) > 0 }, []int{}))
}

func TestAssert_InlineShape(t *testing.T) {
	err := Assert("has items", func(v []int) bool { return len(v) > 0 }, []int{})
	require.Error(t, err)
	assert.Equal(t, "[has items] policy is not met for the argument: []", err.Error())

	require.NoError(t, Assert("has items", func(v []int) bool { return len(v) > 0 }, []int{1}))
}

func TestCheckAll_MixedProbes(t *testing.T) {
	hasItems := Define("has items", func(v []int) bool { return len(v) > 0 })
	admin := NewRule("is admin", func() bool { return false })

	results := CheckAll(
		Bind(hasItems, []int{1}),
		BindRule(admin),
		BindFunc("under limit", func(v int) bool { return v < 10 }, 3),
	)

	assert.Equal(t, map[string]bool{
		"has items":   true,
		"is admin":    false,
		"under limit": true,
	}, results)
}

func TestCheckAll_EvaluatesEveryProbe(t *testing.T) {
	var calls int
	counting := func(result bool) Probe {
		return BindFunc("probe", func(bool) bool {
			calls++
			return result
		}, true)
	}

	CheckAll(counting(false), counting(false), counting(true))

	assert.Equal(t, 3, calls, "no short-circuiting across probes")
}

func TestCheckAll_DuplicateNameLastWins(t *testing.T) {
	results := CheckAll(
		BindFunc("flag", func(bool) bool { return false }, true),
		BindFunc("flag", func(bool) bool { return true }, true),
	)

	assert.Equal(t, map[string]bool{"flag": true}, results)
}

func TestCheckAll_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		outcomes := rapid.SliceOfN(rapid.Bool(), 0, 16).Draw(t, "outcomes")

		probes := make([]Probe, len(outcomes))
		runs := make([]int, len(outcomes))
		for i, outcome := range outcomes {
			probes[i] = Bind(New(probeName(i), Value(func(struct{}) bool {
				runs[i]++
				return outcome
			})), struct{}{})
		}

		results := CheckAll(probes...)

		require.Len(t, results, len(outcomes))
		for i, outcome := range outcomes {
			assert.Equal(t, outcome, results[probeName(i)])
			assert.Equal(t, 1, runs[i], "each probe runs exactly once")
		}
	})
}

func probeName(i int) string {
	return "probe-" + string(rune('a'+i))
}
