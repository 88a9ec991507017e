package policy

// Check evaluates an ad-hoc guard: a name and predicate that exist only for
// this call and are never registered anywhere. The name is a reporting
// convenience; the result is exactly pred(v).
func Check[T any](name string, pred func(T) bool, v T) bool {
	return Define(name, pred).Check(v)
}

// Assert evaluates an ad-hoc guard and, when the predicate rejects the
// candidate value, returns the default factory's rejection for it.
func Assert[T any](name string, pred func(T) bool, v T) error {
	return Define(name, pred).Assert(v)
}

// Probe binds a policy (or inline predicate) to its candidate value so that
// heterogeneous guards can be evaluated together by CheckAll.
type Probe struct {
	name string
	run  func() bool
}

// Name returns the bound policy name.
func (p Probe) Name() string {
	return p.name
}

// Run evaluates the bound policy against its bound value.
func (p Probe) Run() bool {
	return p.run()
}

// Bind pairs a policy with the value it should be evaluated against.
func Bind[T any](p *Policy[T], v T) Probe {
	return Probe{name: p.name, run: func() bool { return p.Check(v) }}
}

// BindFunc pairs an ad-hoc named predicate with its candidate value.
func BindFunc[T any](name string, pred func(T) bool, v T) Probe {
	return Bind(Define(name, pred), v)
}

// BindRule wraps a value-free policy as a probe.
func BindRule(r *Rule) Probe {
	return Bind(r, Unit{})
}

// CheckAll evaluates every probe, with no short-circuiting between them, and
// returns the results keyed by policy name. Probes sharing a name overwrite
// earlier results. Useful for a full diagnostic snapshot rather than
// branching on a single policy.
func CheckAll(probes ...Probe) map[string]bool {
	results := make(map[string]bool, len(probes))
	for _, probe := range probes {
		results[probe.name] = probe.run()
	}
	return results
}
