package policy

// Operand is a boolean term accepted by And and Or: either a literal Bool or
// a Lazy thunk evaluated only if the aggregate result is still undecided.
type Operand interface {
	operand() bool
}

// Bool is a literal boolean operand.
type Bool bool

func (b Bool) operand() bool {
	return bool(b)
}

// Lazy is a deferred boolean operand, typically wrapping a nested policy
// check. It is invoked at most once, and not at all past a short circuit.
type Lazy func() bool

func (f Lazy) operand() bool {
	return f()
}

// And reports whether every operand holds, evaluating left to right and
// stopping at the first false. And of nothing is true.
func And(operands ...Operand) bool {
	for _, op := range operands {
		if !op.operand() {
			return false
		}
	}
	return true
}

// Or reports whether any operand holds, evaluating left to right and
// stopping at the first true. Or of nothing is false.
func Or(operands ...Operand) bool {
	for _, op := range operands {
		if op.operand() {
			return true
		}
	}
	return false
}
