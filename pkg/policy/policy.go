package policy

// Policy is a named condition paired with a failure-producing factory. A
// policy is immutable after construction, carries no state between
// evaluations, and may be shared across any number of sets or used
// standalone. Its name is its identity for set lookup.
type Policy[T any] struct {
	name    string
	cond    Condition[T]
	message string
	errFn   func(T) error
}

// Option customises policy construction.
type Option[T any] func(*Policy[T])

// WithMessage replaces the default templated rejection message with a fixed
// one. The rejection keeps its name tag.
func WithMessage[T any](message string) Option[T] {
	return func(p *Policy[T]) {
		p.message = message
	}
}

// WithErrorFactory supplies the error produced on a failed assertion,
// replacing the default factory entirely.
func WithErrorFactory[T any](fn func(T) error) Option[T] {
	return func(p *Policy[T]) {
		p.errFn = fn
	}
}

// New constructs a policy from an explicit condition. An empty name is a
// programming error and panics.
func New[T any](name string, cond Condition[T], opts ...Option[T]) *Policy[T] {
	if name == "" {
		panic("policy: empty policy name")
	}
	p := &Policy[T]{name: name, cond: cond}
	for _, opt := range opts {
		opt(p)
	}
	if p.errFn == nil {
		p.errFn = p.defaultFactory()
	}
	return p
}

// Define constructs a policy from a single-argument predicate, the common
// case. It is shorthand for New(name, Value(pred), opts...).
func Define[T any](name string, pred func(T) bool, opts ...Option[T]) *Policy[T] {
	return New(name, Value(pred), opts...)
}

// NewRule constructs a policy whose condition takes no candidate value,
// typically a closure over context captured at definition time.
func NewRule(name string, pred func() bool, opts ...Option[Unit]) *Rule {
	return New(name, Nullary[Unit](pred), opts...)
}

// Name returns the policy's identifying name.
func (p *Policy[T]) Name() string {
	return p.name
}

// Check evaluates the condition against the candidate value and returns the
// result. A false result is not an error; a panic from the user predicate
// propagates unchanged.
func (p *Policy[T]) Check(v T) bool {
	return p.cond.Eval(v)
}

// Assert evaluates the condition and returns nil when it holds. When it does
// not, Assert returns exactly the error produced by the policy's factory for
// the candidate value, and nothing else.
func (p *Policy[T]) Assert(v T) error {
	if p.cond.Eval(v) {
		return nil
	}
	return p.errFn(v)
}

// Err produces the policy's failure error for the candidate value without
// evaluating the condition.
func (p *Policy[T]) Err(v T) error {
	return p.errFn(v)
}

func (p *Policy[T]) defaultFactory() func(T) error {
	return func(v T) error {
		message := p.message
		if message == "" {
			argument := noArgument
			if p.cond.takesValue() {
				argument = formatArgument(v)
			}
			message = defaultMessage(p.name, argument)
		}
		return newRejection(p.name, message)
	}
}

// Unit is the candidate type of policies that take no value.
type Unit struct{}

// Rule is a policy whose condition needs no candidate value.
type Rule = Policy[Unit]

// RuleSet is a set of value-free policies.
type RuleSet = Set[Unit]

// CheckRule evaluates a value-free policy.
func CheckRule(r *Rule) bool {
	return r.Check(Unit{})
}

// AssertRule asserts a value-free policy.
func AssertRule(r *Rule) error {
	return r.Assert(Unit{})
}
