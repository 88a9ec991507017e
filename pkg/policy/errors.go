package policy

import "encoding/json"

// RejectionName is the fixed marker carried by every rejection produced by
// the default error factory. The full Name of a rejection is the marker
// followed by the policy name in brackets, e.g. "PolicyRejection [has items]".
const RejectionName = "PolicyRejection"

const (
	// noArgument is substituted for the candidate value when the rejected
	// condition takes none.
	noArgument = "<no argument>"
	// unserializable is substituted when the candidate value cannot be
	// rendered as JSON (functions, channels, cyclic structures).
	unserializable = "<unserializable>"
)

// Rejection is the only error kind the package produces: a policy evaluated
// to false and its default (or message-overridden) factory synthesized the
// failure. User-supplied factories may return any error type instead.
type Rejection struct {
	// Policy is the name of the rejecting policy.
	Policy string
	// Name tags the rejection with RejectionName plus the policy name.
	Name string
	// Message is the human-readable failure description.
	Message string
}

func (e *Rejection) Error() string {
	return e.Message
}

func newRejection(policy, message string) *Rejection {
	return &Rejection{
		Policy:  policy,
		Name:    RejectionName + " [" + policy + "]",
		Message: message,
	}
}

func defaultMessage(policy, argument string) string {
	return "[" + policy + "] policy is not met for the argument: " + argument
}

// formatArgument renders the candidate value for the default rejection
// message. JSON keeps the output stable and readable; anything the encoder
// rejects collapses to a fixed placeholder.
func formatArgument(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return unserializable
	}
	return string(data)
}
