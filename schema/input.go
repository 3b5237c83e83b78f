package schema

// CachePlan carries provider-specific prompt-caching hints; left opaque
// here since its shape is provider-defined.
type CachePlan map[string]any

// Input is the unit of work handed to a Worker. It is created by the
// caller, mutated only by the owning Worker (e.g. to attach Feedback
// before a retry), and discarded when the enclosing step returns.
type Input struct {
	Query        any // string, []QueryPart, or []Message
	QueryType    string
	Route        string
	SystemPrompt string
	Answer       string // current candidate, set by Check/Improve
	Feedback     string
	Dataset      []TestCase
	CachePlan    CachePlan
	Stream       bool
	Metadata     map[string]any
}

// Clone returns a shallow copy safe for a sub-worker to mutate without
// affecting the caller's Input (e.g. a Plan task attaching its own
// Metadata).
func (in Input) Clone() Input {
	out := in
	if in.Metadata != nil {
		out.Metadata = make(map[string]any, len(in.Metadata))
		for k, v := range in.Metadata {
			out.Metadata[k] = v
		}
	}
	if in.Dataset != nil {
		out.Dataset = append([]TestCase(nil), in.Dataset...)
	}
	return out
}

// TestCase is one (call, expected) pair consumed by TestMinion.
type TestCase struct {
	Call     string
	Expected string
}
