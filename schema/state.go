package schema

// DecayedMarker replaces the content of a historical message that has
// been swapped out to disk by the agent loop's auto-decay pass. The file
// at FilePath holds the full original content until the agent closes.
type DecayedMarker struct {
	Decayed      bool
	FilePath     string
	OriginalSize int
}

// HistoryEntry pairs a Message with the step at which it was produced,
// so auto-decay can test "created >= decay_ttl_steps ago".
type HistoryEntry struct {
	Message Message
	Step    int
	Decay   *DecayedMarker
}

// AgentState is the per-invocation state of one live agent: its Input,
// its running message history, and the scratch variables the agent loop
// and its context-management passes need.
type AgentState struct {
	Input      Input
	History    []HistoryEntry
	StepCount  int
	Done       bool
	Score      float64
	Scratch    map[string]any
	Plan       *Plan
	StepAtTime map[int]int // step index -> wall-clock step number, for decay TTL
}

// NewAgentState creates a fresh state for one Input.
func NewAgentState(in Input) *AgentState {
	return &AgentState{Input: in, Scratch: make(map[string]any)}
}

// Messages flattens History into the plain []Message a provider call
// needs.
func (s *AgentState) Messages() []Message {
	out := make([]Message, len(s.History))
	for i, h := range s.History {
		out[i] = h.Message
	}
	return out
}

// Append records one new message at the current step.
func (s *AgentState) Append(m Message) {
	s.History = append(s.History, HistoryEntry{Message: m, Step: s.StepCount})
}
