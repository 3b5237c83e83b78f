package schema

import "time"

// ChunkType enumerates the StreamChunk kinds a turn can emit. A reader
// reconstructs the assistant's text by concatenating the Content of every
// Text and LLMOutput chunk, in order.
type ChunkType string

const (
	ChunkText        ChunkType = "text"
	ChunkLLMOutput   ChunkType = "llm_output"
	ChunkToolCall    ChunkType = "tool_call"
	ChunkToolResp    ChunkType = "tool_response"
	ChunkStepStart   ChunkType = "step_start"
	ChunkStepEnd     ChunkType = "step_end"
	ChunkCompletion  ChunkType = "completion"
	ChunkWarning     ChunkType = "warning"
	ChunkError       ChunkType = "error"
	ChunkFinalAnswer ChunkType = "final_answer"
)

// StreamChunk is one ordered unit of streaming output.
type StreamChunk struct {
	Content   string
	ChunkType ChunkType
	Metadata  map[string]any
	Timestamp time.Time
}

// NewChunk builds a StreamChunk stamped with the current time.
func NewChunk(kind ChunkType, content string, metadata map[string]any) StreamChunk {
	return StreamChunk{Content: content, ChunkType: kind, Metadata: metadata, Timestamp: time.Now()}
}

// AgentResponse is the terminal StreamChunk of a turn: it carries the
// final answer alongside the conversation state at termination.
type AgentResponse struct {
	StreamChunk

	Answer        string
	Score         float64
	Terminated    bool
	Truncated     bool
	IsFinalAnswer bool
	Messages      []Message
	RawReply      any
	Cost          CostRecord
}
