// Package schema implements the Message & Schema model: the normalized
// chat message, tool descriptor, and cost record shapes shared by every
// other package in this module (providers, tools, the interpreter, the
// reasoning strategies, the brain, and the agent loop).
package schema

import (
	"encoding/base64"
	"fmt"
)

// Role identifies who produced a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartKind distinguishes the two kinds of content a Message part can carry.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// Part is one ordered fragment of multimodal message content.
type Part struct {
	Kind  PartKind
	Text  string
	Image *ImagePart
}

// ImagePart is an image reference: either a remote URL or inlined bytes
// with a declared media type.
type ImagePart struct {
	URL       string
	Data      []byte
	MediaType string // e.g. "image/png"
}

// DataURL renders an inlined image as a base64 data URL. If URL is set
// instead of Data, it is returned unchanged.
func (p *ImagePart) DataURL() string {
	if p == nil {
		return ""
	}
	if p.URL != "" {
		return p.URL
	}
	mt := p.MediaType
	if mt == "" {
		mt = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mt, base64.StdEncoding.EncodeToString(p.Data))
}

// Message is one turn in a conversation. Content is either a scalar Text
// (Parts is empty) or an ordered list of Parts when any part is non-text.
// Messages are immutable once emitted: every mutator on this type returns
// a modified copy instead of writing through the receiver.
type Message struct {
	Role       Role
	Text       string
	Parts      []Part
	ToolCallID string
	Name       string
	ToolCalls  []ToolCallWire
}

// IsMultimodal reports whether Content is an ordered part list rather than
// a scalar string.
func (m Message) IsMultimodal() bool {
	return len(m.Parts) > 0
}

// Equal reports structural equality, per spec: "Equality is defined
// structurally."
func (m Message) Equal(other Message) bool {
	if m.Role != other.Role || m.Text != other.Text ||
		m.ToolCallID != other.ToolCallID || m.Name != other.Name {
		return false
	}
	if len(m.Parts) != len(other.Parts) || len(m.ToolCalls) != len(other.ToolCalls) {
		return false
	}
	for i := range m.Parts {
		a, b := m.Parts[i], other.Parts[i]
		if a.Kind != b.Kind || a.Text != b.Text {
			return false
		}
		if (a.Image == nil) != (b.Image == nil) {
			return false
		}
		if a.Image != nil && a.Image.DataURL() != b.Image.DataURL() {
			return false
		}
	}
	for i := range m.ToolCalls {
		if m.ToolCalls[i] != other.ToolCalls[i] {
			return false
		}
	}
	return true
}

// NewTextMessage builds a scalar-content message.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Text: text}
}

// NewMultimodalMessage builds a message from an ordered list of parts.
// Passing a single text part collapses to a scalar-content message, so
// canonicalization stays idempotent (spec invariant 1).
func NewMultimodalMessage(role Role, parts []Part) Message {
	if len(parts) == 1 && parts[0].Kind == PartText {
		return NewTextMessage(role, parts[0].Text)
	}
	return Message{Role: role, Parts: parts}
}

// NewToolMessage builds the tool-role reply to a specific tool call.
func NewToolMessage(toolCallID, name, content string) Message {
	return Message{Role: RoleTool, Text: content, ToolCallID: toolCallID, Name: name}
}

// QueryPart is the caller-facing union type accepted by CanonicalizeQuery:
// a plain string, or a typed part (text/image) for multimodal queries.
type QueryPart struct {
	Text  string
	Image *ImagePart
}

// CanonicalizeQuery converts a query (a string, an ordered list of
// QueryPart, or an already-canonical []Message) into a canonical message
// list with an optional system prompt prepended. Passing already-canonical
// messages returns an equal list, making the conversion idempotent.
func CanonicalizeQuery(query any, systemPrompt string) ([]Message, error) {
	var out []Message
	if systemPrompt != "" {
		out = append(out, NewTextMessage(RoleSystem, systemPrompt))
	}

	switch v := query.(type) {
	case string:
		out = append(out, NewTextMessage(RoleUser, v))
	case []Message:
		// Idempotent path: caller already built canonical messages.
		for _, m := range v {
			if m.Role == RoleSystem && systemPrompt != "" {
				continue // don't double up on system prompts
			}
			out = append(out, m)
		}
	case []QueryPart:
		parts := make([]Part, 0, len(v))
		for _, qp := range v {
			if qp.Image != nil {
				parts = append(parts, Part{Kind: PartImage, Image: qp.Image})
			} else {
				parts = append(parts, Part{Kind: PartText, Text: qp.Text})
			}
		}
		out = append(out, NewMultimodalMessage(RoleUser, parts))
	case Message:
		out = append(out, v)
	case nil:
		return nil, fmt.Errorf("schema: nil query")
	default:
		// Unrecognized part types are coerced to text, per spec 4.1.
		out = append(out, NewTextMessage(RoleUser, fmt.Sprintf("%v", v)))
	}
	return out, nil
}
