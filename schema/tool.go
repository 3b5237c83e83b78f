package schema

// ParamSchema describes one tool input parameter.
type ParamSchema struct {
	Type        string
	Description string
	Optional    bool
	Default     any
	Enum        []string
}

// ToolDescriptor is the provider-facing (and interpreter-facing)
// description of a tool: name, description, input schema, declared output
// type. It carries no invocation capability itself — tools.Tool pairs a
// descriptor with an Execute method.
type ToolDescriptor struct {
	Name        string
	Description string
	Inputs      map[string]ParamSchema
	OutputType  string
}

// ToolInfo is the lightweight result of tool_search: enough to decide
// whether to load a tool, without instantiating it.
type ToolInfo struct {
	Name        string
	Description string
	Parameters  []ParamSchema
	Category    string
	Source      string // repository/collection name, for diagnostics
}

// ToolCallWire is the wire shape of one tool call an assistant response
// carries: {id, name, arguments}.
type ToolCallWire struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResponseWire is the wire shape of the executor's reply to one tool
// call: {tool_call_id, content}.
type ToolResponseWire struct {
	ToolCallID string
	Content    string
	IsError    bool
}
