package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/kadirpekel/minion/schema"
)

// Convert wraps an arbitrary Go function as a Tool, generating its
// descriptor from the argument struct's tags and decoding the LLM's
// map[string]any call arguments into that struct. fn must have the
// shape func(context.Context, Args) (Out, error); Out is stored as-is in
// the tool result's Output field, and Content holds its String() form if
// it implements fmt.Stringer, the string itself if it is a string, and
// its JSON encoding otherwise.
//
// This generalizes the teacher's functiontool.New (which targets a
// single typed-Args generic parameter) to any Go function discoverable
// via reflection, per the spec's requirement that tool_search/load_tool
// expose plain Go callables without per-tool boilerplate.
func Convert(name, description string, fn any) (Tool, error) {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("tools.Convert: fn must be a function, got %s", t.Kind())
	}
	if t.NumIn() != 2 || t.NumOut() != 2 {
		return nil, fmt.Errorf("tools.Convert: fn must be func(context.Context, Args) (Out, error)")
	}
	if !t.In(0).Implements(reflect.TypeOf((*context.Context)(nil)).Elem()) {
		return nil, fmt.Errorf("tools.Convert: fn's first argument must be context.Context")
	}
	if !t.Out(1).Implements(reflect.TypeOf((*error)(nil)).Elem()) {
		return nil, fmt.Errorf("tools.Convert: fn's second return value must be error")
	}

	argsType := t.In(1)
	descriptor, err := describeArgs(name, description, argsType)
	if err != nil {
		return nil, fmt.Errorf("tools.Convert: %w", err)
	}

	return &convertedTool{
		descriptor: descriptor,
		fn:         v,
		argsType:   argsType,
	}, nil
}

type convertedTool struct {
	descriptor schema.ToolDescriptor
	fn         reflect.Value
	argsType   reflect.Type
}

func (c *convertedTool) Descriptor() schema.ToolDescriptor { return c.descriptor }

func (c *convertedTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	argsPtr := reflect.New(c.argsType)
	if err := mapstructure.Decode(args, argsPtr.Interface()); err != nil {
		return Result{Success: false, ToolName: c.descriptor.Name, Error: err.Error()}, nil
	}

	rets := c.fn.Call([]reflect.Value{reflect.ValueOf(ctx), argsPtr.Elem()})
	if errVal := rets[1].Interface(); errVal != nil {
		err := errVal.(error)
		return Result{Success: false, ToolName: c.descriptor.Name, Error: err.Error()}, nil
	}

	out := rets[0].Interface()
	content := ""
	if s, ok := out.(fmt.Stringer); ok {
		content = s.String()
	} else if s, ok := out.(string); ok {
		content = s
	} else if b, err := json.Marshal(out); err == nil {
		content = string(b)
	}

	return Result{Success: true, Content: content, Output: out, ToolName: c.descriptor.Name}, nil
}

// describeArgs builds a ToolDescriptor from an args struct's json and
// jsonschema tags, following the teacher's invopop/jsonschema reflector
// settings (inline properties, no $ref indirection).
func describeArgs(name, description string, argsType reflect.Type) (schema.ToolDescriptor, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	s := reflector.Reflect(reflect.New(argsType).Interface())

	data, err := json.Marshal(s)
	if err != nil {
		return schema.ToolDescriptor{}, fmt.Errorf("marshal schema: %w", err)
	}
	var raw struct {
		Properties map[string]struct {
			Type        string   `json:"type"`
			Description string   `json:"description"`
			Default     any      `json:"default"`
			Enum        []string `json:"enum"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return schema.ToolDescriptor{}, fmt.Errorf("unmarshal schema: %w", err)
	}

	required := make(map[string]bool, len(raw.Required))
	for _, r := range raw.Required {
		required[r] = true
	}

	inputs := make(map[string]schema.ParamSchema, len(raw.Properties))
	for propName, p := range raw.Properties {
		inputs[propName] = schema.ParamSchema{
			Type:        p.Type,
			Description: p.Description,
			Optional:    !required[propName],
			Default:     p.Default,
			Enum:        p.Enum,
		}
	}

	return schema.ToolDescriptor{
		Name:        name,
		Description: description,
		Inputs:      inputs,
	}, nil
}
