package llm

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// FuncTool declares one structured function the model may invoke. The
// argument schema is derived from the Go argument type.
type FuncTool struct {
	Name        string
	Description string
	Argument    *jsonschema.Schema
}

// Decode unmarshals argument text for this tool into v, repairing
// malformed JSON first.
func (t *FuncTool) Decode(args string, v any) error {
	return UnmarshalArguments([]byte(args), v)
}

// NewFuncTool declares a tool whose argument schema is inferred from
// ArgType.
func NewFuncTool[ArgType any](name, description string) (*FuncTool, error) {
	arg, err := jsonschema.For[ArgType](nil)
	if err != nil {
		return nil, err
	}
	return &FuncTool{
		Name:        name,
		Description: description,
		Argument:    arg,
	}, nil
}

// MustNewFuncTool is NewFuncTool that panics on schema errors. Intended
// for package-level tool declarations.
func MustNewFuncTool[ArgType any](name, description string) *FuncTool {
	tool, err := NewFuncTool[ArgType](name, description)
	if err != nil {
		panic(err)
	}
	return tool
}
