package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// Declaration describes t as a Gemini function.
func (t *Tool) Declaration() *genai.FunctionDeclaration {
	props := make(map[string]*genai.Schema, len(t.params))
	var required []string
	for name, p := range t.params {
		props[name] = &genai.Schema{
			Type:        genaiType(p.Type),
			Description: p.Desc,
		}
		if p.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	return &genai.FunctionDeclaration{
		Name:        t.name,
		Description: t.desc,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   required,
		},
	}
}

// Call runs t for a Gemini function call. Failures are reported in the
// response so the model can react to them.
func (t *Tool) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	resp := &genai.FunctionResponse{ID: id, Name: t.name}

	raw, err := json.Marshal(args)
	if err != nil {
		resp.Response = map[string]any{"error": fmt.Sprintf("invalid arguments: %v", err)}
		return resp
	}
	out, err := t.InvokableRun(ctx, string(raw))
	if err != nil {
		resp.Response = map[string]any{"error": err.Error()}
		return resp
	}
	resp.Response = map[string]any{"output": out}
	return resp
}

// Library dispatches Gemini function calls to the matching tool.
type Library func(context.Context, *genai.FunctionCall) *genai.FunctionResponse

func NewLibrary(toolkit []*Tool) Library {
	return func(ctx context.Context, call *genai.FunctionCall) *genai.FunctionResponse {
		for _, t := range toolkit {
			if t.name == call.Name {
				return t.Call(ctx, call.ID, call.Args)
			}
		}
		return &genai.FunctionResponse{
			ID:   call.ID,
			Name: call.Name,
			Response: map[string]any{
				"error": fmt.Sprintf("unknown function %s", call.Name),
			},
		}
	}
}

func NewDeclarations(toolkit []*Tool) []*genai.FunctionDeclaration {
	result := make([]*genai.FunctionDeclaration, 0, len(toolkit))
	for _, t := range toolkit {
		result = append(result, t.Declaration())
	}
	return result
}

func genaiType(t schema.DataType) genai.Type {
	switch t {
	case schema.Integer:
		return genai.TypeInteger
	case schema.Number:
		return genai.TypeNumber
	case schema.Boolean:
		return genai.TypeBoolean
	case schema.Array:
		return genai.TypeArray
	case schema.Object:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
