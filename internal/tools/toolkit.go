package tools

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/pkg/dataflows"
)

// MarketData is the set of lookups the toolkit exposes to the assistant.
type MarketData interface {
	dataflows.QuoteSource
	dataflows.ProfileSource
	dataflows.RecommendationSource
	dataflows.NewsSource
}

// Capabilities selects which market-data tools are offered.
type Capabilities struct {
	StockPrice             bool
	AnalystRecommendations bool
	CompanyInfo            bool
	CompanyNews            bool
}

// AllCapabilities enables every tool.
func AllCapabilities() Capabilities {
	return Capabilities{
		StockPrice:             true,
		AnalystRecommendations: true,
		CompanyInfo:            true,
		CompanyNews:            true,
	}
}

// Tool is an eino invokable tool that remembers its parameter schema so it
// can also be declared to providers outside eino.
type Tool struct {
	tool.InvokableTool
	name   string
	desc   string
	params map[string]*schema.ParameterInfo
}

func (t *Tool) Name() string { return t.name }

// InvokableRun records the call on the context's Recorder, then runs the tool.
func (t *Tool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	if r := RecorderFrom(ctx); r != nil {
		r.add(Call{Name: t.name, Arguments: argumentsInJSON})
	}
	logger.Log.Debugf("tool %s called with %s", t.name, argumentsInJSON)
	return t.InvokableTool.InvokableRun(ctx, argumentsInJSON, opts...)
}

// errorOutput is what the model sees when a lookup fails.
type errorOutput struct {
	Error string `json:"error"`
}

func newTool[T any](name, desc string, params map[string]*schema.ParameterInfo, fn func(context.Context, T) (any, error)) *Tool {
	info := &schema.ToolInfo{
		Name:        name,
		Desc:        desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
	invoke := func(ctx context.Context, input T) (any, error) {
		out, err := fn(ctx, input)
		if err != nil {
			logger.Log.Warnf("tool %s failed: %v", name, err)
			return errorOutput{Error: err.Error()}, nil
		}
		return out, nil
	}
	return &Tool{
		InvokableTool: t_utils.NewTool(info, invoke),
		name:          name,
		desc:          desc,
		params:        params,
	}
}

// NewToolkit builds the tools enabled in caps over data.
func NewToolkit(data MarketData, caps Capabilities) []*Tool {
	var tools []*Tool
	if caps.StockPrice {
		tools = append(tools, NewStockPriceTool(data))
	}
	if caps.AnalystRecommendations {
		tools = append(tools, NewAnalystRecommendationsTool(data))
	}
	if caps.CompanyInfo {
		tools = append(tools, NewCompanyInfoTool(data))
	}
	if caps.CompanyNews {
		tools = append(tools, NewCompanyNewsTool(data))
	}
	return tools
}

// BaseTools converts a toolkit for eino's ToolsNodeConfig.
func BaseTools(toolkit []*Tool) []tool.BaseTool {
	out := make([]tool.BaseTool, 0, len(toolkit))
	for _, t := range toolkit {
		out = append(out, t)
	}
	return out
}

// Call is one tool invocation made by the assistant.
type Call struct {
	Name      string
	Arguments string
}

// Recorder collects the tool calls of a single run. Tools may run
// concurrently, so it is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) add(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

// Calls returns the recorded calls in invocation order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

type recorderKey struct{}

// WithRecorder attaches r to ctx so tools invoked under ctx report to it.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

func RecorderFrom(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}
