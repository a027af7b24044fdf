package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/internal/session"
	"github.com/dyike/StockPilot/internal/tools"
)

// reactAssistant runs a prompt through an eino ReAct agent that may call the
// market-data tools before answering.
type reactAssistant struct {
	provider      string
	agent         *react.Agent
	showToolCalls bool
	now           func() time.Time
}

func newOpenAIAssistant(ctx context.Context, opts Options, toolkit []*tools.Tool) (session.Assistant, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: opts.BaseURL,
		APIKey:  opts.APIKey,
		Model:   opts.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai chat model: %w", err)
	}
	return newReactAssistant(ctx, opts, chatModel, toolkit)
}

func newDeepSeekAssistant(ctx context.Context, opts Options, toolkit []*tools.Tool) (session.Assistant, error) {
	chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		BaseURL: opts.BaseURL,
		APIKey:  opts.APIKey,
		Model:   opts.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("create deepseek chat model: %w", err)
	}
	return newReactAssistant(ctx, opts, chatModel, toolkit)
}

func newReactAssistant(ctx context.Context, opts Options, chatModel model.ToolCallingChatModel, toolkit []*tools.Tool) (session.Assistant, error) {
	ra, err := react.NewAgent(ctx, &react.AgentConfig{
		MaxStep:          opts.MaxSteps,
		ToolCallingModel: chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: tools.BaseTools(toolkit),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &reactAssistant{
		provider:      opts.Provider,
		agent:         ra,
		showToolCalls: opts.ShowToolCalls,
		now:           time.Now,
	}, nil
}

func (a *reactAssistant) Run(ctx context.Context, prompt string) (string, error) {
	if a == nil || a.agent == nil {
		return "", session.ErrNoAssistant
	}
	rec := &tools.Recorder{}
	ctx = tools.WithRecorder(ctx, rec)

	start := a.now()
	msg, err := a.agent.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt(start)),
		schema.UserMessage(prompt),
	}, agent.WithComposeOptions(compose.WithCallbacks(&logCallback{provider: a.provider})))
	if err != nil {
		return "", err
	}
	logger.Log.WithField("provider", a.provider).Infof("analysis finished in %s with %d tool calls", time.Since(start).Round(time.Millisecond), len(rec.Calls()))

	if a.showToolCalls {
		return withToolCalls(msg.Content, rec.Calls()), nil
	}
	return msg.Content, nil
}
