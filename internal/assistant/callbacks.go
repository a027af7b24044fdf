package assistant

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"github.com/dyike/StockPilot/internal/logger"
)

// logCallback writes the agent's model and tool activity to the debug log.
type logCallback struct {
	callbacks.HandlerBuilder

	provider string
}

func (cb *logCallback) entry(info *callbacks.RunInfo) *logrus.Entry {
	e := logger.Log.WithField("provider", cb.provider)
	if info != nil {
		e = e.WithField("component", string(info.Component)).WithField("node", info.Name)
	}
	return e
}

func (cb *logCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if info == nil {
		return ctx
	}
	switch info.Component {
	case components.ComponentOfTool:
		if in := tool.ConvCallbackInput(input); in != nil {
			cb.entry(info).Debugf("tool call args=%s", in.ArgumentsInJSON)
		}
	case components.ComponentOfChatModel:
		if in := model.ConvCallbackInput(input); in != nil {
			cb.entry(info).Debugf("model call with %d messages", len(in.Messages))
		}
	}
	return ctx
}

func (cb *logCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	if info == nil {
		return ctx
	}
	switch info.Component {
	case components.ComponentOfTool:
		if out := tool.ConvCallbackOutput(output); out != nil {
			cb.entry(info).Debugf("tool returned %d bytes", len(out.Response))
		}
	case components.ComponentOfChatModel:
		out := model.ConvCallbackOutput(output)
		if out == nil || out.Message == nil {
			return ctx
		}
		e := cb.entry(info).WithField("tool_calls", len(out.Message.ToolCalls))
		if out.TokenUsage != nil {
			e = e.WithField("tokens", out.TokenUsage.TotalTokens)
		}
		e.Debug("model replied")
	}
	return ctx
}

func (cb *logCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	cb.entry(info).Warnf("agent step failed: %v", err)
	return ctx
}

func (cb *logCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	return ctx
}

func (cb *logCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	return ctx
}
