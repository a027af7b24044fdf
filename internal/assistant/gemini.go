package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dyike/StockPilot/internal/logger"
	"github.com/dyike/StockPilot/internal/session"
	"github.com/dyike/StockPilot/internal/tools"
)

// geminiAssistant answers through a Gemini chat, resolving function calls
// against the toolkit until the model replies with text.
type geminiAssistant struct {
	client        *genai.Client
	model         string
	declarations  []*genai.FunctionDeclaration
	library       tools.Library
	maxSteps      int
	showToolCalls bool
}

func newGeminiAssistant(ctx context.Context, opts Options, toolkit []*tools.Tool) (session.Assistant, error) {
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiAssistant{
		client:        client,
		model:         opts.Model,
		declarations:  tools.NewDeclarations(toolkit),
		library:       tools.NewLibrary(toolkit),
		maxSteps:      opts.MaxSteps,
		showToolCalls: opts.ShowToolCalls,
	}, nil
}

func (g *geminiAssistant) Run(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", session.ErrNoAssistant
	}
	rec := &tools.Recorder{}
	ctx = tools.WithRecorder(ctx, rec)

	chat, err := g.client.Chats.Create(ctx, g.model, &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{FunctionDeclarations: g.declarations},
		},
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt(time.Now())}}},
	}, nil)
	if err != nil {
		return "", err
	}

	resp, err := chat.Send(ctx, &genai.Part{Text: prompt})
	for step := 0; ; step++ {
		if err != nil {
			return "", err
		}
		text, calls, perr := splitResponse(resp)
		if perr != nil {
			return "", perr
		}
		if len(calls) == 0 {
			logger.Log.WithField("provider", "gemini").Infof("analysis finished with %d tool calls", len(rec.Calls()))
			if g.showToolCalls {
				return withToolCalls(text, rec.Calls()), nil
			}
			return text, nil
		}
		if step >= g.maxSteps {
			return "", fmt.Errorf("gemini exceeded %d tool steps", g.maxSteps)
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			parts = append(parts, &genai.Part{FunctionResponse: g.library(ctx, call)})
		}
		resp, err = chat.Send(ctx, parts...)
	}
}

func splitResponse(resp *genai.GenerateContentResponse) (string, []*genai.FunctionCall, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil, errors.New("no response from gemini")
	}
	var text strings.Builder
	var calls []*genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
			continue
		}
		text.WriteString(part.Text)
	}
	return text.String(), calls, nil
}
