package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/dyike/StockPilot/internal/tools"
)

const instructions = `You are a financial analyst assisting an investor.
Use the provided tools to fetch prices, analyst recommendations, company information and news
before answering. Never invent figures that a tool could provide.
Present comparisons as markdown tables and finish with a short summary.
If a tool reports an error, say which data is unavailable and continue with what you have.`

func systemPrompt(now time.Time) string {
	return fmt.Sprintf("%s\n\nFor your reference, the current date is %s.", instructions, now.Format("2006-01-02"))
}

// withToolCalls appends a section listing the tool invocations of a run.
func withToolCalls(text string, calls []tools.Call) string {
	if len(calls) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n\n---\n\n**Tool calls**\n\n")
	for _, c := range calls {
		fmt.Fprintf(&b, "- `%s(%s)`\n", c.Name, c.Arguments)
	}
	return b.String()
}
