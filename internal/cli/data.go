package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyike/StockPilot/internal/tools"
)

// newDataCmd runs the market data tools directly, without an assistant.
func newDataCmd(a *app) *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "data SYMBOL",
		Short: "Show the market data the assistant sees for a symbol",
		Long: `Run the market data tools for SYMBOL and print their JSON output.
Example: stockpilot data AAPL --tool get_stock_price`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol, err := normalizeSymbol(args[0])
			if err != nil {
				return err
			}
			toolkit := tools.NewToolkit(marketData(a.cfg), tools.AllCapabilities())
			return runTools(cmd.Context(), a.out, toolkit, symbol, only)
		},
	}
	cmd.Flags().StringSliceVarP(&only, "tool", "t", nil, "Only run the named tools")
	return cmd
}

func runTools(ctx context.Context, w io.Writer, toolkit []*tools.Tool, symbol string, only []string) error {
	args, err := json.Marshal(tools.SymbolInput{Symbol: symbol})
	if err != nil {
		return err
	}

	ran := 0
	for _, t := range toolkit {
		if len(only) > 0 && !containsName(only, t.Name()) {
			continue
		}
		ran++
		out, err := t.InvokableRun(ctx, string(args))
		if err != nil {
			return fmt.Errorf("%s: %w", t.Name(), err)
		}
		fmt.Fprintln(w, titleStyle.Render(t.Name()))
		var pretty bytes.Buffer
		if json.Indent(&pretty, []byte(out), "", "  ") == nil {
			out = pretty.String()
		}
		fmt.Fprintln(w, out)
	}
	if ran == 0 {
		names := make([]string, 0, len(toolkit))
		for _, t := range toolkit {
			names = append(names, t.Name())
		}
		return fmt.Errorf("no such tool (available: %s)", strings.Join(names, ", "))
	}
	return nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return true
		}
	}
	return false
}
