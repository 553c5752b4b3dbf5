package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lysmm203/stock-market-simulator/internal/finance"
)

const commentarySystemPrompt = `You are a concise market commentator. You receive the result of a historical portfolio simulation compared against a stock index.
Write at most 5 short bullet points, text only:
- whether the portfolio beat the index and by how much
- which holdings drove the result
- how volatile the ride was, if risk figures are given
Do not give investment advice or predictions. Do not invent numbers that are not in the input.`

// Commentator writes a short narrative for a finished simulation report.
type Commentator struct {
	cli   oa.Client
	model oa.ChatModel
}

func NewCommentator(apiKey string, opts ...option.RequestOption) *Commentator {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Commentator{cli: oa.NewClient(opts...), model: oa.ChatModelGPT4}
}

func (c *Commentator) Comment(ctx context.Context, r *finance.Report) (string, error) {
	if r == nil {
		return "", errors.New("nil report")
	}
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: c.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(commentarySystemPrompt),
			oa.UserMessage(buildPrompt(r)),
		},
		MaxTokens: oa.Int(400),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no commentary returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildPrompt lists only figures already in the report.
func buildPrompt(r *finance.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Period: %s to %s\n", r.Start.Format(finance.DateLayout), r.End.Format(finance.DateLayout))
	fmt.Fprintf(&b, "Index: %s\n", r.Benchmark.DisplayName())
	writeLine(&b, "Portfolio", r.Portfolio)
	writeLine(&b, "Index", r.Index)
	for _, c := range r.Constituents {
		writeLine(&b, "Holding "+c.Name, c)
	}
	if s := r.PortfolioRisk; s != nil {
		fmt.Fprintf(&b, "Portfolio annualized volatility %.2f%%, Sharpe %.2f, max drawdown %.2f%%\n",
			s.Volatility, s.SharpeRatio, s.MaxDrawdown)
	}
	if s := r.IndexRisk; s != nil {
		fmt.Fprintf(&b, "Index annualized volatility %.2f%%, Sharpe %.2f, max drawdown %.2f%%\n",
			s.Volatility, s.SharpeRatio, s.MaxDrawdown)
	}
	return b.String()
}

func writeLine(b *strings.Builder, label string, s finance.ChangeSummary) {
	fmt.Fprintf(b, "%s: invested $%d, final $%s, change %s (%s)\n",
		label, s.Invested, s.FinalValue.StringFixed(2), s.DollarChange, s.PercentChange)
}
