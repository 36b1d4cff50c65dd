package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"filing-rag-api/internal/application/answer"
)

var (
	askRerank      bool
	askShowSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested filings",
	Long: `Interprets the question into filing filters, retrieves matching chunks and
synthesizes an answer. Without an argument an interactive session starts;
type "exit" to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askRerank, "rerank", false, "rerank results with the relevance model")
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the supporting chunks")
	rootCmd.AddCommand(askCmd)
}

// asker 问答
type asker interface {
	Ask(ctx context.Context, in answer.AskInput) (*answer.Answer, error)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return askOnce(cmd.Context(), components.Agent, cmd.OutOrStdout(), args[0])
	}
	return askLoop(cmd.Context(), components.Agent, cmd.InOrStdin(), cmd.OutOrStdout())
}

// askLoop 交互式问答，输入 exit 或 EOF 结束；单次失败不会终止会话
func askLoop(ctx context.Context, a asker, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Enter your query (or 'exit' to quit): ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(query, "exit") {
			return nil
		}
		if query == "" {
			continue
		}
		if err := askOnce(ctx, a, out, query); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func askOnce(ctx context.Context, a asker, out io.Writer, query string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := a.Ask(ctx, answer.AskInput{Query: query, Rerank: askRerank})
	if err != nil {
		var interpretErr *answer.InterpretError
		if errors.As(err, &interpretErr) && interpretErr.Reply != "" {
			fmt.Fprintln(out, interpretErr.Reply)
			return nil
		}
		return err
	}

	fmt.Fprintln(out, res.Answer)
	if askShowSources && !res.NoData {
		fmt.Fprintln(out, "\nSources:")
		for i, r := range res.Results {
			p := r.Payload
			fmt.Fprintf(out, "  [%d] %s %s %s %s\n", i+1, p.Ticker, p.ReportType, p.ConformedPeriod, p.ItemName)
		}
	}
	return nil
}
