package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"filing-rag-api/internal/application/retrieval"
	"filing-rag-api/internal/domain/entity"
)

var (
	searchFilters []string
	searchRerank  bool
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantic search within explicit filing filters",
	Long: `Searches stored chunks restricted to one or more filters. Each --filter is
TICKER:YEAR:QUARTER:REPORT_TYPE, for example AAPL:2023:Q4:10-K. Multiple
filters are combined with OR.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringArrayVarP(&searchFilters, "filter", "f", nil, "filter TICKER:YEAR:QUARTER:REPORT_TYPE (repeatable)")
	searchCmd.Flags().BoolVar(&searchRerank, "rerank", false, "rerank results with the relevance model")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	filters, err := parseFilters(searchFilters)
	if err != nil {
		return err
	}

	results, err := components.Engine.Search(cmd.Context(), retrieval.SearchInput{
		Filters: filters,
		Query:   args[0],
		Rerank:  searchRerank,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printResults(cmd, results)
	return nil
}

// parseFilters 解析 TICKER:YEAR:QUARTER:REPORT_TYPE 形式的过滤条件
func parseFilters(raw []string) ([]entity.QueryFilter, error) {
	out := make([]entity.QueryFilter, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid filter %q: want TICKER:YEAR:QUARTER:REPORT_TYPE", r)
		}
		year, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: year is not an integer", r)
		}
		f := entity.QueryFilter{
			Ticker:     strings.ToUpper(strings.TrimSpace(parts[0])),
			Year:       year,
			Quarter:    strings.ToUpper(strings.TrimSpace(parts[2])),
			ReportType: strings.ToUpper(strings.TrimSpace(parts[3])),
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", r, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func printResults(cmd *cobra.Command, results []*entity.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i, r := range results {
		p := r.Payload
		score := fmt.Sprintf("similarity %.3f", r.Similarity)
		if r.Relevance != nil {
			score += fmt.Sprintf(", relevance %.3f", *r.Relevance)
		}
		cmd.Printf("  [%d] %s %s %s %s (%s)\n", i+1, p.Ticker, p.ReportType, p.ConformedPeriod, p.ItemName, score)
		cmd.Printf("      %s\n\n", snippet(p.Text, 240))
	}
}

func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
