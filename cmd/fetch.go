package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newFetchCmd creates the 'fetch' subcommand: one profile through the
// freshness-gated cache, printed as JSON.
func newFetchCmd() *cobra.Command {
	var (
		freshnessDays int
		withSummary   bool
	)
	cmd := &cobra.Command{
		Use:   "fetch <linkedin-url>",
		Short: "Fetch one profile, from cache or freshly scraped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			rec, err := a.Cache.GetOrRefresh(cmd.Context(), args[0], freshnessDays)
			if err != nil {
				return fmt.Errorf("fetch profile: %w", err)
			}
			if rec == nil {
				return fmt.Errorf("no data available for %s", args[0])
			}

			out := rec.ToMap()
			if withSummary {
				if a.Summarizer == nil {
					return fmt.Errorf("summarizer is not enabled; set ollama.enabled")
				}
				summary, err := a.Summarizer.Summarize(cmd.Context(), out)
				if err != nil {
					return fmt.Errorf("summarize profile: %w", err)
				}
				out["summary"] = summary
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().IntVar(&freshnessDays, "freshness-days", -1, "maximum profile age in days before a refresh (-1 uses the configured default)")
	cmd.Flags().BoolVar(&withSummary, "summarize", false, "append a model-generated summary")
	return cmd
}
