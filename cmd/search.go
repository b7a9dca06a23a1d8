package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/profile-vault/internal/harvest"
)

// newSearchCmd creates the 'search' subcommand: person criteria in,
// candidate profile URLs out.
func newSearchCmd() *cobra.Command {
	var q harvest.Query
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search for candidate profiles by name and filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			result, err := a.Harvest.Search(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("search profiles: %w", err)
			}

			type candidate struct {
				Name        string `json:"name"`
				Headline    string `json:"headline,omitempty"`
				LinkedInURL string `json:"linkedin_url"`
			}
			candidates := make([]candidate, 0, len(result.Elements))
			for _, c := range result.Elements {
				url := c.ProfileURL()
				if url == "" {
					continue
				}
				candidates = append(candidates, candidate{
					Name:        c.Name,
					Headline:    c.Headline,
					LinkedInURL: url,
				})
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(candidates)
		},
	}
	cmd.Flags().StringVar(&q.Name, "name", "", "person name (required)")
	cmd.Flags().StringVar(&q.CurrentCompany, "current-company", "", "filter by current company")
	cmd.Flags().StringVar(&q.PastCompany, "past-company", "", "filter by past company")
	cmd.Flags().StringVar(&q.School, "school", "", "filter by school")
	cmd.Flags().StringVar(&q.Location, "location", "", "filter by location")
	cmd.Flags().IntVar(&q.Page, "page", 1, "result page (1-based)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
