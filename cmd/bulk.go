package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newBulkCmd creates the 'bulk' subcommand: many profiles in one run,
// either from arguments or a file with one URL per line.
func newBulkCmd() *cobra.Command {
	var (
		freshnessDays int
		urlFile       string
	)
	cmd := &cobra.Command{
		Use:   "bulk [<linkedin-url> ...]",
		Short: "Fetch many profiles sequentially through the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			urls := args
			if urlFile != "" {
				fromFile, err := readURLFile(urlFile)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no profile URLs given; pass arguments or --file")
			}

			results := a.Bulk.FetchMany(cmd.Context(), urls, freshnessDays)
			out := make([]map[string]any, len(results))
			for i, res := range results {
				entry := map[string]any{"linkedin_url": res.URL}
				switch {
				case res.Err != "":
					entry["error"] = res.Err
				case res.Profile != nil:
					entry["profile"] = res.Profile.ToMap()
				default:
					entry["profile"] = nil
				}
				out[i] = entry
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().IntVar(&freshnessDays, "freshness-days", -1, "maximum profile age in days before a refresh (-1 uses the configured default)")
	cmd.Flags().StringVar(&urlFile, "file", "", "file with one profile URL per line")
	return cmd
}

func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}
