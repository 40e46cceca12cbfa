package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var collectionsJSON bool

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections from the ingestion history",
	RunE:  runCollections,
}

func init() {
	collectionsCmd.Flags().BoolVar(&collectionsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, _ []string) error {
	if ingestLog == nil {
		return errors.New("ingestion log not available")
	}

	stats, err := ingestLog.Collections(context.Background())
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	if collectionsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal collections: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(stats) == 0 {
		cmd.Println("No collections yet.")
		return nil
	}

	cmd.Println("Collections:")
	cmd.Println()
	for _, cs := range stats {
		cmd.Printf("  %s\n", cs.Collection)
		cmd.Printf("      batches: %d, documents: %d, chunks: %d\n",
			cs.Batches, cs.Documents, cs.Chunks)
		cmd.Printf("      last ingested: %s\n", cs.LastIngestedAt.Format("2006-01-02 15:04:05 MST"))
		cmd.Println()
	}
	return nil
}
