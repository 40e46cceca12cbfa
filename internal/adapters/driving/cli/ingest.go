package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

var (
	ingestCollection string
	ingestTexts      []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Index local documents into a collection",
	Long: `Reads the given PDF and text files, chunks and embeds their content
and upserts the vectors into the target collection. Inline text can be
passed with --text instead of (or in addition to) files.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "target collection (required)")
	ingestCmd.Flags().StringArrayVar(&ingestTexts, "text", nil, "inline text to index (repeatable)")
	_ = ingestCmd.MarkFlagRequired("collection")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(ingestTexts) == 0 {
		return fmt.Errorf("%w: pass files or --text", domain.ErrInvalidInput)
	}

	inputs := make([]domain.RawInput, 0, len(args)+len(ingestTexts))
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		inputs = append(inputs, domain.RawInput{
			Kind:       kindForPath(path),
			SourceName: filepath.Base(path),
			Content:    content,
		})
	}
	for _, text := range ingestTexts {
		inputs = append(inputs, domain.RawInput{
			Kind:    domain.KindText,
			Content: []byte(text),
		})
	}

	report, err := ingestionService.Ingest(context.Background(), inputs, ingestCollection)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Indexed %d chunks from %d documents into %q\n",
		report.Chunks, report.Documents, report.Collection)
	return nil
}

// kindForPath picks the input kind from the file extension.
func kindForPath(path string) domain.InputKind {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return domain.KindPDF
	}
	return domain.KindText
}
