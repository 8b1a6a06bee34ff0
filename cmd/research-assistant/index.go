// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/docindex"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the local document index (ingest, query, export)",
	Long: `Index manages a local SQLite full-text index over a directory of
markdown and text documents. The index is one of the evidence sources the
ask command retrieves from. Unchanged documents are skipped on re-ingestion.`,
}

// --- ingest subcommand ---

var indexIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index documents from the documents directory",
	Long: `Ingest walks the documents directory, splits each markdown or text file
into paragraph chunks, and indexes them with FTS5. Files whose modification
time is unchanged since the last run are skipped.`,
	RunE: runIndexIngest,
}

func runIndexIngest(cmd *cobra.Command, args []string) error {
	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Indexed %d new, updated %d, skipped %d unchanged (%d total)\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Total())
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var indexQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the document index",
	RunE:  runIndexQuery,
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("query text required")
	}
	queryText := strings.Join(args, " ")

	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	chunks, err := store.Query(context.Background(), queryText, limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	}

	if len(chunks) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, c := range chunks {
		title := c.DocumentTitle
		if title == "" {
			title = filepath.Base(c.DocumentPath)
		}
		content := c.Content
		if len(content) > 120 {
			content = content[:117] + "..."
		}
		fmt.Fprintf(os.Stdout, "%d. %s (chunk %d)\n   %s\n", i+1, title, c.Position, content)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(chunks))
	return nil
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the index contents to YAML or JSON",
	RunE:  runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	indexDir, _ := indexDirs(cmd)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background()); err != nil {
			return err
		}
		fmt.Println("Exported to", filepath.Join(indexDir, "export.yaml"))
	case "json":
		if err := store.ExportJSON(context.Background()); err != nil {
			return err
		}
		fmt.Println("Exported to", filepath.Join(indexDir, "export.json"))
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	return nil
}

// --- documents subcommand ---

var indexDocumentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List indexed documents with their chunk counts",
	RunE:  runIndexDocuments,
}

func runIndexDocuments(cmd *cobra.Command, args []string) error {
	store, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := store.Documents(context.Background())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("Index is empty. Run \"index ingest\" first.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-40s  %-7s  %s\n", "Title", "Chunks", "Path")
	for _, d := range docs {
		title := d.Title
		if title == "" {
			title = d.ID
		}
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-40s  %-7d  %s\n", title, d.Chunks, d.Path)
	}
	fmt.Fprintf(os.Stdout, "\n%d documents\n", len(docs))
	return nil
}

// --- shared helpers ---

func indexDirs(cmd *cobra.Command) (string, string) {
	cfg, err := pipelineConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	indexDir, _ := cmd.Flags().GetString("index-dir")
	if indexDir == "" {
		indexDir = cfg.Index.IndexDir
	}
	documentsDir, _ := cmd.Flags().GetString("documents-dir")
	if documentsDir == "" {
		documentsDir = cfg.Index.DocumentsDir
	}
	return indexDir, documentsDir
}

func openIndex(cmd *cobra.Command) (*docindex.Store, error) {
	indexDir, documentsDir := indexDirs(cmd)
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return docindex.NewStore(types.IndexConfig{
		IndexDir:     indexDir,
		DocumentsDir: documentsDir,
		MaxResults:   maxResults,
	})
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	indexCmd.PersistentFlags().String("index-dir", "", "directory holding the index database (default from config)")
	indexCmd.PersistentFlags().String("documents-dir", "", "directory of documents to ingest (default from config)")
	indexCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	indexQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	indexQueryCmd.Flags().Bool("json", false, "output results as JSON")

	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	indexCmd.AddCommand(indexIngestCmd)
	indexCmd.AddCommand(indexQueryCmd)
	indexCmd.AddCommand(indexExportCmd)
	indexCmd.AddCommand(indexDocumentsCmd)

	rootCmd.AddCommand(indexCmd)
}
