// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/docindex"
	"github.com/pdiddy/research-assistant/internal/generate"
	"github.com/pdiddy/research-assistant/internal/memory"
	"github.com/pdiddy/research-assistant/internal/retrieval"
	"github.com/pdiddy/research-assistant/internal/workflow"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// buildDeps assembles the pipeline collaborators from configuration. A
// source that cannot be constructed is skipped with a warning; the pipeline
// degrades rather than refusing to run. The returned cleanup closes any
// opened stores.
func buildDeps(cfg types.PipelineConfig, sessionID string, w io.Writer) (workflow.Deps, func()) {
	var deps workflow.Deps
	var closers []io.Closer

	httpClient := &http.Client{Timeout: cfg.Retrieval.Timeout}

	if cfg.Retrieval.EnableIndex {
		store, err := docindex.NewStore(cfg.Index)
		if err != nil {
			fmt.Fprintf(w, "warning: document index unavailable: %v\n", err)
		} else {
			closers = append(closers, store)
			deps.Sources = append(deps.Sources, &retrieval.IndexSource{Index: store, Cfg: cfg.Retrieval})
		}
	}

	if cfg.Retrieval.EnableWeb {
		if cfg.Retrieval.WebAPIKey == "" {
			fmt.Fprintln(w, "warning: web search disabled: no search-api-key configured")
		} else {
			deps.Sources = append(deps.Sources, &retrieval.WebSource{
				Client: httpClient,
				APIKey: cfg.Retrieval.WebAPIKey,
				Cfg:    cfg.Retrieval,
			})
		}
	}

	if cfg.Retrieval.EnableArxiv {
		deps.Sources = append(deps.Sources, &retrieval.ArxivSource{Client: httpClient, Cfg: cfg.Retrieval})
	}

	// The memory store serves double duty: an evidence source when a
	// session is given, and the persistence target for the new exchange.
	if sessionID != "" {
		store, err := memory.NewStore(cfg.Memory)
		if err != nil {
			fmt.Fprintf(w, "warning: conversation memory unavailable: %v\n", err)
		} else {
			closers = append(closers, store)
			deps.Memory = store
			if cfg.Retrieval.EnableMemory {
				deps.Sources = append(deps.Sources, &retrieval.MemorySource{
					History:   store,
					SessionID: sessionID,
					Cfg:       cfg.Retrieval,
				})
			}
		}
	}

	if cfg.Generator.APIKey == "" {
		fmt.Fprintln(w, "warning: no generator-api-key configured; answer sections will be extractive")
	} else {
		deps.Generator = generate.NewClient(cfg.Generator)
	}

	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	return deps, cleanup
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show the configured evidence sources",
	Long: `Sources lists each evidence source, whether it is enabled, and whatever
it still needs to become usable (an API key, an ingested index).`,
	RunE: runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%-8s  %-9s  %s\n", "Source", "Enabled", "Notes")

	note := fmt.Sprintf("local index at %s (run \"index ingest\" to populate)", cfg.Index.IndexDir)
	fmt.Fprintf(os.Stdout, "%-8s  %-9t  %s\n", "index", cfg.Retrieval.EnableIndex, note)

	note = "ready"
	if cfg.Retrieval.WebAPIKey == "" {
		note = "needs search-api-key in .secrets/ or config"
	}
	fmt.Fprintf(os.Stdout, "%-8s  %-9t  %s\n", "web", cfg.Retrieval.EnableWeb, note)

	fmt.Fprintf(os.Stdout, "%-8s  %-9t  %s\n", "arxiv", cfg.Retrieval.EnableArxiv, "public API, no key needed")

	note = fmt.Sprintf("history at %s, used when --session is given", cfg.Memory.MemoryDir)
	fmt.Fprintf(os.Stdout, "%-8s  %-9t  %s\n", "memory", cfg.Retrieval.EnableMemory, note)

	if cfg.Generator.APIKey == "" {
		fmt.Fprintln(os.Stdout, "\nGenerator: not configured (extractive answers only); set generator-api-key to enable")
	} else {
		fmt.Fprintf(os.Stdout, "\nGenerator: %s\n", cfg.Generator.Model)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
