// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/synthesize"
	"github.com/pdiddy/research-assistant/internal/workflow"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a research question from all configured sources",
	Long: `Ask runs the full pipeline for one question: parallel retrieval from the
configured sources, quality scoring and deduplication, and synthesis into a
cited answer with a confidence estimate.

The pipeline always produces an answer. When sources fail or the time budget
runs out, the answer is marked degraded and explains what was missing.

Pass --session to read and extend a conversation: prior exchanges become an
evidence source and the new exchange is appended afterwards.`,
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	session, _ := cmd.Flags().GetString("session")
	query := types.NewQuery(strings.TrimSpace(queryText), session)
	if query.IsEmpty() {
		return fmt.Errorf("question required: pass it as arguments or via --query")
	}

	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-items"); n > 0 {
		cfg.Retrieval.MaxItemsPerSource = n
	}
	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		cfg.Retrieval.EnableWeb = false
		cfg.Retrieval.EnableArxiv = false
		cfg.Generator.APIKey = ""
	}

	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		query.Budget = timeout
	}

	deps, cleanup := buildDeps(cfg, session, os.Stderr)
	defer cleanup()

	answer, trace := workflow.Run(cmd.Context(), query, deps, cfg, os.Stderr)
	fmt.Fprintln(os.Stderr, synthesize.OneLine(answer))

	if showTrace, _ := cmd.Flags().GetBool("trace"); showTrace {
		printTrace(trace)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if err := synthesize.FormatJSON(answer, os.Stdout); err != nil {
			return err
		}
	} else {
		synthesize.FormatText(answer, os.Stdout)
	}

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		if err := synthesize.WriteAnswerFile(save, query, answer); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Saved answer to", save)
	}
	return nil
}

var showCmd = &cobra.Command{
	Use:   "show [answer file]",
	Short: "Display a previously saved answer",
	Long: `Show reloads an answer saved with "ask --save" and formats it without
re-running the pipeline.`,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("answer file path required")
	}

	af, err := synthesize.ReadAnswerFile(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Query: %s (answered %s)\n\n",
		af.Query.Text, af.Summary.Timestamp.Format("2006-01-02 15:04"))

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return synthesize.FormatJSON(af.Answer, os.Stdout)
	}
	synthesize.FormatText(af.Answer, os.Stdout)
	return nil
}

const timePrecision = time.Millisecond

func printTrace(trace types.WorkflowTrace) {
	fmt.Fprintf(os.Stderr, "trace %s (%v total):\n", trace.QueryID, trace.End.Sub(trace.Start).Round(timePrecision))
	for _, rec := range trace.Stages {
		status := "ok"
		if !rec.OK {
			status = "failed"
		}
		line := fmt.Sprintf("  %-13s %8v  %s", rec.Stage, rec.Duration().Round(timePrecision), status)
		if rec.Degradation != "" {
			line += "  (" + rec.Degradation + ")"
		}
		fmt.Fprintln(os.Stderr, line)
	}
}

func init() {
	askCmd.Flags().String("query", "", "the question (alternative to positional arguments)")
	askCmd.Flags().String("session", "", "conversation session ID for memory retrieval and persistence")
	askCmd.Flags().Duration("timeout", 0, "whole-query time budget (0 = configured default)")
	askCmd.Flags().Int("max-items", 0, "maximum evidence items per source (0 = configured default)")
	askCmd.Flags().Bool("offline", false, "use only local sources (document index, conversation history)")
	askCmd.Flags().Bool("json", false, "output the answer as JSON")
	askCmd.Flags().Bool("trace", false, "print per-stage timing to stderr")
	askCmd.Flags().String("save", "", "save the answer to a YAML file at this path")

	showCmd.Flags().Bool("json", false, "output the answer as JSON")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(showCmd)
}
