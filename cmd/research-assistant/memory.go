// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/memory"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and manage conversation history",
	Long: `Memory manages the conversation history store. Each ask run with a
--session records the question and the answer summary; later runs in the
same session retrieve that history as an evidence source.`,
}

// --- sessions subcommand ---

var memorySessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List conversation sessions",
	RunE:  runMemorySessions,
}

func runMemorySessions(cmd *cobra.Command, args []string) error {
	store, err := openMemory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions(context.Background())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-24s  %-9s  %s\n", "Session", "Messages", "Last activity")
	for _, s := range sessions {
		fmt.Fprintf(os.Stdout, "%-24s  %-9d  %s\n", s.ID, s.Messages, s.Last.Format("2006-01-02 15:04"))
	}
	return nil
}

// --- show subcommand ---

var memoryShowCmd = &cobra.Command{
	Use:   "show [session]",
	Short: "Show the recent messages of a session",
	RunE:  runMemoryShow,
}

func runMemoryShow(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("session ID required")
	}

	store, err := openMemory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	messages, err := store.Recent(context.Background(), args[0], limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(messages)
	}

	if len(messages) == 0 {
		fmt.Println("No messages in this session.")
		return nil
	}
	for _, m := range messages {
		fmt.Fprintf(os.Stdout, "[%s] %s: %s\n", m.Created.Format("2006-01-02 15:04"), m.Role, m.Content)
		if m.Role == memory.RoleAssistant && m.AnswerID != "" {
			fmt.Fprintf(os.Stdout, "       (answer %s, confidence %.2f)\n", m.AnswerID, m.Confidence)
		}
	}
	return nil
}

// --- clear subcommand ---

var memoryClearCmd = &cobra.Command{
	Use:   "clear [session]",
	Short: "Delete a session's history",
	RunE:  runMemoryClear,
}

func runMemoryClear(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("session ID required")
	}

	store, err := openMemory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Clear(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted %d message(s) from session %s\n", n, args[0])
	return nil
}

// --- shared helpers ---

func openMemory(cmd *cobra.Command) (*memory.Store, error) {
	cfg, err := pipelineConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	if dir, _ := cmd.Flags().GetString("memory-dir"); dir != "" {
		cfg.Memory.MemoryDir = dir
	}
	return memory.NewStore(types.MemoryConfig{
		MemoryDir:   cfg.Memory.MemoryDir,
		MaxMessages: cfg.Memory.MaxMessages,
	})
}

func init() {
	memoryCmd.PersistentFlags().String("memory-dir", "", "directory holding the history database (default from config)")

	memoryShowCmd.Flags().Int("limit", 0, "maximum messages to show (0 = use default)")
	memoryShowCmd.Flags().Bool("json", false, "output messages as JSON")

	memoryCmd.AddCommand(memorySessionsCmd)
	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memoryClearCmd)

	rootCmd.AddCommand(memoryCmd)
}
