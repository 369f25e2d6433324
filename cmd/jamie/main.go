// Package main provides the jamie CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/praxisapocalyptica/jamie/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	provider string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "jamie",
		Short: "A conversational robot brain with encrypted long-term memory",
		Long: `A conversational brain that turns model replies into executable
capability plans.

Every reply is a single plan line naming actions from a fixed
vocabulary: direct replies, physical action sequences, sensor
interpretation, and deeper deliberation through a collective of
model instances. Conversation context survives restarts as encrypted
memory fragments.`,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(deliberateCmd())
	rootCmd.AddCommand(memoryCmd())
	rootCmd.AddCommand(transcriptsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider: provider,
		Verbose:  verbose,
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session with the brain",
		Long: `Start an interactive session. Stored memory fragments are decrypted
and recalled into the first message; on exit the session is encrypted
and persisted.

In-session commands:
  exit           end the session and persist it
  clear history  drop the session and all stored memory
  show history   print the session so far`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(context.Background(), options())
		},
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question through the full plan pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Ask(context.Background(), args[0], options())
		},
	}
}

func deliberateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deliberate [topic]",
		Short: "Put a topic to the collective mind and print its decision",
		Long: `Run the two-round deliberation protocol directly: each member states
initial thoughts, reviews the full set of positions, and proposes a
final decision. The transcript is persisted when a transcript database
is configured.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Deliberate(context.Background(), args[0], options())
		},
	}
}

func transcriptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "Inspect recorded deliberation transcripts",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded transcripts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.TranscriptsList(context.Background(), limit)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of transcripts to list")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show [id]",
		Short: "Print one transcript with its full dialogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.TranscriptShow(context.Background(), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [id]",
		Short: "Delete one transcript and its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.TranscriptDelete(context.Background(), args[0])
		},
	})

	return cmd
}

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect or clear encrypted memory fragments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Decrypt and print all stored memory fragments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.MemoryShow(options())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every stored memory fragment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.MemoryClear(options())
		},
	})

	return cmd
}
