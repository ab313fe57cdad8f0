// Package main provides the nyx CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxdb/nyx/pkg/collection"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nyx",
		Short: "nyx - hybrid vector/graph database engine",
		Long: `nyx is a purpose-built hybrid vector/graph database engine.

Features:
  • HNSW approximate nearest-neighbor search (f32 distances)
  • Metadata filtering and equality/range property indexes
  • BM25 full-text search
  • A property graph with BFS/DFS pattern matching
  • A SQL-like query surface over all of the above`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nyx v%s (%s)\n", version, commit)
		},
	})

	initCmd := &cobra.Command{
		Use:   "init <collection-dir>",
		Short: "Create a new collection directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runInit,
	}
	initCmd.Flags().String("name", "default", "Collection name")
	initCmd.Flags().Int("dimension", 0, "Vector dimension (required)")
	initCmd.MarkFlagRequired("dimension")
	rootCmd.AddCommand(initCmd)

	queryCmd := &cobra.Command{
		Use:   "query <collection-dir> <query>",
		Short: "Run one query against a collection and print the result envelope as JSON",
		Args:  cobra.ExactArgs(2),
		RunE:  runQuery,
	}
	rootCmd.AddCommand(queryCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := args[0]
	name, _ := cmd.Flags().GetString("name")
	dimension, _ := cmd.Flags().GetInt("dimension")

	fmt.Printf("📂 Initializing collection %q in %s\n", name, dir)

	c, err := collection.Open(dir, collection.DefaultConfig(name, dimension))
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	defer c.Close()

	fmt.Println("✅ Collection initialized successfully")
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	dir := args[0]
	query := args[1]

	c, err := collection.Open(dir, nil)
	if err != nil {
		return fmt.Errorf("opening collection: %w", err)
	}
	defer c.Close()

	result, err := c.Query(context.Background(), query, nil)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
