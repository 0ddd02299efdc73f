// Package main implements the ivctl CLI for manual operations against an
// interviewd server and its local catalog database.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/catalog"
)

var (
	// serverURL is the base URL for the interviewd HTTP server
	serverURL string
	// dbPath is the catalog database used by local commands
	dbPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ivctl",
	Short: "CLI for interviewd operations",
	Long: `ivctl is a command-line interface for interacting with an interviewd
server and its task catalog. It provides commands for starting interviews,
checking server health, and managing the catalog database.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "interviewd server URL")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)

	seedCmd.Flags().StringVar(&dbPath, "db", "interviewd.db", "catalog database path")
	statsCmd.Flags().StringVar(&dbPath, "db", "interviewd.db", "catalog database path")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check interviewd server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := httpGet("/health")
		if err != nil {
			return err
		}
		fmt.Println(string(body))
		return nil
	},
}

// startCmd starts a new interview for a candidate
var startCmd = &cobra.Command{
	Use:   "start [candidate] [level]",
	Short: "Start a new interview",
	Long: `Start a new interview for a candidate at the given level.

Examples:
  ivctl start "Jane Doe" middle
  ivctl start --server http://localhost:9090 "Jane Doe" senior`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := json.Marshal(map[string]string{
			"candidate_name": args[0],
			"level":          args[1],
		})
		if err != nil {
			return err
		}
		body, err := httpPost("/api/start", payload)
		if err != nil {
			return err
		}
		return printJSON(body)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current interview status",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := httpGet("/api/status")
		if err != nil {
			return err
		}
		return printJSON(body)
	},
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the interviewer personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := httpGet("/api/agents")
		if err != nil {
			return err
		}
		return printJSON(body)
	},
}

// seedCmd populates the catalog database with the built-in task and question
// sets. Safe to run repeatedly.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the catalog database",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Seed(context.Background()); err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		fmt.Printf("Catalog seeded at %s\n", dbPath)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog counts per level",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		tasks, questions, err := store.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
		fmt.Println("Level   Tasks  Questions")
		for _, level := range []catalog.Level{catalog.Junior, catalog.Middle, catalog.Senior} {
			fmt.Printf("%-7s %5d  %9d\n", level, tasks[level], questions[level])
		}
		return nil
	},
}

func openStore() (*catalog.Store, error) {
	logger := zap.NewNop()
	store, err := catalog.Open(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog at %s: %w", dbPath, err)
	}
	return store, nil
}

func httpGet(path string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return readResponse(resp)
}

func httpPost(path string, payload []byte) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(serverURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return readResponse(resp)
}

func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return body, nil
}

func printJSON(body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}
