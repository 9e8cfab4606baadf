// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command ganoctl is a terminal client for the Ganoderma Graph server.
//
// Usage:
//
//	ganoctl ask "Which effector genes are found in the Cameroon isolate?"
//	ganoctl cypher "show the genes of orthogroup OG0001"
//	ganoctl graph "MATCH p=(g:Gene)-[:FOUND_IN]->(i:Isolate) RETURN p LIMIT 25"
//	ganoctl stats
//
// The server address defaults to http://localhost:8080 and can be overridden
// with --server or the GANODERMA_SERVER_URL environment variable.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// serverFlag and scopeFlag hold global flag values shared by subcommands.
var (
	serverFlag string
	scopeFlag  string
	entityFlag string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ganoctl",
		Short: "Terminal client for the Ganoderma Graph server",
		Long: `ganoctl talks to a running Ganoderma Graph server: ask natural-language
questions about the genomics knowledge graph, synthesize Cypher from plain
English, and inspect materialized graph payloads.`,
	}
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Server base URL (default http://localhost:8080, or GANODERMA_SERVER_URL)")

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the knowledge graph",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand,
	}
	askCmd.Flags().StringVar(&scopeFlag, "scope", "GLOBAL", "Retrieval scope: GLOBAL, ENTITY, or GRAPH")
	askCmd.Flags().StringVar(&entityFlag, "entity", "", "Focused entity id for ENTITY scope (e.g. GENE_GanToxA)")

	cypherCmd := &cobra.Command{
		Use:   "cypher [question]",
		Short: "Synthesize a Cypher query from a natural-language question",
		Args:  cobra.MinimumNArgs(1),
		Run:   runCypherCommand,
	}

	graphCmd := &cobra.Command{
		Use:   "graph [cypher]",
		Short: "Run a Cypher query and print the materialized graph",
		Args:  cobra.MinimumNArgs(1),
		Run:   runGraphCommand,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print database entity counts",
		Run:   runStatsCommand,
	}

	rootCmd.AddCommand(askCmd, cypherCmd, graphCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getServerBaseURL resolves the server address from the --server flag, the
// GANODERMA_SERVER_URL environment variable, or the local default.
func getServerBaseURL() string {
	if serverFlag != "" {
		return serverFlag
	}
	if env := os.Getenv("GANODERMA_SERVER_URL"); env != "" {
		return env
	}
	return "http://localhost:8080"
}
