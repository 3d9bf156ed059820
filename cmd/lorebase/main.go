package main

import (
	"fmt"
	"os"

	"github.com/praxis-labs/lorebase/internal/cli"
	"github.com/praxis-labs/lorebase/internal/cli/client"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lorebase",
		Short: "Lorebase client",
		Long:  "Client for the lorebase knowledge-base API: manage projects, ingest content, and ask questions",
	}

	rootCmd.PersistentFlags().String("api-url", "", "API base URL (default http://localhost:8080)")

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(client.ProjectsCmd())
	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.AskCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
