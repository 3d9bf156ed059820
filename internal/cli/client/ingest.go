package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

type ingestResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

type ingestListResult struct {
	Items []struct {
		ID           string `json:"id"`
		Type         string `json:"type"`
		Status       string `json:"status"`
		FileName     string `json:"file_name,omitempty"`
		ErrorMessage string `json:"error_message,omitempty"`
		CreatedAt    string `json:"created_at"`
	} `json:"items"`
}

// IngestCmd creates the ingest command group.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Add, list, and remove knowledge items",
	}

	cmd.AddCommand(ingestAddCmd())
	cmd.AddCommand(ingestListCmd())
	cmd.AddCommand(ingestDeleteCmd())

	return cmd
}

func ingestAddCmd() *cobra.Command {
	var (
		projectID string
		itemType  string
		content   string
		filePath  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Ingest content into a project",
		Long:  "Ingest text, audio, or a PDF into a project's knowledge base.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return fmt.Errorf("--project is required")
			}
			if itemType == "text" && content == "" {
				return fmt.Errorf("--content is required for text items")
			}
			if itemType != "text" && filePath == "" {
				return fmt.Errorf("--file is required for %s items", itemType)
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			fields := map[string]string{
				"projectId": projectID,
				"type":      itemType,
			}
			if content != "" {
				fields["content"] = content
			}

			resp, err := api.PostMultipart("/ingest", fields, "file", filePath)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}

			var result ingestResult
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			fmt.Printf("Item %s: %s\n", result.ID, result.Status)
			if result.Error != "" {
				fmt.Printf("Error: %s\n", result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectID, "project", "P", "", "Project ID")
	cmd.Flags().StringVarP(&itemType, "type", "t", "text", "Item type (text|audio|pdf)")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Text content (text items)")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "File to upload (audio and pdf items)")

	return cmd
}

func ingestListCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's knowledge items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return fmt.Errorf("--project is required")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/ingest?projectId=" + url.QueryEscape(projectID))
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}

			var result ingestListResult
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if len(result.Items) == 0 {
				fmt.Println("No knowledge items found.")
				return nil
			}

			for _, item := range result.Items {
				line := fmt.Sprintf("%s  [%s] %s", item.ID, item.Type, item.Status)
				if item.FileName != "" {
					line += "  " + item.FileName
				}
				fmt.Println(line)
				if item.ErrorMessage != "" {
					fmt.Printf("    error: %s\n", strings.TrimSpace(item.ErrorMessage))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectID, "project", "P", "", "Project ID")

	return cmd
}

func ingestDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a knowledge item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/ingest?id="+url.QueryEscape(args[0]), nil); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}

			fmt.Printf("Deleted item %s\n", args[0])
			return nil
		},
	}
}
