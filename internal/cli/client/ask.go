package client

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages  []chatMessage `json:"messages"`
	ProjectID string        `json:"projectId"`
	ChatID    string        `json:"chatId,omitempty"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		projectID string
		chatID    string
	)

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a question against a project's knowledge base",
		Long:  "Streams the assistant's answer to stdout. Use --chat to continue a conversation.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return fmt.Errorf("--project is required")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			req := chatRequest{
				ProjectID: projectID,
				ChatID:    chatID,
				Messages: []chatMessage{
					{Role: "user", Content: strings.Join(args, " ")},
				},
			}

			if err := api.PostStream("/chat", req, os.Stdout); err != nil {
				return fmt.Errorf("ask failed: %w", err)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectID, "project", "P", "", "Project ID")
	cmd.Flags().StringVar(&chatID, "chat", "", "Chat ID to continue an existing conversation")

	return cmd
}
