package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type projectItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// ProjectsCmd creates the projects command group.
func ProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}

	cmd.AddCommand(projectsListCmd())
	cmd.AddCommand(projectsCreateCmd())
	cmd.AddCommand(projectsDeleteCmd())

	return cmd
}

func projectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/projects")
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}

			var projects []projectItem
			if err := json.Unmarshal(resp.Data, &projects); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if len(projects) == 0 {
				fmt.Println("No projects found.")
				return nil
			}

			for _, p := range projects {
				fmt.Printf("%s  %s  (created %s)\n", p.ID, p.Name, p.CreatedAt)
			}
			return nil
		},
	}
}

func projectsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/projects", map[string]string{"name": args[0]})
			if err != nil {
				return fmt.Errorf("create failed: %w", err)
			}

			var p projectItem
			if err := json.Unmarshal(resp.Data, &p); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			fmt.Printf("Created project '%s' (id: %s)\n", p.Name, p.ID)
			return nil
		},
	}
}

func projectsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/projects", map[string]string{"id": args[0]}); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}

			fmt.Printf("Deleted project %s\n", args[0])
			return nil
		},
	}
}
