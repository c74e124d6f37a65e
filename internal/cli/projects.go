package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newProjectsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List active projects, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := s.store.ListActiveProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active projects.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tUPDATED")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ProjectID, p.Label, p.UpdatedAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	var code, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Example: `  ledgerctl projects create --code EV-01 --name "Depot charging"
  ledgerctl projects create --name "Unnamed site"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := s.store.CreateProject(cmd.Context(), code, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.ProjectID, p.Label())
			return nil
		},
	}
	create.Flags().StringVar(&code, "code", "", "Project code")
	create.Flags().StringVar(&name, "name", "", "Project name")

	archive := &cobra.Command{
		Use:   "archive [project-id]",
		Short: "Archive a project; its records stay in the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := s.store.ArchiveProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived project %s (%s)\n", p.ProjectID, p.Label())
			return nil
		},
	}

	cmd.AddCommand(list, create, archive)
	return cmd
}
