package main

import (
	"fmt"
	"text/tabwriter"

	taskdomain "github.com/Rishi-0007/tm-assignment/domain/task"
	"github.com/spf13/cobra"
)

func (a *app) tasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "Work with your tasks",
	}
	cmd.AddCommand(
		a.tasksListCommand(),
		a.tasksAddCommand(),
		a.tasksShowCommand(),
		a.tasksEditCommand(),
		a.tasksToggleCommand(),
		a.tasksRemoveCommand(),
	)
	return cmd
}

func (a *app) tasksListCommand() *cobra.Command {
	var filter taskdomain.Filter
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.api.ListTasks(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if len(page.Tasks) == 0 {
				fmt.Fprintln(a.out, "No tasks")
				return nil
			}
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tTITLE")
			for _, t := range page.Tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Status, t.Title)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			p := page.Pagination
			fmt.Fprintf(a.out, "page %d of %d (%d tasks)\n", p.Page, max(p.TotalPages, 1), p.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&filter.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 10, "tasks per page")
	cmd.Flags().StringVar(&filter.Status, "status", "", "pending, completed or all")
	cmd.Flags().StringVar(&filter.Search, "search", "", "only titles containing this text")
	return cmd
}

func (a *app) tasksAddCommand() *cobra.Command {
	var description, status string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := taskdomain.Draft{
				Title:  args[0],
				Status: taskdomain.Status(status),
			}
			if description != "" {
				draft.Description = &description
			}

			created, err := a.api.CreateTask(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default pending)")
	return cmd
}

func (a *app) tasksShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.api.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printTask(t)
			return nil
		},
	}
}

func (a *app) tasksEditCommand() *cobra.Command {
	var title, description, status string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title, description or status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch taskdomain.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				s := taskdomain.Status(status)
				patch.Status = &s
			}
			if patch.Title == nil && patch.Description == nil && patch.Status == nil {
				return fmt.Errorf("nothing to change; pass --title, --description or --status")
			}

			t, err := a.api.UpdateTask(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			a.printTask(t)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "pending or completed")
	return cmd
}

func (a *app) tasksToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.api.ToggleTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s is now %s\n", t.ID, t.Status)
			return nil
		},
	}
}

func (a *app) tasksRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *app) printTask(t *taskdomain.Task) {
	fmt.Fprintf(a.out, "ID:          %s\n", t.ID)
	fmt.Fprintf(a.out, "Title:       %s\n", t.Title)
	if t.Description != nil {
		fmt.Fprintf(a.out, "Description: %s\n", *t.Description)
	}
	fmt.Fprintf(a.out, "Status:      %s\n", t.Status)
	fmt.Fprintf(a.out, "Created:     %s\n", t.CreatedAt.Format("2006-01-02 15:04"))
}
