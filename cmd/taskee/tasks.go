package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/task"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
)

func (c *cli) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"projects"},
		Short:   "Work with the tasks of the active organization",
	}
	cmd.AddCommand(
		c.tasksListCmd(),
		c.tasksBoardCmd(),
		c.tasksCreateCmd(),
		c.tasksStatusCmd(),
		c.tasksUpdateCmd(),
		c.tasksDeleteCmd(),
		c.tasksSearchCmd(),
	)
	return cmd
}

func (c *cli) tasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			if _, err := activeOrg(s); err != nil {
				return err
			}
			tasks := s.Tasks.Tasks()
			return c.render(tasks, func(w io.Writer) { writeTasks(w, tasks) })
		},
	}
}

func (c *cli) tasksBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show tasks grouped by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			if _, err := activeOrg(s); err != nil {
				return err
			}
			board := s.Tasks.Board()
			return c.render(board, func(w io.Writer) {
				for i, col := range board {
					if i > 0 {
						fmt.Fprintln(w)
					}
					fmt.Fprintf(w, "%s (%d)\n", col.Status.Label(), len(col.Tasks))
					for _, t := range col.Tasks {
						fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.ID, t.Priority, t.Name, assignee(t))
					}
				}
			})
		},
	}
}

// taskFlags binds the editable task fields.
func taskFlags(cmd *cobra.Command, in *domain.TaskInput, assignee *int64) {
	f := cmd.Flags()
	f.StringVarP(&in.Description, "description", "d", "", "description")
	f.StringVarP((*string)(&in.Priority), "priority", "p", "", "priority: low, mid or high")
	f.StringVarP((*string)(&in.Status), "status", "s", string(domain.StatusInProgress), "status: in_progress, done, abandoned or canceled")
	f.Int64Var(assignee, "assignee", 0, "assignee user ID (default: yourself)")
}

func (c *cli) tasksCreateCmd() *cobra.Command {
	var (
		in     domain.TaskInput
		userID int64
	)
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a task in the active organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			in.Name = args[0]
			in.AssignedTo = domain.UserID(userID)
			if in.AssignedTo == 0 {
				if p, ok := s.Membership.Profile(); ok {
					in.AssignedTo = p.ID
				}
			}
			var created domain.Task
			if err := s.Tasks.Create(cmd.Context(), in, func(t domain.Task) { created = t }); err != nil {
				return err
			}
			return c.render(created, func(w io.Writer) {
				fmt.Fprintf(w, "created task %s: %s [%s, %s]\n", created.ID, created.Name, created.Status, created.Priority)
			})
		},
	}
	taskFlags(cmd, &in, &userID)
	return cmd
}

func (c *cli) tasksStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status TASK_ID STATUS",
		Short: "Move a task to another board column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			status := domain.Status(args[1])
			if err := s.Tasks.UpdateStatus(cmd.Context(), domain.TaskID(id), status); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "task %d is now %s\n", id, status.Label())
			return nil
		},
	}
}

func (c *cli) tasksUpdateCmd() *cobra.Command {
	var (
		in     domain.TaskInput
		name   string
		userID int64
	)
	cmd := &cobra.Command{
		Use:   "update TASK_ID",
		Short: "Edit a task; fields without a flag keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			cur, ok := s.Tasks.Task(domain.TaskID(id))
			if !ok {
				return fmt.Errorf("task %d: %w", id, domerrors.ErrTaskNotFound)
			}
			f := cmd.Flags()
			patch := domain.TaskInput{
				Name:        cur.Name,
				Description: cur.Description,
				Priority:    cur.Priority,
				Status:      cur.Status,
				AssignedTo:  cur.AssignedTo,
			}
			if f.Changed("name") {
				patch.Name = name
			}
			if f.Changed("description") {
				patch.Description = in.Description
			}
			if f.Changed("priority") {
				patch.Priority = in.Priority
			}
			if f.Changed("status") {
				patch.Status = in.Status
			}
			if f.Changed("assignee") {
				patch.AssignedTo = domain.UserID(userID)
			}
			var updated domain.Task
			if err := s.Tasks.Update(cmd.Context(), cur.ID, patch, func(t domain.Task) { updated = t }); err != nil {
				return err
			}
			return c.render(updated, func(w io.Writer) {
				fmt.Fprintf(w, "updated task %s: %s [%s, %s]\n", updated.ID, updated.Name, updated.Status, updated.Priority)
			})
		},
	}
	taskFlags(cmd, &in, &userID)
	cmd.Flags().StringVar(&name, "name", "", "new name")
	return cmd
}

func (c *cli) tasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TASK_ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Tasks.Delete(cmd.Context(), domain.TaskID(id)); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted task %d\n", id)
			return nil
		},
	}
}

func (c *cli) tasksSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search",
		Short: "Search tasks as you type: each stdin line replaces the search text",
		Long: `Reads search text line by line from stdin. Lines arriving faster than
the debounce interval (TASKEE_SEARCH_DEBOUNCE) are coalesced into a single
request; results are printed whenever a search settles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			if _, err := activeOrg(s); err != nil {
				return err
			}
			return c.search(cmd.Context(), s.Tasks)
		},
	}
}

// search feeds stdin lines into the debounced search and prints each result
// set once the collection matches the latest input.
func (c *cli) search(ctx context.Context, tasks *task.Store) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	var (
		shown    string
		printed  bool
		eof      bool
		deadline <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				lines, eof = nil, true
				deadline = time.After(c.cfg.Search.Debounce + c.cfg.API.Timeout)
				continue
			}
			tasks.SetSearch(line)
		case <-tick.C:
			if tasks.Loading(task.OpList) {
				continue
			}
			input, _ := tasks.Search()
			if failed, err := tasks.FetchError(); err != nil && failed == input {
				// The store has already shown the failure; the collection
				// still belongs to an older query and is not printed.
				if eof {
					return fmt.Errorf("search %q: %w", input, err)
				}
				continue
			}
			query, found := tasks.Results()
			settled := query == input
			if settled && (!printed || query != shown) {
				shown, printed = query, true
				if err := c.printSearch(query, found); err != nil {
					return err
				}
			}
			if eof && settled {
				return nil
			}
		case <-deadline:
			return fmt.Errorf("search %q did not complete", shown)
		}
	}
}

func (c *cli) printSearch(query string, tasks []domain.Task) error {
	result := struct {
		Query string        `yaml:"query"`
		Tasks []domain.Task `yaml:"tasks"`
	}{query, tasks}
	return c.render(result, func(w io.Writer) {
		fmt.Fprintf(w, "search %q: %d task(s)\n", query, len(tasks))
		writeTasks(w, tasks)
	})
}
