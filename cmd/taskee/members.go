package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
)

func (c *cli) membersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage who belongs to the active organization",
	}
	cmd.AddCommand(c.membersListCmd(), c.membersAddCmd(), c.membersRemoveCmd())
	return cmd
}

func (c *cli) membersListCmd() *cobra.Command {
	var outside bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members of the active organization",
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
			users := s.Membership.Members()
			if outside {
				users = s.Membership.NonMembers()
			}
			return c.render(users, func(w io.Writer) { writeUsers(w, users) })
		},
	}
	cmd.Flags().BoolVar(&outside, "non-members", false, "list users who are not members instead")
	return cmd
}

func (c *cli) membersAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add EMAIL...",
		Short: "Add users to the active organization by email",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Membership.AddMembers(cmd.Context(), args, nil); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "added %d member(s)\n", len(args))
			return nil
		},
	}
}

func (c *cli) membersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove USER_ID",
		Short: "Remove a member from the active organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Membership.RemoveMember(cmd.Context(), domain.UserID(id)); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "removed user %d\n", id)
			return nil
		},
	}
}
