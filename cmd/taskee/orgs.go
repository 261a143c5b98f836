package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
)

func (c *cli) orgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations"},
		Short:   "List and manage organizations",
	}
	cmd.AddCommand(c.orgsListCmd(), c.orgsCreateCmd(), c.orgsUpdateCmd(), c.orgsLeaveCmd())
	return cmd
}

func (c *cli) orgsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your organizations; * marks the active one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			orgs := s.Organizations.Organizations()
			active := s.Organizations.ActiveID()
			return c.render(orgs, func(w io.Writer) { writeOrganizations(w, orgs, active) })
		},
	}
}

func (c *cli) orgsCreateCmd() *cobra.Command {
	var in domain.OrganizationInput
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an organization and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			in.Name = args[0]
			var created domain.Organization
			if err := s.Organizations.Create(cmd.Context(), in, func(o domain.Organization) { created = o }); err != nil {
				return err
			}
			return c.render(created, func(w io.Writer) {
				fmt.Fprintf(w, "created organization %s (%s)\n", created.Name, created.ID)
			})
		},
	}
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "description")
	return cmd
}

func (c *cli) orgsUpdateCmd() *cobra.Command {
	var in domain.OrganizationInput
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Rename or describe the active organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			o, err := activeOrg(s)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("name") {
				in.Name = o.Name
			}
			if !cmd.Flags().Changed("description") {
				in.Description = o.Description
			}
			if err := s.Organizations.Update(cmd.Context(), o.ID, in, nil); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "updated organization %s\n", o.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "new name")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "new description")
	return cmd
}

func (c *cli) orgsLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave [ID]",
		Short: "Leave an organization (default: the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			var id domain.OrganizationID
			if len(args) == 1 {
				n, err := parseID(args[0], "organization")
				if err != nil {
					return err
				}
				id = domain.OrganizationID(n)
			} else {
				o, err := activeOrg(s)
				if err != nil {
					return err
				}
				id = o.ID
			}
			if err := s.Organizations.Leave(cmd.Context(), id, nil); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "left organization %s\n", id)
			return nil
		},
	}
}
