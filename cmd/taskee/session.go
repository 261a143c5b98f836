package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
)

func (c *cli) registerCmd() *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()
			return s.Session.Register(cmd.Context(), reg, func(u *domain.User) {
				if u != nil {
					fmt.Fprintf(c.out, "registered %s (id %s), you can now log in\n", u.Username, u.ID)
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.Email, "email", "", "email address")
	f.StringVar(&reg.Username, "username", "", "username")
	f.StringVar(&reg.FirstName, "first-name", "", "first name")
	f.StringVar(&reg.LastName, "last-name", "", "last name")
	f.StringVar(&reg.Password, "password", "", "password (at least 8 characters)")
	f.StringVar(&reg.ConfirmPassword, "confirm-password", "", "password again")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var (
		creds         domain.Credentials
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				pw, err := readLine(c.in)
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				creds.Password = pw
			}
			s, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.Session.Login(cmd.Context(), creds); err != nil {
				return err
			}
			name := creds.Username
			if p, ok := s.Membership.Profile(); ok {
				name = p.Username
			}
			fmt.Fprintf(c.out, "logged in as %s\n", name)
			if o, ok := s.Organizations.Active(); ok {
				fmt.Fprintf(c.out, "active organization: %s (%s)\n", o.Name, o.ID)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&creds.Username, "username", "u", "", "username or email")
	f.StringVarP(&creds.Password, "password", "p", "", "password")
	f.BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.close()
			s.Session.Logout(cmd.Context())
			fmt.Fprintln(c.out, "logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.close()
			p, ok := s.Membership.Profile()
			if !ok {
				return fmt.Errorf("profile unavailable")
			}
			return c.render(p, func(w io.Writer) { writeUser(w, p) })
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
