package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
)

// render writes v as yaml, or calls text with a tab-aligned writer.
func (c *cli) render(v any, text func(w io.Writer)) error {
	if c.output == outputYAML {
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func writeUser(w io.Writer, u domain.User) {
	fmt.Fprintf(w, "ID:\t%s\n", u.ID)
	fmt.Fprintf(w, "Username:\t%s\n", u.Username)
	fmt.Fprintf(w, "Name:\t%s\n", u.DisplayName())
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
}

func writeUsers(w io.Writer, users []domain.User) {
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName(), u.Email)
	}
}

func writeOrganizations(w io.Writer, orgs []domain.Organization, active domain.OrganizationID) {
	fmt.Fprintln(w, "\tID\tNAME\tDESCRIPTION")
	for _, o := range orgs {
		mark := ""
		if o.ID == active {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, o.ID, o.Name, oneLine(o.Description))
	}
}

func writeTasks(w io.Writer, tasks []domain.Task) {
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tNAME\tASSIGNEE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Name, assignee(t))
	}
}

func assignee(t domain.Task) string {
	if t.Assignee != nil {
		return t.Assignee.Username
	}
	if t.AssignedTo != 0 {
		return "#" + t.AssignedTo.String()
	}
	return "-"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
