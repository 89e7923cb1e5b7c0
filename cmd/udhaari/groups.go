package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/xNORAGAMIx/udhaari/internal/models"
	"github.com/xNORAGAMIx/udhaari/internal/views"
)

func groupsCommand() *Command {
	cmd := &Command{
		Name:        "groups",
		Description: "List, create and delete your groups",
		Usage:       "udhaari groups [--page N] | groups create NAME | groups delete [--yes] GROUP_ID",
		Examples: []string{
			"udhaari groups --page 2",
			`udhaari groups create "Goa Trip"`,
			"udhaari groups delete 42",
		},
	}
	cmd.Run = func(ctx context.Context, c *cli, args []string) error {
		fs := cmd.NewFlagSet(c.errOut)
		page := fs.Int("page", 1, "Page to show")
		yes := fs.Bool("yes", false, "Delete without asking")
		pos, err := parseArgs(fs, args)
		if err != nil {
			return err
		}
		if err := c.requireLogin(); err != nil {
			return err
		}

		list := c.groupList()
		if len(pos) == 0 {
			if err := list.Load(ctx); err != nil {
				return userError(list.Error(), err)
			}
			list.SetPage(*page)
			printGroups(c, list.Model())
			return nil
		}

		switch pos[0] {
		case "create":
			name := strings.Join(pos[1:], " ")
			if err := list.Create(ctx, name); err != nil {
				return userError(list.Error(), err)
			}
			fmt.Fprintf(c.out, "Created group %q\n", strings.TrimSpace(name))
			printGroups(c, list.Model())
			return nil

		case "delete":
			if len(pos) != 2 {
				fs.Usage()
				return fmt.Errorf("group id required")
			}
			if err := list.Load(ctx); err != nil {
				return userError(list.Error(), err)
			}
			confirm := func(g models.Group) bool {
				if *yes {
					return true
				}
				name := g.Name
				if name == "" {
					name = g.ID
				}
				return c.confirm(fmt.Sprintf("Delete group %q?", name))
			}
			deleted, err := list.Delete(ctx, pos[1], confirm)
			if err != nil {
				return userError(list.Error(), err)
			}
			if deleted {
				fmt.Fprintln(c.out, "Group deleted")
			}
			return nil
		}

		fs.Usage()
		return fmt.Errorf("unknown groups action: %s", pos[0])
	}
	return cmd
}

func printGroups(c *cli, m views.GroupListModel) {
	if len(m.Groups) == 0 {
		fmt.Fprintln(c.out, "No groups yet. Create one with 'udhaari groups create NAME'.")
		return
	}
	t := newTable(c.out, "ID", "NAME", "CREATED", "MEMBERS", "TOTAL")
	for _, g := range m.Groups {
		t.row(g.ID, g.Name, g.Created, fmt.Sprint(g.MemberCount), rupees(g.ExpenseTotal))
	}
	t.flush()
	if m.TotalPages > 1 {
		fmt.Fprintf(c.out, "Page %d of %d\n", m.Page, m.TotalPages)
	}
}

func groupCommand() *Command {
	cmd := &Command{
		Name:        "group",
		Description: "Show a group, add members and expenses, settle up",
		Usage: "udhaari group show GROUP_ID | group add-member GROUP_ID EMAIL | " +
			"group add-expense [--category C] [--paid-by EMAIL] GROUP_ID DESCRIPTION AMOUNT | " +
			"group settle GROUP_ID EMAIL AMOUNT",
		Examples: []string{
			"udhaari group show 42",
			"udhaari group add-member 42 bilal@example.com",
			`udhaari group add-expense --category travel 42 "Cab to airport" 850`,
			"udhaari group settle 42 asha@example.com 425",
		},
	}
	cmd.Run = func(ctx context.Context, c *cli, args []string) error {
		fs := cmd.NewFlagSet(c.errOut)
		category := fs.String("category", views.DefaultCategory, "Expense category: "+strings.Join(models.Categories, ", "))
		paidBy := fs.String("paid-by", "", "Payer email (default: first member)")
		pos, err := parseArgs(fs, args)
		if err != nil {
			return err
		}
		if len(pos) < 2 {
			fs.Usage()
			return fmt.Errorf("action and group id required")
		}
		if err := c.requireLogin(); err != nil {
			return err
		}

		action, rest := pos[0], pos[2:]
		g := views.NewGroupDetail(c.app.Client, c.app.Store, pos[1])
		if err := g.Load(ctx); err != nil {
			return userError(g.Error(), err)
		}

		switch {
		case action == "show" && len(rest) == 0:

		case action == "add-member" && len(rest) == 1:
			g.SetMemberDraft(rest[0])
			if err := g.AddMember(ctx); err != nil {
				return userError(g.Error(), err)
			}
			fmt.Fprintf(c.out, "Added %s\n", rest[0])

		case action == "add-expense" && len(rest) == 2:
			d := g.ExpenseDraft()
			d.Description, d.Amount, d.Category = rest[0], rest[1], *category
			if *paidBy != "" {
				d.PaidByEmail = *paidBy
			}
			g.SetExpenseDraft(d)
			if err := g.AddExpense(ctx); err != nil {
				return userError(g.Error(), err)
			}
			fmt.Fprintf(c.out, "Added expense %q\n", rest[0])

		case action == "settle" && len(rest) == 2:
			g.SetSettleDraft(views.SettleDraft{ToEmail: rest[0], Amount: rest[1]})
			if err := g.Settle(ctx); err != nil {
				return userError(g.Error(), err)
			}
			fmt.Fprintf(c.out, "Settled %s with %s\n", rest[1], rest[0])

		default:
			fs.Usage()
			return fmt.Errorf("unknown group action or wrong arguments: %s", action)
		}

		printGroupDetail(c, g.Model())
		return nil
	}
	return cmd
}

func printGroupDetail(c *cli, m views.GroupDetailModel) {
	section(c.out, "Members")
	t := newTable(c.out, "NAME", "EMAIL")
	for _, mem := range m.Members {
		t.row(mem.Name, mem.Email)
	}
	t.flush()

	section(c.out, "Expenses")
	if len(m.Expenses) == 0 {
		fmt.Fprintln(c.out, "No expenses yet.")
	} else {
		t = newTable(c.out, "DATE", "DESCRIPTION", "CATEGORY", "PAID BY", "AMOUNT")
		for _, e := range m.Expenses {
			payer := e.PaidByName
			if payer == "" {
				payer = e.PaidByEmail
			}
			t.row(e.CreatedAt.Display(), e.Description, e.Category, payer, rupees(e.Amount))
		}
		t.flush()
	}
	fmt.Fprintf(c.out, "Total: %s\n", rupees(m.TotalExpenses))

	section(c.out, "Balances")
	if len(m.Balances) == 0 {
		fmt.Fprintln(c.out, "All settled up.")
	} else {
		for _, b := range m.Balances {
			fmt.Fprintf(c.out, "%s owes %s %s\n", b.FromUser, b.ToUser, rupees(b.Amount))
		}
	}
	if m.CanSettle {
		emails := make([]string, 0, len(m.SettleCandidates))
		for _, mem := range m.SettleCandidates {
			emails = append(emails, mem.Email)
		}
		fmt.Fprintf(c.out, "You can settle with: %s\n", strings.Join(emails, ", "))
	}
}
