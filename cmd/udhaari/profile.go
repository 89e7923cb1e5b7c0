package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xNORAGAMIx/udhaari/internal/views"
)

func profileCommand() *Command {
	cmd := &Command{
		Name:        "profile",
		Description: "Show your account, history and spending",
		Usage:       "udhaari profile [--expenses] [--settlements] [--received] [--summary] [--all] | profile send-otp | profile verify OTP",
		Examples: []string{
			"udhaari profile --summary",
			"udhaari profile send-otp",
			"udhaari profile verify 123456",
		},
	}
	cmd.Run = func(ctx context.Context, c *cli, args []string) error {
		fs := cmd.NewFlagSet(c.errOut)
		expenses := fs.Bool("expenses", false, "Show your expenses")
		sent := fs.Bool("settlements", false, "Show settlements you paid")
		received := fs.Bool("received", false, "Show settlements you received")
		summary := fs.Bool("summary", false, "Show your spend summary")
		all := fs.Bool("all", false, "Show every section")
		pos, err := parseArgs(fs, args)
		if err != nil {
			return err
		}
		if err := c.requireLogin(); err != nil {
			return err
		}

		prof := c.profilePage()
		switch {
		case len(pos) == 1 && pos[0] == "send-otp":
			err := prof.SendVerificationOTP(ctx)
			if errors.Is(err, views.ErrThrottled) {
				return fmt.Errorf("resend OTP in %s", prof.ResendIn().Round(time.Second))
			}
			if err != nil {
				return userError(views.MsgOTPSendFailed, err)
			}
			fmt.Fprintln(c.out, views.MsgOTPSent)
			return nil

		case len(pos) == 2 && pos[0] == "verify":
			if err := prof.VerifyOTP(ctx, pos[1]); err != nil {
				return userError("Invalid OTP. Please try again.", err)
			}
			fmt.Fprintln(c.out, "Email verified successfully")
			return nil

		case len(pos) != 0:
			fs.Usage()
			return fmt.Errorf("unknown profile action: %s", pos[0])
		}

		if err := prof.Load(ctx); err != nil {
			return err
		}
		// Sections load on demand; a failed one is shown as missing.
		if *all || *expenses {
			_ = prof.LoadExpenses(ctx)
		}
		if *all || *sent {
			_ = prof.LoadSentSettlements(ctx)
		}
		if *all || *received {
			_ = prof.LoadReceivedSettlements(ctx)
		}
		if *all || *summary {
			_ = prof.LoadSpendSummary(ctx)
		}

		printProfile(c, prof.Model())
		return nil
	}
	return cmd
}

func printProfile(c *cli, m views.ProfileModel) {
	if m.Profile != nil {
		status := "not verified, run 'udhaari profile send-otp'"
		if m.Profile.IsAccountVerified {
			status = "verified"
		}
		fmt.Fprintf(c.out, "%s <%s> (%s)\n", m.Profile.Name, m.Profile.Email, status)
	}

	if m.Expenses != nil {
		section(c.out, "Expenses")
		t := newTable(c.out, "DATE", "GROUP", "DESCRIPTION", "CATEGORY", "AMOUNT")
		for _, e := range m.Expenses {
			t.row(e.CreatedAt.Display(), e.GroupName, e.Description, e.Category, rupees(e.Amount))
		}
		t.flush()
	}

	if m.SentSettlements != nil {
		section(c.out, "Settlements paid")
		t := newTable(c.out, "DATE", "TO", "AMOUNT")
		for _, s := range m.SentSettlements {
			t.row(s.SettledAt.Display(), s.ToName+" <"+s.ToEmail+">", rupees(s.Amount))
		}
		t.flush()
	}

	if m.ReceivedSettlements != nil {
		section(c.out, "Settlements received")
		t := newTable(c.out, "DATE", "FROM", "AMOUNT")
		for _, s := range m.ReceivedSettlements {
			t.row(s.SettledAt.Display(), s.FromName+" <"+s.FromEmail+">", rupees(s.Amount))
		}
		t.flush()
	}

	if m.Summary != nil {
		section(c.out, "Spend summary")
		fmt.Fprintf(c.out, "Actually spent: %s\n", rupees(m.Summary.TotalActualSpent))
		fmt.Fprintf(c.out, "Total owed:     %s\n\n", rupees(m.Summary.TotalOwed))

		t := newTable(c.out, "GROUP", "PAID", "OWED", "SPENT")
		for _, g := range m.Summary.GroupWise {
			t.row(g.Group, rupees(g.Paid), rupees(g.Owed), rupees(g.Spent))
		}
		t.flush()
		fmt.Fprintln(c.out)

		t = newTable(c.out, "CATEGORY", "SPENT", "SHARE")
		for _, p := range m.Summary.CategoryWise {
			t.row(p.Category, rupees(p.Spent), p.Percent.StringFixed(1)+"%")
		}
		t.flush()
	}
}
