package main

import (
	"context"
	"fmt"

	"github.com/xNORAGAMIx/udhaari/internal/models"
	"github.com/xNORAGAMIx/udhaari/internal/views"
)

func loginCommand() *Command {
	cmd := &Command{
		Name:        "login",
		Description: "Sign in to your account",
		Usage:       "udhaari login [--remember] EMAIL",
		Examples: []string{
			"udhaari login --remember asha@example.com",
		},
	}
	cmd.Run = func(ctx context.Context, c *cli, args []string) error {
		fs := cmd.NewFlagSet(c.errOut)
		remember := fs.Bool("remember", false, "Keep the session across runs")
		pos, err := parseArgs(fs, args)
		if err != nil {
			return err
		}

		email := ""
		if len(pos) > 0 {
			email = pos[0]
		} else if email, err = c.prompt("Email: "); err != nil {
			return err
		}
		password, err := c.readPassword("Password: ")
		if err != nil {
			return err
		}

		login := views.NewLogin(c.app.Client, c.app.Store)
		if err := login.Submit(ctx, email, password, *remember); err != nil {
			return userError(login.Error(), err)
		}

		fmt.Fprintf(c.out, "Logged in as %s\n", c.app.Store.Session().Email)
		if !*remember && !c.interactive {
			fmt.Fprintln(c.out, "This session ends with this command. Use --remember or 'udhaari shell' to stay signed in.")
		}
		return nil
	}
	return cmd
}

func logoutCommand() *Command {
	return &Command{
		Name:        "logout",
		Description: "Sign out and forget the stored session",
		Usage:       "udhaari logout",
		Run: func(ctx context.Context, c *cli, args []string) error {
			c.app.Store.Logout()
			fmt.Fprintln(c.out, "Logged out")
			return nil
		},
	}
}

func registerCommand() *Command {
	cmd := &Command{
		Name:        "register",
		Description: "Create an account",
		Usage:       "udhaari register --name NAME EMAIL",
		Examples: []string{
			`udhaari register --name "Asha Rao" asha@example.com`,
		},
	}
	cmd.Run = func(ctx context.Context, c *cli, args []string) error {
		fs := cmd.NewFlagSet(c.errOut)
		name := fs.String("name", "", "Display name")
		pos, err := parseArgs(fs, args)
		if err != nil {
			return err
		}
		if len(pos) != 1 {
			fs.Usage()
			return fmt.Errorf("email required")
		}
		password, err := c.readPassword("Password: ")
		if err != nil {
			return err
		}

		reg := views.NewRegister(c.app.Client)
		if err := reg.Submit(ctx, models.Registration{Name: *name, Email: pos[0], Password: password}); err != nil {
			return userError(reg.Error(), err)
		}
		fmt.Fprintln(c.out, "Account created. Log in with 'udhaari login'.")
		return nil
	}
	return cmd
}

func whoamiCommand() *Command {
	return &Command{
		Name:        "whoami",
		Description: "Show the signed-in account",
		Usage:       "udhaari whoami",
		Run: func(ctx context.Context, c *cli, args []string) error {
			s := c.app.Store.Session()
			if !s.IsAuthenticated {
				return errNotLoggedIn
			}
			tier := "this session"
			if s.Remember {
				tier = "remembered"
			}
			fmt.Fprintf(c.out, "%s (%s)\n", s.Email, tier)
			return nil
		},
	}
}

func resetPasswordCommand() *Command {
	cmd := &Command{
		Name:        "reset-password",
		Description: "Reset a forgotten password with an emailed code",
		Usage:       "udhaari reset-password send EMAIL | udhaari reset-password confirm EMAIL OTP",
		Examples: []string{
			"udhaari reset-password send asha@example.com",
			"udhaari reset-password confirm asha@example.com 123456",
		},
	}
	cmd.Run = func(ctx context.Context, c *cli, args []string) error {
		fs := cmd.NewFlagSet(c.errOut)
		pos, err := parseArgs(fs, args)
		if err != nil {
			return err
		}

		reset := c.reset
		switch {
		case len(pos) == 2 && pos[0] == "send":
			if err := reset.SendOTP(ctx, pos[1]); err != nil {
				return userError(reset.Notice().Text, err)
			}
			fmt.Fprintln(c.out, reset.Notice().Text)
			return nil

		case len(pos) == 3 && pos[0] == "confirm":
			password, err := c.readPassword("New password: ")
			if err != nil {
				return err
			}
			if err := reset.Reset(ctx, pos[1], pos[2], password); err != nil {
				return userError(reset.Notice().Text, err)
			}
			fmt.Fprintln(c.out, reset.Notice().Text)
			return nil
		}

		fs.Usage()
		return fmt.Errorf("expected 'send EMAIL' or 'confirm EMAIL OTP'")
	}
	return cmd
}
