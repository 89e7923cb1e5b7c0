package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/xNORAGAMIx/udhaari/internal/app"
	"github.com/xNORAGAMIx/udhaari/internal/state"
	"github.com/xNORAGAMIx/udhaari/internal/views"
)

var errNotLoggedIn = errors.New("not logged in, run 'udhaari login' first")

// cli is the state shared by every command of one process. Inside the shell
// it lives as long as the session tier does.
type cli struct {
	app      *app.App
	registry *CommandRegistry

	out    io.Writer
	errOut io.Writer
	in     *bufio.Reader

	// readPassword prompts without echo when stdin is a terminal.
	readPassword func(prompt string) (string, error)

	interactive bool
	unsubscribe func()

	mu      sync.Mutex
	groups  *views.GroupList
	profile *views.Profile
	reset   *views.PasswordReset
}

func newCLI(a *app.App, registry *CommandRegistry, out, errOut io.Writer, in *bufio.Reader) *cli {
	c := &cli{
		app:      a,
		registry: registry,
		out:      out,
		errOut:   errOut,
		in:       in,
		reset:    views.NewPasswordReset(a.Client),
	}
	c.readPassword = c.promptPassword
	c.resetUserViews()
	c.unsubscribe = a.Store.Subscribe(func(ch state.Change) {
		if ch.Kind == state.ChangeLogin || ch.Kind == state.ChangeLogout {
			c.resetUserViews()
		}
	})
	return c
}

func (c *cli) close() {
	c.unsubscribe()
}

func (c *cli) resetUserViews() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = views.NewGroupList(c.app.Client, c.app.Store, c.app.Config.PageSize)
	c.profile = views.NewProfile(c.app.Client)
}

func (c *cli) groupList() *views.GroupList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groups
}

func (c *cli) profilePage() *views.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

func (c *cli) requireLogin() error {
	if !c.app.Store.Session().IsAuthenticated {
		return errNotLoggedIn
	}
	return nil
}

// prompt reads one trimmed line after printing label.
func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *cli) promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return c.prompt(label)
	}
	fmt.Fprint(c.out, label)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// confirm asks a yes/no question; anything but y or yes is no.
func (c *cli) confirm(question string) bool {
	answer, err := c.prompt(question + " [y/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// failed pairs a page's user-facing message with the error behind it.
type failed struct {
	msg string
	err error
}

func (f *failed) Error() string { return f.msg }
func (f *failed) Unwrap() error { return f.err }

// userError prefers the message the page would show.
func userError(msg string, err error) error {
	if err == nil {
		return nil
	}
	if msg == "" {
		return err
	}
	return &failed{msg: msg, err: err}
}
