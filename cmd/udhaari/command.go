package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
)

// Command is one CLI command.
type Command struct {
	Name        string
	Description string
	Usage       string
	Examples    []string

	// Interactive commands are not offered inside the shell.
	Interactive bool

	Run func(ctx context.Context, c *cli, args []string) error
}

// NewFlagSet creates a flag set that reports errors instead of exiting, so a
// typo inside the shell does not end the session.
func (cmd *Command) NewFlagSet(w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() {
		cmd.PrintUsage(w)
		fs.PrintDefaults()
	}
	return fs
}

func (cmd *Command) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "%s\n\n", cmd.Description)
	fmt.Fprintf(w, "USAGE:\n    %s\n\n", cmd.Usage)
	if len(cmd.Examples) > 0 {
		fmt.Fprintln(w, "EXAMPLES:")
		for _, example := range cmd.Examples {
			fmt.Fprintf(w, "    %s\n", example)
		}
		fmt.Fprintln(w)
	}
}

// CommandRegistry manages all CLI commands.
type CommandRegistry struct {
	commands map[string]*Command
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]*Command)}
}

func (r *CommandRegistry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
}

// Execute runs the command named by args[0].
func (r *CommandRegistry) Execute(ctx context.Context, c *cli, args []string) error {
	if len(args) < 1 {
		r.PrintHelp(c.out)
		return fmt.Errorf("no command specified")
	}

	switch args[0] {
	case "help", "-h", "--help":
		if len(args) > 1 {
			if cmd, ok := r.commands[args[1]]; ok {
				cmd.PrintUsage(c.out)
				return nil
			}
		}
		r.PrintHelp(c.out)
		return nil
	}

	cmd, ok := r.commands[args[0]]
	if !ok {
		r.PrintHelp(c.errOut)
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if cmd.Interactive && c.interactive {
		return fmt.Errorf("%s is not available inside the shell", cmd.Name)
	}

	err := cmd.Run(ctx, c, args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

// PrintHelp prints overall CLI help.
func (r *CommandRegistry) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "udhaari - split group expenses from the terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "    udhaari <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "COMMANDS:")

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "    %-16s %s\n", name, r.commands[name].Description)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'udhaari help <command>' for more information on a command.")
}

// parseArgs parses flags wherever they appear and returns the positional
// arguments in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// splitLine splits a shell line on whitespace, keeping quoted runs together.
func splitLine(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}
