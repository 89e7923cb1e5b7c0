package main

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const shellPrompt = "udhaari> "

func shellCommand() *Command {
	return &Command{
		Name:        "shell",
		Description: "Run commands in one session without --remember",
		Usage:       "udhaari shell",
		Interactive: true,
		Run: func(ctx context.Context, c *cli, args []string) error {
			c.interactive = true
			defer func() { c.interactive = false }()

			fmt.Fprintln(c.out, "Type 'help' for commands, 'exit' to quit.")
			for {
				if ctx.Err() != nil {
					return nil
				}
				line, err := c.prompt(shellPrompt)
				if errors.Is(err, io.EOF) {
					fmt.Fprintln(c.out)
					return nil
				}
				if err != nil {
					return err
				}

				argv, err := splitLine(line)
				if err != nil {
					fmt.Fprintf(c.errOut, "Error: %v\n", err)
					continue
				}
				if len(argv) == 0 {
					continue
				}
				switch argv[0] {
				case "exit", "quit":
					return nil
				}

				if err := c.registry.Execute(ctx, c, argv); err != nil {
					fmt.Fprintf(c.errOut, "Error: %v\n", err)
				}
			}
		},
	}
}
