package main

import (
	"bufio"
	"fmt"
	"io"

	"batterycode-go/errcode"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
)

const prompt = "makita> "

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt; the cache and saved record live until exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.shell(cmd.InOrStdin())
		},
	}
}

func (a *app) shell(in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(a.out, prompt)
	for sc.Scan() {
		args, err := shlex.Split(sc.Text())
		switch {
		case err != nil:
			fmt.Fprintf(a.out, "parse: %v\n", err)
		case len(args) == 0:
		case args[0] == "exit" || args[0] == "quit":
			return nil
		default:
			if err := a.runLine(args); err != nil {
				fmt.Fprintf(a.out, "error [%s]: %v\n", errcode.Of(err), err)
			}
		}
		fmt.Fprint(a.out, prompt)
	}
	return sc.Err()
}

// runLine executes one shell line on a fresh command tree, so local flags
// such as --yes never carry over between lines.
func (a *app) runLine(args []string) error {
	root := &cobra.Command{
		Use:           "makita",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(commands(a)...)
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.out)
	return root.Execute()
}
