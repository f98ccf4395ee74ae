package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lavinder/command"
	"lavinder/shell"
)

func addShell(topLevel *cobra.Command) {
	o := &connectOptions{}
	var line string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Explore the command graph of a running manager.",
		Long: `Explore the command graph of a running manager.

Use cd and ls to move through the objects, help to list the commands of the
current object and type a command to call it. When stdin is not a terminal
each input line is run in turn.`,
		Example: `
lavinder shell
lavinder shell -c 'group["a"].info()'
echo status | lavinder shell
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer clientLog()()

			c, err := o.dial()
			if err != nil {
				return err
			}
			defer c.Close()
			sh := shell.New(command.Remote(c))

			if line != "" {
				out, err := sh.Eval(line)
				if err != nil {
					return nil
				}
				if out != "" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				}
				return err
			}
			return shell.Run(cmd.Context(), sh, os.Stdin, cmd.OutOrStdout())
		},
	}

	addConnectFlags(cmd, o)
	cmd.Flags().StringVarP(&line, "command", "c", "", "Run one shell command and exit.")

	topLevel.AddCommand(cmd)
}
