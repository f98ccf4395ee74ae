package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"lavinder/command"
	"lavinder/shell"
)

type cmdObjOptions struct {
	connectOptions
	Object   []string
	Function string
	Args     []string
	Info     bool
}

func addCmdObj(topLevel *cobra.Command) {
	o := &cmdObjOptions{}
	cmd := &cobra.Command{
		Use:   "cmd-obj [OBJECT...]",
		Short: "Call a command on an object of a running manager.",
		Long: `Call a command on an object of a running manager.

The object is given as categories, each optionally followed by a selector:
"group a layout 0" is the first layout of group a. It may be passed as
arguments or with -o. Without an object the command is called on the root.
Without -f the commands of the object are listed.`,
		Example: `
lavinder cmd-obj -f status
lavinder cmd-obj group a -f toscreen
lavinder cmd-obj -o window -f togroup -a '"b"'
lavinder cmd-obj -o screen,0 -f info --json
lavinder cmd-obj layout -f down -i
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Object = append(o.Object, args...)
			defer clientLog()()
			return o.run(cmd.OutOrStdout())
		},
	}

	addConnectFlags(cmd, &o.connectOptions)
	f := cmd.Flags()
	f.StringSliceVarP(&o.Object, "object", "o", nil, "Object path, e.g. -o group,a.")
	f.StringVarP(&o.Function, "function", "f", "help", "Command to call on the object.")
	f.StringArrayVarP(&o.Args, "args", "a", nil, "Arguments, one per flag, written as literals: 1, \"b\", True.")
	f.BoolVarP(&o.Info, "info", "i", false, "Show the documentation of the command instead of calling it.")
	f.BoolVar(&o.JSON, "json", false, "Talk JSON to the manager and print the result as JSON.")

	topLevel.AddCommand(cmd)
}

func (o *cmdObjOptions) run(out io.Writer) error {
	c, err := o.dial()
	if err != nil {
		return err
	}
	defer c.Close()

	node, err := objectNode(command.Remote(c), o.Object)
	if err != nil {
		return err
	}
	if o.Function == "help" {
		return printCommands(out, node)
	}
	if o.Info {
		doc, err := node.Cmd("doc").Call(o.Function)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, doc)
		return err
	}

	v, err := node.Cmd(o.Function).Call(parseArgs(o.Args)...)
	if err != nil {
		return err
	}
	if o.JSON {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	if s := shell.Format(v); s != "" {
		_, err = fmt.Fprintln(out, s)
	}
	return err
}

// objectNode walks tokens such as ["group", "a", "layout", "0"]. A token
// after a category that is not itself a category selects within it.
func objectNode(root command.Node, tokens []string) (command.Node, error) {
	n := root
	for i := 0; i < len(tokens); i++ {
		c, ok := command.ParseCategory(tokens[i])
		if !ok {
			return command.Node{}, fmt.Errorf("unknown object %q in %s", tokens[i], strings.Join(tokens, " "))
		}
		next, err := n.Descend(c)
		if err != nil {
			return command.Node{}, err
		}
		n = next
		if i+1 >= len(tokens) {
			break
		}
		if _, isCat := command.ParseCategory(tokens[i+1]); isCat {
			continue
		}
		i++
		if n, err = n.Index(selectorFor(c, tokens[i])); err != nil {
			return command.Node{}, err
		}
	}
	return n, nil
}

// selectorFor reads a selector token. Groups are always named; other
// categories take an integer index when the token is one.
func selectorFor(c command.Category, tok string) command.Selector {
	if c != command.Group {
		if i, err := strconv.Atoi(tok); err == nil {
			return command.Index(i)
		}
	}
	return command.Name(tok)
}

// parseArgs reads each argument as a literal. Anything that does not parse
// is passed as a plain string.
func parseArgs(raw []string) []any {
	args := make([]any, len(raw))
	for i, a := range raw {
		args[i] = a
		if e, err := command.ParseExpr("f(" + a + ")"); err == nil && len(e.Args) == 1 && len(e.Kwargs) == 0 {
			args[i] = e.Args[0]
		}
	}
	return args
}

func printCommands(out io.Writer, node command.Node) error {
	v, err := node.Cmd("commands").Call()
	if err != nil {
		return err
	}
	var names []string
	switch t := v.(type) {
	case []string:
		names = t
	case []any:
		for _, e := range t {
			names = append(names, fmt.Sprint(e))
		}
	}

	bold := color.New(color.Bold).SprintFunc()
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	tbl.AddRow(bold("Command"), bold("Description"))
	for _, name := range names {
		doc, err := node.Cmd("doc").Call(name)
		if err != nil {
			return err
		}
		sig, desc, _ := strings.Cut(fmt.Sprint(doc), "\n")
		desc, _, _ = strings.Cut(strings.TrimSpace(desc), "\n")
		tbl.AddRow(sig, desc)
	}
	_, err = fmt.Fprintln(out, tbl)
	return err
}
