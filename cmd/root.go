// Package cmd is the lavinder command line: the manager itself and the
// clients that talk to it over its socket.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"lavinder/ipc"
	"lavinder/log"
)

// version is set at build time with -ldflags "-X lavinder/cmd.version=...".
var version = "dev"

// New returns the root command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lavinder",
		Short:         "A tiling window manager driven through a command graph.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyColorEnv()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addStart(topLevel)
	addCmdObj(topLevel)
	addShell(topLevel)
	addCheckConfig(topLevel)
}

// applyColorEnv honours NO_COLOR and CLICOLOR_FORCE for the colored output.
func applyColorEnv() {
	switch {
	case termenv.EnvNoColor():
		color.NoColor = true
	case termenv.EnvColorProfile() != termenv.Ascii && os.Getenv("CLICOLOR_FORCE") != "":
		color.NoColor = false
	}
}

// clientLog starts client logging and returns the function closing it.
var clientLog = func() func() {
	log.Initialize(true)
	return log.Close
}

// PrintError writes err in red.
func PrintError(w io.Writer, err error) {
	_, _ = color.New(color.FgRed).Fprintf(w, "Error: %v\n", err)
}

// connectOptions locate the manager socket.
type connectOptions struct {
	Socket  string
	Display string
	JSON    bool
}

func addConnectFlags(cmd *cobra.Command, o *connectOptions) {
	cmd.Flags().StringVarP(&o.Socket, "socket", "s", "", "Path to the manager socket.")
	cmd.Flags().StringVarP(&o.Display, "display", "d", "", "X display of the manager; defaults to $DISPLAY.")
}

func (o *connectOptions) dial() (*ipc.Client, error) {
	path := o.Socket
	if path == "" {
		p, err := ipc.FindSockfile(o.Display)
		if err != nil {
			return nil, err
		}
		path = p
	}
	enc := ipc.Gob
	if o.JSON {
		enc = ipc.JSON
	}
	c, err := ipc.Dial(path, enc)
	if err != nil {
		return nil, fmt.Errorf("is the manager running? %w", err)
	}
	return c, nil
}
