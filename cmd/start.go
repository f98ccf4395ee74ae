package cmd

import (
	"github.com/spf13/cobra"

	"lavinder/daemon"
	"lavinder/log"
)

func addStart(topLevel *cobra.Command) {
	o := daemon.Options{}
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the window manager.",
		Example: `
lavinder start
lavinder start -c ~/.config/lavinder/test.yaml -d :1 -l DEBUG
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.LogLevel != "" {
				if _, err := log.ParseLevel(o.LogLevel); err != nil {
					return err
				}
			}
			return daemon.Run(cmd.Context(), o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.ConfigPath, "config", "c", "", "Use the specified configuration file.")
	f.StringVarP(&o.SocketPath, "socket", "s", "", "Path to the command socket.")
	f.StringVarP(&o.Display, "display", "d", "", "X display to manage; defaults to $DISPLAY.")
	f.BoolVarP(&o.NoSpawn, "no-spawn", "n", false, "Do not run the autostart commands. (Used for restart)")
	f.StringVarP(&o.LogLevel, "log-level", "l", "", "Log level: DEBUG, INFO, WARNING, ERROR or CRITICAL.")
	f.StringVar(&o.StatePath, "with-state", "", "State file left by a restarting manager (used internally).")
	f.BoolVar(&o.Headless, "headless", false, "Run without a display server.")
	_ = f.MarkHidden("with-state")

	topLevel.AddCommand(cmd)
}
