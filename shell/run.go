package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"lavinder/log"
)

// Run starts the shell on the terminal. Without a terminal on stdin it reads
// lines from in and writes results to out, with no prompt or completion.
func Run(ctx context.Context, sh *Shell, in io.Reader, out io.Writer) error {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return runInteractive(ctx, sh, f, out)
	}
	return RunLines(sh, in, out)
}

func runInteractive(ctx context.Context, sh *Shell, in *os.File, out io.Writer) error {
	if w, _, err := term.GetSize(int(in.Fd())); err == nil {
		sh.Width = func() int { return w }
	}
	p := tea.NewProgram(newModel(sh), tea.WithAltScreen(), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// RunLines evaluates each line of in until EOF or exit.
func RunLines(sh *Shell, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		res, err := sh.Eval(scanner.Text())
		if errors.Is(err, ErrExit) {
			return nil
		}
		if res != "" {
			if _, err := fmt.Fprintln(out, res); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.ErrorLog.Printf("shell input: %v", err)
		return err
	}
	return nil
}
