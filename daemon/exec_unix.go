//go:build !windows

package daemon

import "golang.org/x/sys/unix"

func execve(argv0 string, argv []string, env []string) error {
	return unix.Exec(argv0, argv, env)
}
