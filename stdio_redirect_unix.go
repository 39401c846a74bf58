//go:build unix

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// redirectStdio duplicates f onto fds 1 and 2 so writes from any goroutine,
// and the runtime's own panic output, land in the file.
func redirectStdio(f *os.File) error {
	defer f.Close()
	for _, target := range []*os.File{os.Stdout, os.Stderr} {
		if err := unix.Dup2(int(f.Fd()), int(target.Fd())); err != nil {
			return fmt.Errorf("dup2 onto fd %d: %w", target.Fd(), err)
		}
	}
	return nil
}
