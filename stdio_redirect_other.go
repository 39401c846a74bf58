//go:build !unix

package main

import "os"

// redirectStdio only swaps the os.Stdout and os.Stderr handles here, so
// runtime panic output still goes to the original stderr.
func redirectStdio(f *os.File) error {
	os.Stdout = f
	os.Stderr = f
	return nil
}
