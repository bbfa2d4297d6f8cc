package main

import (
	"fmt"
	"os"
)

func main() {
	err := Execute()
	if log != nil {
		if err != nil {
			log.Errorw("command failed", "error", err)
		}
		_ = log.Sync()
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if err != nil {
		os.Exit(1)
	}
}
