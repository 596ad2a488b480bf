package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Batch completed, every entry scored
	ExitEntryFailed = 1 // Batch completed, but one or more entries failed
	ExitError       = 2 // Configuration or runtime error
)

// EntryFailureError indicates that the batch ran to completion but one or
// more dataset entries could not be scored.
type EntryFailureError struct {
	Message string
}

func (e *EntryFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var entryErr *EntryFailureError
		if errors.As(err, &entryErr) {
			os.Exit(ExitEntryFailed)
		}

		os.Exit(ExitError)
	}
}
