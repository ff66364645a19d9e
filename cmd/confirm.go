package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

var errAborted = errors.New("aborted")

// confirm asks a yes/no question unless --yes was given. A declined or
// interrupted prompt returns errAborted.
func confirm(title, description string) error {
	if flagYes {
		return nil
	}

	ok := false
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errAborted
		}
		return fmt.Errorf("prompt: %w", err)
	}
	if !ok {
		return errAborted
	}
	return nil
}
