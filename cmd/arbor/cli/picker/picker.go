// Package picker presents interactive selection lists. Cancellation is a
// normal outcome, reported as an empty selection rather than an error, so
// callers can treat "picked nothing" uniformly whether the user aborted,
// the list was empty, or there was no terminal to prompt on.
package picker

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Item is one selectable entry. Display is shown to the user, Value is
// what selecting it yields.
type Item struct {
	Display string
	Value   string
}

// Options configures a single pick invocation.
type Options struct {
	Title string
	Multi bool
}

// Picker renders a selection prompt. Implementations return the chosen
// values, or an empty slice when the user cancels.
type Picker interface {
	Pick(items []Item, opts Options) ([]string, error)
}

// NewAccessibleForm creates a huh form with accessible mode enabled when
// requested via environment, for screen readers and simple terminals.
func NewAccessibleForm(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).WithAccessible(os.Getenv("ACCESSIBLE") != "")
}

// Terminal is the interactive Picker backed by huh forms.
type Terminal struct{}

// NewTerminal returns the interactive picker.
func NewTerminal() *Terminal {
	return &Terminal{}
}

// CanPrompt reports whether stdin and stdout are attached to a terminal.
// Non-interactive contexts (pipes, CI) must not block on a prompt.
func CanPrompt() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Pick shows the selection prompt. An empty items list, a missing
// terminal, or a user abort all yield an empty selection and no error.
func (t *Terminal) Pick(items []Item, opts Options) ([]string, error) {
	if len(items) == 0 || !CanPrompt() {
		return nil, nil
	}

	options := make([]huh.Option[string], 0, len(items))
	for _, item := range items {
		options = append(options, huh.NewOption(item.Display, item.Value))
	}

	if opts.Multi {
		var selected []string
		form := NewAccessibleForm(
			huh.NewGroup(
				huh.NewMultiSelect[string]().
					Title(opts.Title).
					Options(options...).
					Value(&selected),
			),
		)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to get selection: %w", err)
		}
		return selected, nil
	}

	var selected string
	form := NewAccessibleForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(opts.Title).
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get selection: %w", err)
	}
	if selected == "" {
		return nil, nil
	}
	return []string{selected}, nil
}

// Confirm asks a yes/no question. A user abort counts as "no".
func Confirm(title string) (bool, error) {
	if !CanPrompt() {
		return false, nil
	}

	var confirmed bool
	form := NewAccessibleForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get confirmation: %w", err)
	}
	return confirmed, nil
}

// Static is a non-interactive Picker returning canned selections, for
// tests and scripted flows.
type Static struct {
	Selections []string
}

// Pick returns the canned selections filtered to values actually present
// in items.
func (s *Static) Pick(items []Item, _ Options) ([]string, error) {
	valid := make(map[string]bool, len(items))
	for _, item := range items {
		valid[item.Value] = true
	}
	var out []string
	for _, sel := range s.Selections {
		if valid[sel] {
			out = append(out, sel)
		}
	}
	return out, nil
}
