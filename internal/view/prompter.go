package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrCancelled is returned by a Prompter when the user backs out.
var ErrCancelled = errors.New("prompt cancelled")

// Prompter asks the user for the pieces of a deployment target.
type Prompter interface {
	Input(ctx context.Context, title string, suggestions []string, validate func(string) error) (string, error)
	Confirm(ctx context.Context, title string) (bool, error)
}

var runInputPrompt = func(ctx context.Context, title string, suggestions []string, validate func(string) error, input *string) error {
	return huh.NewForm(huh.NewGroup(newInputField(title, suggestions, validate, input))).RunWithContext(ctx)
}

// newInputField builds the huh input for one prompt. The first suggestion is
// shown as the placeholder and an empty answer is validated as that suggestion.
func newInputField(title string, suggestions []string, validate func(string) error, input *string) *huh.Input {
	field := huh.NewInput().
		Title(title).
		Suggestions(suggestions).
		Value(input)
	if len(suggestions) > 0 {
		field.Placeholder(suggestions[0])
	}
	if validate != nil {
		field.Validate(withDefault(suggestions, validate))
	}
	return field
}

func withDefault(suggestions []string, validate func(string) error) func(string) error {
	return func(s string) error {
		if s == "" && len(suggestions) > 0 {
			s = suggestions[0]
		}
		return validate(s)
	}
}

var runConfirmPrompt = func(ctx context.Context, title string, confirmed *bool) error {
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(confirmed)
	return huh.NewForm(huh.NewGroup(field)).RunWithContext(ctx)
}

// HuhPrompter implements Prompter with huh terminal forms.
type HuhPrompter struct{}

func (p HuhPrompter) Input(ctx context.Context, title string, suggestions []string, validate func(string) error) (string, error) {
	var input string
	if err := runInputPrompt(ctx, title, suggestions, validate, &input); err != nil {
		return "", promptError("input", err)
	}
	// An empty answer accepts the placeholder.
	if input == "" && len(suggestions) > 0 {
		input = suggestions[0]
	}
	return input, nil
}

func (p HuhPrompter) Confirm(ctx context.Context, title string) (bool, error) {
	var confirmed bool
	if err := runConfirmPrompt(ctx, title, &confirmed); err != nil {
		return false, promptError("confirm", err)
	}
	return confirmed, nil
}

func promptError(kind string, err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCancelled
	}
	return fmt.Errorf("prompt %s: %w", kind, err)
}

// Answers is a Prompter that replays fixed answers, for non-interactive use.
// Empty Name or Path accept the first suggestion.
type Answers struct {
	Name    string
	Path    string
	Inherit bool
	Yes     bool
}

func (a *Answers) Input(ctx context.Context, title string, suggestions []string, validate func(string) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var answer string
	switch {
	case strings.HasPrefix(title, namePromptPrefix):
		answer = a.Name
	case strings.HasPrefix(title, locationPromptPrefix):
		answer = a.Path
	default:
		return "", fmt.Errorf("no answer for prompt %q", title)
	}

	if answer == "" && len(suggestions) > 0 {
		answer = suggestions[0]
	}
	if validate != nil {
		if err := validate(answer); err != nil {
			return "", fmt.Errorf("%s %w", title, err)
		}
	}
	return answer, nil
}

func (a *Answers) Confirm(ctx context.Context, title string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.HasPrefix(title, inheritPromptPrefix) {
		return a.Inherit, nil
	}
	return a.Yes, nil
}
