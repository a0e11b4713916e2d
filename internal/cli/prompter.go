package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned by a Prompter when the user closes the input
var ErrAborted = errors.New("input aborted")

// Prompter asks the user for values. Text, Number and Secret keep asking
// until check accepts the answer.
type Prompter interface {
	Text(prompt string, check func(string) error) (string, error)
	Number(prompt string, check func(int) error) (int, error)
	Secret(prompt string, check func(string) error) (string, error)
	Confirm(prompt string) (bool, error)
	// Choose returns the index of the selected option
	Choose(title string, options []string) (int, error)
}

// LinePrompter reads answers line by line
type LinePrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewLinePrompter creates a prompter reading from in and writing prompts to out
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

func (p *LinePrompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", ErrAborted
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Text asks for a line of text
func (p *LinePrompter) Text(prompt string, check func(string) error) (string, error) {
	for {
		s, err := p.readLine(prompt + ": ")
		if err != nil {
			return "", err
		}
		if check != nil {
			if err := check(s); err != nil {
				fmt.Fprintf(p.out, "Invalid input: %v. Please try again.\n", err)
				continue
			}
		}
		return s, nil
	}
}

// Secret asks for a password. Lines are not hidden.
func (p *LinePrompter) Secret(prompt string, check func(string) error) (string, error) {
	return p.Text(prompt, check)
}

// Number asks for a whole number
func (p *LinePrompter) Number(prompt string, check func(int) error) (int, error) {
	for {
		s, err := p.readLine(prompt + ": ")
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			fmt.Fprintln(p.out, "Invalid input. Please enter a whole number.")
			continue
		}
		if check != nil {
			if err := check(n); err != nil {
				fmt.Fprintf(p.out, "Invalid input: %v. Please try again.\n", err)
				continue
			}
		}
		return n, nil
	}
}

// Confirm asks a yes/no question. Only "y" and "Y" count as yes.
func (p *LinePrompter) Confirm(prompt string) (bool, error) {
	s, err := p.readLine(prompt + " (y/n): ")
	if err != nil {
		return false, err
	}
	return s == "y" || s == "Y", nil
}

// Choose prints a numbered list and asks for a number
func (p *LinePrompter) Choose(title string, options []string) (int, error) {
	fmt.Fprintf(p.out, "\n--- %s ---\n", title)
	for i, opt := range options {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, opt)
	}

	n, err := p.Number("Enter choice", func(n int) error {
		if n < 1 || n > len(options) {
			return fmt.Errorf("choose a number between 1 and %d", len(options))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

// HuhPrompter asks with interactive terminal forms
type HuhPrompter struct {
	theme *huh.Theme
}

// NewHuhPrompter creates a form based prompter
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{theme: huh.ThemeCharm()}
}

func (p *HuhPrompter) run(field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).WithTheme(p.theme).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	if err != nil {
		return fmt.Errorf("failed to run prompt: %w", err)
	}
	return nil
}

func (p *HuhPrompter) input(prompt string, check func(string) error, mode huh.EchoMode) (string, error) {
	var value string
	input := huh.NewInput().
		Title(prompt).
		EchoMode(mode).
		Value(&value)
	if check != nil {
		input = input.Validate(func(s string) error {
			return check(strings.TrimSpace(s))
		})
	}
	if err := p.run(input); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Text asks for a line of text
func (p *HuhPrompter) Text(prompt string, check func(string) error) (string, error) {
	return p.input(prompt, check, huh.EchoModeNormal)
}

// Secret asks for a password without echoing it
func (p *HuhPrompter) Secret(prompt string, check func(string) error) (string, error) {
	return p.input(prompt, check, huh.EchoModePassword)
}

// Number asks for a whole number
func (p *HuhPrompter) Number(prompt string, check func(int) error) (int, error) {
	s, err := p.input(prompt, func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("enter a whole number")
		}
		if check != nil {
			return check(n)
		}
		return nil
	}, huh.EchoModeNormal)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

// Confirm asks a yes/no question
func (p *HuhPrompter) Confirm(prompt string) (bool, error) {
	var ok bool
	confirm := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if err := p.run(confirm); err != nil {
		return false, err
	}
	return ok, nil
}

// Choose shows a selectable list
func (p *HuhPrompter) Choose(title string, options []string) (int, error) {
	opts := make([]huh.Option[int], len(options))
	for i, label := range options {
		opts[i] = huh.NewOption(label, i)
	}

	var choice int
	sel := huh.NewSelect[int]().
		Title(title).
		Options(opts...).
		Value(&choice)
	if err := p.run(sel); err != nil {
		return 0, err
	}
	return choice, nil
}
