package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/illarion/confvault/internal/schema"
)

const maskedValue = "********"

// Prompter turns pending values into operator-approved values
type Prompter interface {
	Ask(ctx context.Context, pending schema.ConfigMap) (schema.ConfigMap, error)
}

// Terminal asks for every value on a line-based terminal
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // terminal fd for hidden input, -1 when in is not a terminal
}

// NewTerminal reads answers from in and writes prompts to out. When in is a
// terminal, secret keys are read without echo.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{
		in:  bufio.NewReader(in),
		out: out,
		fd:  -1,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.fd = int(f.Fd())
	}
	return t
}

// Ask prompts for each pending key in sorted order. An empty answer keeps
// the pending value.
func (t *Terminal) Ask(ctx context.Context, pending schema.ConfigMap) (schema.ConfigMap, error) {
	result := pending.Clone()
	for _, key := range pending.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v, err := t.askValue(key, pending[key])
		if err != nil {
			return nil, err
		}
		result[key] = v
	}
	return result, nil
}

func (t *Terminal) askValue(key string, initial schema.Value) (schema.Value, error) {
	secret := schema.IsSecret(key)
	shown := initial.String()
	if secret {
		shown = maskedValue
	}

	for {
		fmt.Fprintf(t.out, "%s (%s) [%s]: ", key, initial.Kind(), shown)
		line, err := t.readLine(secret)
		if err != nil {
			return schema.Value{}, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if line == "" {
			return initial, nil
		}

		v, err := schema.Parse(initial.Kind(), line)
		if err != nil {
			fmt.Fprintf(t.out, "Invalid input: %v\n", err)
			continue
		}
		return v, nil
	}
}

func (t *Terminal) readLine(secret bool) (string, error) {
	if secret && t.fd >= 0 {
		b, err := term.ReadPassword(t.fd)
		fmt.Fprintln(t.out) // New line after hidden input
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question, defaulting to no
func (t *Terminal) Confirm(question string) (bool, error) {
	fmt.Fprintf(t.out, "%s [y/N]: ", question)
	line, err := t.readLine(false)
	if err != nil {
		return false, err
	}
	choice := strings.ToLower(strings.TrimSpace(line))
	return choice == "y" || choice == "yes", nil
}

// Defaults accepts every pending value without asking
type Defaults struct{}

func (Defaults) Ask(_ context.Context, pending schema.ConfigMap) (schema.ConfigMap, error) {
	return pending.Clone(), nil
}
