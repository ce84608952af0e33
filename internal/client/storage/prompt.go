package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atinyakov/taskmanager/internal/models"
	"golang.org/x/term"
)

// Prompter reads interactive answers from a line-oriented input.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// readPassword reads a secret without echo. Nil means read a plain line.
	readPassword func() ([]byte, error)
}

// NewPrompter reads from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// NewTerminalPrompter reads from stdin, hiding passwords when stdin is a
// terminal.
func NewTerminalPrompter() *Prompter {
	p := NewPrompter(os.Stdin, os.Stdout)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		p.readPassword = func() ([]byte, error) { return term.ReadPassword(fd) }
	}
	return p
}

// Line prints prompt and returns the trimmed answer. A final line without a
// newline is still returned.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password prints prompt and reads a secret.
func (p *Prompter) Password(prompt string) (string, error) {
	if p.readPassword == nil {
		return p.Line(prompt)
	}
	fmt.Fprint(p.out, prompt)
	pw, err := p.readPassword()
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// PromptRegistration asks for the fields of a new account. An empty age is
// left unset.
func (p *Prompter) PromptRegistration() (models.Registration, error) {
	var r models.Registration
	var err error
	if r.Name, err = p.Line("Name: "); err != nil {
		return r, err
	}
	if r.Email, err = p.Line("Email: "); err != nil {
		return r, err
	}
	if r.Password, err = p.Password("Password: "); err != nil {
		return r, err
	}
	ageStr, err := p.Line("Age (empty for default): ")
	if err != nil {
		return r, err
	}
	if ageStr != "" {
		age, err := strconv.Atoi(ageStr)
		if err != nil {
			return r, fmt.Errorf("age must be a number: %w", err)
		}
		r.Age = &age
	}
	return r, nil
}

// PromptLogin asks for credentials.
func (p *Prompter) PromptLogin() (email, password string, err error) {
	if email, err = p.Line("Email: "); err != nil {
		return "", "", err
	}
	if password, err = p.Password("Password: "); err != nil {
		return "", "", err
	}
	return email, password, nil
}

// PromptNewTask asks for a task description.
func (p *Prompter) PromptNewTask() (models.NewTask, error) {
	desc, err := p.Line("Description: ")
	return models.NewTask{Description: desc}, err
}

// PromptTaskEdit asks for a new description. An empty answer leaves the
// description out of the returned update.
func (p *Prompter) PromptTaskEdit() (map[string]any, error) {
	desc, err := p.Line("New description (empty to keep): ")
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if desc != "" {
		fields["description"] = desc
	}
	return fields, nil
}
