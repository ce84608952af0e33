// Package shell implements the interactive task manager client.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/atinyakov/taskmanager/internal/client/api"
	"github.com/atinyakov/taskmanager/internal/client/storage"
	"github.com/atinyakov/taskmanager/internal/models"
)

const helpText = `Available commands:
  help               show this message
  profile            show your account
  add                create a task
  list [done|todo]   list tasks, newest first
  done <id>          mark a task completed
  undo <id>          mark a task not completed
  edit <id>          change a task description
  delete <id>        delete a task
  avatar <file>      upload a .png or .jpg avatar
  logout             end this session
  logout-all         end every session of the account
  exit               leave the shell`

// API is the subset of the server API the shell uses.
type API interface {
	Profile(ctx context.Context) (*models.User, error)
	CreateTask(ctx context.Context, nt models.NewTask) (*models.Task, error)
	ListTasks(ctx context.Context, q url.Values) ([]models.Task, error)
	UpdateTask(ctx context.Context, id string, fields map[string]any) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) (*models.Task, error)
	UploadAvatar(ctx context.Context, filename string, data []byte) error
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) error
}

// Shell is a read-eval-print loop over the task API.
type Shell struct {
	api     API
	session *storage.Session
	prompt  *storage.Prompter
	out     io.Writer
	// readFile loads avatar uploads.
	readFile func(string) ([]byte, error)
}

// New returns a Shell reading commands through prompt and writing to out.
func New(a API, session *storage.Session, prompt *storage.Prompter, out io.Writer) *Shell {
	return &Shell{api: a, session: session, prompt: prompt, out: out, readFile: os.ReadFile}
}

// errQuit ends the loop without an error.
var errQuit = errors.New("quit")

// Run processes commands until exit, end of input or a lost session.
func (s *Shell) Run(ctx context.Context) error {
	for {
		line, err := s.prompt.Line("taskmanager> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		err = s.exec(ctx, args)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case api.IsUnauthorized(err):
			fmt.Fprintln(s.out, "Session expired, please log in again.")
			return s.session.Clear()
		case err != nil:
			fmt.Fprintln(s.out, "Error:", err)
		}
	}
}

func (s *Shell) exec(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "profile":
		u, err := s.api.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "ID: %s\nName: %s\nEmail: %s\nAge: %d\n", u.ID, u.Name, u.Email, u.Age)
	case "add":
		nt, err := s.prompt.PromptNewTask()
		if err != nil {
			return err
		}
		t, err := s.api.CreateTask(ctx, nt)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Task created:", t.ID)
	case "list":
		return s.list(ctx, args[1:])
	case "done", "undo":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		if _, err := s.api.UpdateTask(ctx, id, map[string]any{"completed": args[0] == "done"}); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Task updated")
	case "edit":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		fields, err := s.prompt.PromptTaskEdit()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			fmt.Fprintln(s.out, "Nothing to change")
			return nil
		}
		if _, err := s.api.UpdateTask(ctx, id, fields); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Task updated")
	case "delete":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		if _, err := s.api.DeleteTask(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Task deleted")
	case "avatar":
		if len(args) < 2 {
			return errors.New("usage: avatar <file>")
		}
		data, err := s.readFile(args[1])
		if err != nil {
			return err
		}
		if err := s.api.UploadAvatar(ctx, args[1], data); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Avatar uploaded")
	case "logout", "logout-all":
		logout := s.api.Logout
		if args[0] == "logout-all" {
			logout = s.api.LogoutAll
		}
		if err := logout(ctx); err != nil {
			return err
		}
		if err := s.session.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Logged out")
		return errQuit
	case "exit":
		fmt.Fprintln(s.out, "Bye")
		return errQuit
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (s *Shell) list(ctx context.Context, args []string) error {
	q := url.Values{"sortBy": {"createdAt:desc"}}
	if len(args) > 0 {
		switch args[0] {
		case "done":
			q.Set("completed", "true")
		case "todo":
			q.Set("completed", "false")
		default:
			return errors.New("usage: list [done|todo]")
		}
	}

	tasks, err := s.api.ListTasks(ctx, q)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(s.out, "No tasks")
		return nil
	}
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(s.out, "[%s] %s  %s\n", mark, t.ID, t.Description)
	}
	return nil
}

func requireID(args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: %s <id>", args[0])
	}
	return args[1], nil
}
