package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/TaskTracker/internal/models"
)

const helpText = `Available commands:
  register                 create an account and log in
  login                    log in with email and password
  logout                   end this session
  logout-all               end every session of the account
  me                       show the profile
  rename <name>            change the display name
  delete-account           delete the account and all tasks
  add <description>        create a task
  list [completed=true|false] [sort=field[:asc|desc]] [limit=n] [skip=n]
  get <id>                 show one task
  done <id> | undo <id>    mark a task completed or not
  edit <id> <description>  change a task's description
  delete <id>              remove a task
  exit`

// Shell is the interactive command loop of the CLI client.
type Shell struct {
	Client  *Client
	Session SessionFile
	BaseURL string
	In      *bufio.Reader
	Out     io.Writer
}

// Run reads commands until "exit" or end of input.
func (s *Shell) Run(ctx context.Context) error {
	for {
		fmt.Fprint(s.Out, "tasks> ")
		line, err := s.In.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		args := strings.Fields(line)
		if len(args) > 0 {
			if args[0] == "exit" {
				fmt.Fprintln(s.Out, "Bye")
				return nil
			}
			if cmdErr := s.exec(ctx, args); cmdErr != nil {
				fmt.Fprintln(s.Out, "error:", cmdErr)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (s *Shell) exec(ctx context.Context, args []string) error {
	rest := strings.Join(args[1:], " ")

	switch args[0] {
	case "help":
		fmt.Fprintln(s.Out, helpText)
		return nil
	case "register":
		return s.register(ctx)
	case "login":
		return s.login(ctx)
	case "logout":
		if err := s.Client.Logout(ctx); err != nil {
			return err
		}
		return s.Session.Clear()
	case "logout-all":
		if err := s.Client.LogoutAll(ctx); err != nil {
			return err
		}
		return s.Session.Clear()
	case "me":
		u, err := s.Client.Me(ctx)
		if err != nil {
			return err
		}
		return s.print(u)
	case "rename":
		if rest == "" {
			return errors.New("usage: rename <name>")
		}
		u, err := s.Client.UpdateMe(ctx, models.UserPatch{Name: &rest})
		if err != nil {
			return err
		}
		return s.print(u)
	case "delete-account":
		u, err := s.Client.DeleteMe(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.Out, "Account %s deleted\n", u.Email)
		return s.Session.Clear()
	case "add":
		if rest == "" {
			return errors.New("usage: add <description>")
		}
		t, err := s.Client.CreateTask(ctx, models.NewTask{Description: rest})
		if err != nil {
			return err
		}
		return s.print(t)
	case "list":
		opts, err := parseListArgs(args[1:])
		if err != nil {
			return err
		}
		tasks, err := s.Client.ListTasks(ctx, opts)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			fmt.Fprintf(s.Out, "[%s] %s  %s\n", mark, t.ID, t.Description)
		}
		return nil
	}

	if len(args) < 2 {
		if isTaskCommand(args[0]) {
			return fmt.Errorf("usage: %s <id>", args[0])
		}
		return fmt.Errorf("unknown command %q, type 'help' for a list of commands", args[0])
	}
	id := args[1]
	var (
		t   *models.Task
		err error
	)
	switch args[0] {
	case "get":
		t, err = s.Client.GetTask(ctx, id)
	case "done", "undo":
		completed := args[0] == "done"
		t, err = s.Client.UpdateTask(ctx, id, models.TaskPatch{Completed: &completed})
	case "edit":
		desc := strings.Join(args[2:], " ")
		t, err = s.Client.UpdateTask(ctx, id, models.TaskPatch{Description: &desc})
	case "delete":
		t, err = s.Client.DeleteTask(ctx, id)
		if err == nil {
			fmt.Fprintln(s.Out, "Task deleted")
		}
	default:
		return fmt.Errorf("unknown command %q, type 'help' for a list of commands", args[0])
	}
	if err != nil {
		return err
	}
	return s.print(t)
}

func isTaskCommand(cmd string) bool {
	switch cmd {
	case "get", "done", "undo", "edit", "delete":
		return true
	}
	return false
}

func (s *Shell) register(ctx context.Context) error {
	name, err := GetSimpleText(s.In, "Name", s.Out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(s.In, "Email", s.Out)
	if err != nil {
		return err
	}
	password, err := GetPassword(s.In, s.Out)
	if err != nil {
		return err
	}
	u, err := s.Client.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Welcome, %s\n", u.Name)
	return s.Session.Save(SavedSession{BaseURL: s.BaseURL, Email: u.Email, Token: s.Client.Token()})
}

func (s *Shell) login(ctx context.Context) error {
	email, err := GetSimpleText(s.In, "Email", s.Out)
	if err != nil {
		return err
	}
	password, err := GetPassword(s.In, s.Out)
	if err != nil {
		return err
	}
	u, err := s.Client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Logged in as %s\n", u.Email)
	return s.Session.Save(SavedSession{BaseURL: s.BaseURL, Email: u.Email, Token: s.Client.Token()})
}

func (s *Shell) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.Out, string(b))
	return nil
}

func parseListArgs(args []string) (ListOptions, error) {
	var opts ListOptions
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return ListOptions{}, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch key {
		case "completed":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return ListOptions{}, fmt.Errorf("completed: %w", err)
			}
			opts.Completed = &b
		case "sort":
			opts.SortBy = value
		case "limit", "skip":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return ListOptions{}, fmt.Errorf("%s must be a non-negative integer", key)
			}
			if key == "limit" {
				opts.Limit = n
			} else {
				opts.Skip = n
			}
		default:
			return ListOptions{}, fmt.Errorf("unknown list option %q", key)
		}
	}
	return opts, nil
}
