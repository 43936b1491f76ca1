// Package cli implements the interactive terminal front end for the todo API.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-todo-api/internal/client"
	"github.com/FACorreiaa/go-todo-api/internal/types"
)

const helpText = `Commands:
  signup              create an account
  login               log in
  logout              log out and forget the stored session
  list                show your todos
  add <text>          add a todo
  done <n>            toggle todo n between done and open
  edit <n> <text>     change the text of todo n
  rm <n>              delete todo n
  undo                restore the last deleted todo
  help                show this help
  quit                exit`

// PasswordFunc reads a password without echoing it.
type PasswordFunc func() ([]byte, error)

type App struct {
	api          *client.APIClient
	list         *client.TodoList
	reader       *bufio.Reader
	out          io.Writer
	readPassword PasswordFunc
}

// New builds an App. When readPassword is nil passwords are read as plain
// lines from in.
func New(api *client.APIClient, in io.Reader, out io.Writer, readPassword PasswordFunc) *App {
	a := &App{
		api:    api,
		list:   client.NewTodoList(api),
		reader: bufio.NewReader(in),
		out:    out,
	}
	if readPassword == nil {
		readPassword = func() ([]byte, error) {
			line, err := a.readLine()
			return []byte(line), err
		}
	}
	a.readPassword = readPassword
	return a
}

// Run restores any stored session and processes commands until quit or EOF.
func (a *App) Run(ctx context.Context) error {
	sess, err := a.api.Restore(ctx)
	if err != nil {
		a.printf("Could not restore session: %v\n", err)
	}
	if sess != nil {
		a.printf("Welcome back, %s.\n", sess.User.Name)
		a.report(a.list.Refresh(ctx))
		a.printList()
	} else {
		a.printf("Type 'signup' or 'login' to start, 'help' for commands.\n")
	}

	for {
		a.prompt()
		line, err := a.readLine()
		if errors.Is(err, io.EOF) {
			if line != "" {
				a.execute(ctx, line)
			}
			a.printf("\n")
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		if quit := a.execute(ctx, line); quit {
			return nil
		}
	}
}

func (a *App) prompt() {
	if sess := a.api.Session(); sess != nil {
		a.printf("%s> ", sess.User.Email)
		return
	}
	a.printf("> ")
}

// execute runs one command line and reports whether the user asked to quit.
func (a *App) execute(ctx context.Context, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		a.printf("%s\n", helpText)
	case "signup":
		a.signup(ctx)
	case "login":
		a.login(ctx)
	case "logout":
		ok := a.report(a.api.Logout(ctx))
		a.list = client.NewTodoList(a.api)
		if ok {
			a.printf("Logged out.\n")
		} else {
			a.printf("Logged out locally.\n")
		}
	case "list":
		if a.report(a.list.Refresh(ctx)) {
			a.printList()
		}
	case "add":
		_, err := a.list.Add(ctx, rest)
		if a.report(err) {
			a.printList()
		}
	case "done":
		a.withTodo(rest, func(t types.Todo) error {
			_, err := a.list.Toggle(ctx, t.ID)
			return err
		})
	case "edit":
		n, text, _ := strings.Cut(rest, " ")
		a.withTodo(n, func(t types.Todo) error {
			_, err := a.list.Edit(ctx, t.ID, strings.TrimSpace(text))
			return err
		})
	case "rm":
		a.withTodo(rest, func(t types.Todo) error {
			if err := a.list.Remove(ctx, t.ID); err != nil {
				return err
			}
			a.printf("Task deleted. Type 'undo' to restore it.\n")
			return nil
		})
	case "undo":
		_, err := a.list.Undo(ctx)
		if a.report(err) {
			a.printList()
		}
	default:
		a.printf("Unknown command %q, type 'help'.\n", cmd)
	}
	return false
}

func (a *App) signup(ctx context.Context) {
	name := a.ask("Name: ")
	email := a.ask("Email: ")
	password, ok := a.askPassword()
	if !ok {
		return
	}
	user, err := a.api.Signup(ctx, name, email, password)
	if a.report(err) {
		a.printf("Account created for %s. You can now log in.\n", user.Email)
	}
}

func (a *App) login(ctx context.Context) {
	email := a.ask("Email: ")
	password, ok := a.askPassword()
	if !ok {
		return
	}
	sess, err := a.api.Login(ctx, email, password)
	if !a.report(err) {
		return
	}
	a.list = client.NewTodoList(a.api)
	a.printf("Logged in as %s.\n", sess.User.Name)
	if a.report(a.list.Refresh(ctx)) {
		a.printList()
	}
}

// withTodo resolves a 1-based list position and applies fn to that todo.
func (a *App) withTodo(arg string, fn func(types.Todo) error) {
	items := a.list.Items()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(items) {
		a.printf("Give a todo number between 1 and %d.\n", len(items))
		return
	}
	if a.report(fn(items[n-1])) {
		a.printList()
	}
}

func (a *App) printList() {
	items := a.list.Items()
	if len(items) == 0 {
		a.printf("No todos yet.\n")
		return
	}
	for i, t := range items {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		a.printf("%3d. [%s] %s\n", i+1, mark, t.Text)
	}
}

// report prints err for the user and returns true when there was none.
func (a *App) report(err error) bool {
	var apiErr *client.APIError
	switch {
	case err == nil:
		return true
	case errors.Is(err, client.ErrSessionExpired):
		a.list = client.NewTodoList(a.api)
		a.printf("Your session has expired. Please log in again.\n")
	case errors.Is(err, client.ErrNotLoggedIn):
		a.printf("Login first.\n")
	case errors.As(err, &apiErr):
		a.printf("%s\n", apiErr.Message)
	case errors.Is(err, client.ErrEmptyText):
		a.printf("Text is required.\n")
	case errors.Is(err, client.ErrNothingToUndo):
		a.printf("Nothing to undo.\n")
	default:
		a.printf("Error: %v\n", err)
	}
	return false
}

func (a *App) ask(prompt string) string {
	a.printf("%s", prompt)
	line, _ := a.readLine()
	return line
}

func (a *App) askPassword() (string, bool) {
	a.printf("Password: ")
	pw, err := a.readPassword()
	a.printf("\n")
	if err != nil {
		a.printf("Could not read password: %v\n", err)
		return "", false
	}
	return string(pw), true
}

func (a *App) readLine() (string, error) {
	line, err := a.reader.ReadString('\n')
	return strings.TrimSpace(line), err
}

func (a *App) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
