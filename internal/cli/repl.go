package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/pmanager/internal/common"
	"github.com/dmitrijs2005/pmanager/internal/services"
)

// commander is the command surface the REPL dispatches to. App satisfies
// it; tests use a stub.
type commander interface {
	isLoggedIn() bool
	Register(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Passwd(ctx context.Context, args []string) error
	Settings(ctx context.Context, args []string) error
	Backup(ctx context.Context, args []string) error
	Restore(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, help, exit"
	helpLoggedIn  = "Available commands: (l)ist [page], search [text], show <id>, add, edit <id>, delete <id>,\n" +
		"  profile, rename, passwd, settings [size], backup, restore <key>, logout, help, exit"
)

// runREPL reads commands from reader until EOF or "exit"/"quit" and
// dispatches them to a. The prompt is "pm (<user>)> " while logged in.
// Handler errors are printed and the loop goes on.
func runREPL(ctx context.Context, a commander, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		if status := statusFn(); status != "" {
			fmt.Fprintf(w, "pm (%s)> ", status)
		} else {
			fmt.Fprint(w, "pm> ")
		}

		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var handler func(context.Context, []string) error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpLoggedOut)
			}
		case "register":
			handler = a.Register
		case "login":
			handler = a.Login
		case "logout":
			handler = a.Logout
		case "l", "list":
			handler = a.List
		case "search":
			handler = a.Search
		case "show":
			handler = a.Show
		case "add":
			handler = a.Add
		case "edit":
			handler = a.Edit
		case "delete":
			handler = a.Delete
		case "profile":
			handler = a.Profile
		case "rename":
			handler = a.Rename
		case "passwd":
			handler = a.Passwd
		case "settings":
			handler = a.Settings
		case "backup":
			handler = a.Backup
		case "restore":
			handler = a.Restore
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if handler == nil {
			continue
		}
		if err := handler(ctx, args); err != nil {
			fmt.Fprintln(w, describe(err))
		}
	}
}

// usageError is returned for malformed command arguments.
type usageError string

func (e usageError) Error() string { return "Usage: " + string(e) }

// describe turns an error into the message shown to the user.
func describe(err error) string {
	var (
		authErr  *services.AuthError
		validErr *common.ValidationError
		usage    usageError
	)
	switch {
	case errors.As(err, &usage):
		return usage.Error()
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &validErr):
		return validErr.Reason
	case errors.Is(err, common.ErrSessionExpired):
		return "Session expired, please log in again"
	case errors.Is(err, common.ErrUnauthorized):
		return "Please log in first"
	case errors.Is(err, common.ErrBackupDisabled):
		return "Cloud backup is not configured"
	case errors.Is(err, common.ErrCredential):
		return "Backup cannot be opened with your password"
	case errors.Is(err, common.ErrNotFound):
		return "Not found"
	case errors.Is(err, io.EOF):
		return "Input closed"
	default:
		return "Error: " + err.Error()
	}
}
