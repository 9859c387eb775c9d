package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/models"
)

// searchWait bounds how long the search command waits past the debounce
// period for results.
const searchWait = 3 * time.Second

func parseID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, usageError(usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError(usage)
	}
	return id, nil
}

// List prints the browse screen one page at a time. The page size comes
// from settings.
func (a *App) List(ctx context.Context, args []string) error {
	if _, err := a.session(); err != nil {
		return err
	}
	if a.browser == nil {
		if err := a.openBrowser(ctx); err != nil {
			return err
		}
	}

	page := 1
	if len(args) > 0 {
		p, err := strconv.Atoi(args[0])
		if err != nil || p < 1 {
			return usageError("list [page]")
		}
		page = p
	}

	size, err := a.settings.PageSize(ctx)
	if err != nil {
		return err
	}

	if q := a.browser.Query(); q != "" {
		a.printf("Filter: %q (type 'search' to clear)\n", q)
	}
	a.printPage(a.browser.Results(), page, size)
	return nil
}

// Search sets the browse query. Without text the filter is cleared.
func (a *App) Search(ctx context.Context, args []string) error {
	if _, err := a.session(); err != nil {
		return err
	}
	if a.browser == nil {
		if err := a.openBrowser(ctx); err != nil {
			return err
		}
	}

	results, cancel := a.browser.Subscribe()
	defer cancel()
	<-results

	a.browser.SetQuery(strings.Join(args, " "))
	// drop a refresh published before the query changed
	select {
	case <-results:
	default:
	}

	var list []models.PasswordEntry
	select {
	case list = <-results:
	case <-time.After(a.config.SearchDebounce + searchWait):
		list = a.browser.Results()
	case <-ctx.Done():
		return ctx.Err()
	}

	size, err := a.settings.PageSize(ctx)
	if err != nil {
		return err
	}
	a.printPage(list, 1, size)
	return nil
}

// Show prints the detail screen of one entry, including the password.
func (a *App) Show(ctx context.Context, args []string) error {
	id, err := parseID(args, "show <id>")
	if err != nil {
		return err
	}
	sess, err := a.session()
	if err != nil {
		return err
	}

	d, err := a.entries.Get(ctx, sess, id)
	if err != nil {
		return err
	}
	a.printDetail(d)
	return nil
}

// Add prompts for a new entry.
func (a *App) Add(ctx context.Context, _ []string) error {
	sess, err := a.session()
	if err != nil {
		return err
	}

	account, err := GetSimpleText(a.reader, "Account", a.out)
	if err != nil {
		return err
	}
	password, err := a.promptPassword("Password")
	if err != nil {
		return err
	}
	comment, err := GetSimpleText(a.reader, "Comment (optional)", a.out)
	if err != nil {
		return err
	}

	id, err := a.entries.Create(ctx, sess, account, password, comment)
	if err != nil {
		return err
	}
	a.printf("Saved entry %d\n", id)
	return nil
}

// Edit prompts for new values of an entry. Empty input keeps the current
// value.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := parseID(args, "edit <id>")
	if err != nil {
		return err
	}
	sess, err := a.session()
	if err != nil {
		return err
	}

	d, err := a.entries.Get(ctx, sess, id)
	if err != nil {
		return err
	}

	account, err := GetSimpleText(a.reader, fmt.Sprintf("Account [%s]", d.Account), a.out)
	if err != nil {
		return err
	}
	password, err := a.promptPassword("Password (empty keeps current)")
	if err != nil {
		return err
	}
	comment, err := GetSimpleText(a.reader, fmt.Sprintf("Comment [%s]", d.Comment), a.out)
	if err != nil {
		return err
	}

	if account != "" {
		d.Account = account
	}
	if password != "" {
		d.Password = password
	}
	if comment != "" {
		d.Comment = comment
	}

	if err := a.entries.Update(ctx, sess, *d); err != nil {
		return err
	}
	a.printf("Updated entry %d\n", id)
	return nil
}

// Delete removes an entry after confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(args, "delete <id>")
	if err != nil {
		return err
	}
	sess, err := a.session()
	if err != nil {
		return err
	}

	d, err := a.entries.Get(ctx, sess, id)
	if err != nil {
		return err
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %q?", d.Account), a.out)
	if err != nil {
		return err
	}
	if !ok {
		a.println("Cancelled")
		return nil
	}

	if err := a.entries.Delete(ctx, sess, id); err != nil {
		return err
	}
	a.printf("Deleted entry %d\n", id)
	return nil
}
