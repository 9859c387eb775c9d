package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/pmanager/internal/models"
)

const timeLayout = "2006-01-02 15:04"

// printPage prints page (1-based) of list as a table.
func (a *App) printPage(list []models.PasswordEntry, page, size int) {
	if len(list) == 0 {
		a.println("No entries")
		return
	}

	pages := (len(list) + size - 1) / size
	if page > pages {
		page = pages
	}
	from := (page - 1) * size
	to := min(from+size, len(list))

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACCOUNT\tCOMMENT\tCREATED")
	for _, e := range list[from:to] {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Account, oneLine(e.Comment), e.CreatedAt.Format(timeLayout))
	}
	_ = tw.Flush()

	if pages > 1 {
		a.printf("Page %d/%d (%d entries)\n", page, pages, len(list))
	}
}

func (a *App) printDetail(d *models.EntryDetail) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", d.ID)
	fmt.Fprintf(tw, "Account:\t%s\n", d.Account)
	fmt.Fprintf(tw, "Password:\t%s\n", d.Password)
	fmt.Fprintf(tw, "Comment:\t%s\n", d.Comment)
	fmt.Fprintf(tw, "Created:\t%s\n", d.CreatedAt.Format(timeLayout))
	_ = tw.Flush()
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}
