package cli

import (
	"context"
	"strconv"
)

// Settings shows the settings screen, or stores a new page size.
func (a *App) Settings(ctx context.Context, args []string) error {
	if _, err := a.session(); err != nil {
		return err
	}

	if len(args) == 0 {
		s, err := a.settings.Get(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			size, err := a.settings.PageSize(ctx)
			if err != nil {
				return err
			}
			a.printf("Page size: %d (default)\n", size)
			return nil
		}
		a.printf("Page size: %d (changed %s)\n", s.Size, s.LastModified.Format(timeLayout))
		return nil
	}

	if len(args) > 1 {
		return usageError("settings [size]")
	}
	size, err := strconv.Atoi(args[0])
	if err != nil {
		return usageError("settings [size]")
	}

	found, err := a.settings.UpdateSize(ctx, size)
	if err != nil {
		return err
	}
	if !found {
		if err := a.settings.Persist(ctx, size); err != nil {
			return err
		}
	}
	a.printf("Page size set to %d\n", size)
	return nil
}

// Backup uploads the user's entries to cloud storage and prints the key
// needed to restore them.
func (a *App) Backup(ctx context.Context, _ []string) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	key, err := a.backup.Export(ctx, sess)
	if err != nil {
		return err
	}
	a.println("Backup stored as", key)
	return nil
}

// Restore adds the entries of a backup to the vault.
func (a *App) Restore(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("restore <key>")
	}
	sess, err := a.session()
	if err != nil {
		return err
	}
	n, err := a.backup.Import(ctx, sess, args[0])
	if err != nil {
		return err
	}
	a.printf("Restored %d entries\n", n)
	return nil
}
