// Package migrations embeds the goose schema migrations of both back-ends.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// SQLite returns the migrations for the sqlite3 dialect.
func SQLite() fs.FS {
	return sub("sqlite")
}

// Postgres returns the migrations for the postgres dialect.
func Postgres() fs.FS {
	return sub("postgres")
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		// the directories are embedded at build time
		panic(err)
	}
	return f
}
