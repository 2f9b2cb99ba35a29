// Package assets embeds the default theme dictionaries and SQL migrations.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed dictionaries/*.json migrations/*.sql
var FS embed.FS

// Dictionaries returns the embedded dictionaries rooted at the theme files.
func Dictionaries() fs.FS {
	sub, err := fs.Sub(FS, "dictionaries")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrations returns the embedded *.sql migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
