// internal/words/words.go
//
// Themed dictionaries for the board generator.
//
// Responsibilities:
//   - Discover available themes (one `<theme>.json` file per theme).
//   - Load the `{word, clue}` entries of the requested themes on demand.
//   - Pick a random theme set for a new session (see Pick).
//
// Dictionary source:
//   DICTIONARIES_DIR=/path/to/dir  → os.DirFS(dir)
//   unset                          → embedded defaults (assets.Dictionaries)
//
// A theme that cannot be read at load time is skipped with a warning; the
// combined list may end up empty, which the generator reports as
// ErrNoWordsAvailable.

package words

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultGeneralTheme is always included when more than one theme is requested.
const DefaultGeneralTheme = "gerais"

// ErrNoThemes is returned by Open when the source holds no dictionary.
var ErrNoThemes = errors.New("words: no dictionaries found")

// Entry is one dictionary line.
type Entry struct {
	Word string `json:"word"`
	Clue string `json:"clue"`
}

// Library gives access to the themed dictionaries of a file system.
type Library struct {
	fsys    fs.FS
	themes  []string // sorted theme names
	general string
}

// Open scans fsys for `*.json` dictionaries.
// general names the theme Pick always keeps; empty means DefaultGeneralTheme.
func Open(fsys fs.FS, general string) (*Library, error) {
	matches, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, fmt.Errorf("scan dictionaries: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoThemes
	}
	themes := make([]string, 0, len(matches))
	for _, m := range matches {
		themes = append(themes, strings.TrimSuffix(path.Base(m), ".json"))
	}
	sort.Strings(themes)
	if general == "" {
		general = DefaultGeneralTheme
	}
	return &Library{fsys: fsys, themes: themes, general: general}, nil
}

// Themes returns the available theme names, sorted.
func (l *Library) Themes() []string {
	return append([]string(nil), l.themes...)
}

// General returns the configured general theme name.
func (l *Library) General() string { return l.general }

// Entries concatenates the dictionaries of themes in the given order.
// Missing or malformed themes are logged and skipped.
func (l *Library) Entries(themes []string) []Entry {
	var out []Entry
	for _, theme := range themes {
		list, err := l.readTheme(theme)
		if err != nil {
			log.Warn().Err(err).Str("theme", theme).Msg("dictionary not found, skipping theme")
			continue
		}
		out = append(out, list...)
	}
	return out
}

// readTheme decodes a single `<theme>.json` file.
func (l *Library) readTheme(theme string) ([]Entry, error) {
	data, err := fs.ReadFile(l.fsys, theme+".json")
	if err != nil {
		return nil, err
	}
	var list []Entry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode %s.json: %w", theme, err)
	}
	return list, nil
}

// Stats returns the number of themes and the total entry count.
func (l *Library) Stats() (themes int, entries int) {
	return len(l.themes), len(l.Entries(l.themes))
}
