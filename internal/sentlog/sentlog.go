// Package sentlog tracks previously announced pages in an append-only flat
// file and selects the next unsent page from a ranked working set.
package sentlog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"WikiPagesBot/internal/domain"
)

// timestampLayout has no timezone suffix and, more importantly, no
// delimiter character.
const timestampLayout = "2006-01-02T15:04:05"

// ExhaustedError means every known page of a category has already been
// announced. The operator has to rebuild or extend the catalog; there is no
// automatic fallback.
type ExhaustedError struct {
	Category string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("every known page for category %s has already been sent", e.Category)
}

// TokenSet is the flat set of all delimiter-separated tokens across all
// historical log lines. Membership is deliberately liberal: a token counts
// as sent no matter which field of which line it appeared in.
type TokenSet map[string]struct{}

// Contains reports whether token appeared anywhere in the log.
func (s TokenSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Log is the append-only announcement record file. Append is the only
// mutation it ever undergoes.
type Log struct {
	path   string
	logger *slog.Logger
}

// New wires the log file path.
func New(path string, logger *slog.Logger) *Log {
	return &Log{path: path, logger: logger}
}

// Tokens reads the whole log into a TokenSet. A missing file is an empty
// log, not an error.
func (l *Log) Tokens() (TokenSet, error) {
	raw, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return TokenSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sent log %s: %w", l.path, err)
	}

	tokens := TokenSet{}
	for _, line := range strings.Split(string(raw), "\n") {
		for _, token := range strings.Split(line, domain.Delimiter) {
			if token != "" {
				tokens[token] = struct{}{}
			}
		}
	}
	return tokens, nil
}

// Append records one announcement as a single delimited line, creating the
// file if absent.
func (l *Log) Append(rec domain.Announcement) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open sent log %s: %w", l.path, err)
	}

	line := strings.Join([]string{
		rec.Timestamp.Format(timestampLayout),
		rec.PageID,
		rec.URL,
	}, domain.Delimiter)
	l.logger.Info("record announcement", "line", line)

	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append to sent log %s: %w", l.path, err)
	}
	return f.Close()
}

// Rank orders pages by views descending; ties keep their catalog order so
// selection stays deterministic.
func Rank(pages []domain.Page) []domain.Page {
	ranked := make([]domain.Page, len(pages))
	copy(ranked, pages)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Views > ranked[j].Views
	})
	return ranked
}

// PickNextUnsent walks the ranked working set from the top and returns the
// first page whose id is not among the sent tokens.
func PickNextUnsent(category string, ranked []domain.Page, sent TokenSet) (domain.Page, error) {
	for _, page := range ranked {
		if !sent.Contains(page.ID) {
			return page, nil
		}
	}
	return domain.Page{}, &ExhaustedError{Category: category}
}
