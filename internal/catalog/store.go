package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"WikiPagesBot/internal/domain"
)

const fieldCount = 6

// FormatError reports a catalog file that does not match the expected
// delimited shape. It is fatal to the run: a malformed catalog cannot be
// partially trusted.
type FormatError struct {
	Path   string
	Line   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("catalog file %s: %s: %q", e.Path, e.Reason, e.Line)
}

// Header returns the human-display column header. It is never written to
// the catalog file.
func Header() string {
	return strings.Join([]string{"url", "id", "title", "views"}, domain.Delimiter)
}

// Store reads and writes the catalog flat file, one pipe-delimited page
// per line in catalog order.
type Store struct {
	logger *slog.Logger
}

// NewStore wires a logger.
func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// Save overwrites path with one line per page. A delimiter inside a field
// is a programming-contract violation and fails the whole export.
func (s *Store) Save(pages []domain.Page, path string) error {
	var sb strings.Builder
	for _, page := range pages {
		line, err := marshalPage(page)
		if err != nil {
			return fmt.Errorf("export catalog to %s: %w", path, err)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("export catalog to %s: %w", path, err)
	}

	s.logger.Info("exported wiki pages", "count", len(pages), "path", path)
	return nil
}

// Load reads the whole catalog back. Any line that is not exactly six
// delimited fields with an integer views token is a FormatError.
func (s *Store) Load(path string) ([]domain.Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}

	var pages []domain.Page
	for _, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		page, err := parsePage(path, line)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func marshalPage(page domain.Page) (string, error) {
	if err := page.Validate(); err != nil {
		return "", err
	}
	return strings.Join([]string{
		page.Project,
		page.Category,
		page.URL,
		page.ID,
		page.Title,
		strconv.Itoa(page.Views),
	}, domain.Delimiter), nil
}

func parsePage(path, line string) (domain.Page, error) {
	tokens := strings.Split(line, domain.Delimiter)
	if len(tokens) != fieldCount {
		return domain.Page{}, &FormatError{
			Path:   path,
			Line:   line,
			Reason: fmt.Sprintf("line has %d fields while %d are expected", len(tokens), fieldCount),
		}
	}

	views, err := strconv.Atoi(tokens[5])
	if err != nil {
		return domain.Page{}, &FormatError{
			Path:   path,
			Line:   line,
			Reason: fmt.Sprintf("number of views %q is not an integer", tokens[5]),
		}
	}

	return domain.Page{
		Project:  tokens[0],
		Category: tokens[1],
		URL:      tokens[2],
		ID:       tokens[3],
		Title:    tokens[4],
		Views:    views,
	}, nil
}
