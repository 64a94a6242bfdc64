package domain

import (
	"fmt"
	"strings"
	"time"
)

// Delimiter separates fields in the catalog file and the sent-log file.
const Delimiter = "|"

// Page is a single catalogued wiki biography article. Views is the
// aggregated number of page views over the configured date window and
// ranks the page inside its category.
type Page struct {
	Project  string
	Category string
	URL      string
	ID       string
	Title    string
	Views    int
}

// Validate enforces the flat-file contract: no textual field may contain
// the delimiter and the view count may not be negative. A violation means
// upstream data slipped through, not bad user input.
func (p Page) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"project", p.Project},
		{"category", p.Category},
		{"url", p.URL},
		{"id", p.ID},
		{"title", p.Title},
	}
	for _, f := range fields {
		if strings.Contains(f.value, Delimiter) {
			return fmt.Errorf("page %s: %s contains the field delimiter: %s", p.ID, f.name, f.value)
		}
	}
	if p.Views < 0 {
		return fmt.Errorf("page %s: views is negative: %d", p.ID, p.Views)
	}
	return nil
}

// Announcement is one sent-log record: a page announced to subscribers.
type Announcement struct {
	Timestamp time.Time
	PageID    string
	URL       string
}
