// Package catalog builds the ranked working set of biography pages from
// category listing pages and persists it as a pipe-delimited flat file.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"WikiPagesBot/internal/domain"
	"WikiPagesBot/internal/fetch"
	"WikiPagesBot/internal/ports"
)

// CategorySpec describes one listing page to scrape. Listing pages use
// different markup shapes (plain lists, definition lists), so the link
// selector travels with the category instead of being hardcoded.
type CategorySpec struct {
	Lang     string
	Name     string
	Selector string
	Exclude  []string
}

// Builder scrapes category listings into Page records. Every page goes
// through title canonicalization and view aggregation, one HTTP round trip
// at a time; sequential on purpose to stay within polite scraping limits.
type Builder struct {
	fetcher *fetch.Client
	titles  ports.TitleResolver
	views   ports.ViewCounter
	project string
	logger  *slog.Logger
}

// NewBuilder wires the fetch client with the title and view collaborators.
func NewBuilder(fetcher *fetch.Client, titles ports.TitleResolver, views ports.ViewCounter, project string, logger *slog.Logger) *Builder {
	return &Builder{
		fetcher: fetcher,
		titles:  titles,
		views:   views,
		project: project,
		logger:  logger,
	}
}

// BuildCategory scrapes one category listing into Page records. Links whose
// href matches an exclude pattern are dropped, titles that fail to
// canonicalize are skipped, and a page whose stats cannot be retrieved is
// skipped with an error log rather than aborting the build.
func (b *Builder) BuildCategory(ctx context.Context, spec CategorySpec) ([]domain.Page, error) {
	listingURL := b.pageURL(spec.Name)

	doc, err := b.fetcher.Document(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("retrieve catalog from %s: %w", listingURL, err)
	}

	links := doc.Find(spec.Selector)
	kept := make([]*goquery.Selection, 0, links.Length())
	links.Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if excluded(href, spec.Exclude) {
			return
		}
		kept = append(kept, link)
	})
	b.logger.Info("selected wiki links",
		"category", spec.Name,
		"retrieved", links.Length(),
		"filtered_out", links.Length()-len(kept),
		"kept", len(kept),
		"url", listingURL)

	pages := make([]domain.Page, 0, len(kept))
	for _, link := range kept {
		title, _ := link.Attr("title")

		canonical, ok := b.titles.Canonical(ctx, title, b.project)
		if !ok {
			b.logger.Debug("skip link without canonical title", "title", title, "category", spec.Name)
			continue
		}

		id := strings.ReplaceAll(canonical, " ", "_")

		views, err := b.views.TotalViews(ctx, id)
		if err != nil {
			b.logger.Error("skip page without view stats", "page", id, "category", spec.Name, "error", err)
			continue
		}

		pages = append(pages, domain.Page{
			Project:  b.project,
			Category: spec.Name,
			URL:      b.pageURL(id),
			ID:       id,
			Title:    canonical,
			Views:    views,
		})
	}

	return pages, nil
}

// BuildAll concatenates the pages of every configured category, in order,
// into one catalog.
func (b *Builder) BuildAll(ctx context.Context, specs []CategorySpec) ([]domain.Page, error) {
	var pages []domain.Page
	for _, spec := range specs {
		categoryPages, err := b.BuildCategory(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", spec.Name, err)
		}
		pages = append(pages, categoryPages...)
	}
	return pages, nil
}

func (b *Builder) pageURL(name string) string {
	return fmt.Sprintf("https://%s/wiki/%s", b.project, name)
}

func excluded(href string, patterns []string) bool {
	lower := strings.ToLower(href)
	for _, pattern := range patterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
