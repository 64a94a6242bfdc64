package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"WikiPagesBot/internal/catalog"
	"WikiPagesBot/internal/config"
	"WikiPagesBot/internal/domain"
	"WikiPagesBot/internal/fetch"
	"WikiPagesBot/internal/ports"
	"WikiPagesBot/internal/sentlog"
)

// PipelineDeps wires all collaborators into the orchestration pipeline.
type PipelineDeps struct {
	Builder    *catalog.Builder
	Store      *catalog.Store
	SentLog    *sentlog.Log
	Notifier   ports.Notifier
	Fetcher    *fetch.Client
	Categories []config.CategoryConfig
	ExportPath string
	ImportPath string
	Logger     *slog.Logger
}

// Pipeline implements the two workflows of the bot: the offline catalog
// export and the daily select-announce-record cycle.
type Pipeline struct {
	builder    *catalog.Builder
	store      *catalog.Store
	sentLog    *sentlog.Log
	notifier   ports.Notifier
	fetcher    *fetch.Client
	categories []config.CategoryConfig
	exportPath string
	importPath string
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		builder:    deps.Builder,
		store:      deps.Store,
		sentLog:    deps.SentLog,
		notifier:   deps.Notifier,
		fetcher:    deps.Fetcher,
		categories: deps.Categories,
		exportPath: deps.ExportPath,
		importPath: deps.ImportPath,
		logger:     deps.Logger,
	}
}

// ExportCatalog scrapes every configured category and overwrites the
// catalog file with the assembled pages.
func (p *Pipeline) ExportCatalog(ctx context.Context) error {
	pages, err := p.builder.BuildAll(ctx, p.categorySpecs())
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	if err := p.store.Save(pages, p.exportPath); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// AnnounceDaily performs one full selection cycle: load catalog and sent
// log, pick the category of the day, select the highest-viewed unsent page,
// announce it, record it. Nothing is recorded unless the send succeeded.
func (p *Pipeline) AnnounceDaily(ctx context.Context, now time.Time) error {
	pages, err := p.store.Load(p.importPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	category := p.categoryOfDay(now)
	p.logger.Info("language of the day", "day", now.Day(), "lang", category.Lang, "category", category.Name)

	ranked := sentlog.Rank(pagesOfCategory(pages, category.Name))

	sent, err := p.sentLog.Tokens()
	if err != nil {
		return fmt.Errorf("load sent log: %w", err)
	}

	page, err := sentlog.PickNextUnsent(category.Name, ranked, sent)
	if err != nil {
		return err
	}

	pageURL := p.nativeLanguageURL(ctx, category.Lang, page)
	p.logger.Info("wiki page of the day", "lang", category.Lang, "url", pageURL)

	if err := p.notifier.Announce(ctx, pageURL); err != nil {
		return fmt.Errorf("announce page %s: %w", page.ID, err)
	}

	rec := domain.Announcement{Timestamp: now, PageID: page.ID, URL: pageURL}
	if err := p.sentLog.Append(rec); err != nil {
		return fmt.Errorf("record announcement: %w", err)
	}
	return nil
}

func (p *Pipeline) categoryOfDay(now time.Time) config.CategoryConfig {
	return p.categories[now.Day()%len(p.categories)]
}

// nativeLanguageURL tries to swap the selected article URL for its
// interwiki counterpart in the day's language. Any failure falls back to
// the catalogued URL; a missing translation is common, not an error.
func (p *Pipeline) nativeLanguageURL(ctx context.Context, lang string, page domain.Page) string {
	pageURL := page.URL
	if !strings.HasPrefix(pageURL, "http") {
		pageURL = "https://" + pageURL
	}
	if lang == "en" && strings.Contains(pageURL, "en.wikipedia") {
		return pageURL
	}

	doc, err := p.fetcher.Document(ctx, pageURL)
	if err != nil {
		p.logger.Info("could not load page for native language lookup", "lang", lang, "url", pageURL, "error", err)
		return pageURL
	}

	selector := fmt.Sprintf("div#p-lang > div > ul > li > a[lang=%s]", lang)
	href, ok := doc.Find(selector).First().Attr("href")
	if !ok {
		p.logger.Info("could not find page in native language", "lang", lang, "url", pageURL)
		return pageURL
	}
	return href
}

func (p *Pipeline) categorySpecs() []catalog.CategorySpec {
	specs := make([]catalog.CategorySpec, 0, len(p.categories))
	for _, cat := range p.categories {
		specs = append(specs, catalog.CategorySpec{
			Lang:     cat.Lang,
			Name:     cat.Name,
			Selector: cat.Selector,
			Exclude:  cat.Exclude,
		})
	}
	return specs
}

func pagesOfCategory(pages []domain.Page, category string) []domain.Page {
	var matched []domain.Page
	for _, page := range pages {
		if page.Category == category {
			matched = append(matched, page)
		}
	}
	return matched
}
