package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tibiawiki-api/pkg/infobox"
	"tibiawiki-api/pkg/logging"
	"tibiawiki-api/pkg/models"

	"golang.org/x/sync/errgroup"
)

// RetrieverOptions tunes a Retriever. Zero values select the defaults.
type RetrieverOptions struct {
	ListsCategory string
	Concurrency   int
	BatchSize     int
	Cache         *Cache
}

// Retriever reads infobox records from the wiki and writes edits back.
type Retriever struct {
	wiki          Wiki
	cache         *Cache
	listsCategory string
	concurrency   int
	batchSize     int
}

func NewRetriever(wiki Wiki, opts RetrieverOptions) *Retriever {
	r := &Retriever{
		wiki:          wiki,
		cache:         opts.Cache,
		listsCategory: opts.ListsCategory,
		concurrency:   opts.Concurrency,
		batchSize:     opts.BatchSize,
	}
	if r.cache == nil {
		r.cache = NewCache()
	}
	if r.listsCategory == "" {
		r.listsCategory = "Lists"
	}
	if r.concurrency <= 0 {
		r.concurrency = 20
	}
	if r.batchSize <= 0 {
		r.batchSize = maxTitlesPerQuery
	}
	return r
}

func (r *Retriever) Cache() *Cache { return r.cache }

// Names lists the article titles of schema's category, leaving out the
// overview pages filed under the lists category.
func (r *Retriever) Names(ctx context.Context, schema *infobox.Schema) ([]string, error) {
	members, err := r.category(ctx, schema.Category)
	if err != nil {
		return nil, err
	}
	lists, err := r.category(ctx, r.listsCategory)
	if err != nil {
		return nil, err
	}
	skip := make(map[string]bool, len(lists))
	for _, t := range lists {
		skip[t] = true
	}
	names := make([]string, 0, len(members))
	for _, t := range members {
		if !skip[t] {
			names = append(names, t)
		}
	}
	return names, nil
}

func (r *Retriever) category(ctx context.Context, category string) ([]string, error) {
	if names, ok := r.cache.Names(category); ok {
		return names, nil
	}
	names, err := r.wiki.CategoryMembers(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list category %s: %w", category, err)
	}
	r.cache.StoreNames(category, names)
	return names, nil
}

// Expand fetches and parses every article of schema's category. Batches are
// fetched concurrently; articles whose infobox does not parse are logged and
// left out. Records keep the order of the category listing.
func (r *Retriever) Expand(ctx context.Context, schema *infobox.Schema) ([]*infobox.Record, error) {
	names, err := r.Names(ctx, schema)
	if err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx).With(slog.String(logging.FieldResource, schema.Resource))

	var batches [][]string
	for start := 0; start < len(names); start += r.batchSize {
		batches = append(batches, names[start:min(start+r.batchSize, len(names))])
	}
	results := make([][]*infobox.Record, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			articles, err := r.wiki.Articles(gctx, batch)
			if err != nil {
				return err
			}
			recs := make([]*infobox.Record, 0, len(articles))
			for _, a := range articles {
				rec, err := r.parse(schema, a)
				if err != nil {
					logger.Warn("skipping article", slog.String(logging.FieldTitle, a.Title), slog.Any("error", err))
					continue
				}
				recs = append(recs, rec)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*infobox.Record
	for _, recs := range results {
		out = append(out, recs...)
	}
	logger.Debug("expanded category", slog.Int("articles", len(names)), slog.Int("records", len(out)))
	return out, nil
}

// Record fetches title and parses its infobox.
func (r *Retriever) Record(ctx context.Context, schema *infobox.Schema, title string) (*infobox.Record, error) {
	a, err := r.wiki.Article(ctx, title)
	if err != nil {
		return nil, err
	}
	return r.parse(schema, a)
}

func (r *Retriever) parse(schema *infobox.Schema, a models.Article) (*infobox.Record, error) {
	if rec, ok := r.cache.Record(schema.Template, a.Title, a.RevID); ok {
		return rec, nil
	}
	rec, _, err := schema.Parse(a.Text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Title, err)
	}
	r.cache.StoreRecord(schema.Template, a.Title, a.RevID, rec)
	return rec, nil
}

// Update writes rec back to the article named by its title field. Only the
// infobox fields that changed are rewritten; the edit is based on the
// revision that was read so a concurrent change makes the wiki reject it.
func (r *Retriever) Update(ctx context.Context, schema *infobox.Schema, rec *infobox.Record, summary string) (models.EditResult, error) {
	title := schema.Title(rec)
	if title == "" {
		return models.EditResult{}, &infobox.FieldError{Field: schema.TitleField, Err: infobox.ErrMissingField}
	}
	a, err := r.wiki.Article(ctx, title)
	if err != nil {
		return models.EditResult{}, err
	}
	text, err := schema.Edit(a.Text, rec)
	if err != nil {
		return models.EditResult{}, err
	}

	defer r.cache.Invalidate(a.Title)
	res, err := r.wiki.Edit(ctx, models.EditRequest{
		Title:         a.Title,
		Text:          text,
		Summary:       summary,
		BaseTimestamp: a.Timestamp,
	})
	if err != nil {
		return models.EditResult{}, err
	}
	logging.FromContext(ctx).Info("article edited",
		slog.String(logging.FieldTitle, a.Title),
		slog.Int64("revid", res.NewRevID),
		slog.Bool("nochange", res.NoChange))
	return res, nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrArticleNotFound) || errors.Is(err, infobox.ErrTemplateNotFound)
}
