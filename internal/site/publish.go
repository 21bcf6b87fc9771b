// Package site renders the statistics page and republishes it to the blob
// backend.
package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/wkncstats/spinstats/internal/blob"
	"github.com/wkncstats/spinstats/internal/stats"
	"github.com/wkncstats/spinstats/web"
)

const (
	pageTemplate    = "templates/index.html"
	pageContentType = "text/html"
)

// pageData is what the template sees. Referencing any name not defined here
// fails the render, so a template drift is a hard error rather than a blank.
type pageData struct {
	TrendingArtists []stats.Entry
	TopArtists      []stats.Entry
	TopSongs        []stats.SongEntry
	UpdatedAt       string
}

// Publisher renders the stats report into HTML and writes it to one blob.
type Publisher struct {
	blob   blob.Store
	bucket string
	key    string
	tmpl   *template.Template
	now    func() time.Time
	log    zerolog.Logger
}

// New creates a publisher targeting bucket/key, parsing the embedded page
// template.
func New(b blob.Store, bucket, key string, log zerolog.Logger) (*Publisher, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		// Artist and song text is HTML-escaped at ingestion; raw keeps the
		// renderer from escaping it a second time.
		"raw": func(s string) template.HTML { return template.HTML(s) },
	}).ParseFS(web.TemplatesFS, pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	return &Publisher{
		blob:   b,
		bucket: bucket,
		key:    key,
		tmpl:   tmpl,
		now:    time.Now,
		log:    log,
	}, nil
}

// Publish renders the report and overwrites the published page.
func (p *Publisher) Publish(ctx context.Context, report *stats.Report) error {
	p.log.Info().Str("bucket", p.bucket).Str("key", p.key).Msg("updating website")

	var buf bytes.Buffer
	data := pageData{
		TrendingArtists: report.TrendingArtists,
		TopArtists:      report.TopArtists,
		TopSongs:        report.TopSongs,
		UpdatedAt:       p.now().UTC().Format("2006-01-02 15:04 UTC"),
	}
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	if err := p.blob.Put(ctx, p.bucket, p.key, buf.Bytes(), pageContentType); err != nil {
		return fmt.Errorf("publishing page: %w", err)
	}

	p.log.Info().Msg("updated website")
	return nil
}
