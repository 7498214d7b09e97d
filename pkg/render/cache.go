package render

import (
	"github.com/rs/zerolog"

	"github.com/ospet/visual-compare-pdf/internal/cache"
	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

// CachingRenderer serves page counts and rasters from a Store and renders
// misses with Inner. Store failures are logged and never fail a render.
type CachingRenderer struct {
	Inner   compare.Renderer
	Store   *cache.Store
	Backend string
	logger  zerolog.Logger
}

// NewCachingRenderer wraps inner; backend separates entries of different renderers
func NewCachingRenderer(inner compare.Renderer, store *cache.Store, backend string, logger zerolog.Logger) *CachingRenderer {
	return &CachingRenderer{
		Inner:   inner,
		Store:   store,
		Backend: backend,
		logger:  logger.With().Str("component", "CachingRenderer").Str("backend", backend).Logger(),
	}
}

// Open defers opening the inner document while the page count is cached
func (c *CachingRenderer) Open(path string) (compare.Document, error) {
	hash, err := cache.HashFile(path)
	if err != nil {
		c.logger.Warn().Err(err).Str("file", path).Msg("Cannot hash document, rendering uncached")
		return c.Inner.Open(path)
	}

	d := &cachedDocument{
		c:    c,
		path: path,
		key:  cache.DocumentKey{FileHash: hash, Backend: c.Backend},
	}

	count, ok, err := c.Store.GetPageCount(d.key)
	if err != nil {
		c.logger.Warn().Err(err).Str("file", path).Msg("Page count lookup failed")
	}
	if ok {
		d.pages = count
		return d, nil
	}

	if err := d.open(); err != nil {
		return nil, err
	}
	d.pages = d.inner.PageCount()
	if err := c.Store.PutPageCount(d.key, d.pages); err != nil {
		c.logger.Warn().Err(err).Str("file", path).Msg("Failed to cache page count")
	}
	return d, nil
}

type cachedDocument struct {
	c     *CachingRenderer
	path  string
	key   cache.DocumentKey
	pages int
	inner compare.Document
}

func (d *cachedDocument) open() error {
	if d.inner != nil {
		return nil
	}
	inner, err := d.c.Inner.Open(d.path)
	if err != nil {
		return err
	}
	d.inner = inner
	return nil
}

func (d *cachedDocument) PageCount() int {
	return d.pages
}

func (d *cachedDocument) RenderPage(index int, opts compare.RenderOptions) (compare.PixelBuffer, error) {
	key := cache.PageKey{
		DocumentKey:   d.key,
		DPIX:          opts.DPIX,
		DPIY:          opts.DPIY,
		Antialias:     opts.Antialias,
		TextAntialias: opts.TextAntialias,
		Page:          index,
	}

	buf, ok, err := d.c.Store.GetPage(key)
	if err != nil {
		d.c.logger.Warn().Err(err).Str("key", key.String()).Msg("Page lookup failed")
	}
	if ok {
		return buf, nil
	}

	if err := d.open(); err != nil {
		return compare.PixelBuffer{}, err
	}
	buf, err = d.inner.RenderPage(index, opts)
	if err != nil {
		return compare.PixelBuffer{}, err
	}
	if err := d.c.Store.PutPage(key, buf); err != nil {
		d.c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache page")
	}
	return buf, nil
}

func (d *cachedDocument) Close() error {
	if d.inner == nil {
		return nil
	}
	return d.inner.Close()
}
