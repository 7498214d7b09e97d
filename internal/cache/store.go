// Package cache keeps rendered pages between runs in a badger key/value store
package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog"

	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

// pageMagic prefixes every stored page value
var pageMagic = []byte("VCP1")

// Bounds on the dimensions accepted from a stored header. maxPixels matches
// the largest page the native rasterizer produces.
const (
	maxSide   = 1 << 15
	maxPixels = 1 << 26
)

// ErrCorrupt is returned for values that do not decode as a cached page
var ErrCorrupt = errors.New("corrupt cache entry")

// Store wraps a badger database holding page rasters and page counts
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) the cache at dir. An empty dir keeps the cache in memory.
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open render cache: %w", err)
	}
	logger = logger.With().Str("component", "RenderCache").Logger()
	logger.Debug().Str("dir", dir).Msg("Render cache opened")
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// GetPage returns the cached raster for key; ok is false on a miss
func (s *Store) GetPage(key PageKey) (buf compare.PixelBuffer, ok bool, err error) {
	var raw []byte
	ok, err = s.get(key.String(), &raw)
	if !ok || err != nil {
		return compare.PixelBuffer{}, ok, err
	}
	buf, err = decodePage(raw)
	if err != nil {
		return compare.PixelBuffer{}, false, fmt.Errorf("page %s: %w", key, err)
	}
	return buf, true, nil
}

// PutPage stores a raster under key
func (s *Store) PutPage(key PageKey, buf compare.PixelBuffer) error {
	val, err := encodePage(buf)
	if err != nil {
		return err
	}
	return s.set(key.String(), val)
}

// GetPageCount returns the cached page count for a document
func (s *Store) GetPageCount(key DocumentKey) (int, bool, error) {
	var raw []byte
	ok, err := s.get(key.String(), &raw)
	if !ok || err != nil {
		return 0, ok, err
	}
	if len(raw) != 4 {
		return 0, false, fmt.Errorf("page count %s: %w", key, ErrCorrupt)
	}
	return int(binary.BigEndian.Uint32(raw)), true, nil
}

// PutPageCount stores the page count of a document
func (s *Store) PutPageCount(key DocumentKey, count int) error {
	if count < 0 {
		return fmt.Errorf("invalid page count %d", count)
	}
	val := binary.BigEndian.AppendUint32(nil, uint32(count))
	return s.set(key.String(), val)
}

func (s *Store) get(key string, out *[]byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		*out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		s.logger.Debug().Str("key", key).Msg("Cache miss")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Msg("Cache hit")
	return true, nil
}

func (s *Store) set(key string, val []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// encodePage lays out magic | u32 width | u32 height | lz4(pix)
func encodePage(buf compare.PixelBuffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	out.Write(pageMagic)
	out.Write(binary.BigEndian.AppendUint32(nil, uint32(buf.Width)))
	out.Write(binary.BigEndian.AppendUint32(nil, uint32(buf.Height)))

	zw := lz4.NewWriter(&out)
	if _, err := zw.Write(buf.Pix); err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}
	return out.Bytes(), nil
}

func decodePage(raw []byte) (compare.PixelBuffer, error) {
	if len(raw) < 12 || !bytes.Equal(raw[:4], pageMagic) {
		return compare.PixelBuffer{}, ErrCorrupt
	}
	w := int(binary.BigEndian.Uint32(raw[4:8]))
	h := int(binary.BigEndian.Uint32(raw[8:12]))
	if w > maxSide || h > maxSide || w*h > maxPixels {
		return compare.PixelBuffer{}, ErrCorrupt
	}

	buf := compare.NewPixelBuffer(w, h)
	zr := lz4.NewReader(bytes.NewReader(raw[12:]))
	if _, err := io.ReadFull(zr, buf.Pix); err != nil {
		return compare.PixelBuffer{}, fmt.Errorf("decompression failed: %w", err)
	}
	return buf, nil
}
