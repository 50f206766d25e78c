// Package dataload reads the momentum, alpha and prices panels from a
// storage backend.
package dataload

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/newthinker/rotation/internal/core"
	"github.com/newthinker/rotation/internal/panel"
	"github.com/newthinker/rotation/internal/storage/source"
	"go.uber.org/zap"
)

// Files names the three panel files relative to the storage root. The
// extension picks the decoder: .parquet for long-format Parquet, anything
// else is read as CSV.
type Files struct {
	Momentum string
	Alpha    string
	Prices   string
}

// DefaultFiles are the file names of the NIFTY 500 dataset.
func DefaultFiles() Files {
	return Files{
		Momentum: "N500_Momentum.csv",
		Alpha:    "N500_Alpha.csv",
		Prices:   "N500_Prices.csv",
	}
}

// CacheObserver is notified of cache lookups, e.g. to export metrics.
type CacheObserver interface {
	CacheHit(panel string)
	CacheMiss(panel string)
}

// Loader reads panels from storage through an optional cache.
type Loader struct {
	storage  source.Storage
	files    Files
	cache    *Cache
	logger   *zap.Logger
	observer CacheObserver
}

// Option configures a Loader.
type Option func(*Loader)

// WithCache memoizes decoded panels.
func WithCache(c *Cache) Option {
	return func(l *Loader) { l.cache = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithObserver reports cache hits and misses.
func WithObserver(o CacheObserver) Option {
	return func(l *Loader) { l.observer = o }
}

// New creates a Loader for the given files.
func New(storage source.Storage, files Files, opts ...Option) *Loader {
	l := &Loader{
		storage: storage,
		files:   files,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads all three panels. Any failure wraps core.ErrDataLoad.
func (l *Loader) Load(ctx context.Context) (panel.Set, error) {
	var set panel.Set
	var err error

	if set.Momentum, err = l.LoadPanel(ctx, "momentum", l.files.Momentum); err != nil {
		return panel.Set{}, err
	}
	if set.Alpha, err = l.LoadPanel(ctx, "alpha", l.files.Alpha); err != nil {
		return panel.Set{}, err
	}
	if set.Prices, err = l.LoadPanel(ctx, "prices", l.files.Prices); err != nil {
		return panel.Set{}, err
	}

	l.logger.Info("panels loaded",
		zap.String("storage", l.storage.Name()),
		zap.Int("dates", set.Alpha.Len()),
		zap.Int("symbols", len(set.Alpha.Symbols)),
	)
	return set, nil
}

// LoadPanel reads and decodes one panel file.
func (l *Loader) LoadPanel(ctx context.Context, name, file string) (*panel.Panel, error) {
	if file == "" {
		return nil, core.WrapError(core.ErrDataLoad, fmt.Errorf("%s: no file configured", name))
	}

	info, err := l.storage.Stat(ctx, file)
	if err != nil {
		return nil, core.WrapError(core.ErrDataLoad, fmt.Errorf("%s: %w", file, err))
	}

	key := CacheKey(l.storage.Name(), info)
	if p, ok := l.cache.Get(key); ok {
		l.observe(name, true)
		l.logger.Debug("panel cache hit", zap.String("panel", name), zap.String("file", file))
		return p, nil
	}
	l.observe(name, false)

	data, err := l.storage.Read(ctx, file)
	if err != nil {
		return nil, core.WrapError(core.ErrDataLoad, fmt.Errorf("%s: %w", file, err))
	}

	p, err := Decode(name, file, data)
	if err != nil {
		return nil, core.WrapError(core.ErrDataLoad, fmt.Errorf("%s: %w", file, err))
	}
	if p.Empty() {
		return nil, core.WrapError(core.ErrDataLoad, fmt.Errorf("%s: panel is empty", file))
	}

	l.cache.Set(key, p)
	l.logger.Debug("panel decoded",
		zap.String("panel", name),
		zap.String("file", file),
		zap.Int("dates", p.Len()),
		zap.Int("symbols", len(p.Symbols)),
	)
	return p, nil
}

// FileStatus reports whether a configured panel file is present.
type FileStatus struct {
	Panel  string `json:"panel"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// Inventory describes the panel files a storage backend holds.
type Inventory struct {
	Storage    string       `json:"storage"`
	Configured []FileStatus `json:"configured"`
	Available  []string     `json:"available"`
}

// Missing returns the configured files that are not in storage.
func (inv Inventory) Missing() []string {
	var out []string
	for _, f := range inv.Configured {
		if !f.Exists {
			out = append(out, f.Path)
		}
	}
	return out
}

// Inventory checks the configured files and lists every panel file under
// the storage root, so a misnamed file can be spotted without a load.
func (l *Loader) Inventory(ctx context.Context) (Inventory, error) {
	inv := Inventory{Storage: l.storage.Name()}

	for _, f := range []struct{ panel, file string }{
		{"momentum", l.files.Momentum},
		{"alpha", l.files.Alpha},
		{"prices", l.files.Prices},
	} {
		status := FileStatus{Panel: f.panel, Path: f.file}
		if f.file != "" {
			ok, err := l.storage.Exists(ctx, f.file)
			if err != nil {
				return Inventory{}, core.WrapError(core.ErrDataLoad, fmt.Errorf("%s: %w", f.file, err))
			}
			status.Exists = ok
		}
		inv.Configured = append(inv.Configured, status)
	}

	paths, err := l.storage.List(ctx, "")
	if err != nil {
		return Inventory{}, core.WrapError(core.ErrDataLoad, fmt.Errorf("listing %s: %w", l.storage.Name(), err))
	}
	inv.Available = []string{}
	for _, p := range paths {
		if IsPanelFile(p) {
			inv.Available = append(inv.Available, p)
		}
	}
	sort.Strings(inv.Available)

	if missing := inv.Missing(); len(missing) > 0 {
		l.logger.Warn("configured panel files missing",
			zap.String("storage", inv.Storage),
			zap.Strings("files", missing),
		)
	}
	return inv, nil
}

// IsPanelFile reports whether file has an extension Decode understands.
func IsPanelFile(file string) bool {
	switch strings.ToLower(path.Ext(file)) {
	case ".csv", ".parquet":
		return true
	}
	return false
}

// Decode picks the decoder from the file extension.
func Decode(name, file string, data []byte) (*panel.Panel, error) {
	if strings.EqualFold(path.Ext(file), ".parquet") {
		return DecodeParquet(name, data)
	}
	return DecodeCSV(name, data)
}

func (l *Loader) observe(name string, hit bool) {
	if l.observer == nil {
		return
	}
	if hit {
		l.observer.CacheHit(name)
	} else {
		l.observer.CacheMiss(name)
	}
}
