package woocommerce

import (
	"context"
	"encoding/json"
	"time"

	"masterspa/internal/catalog"
	"masterspa/internal/importlog"
	"masterspa/internal/logger"
	"masterspa/internal/models"
	"masterspa/internal/settings"

	"github.com/shopspring/decimal"
)

// SettingsStore supplies the run configuration and keeps the last summary.
type SettingsStore interface {
	Load(ctx context.Context) (settings.Settings, error)
	SaveSummary(ctx context.Context, summary models.ImportSummary) error
}

// Fetcher downloads the raw product descriptors.
type Fetcher interface {
	FetchProducts(ctx context.Context, s settings.Settings) ([]json.RawMessage, error)
}

// Catalog is the product store the importer reconciles against.
type Catalog interface {
	FindIDBySKU(ctx context.Context, sku string) (uint, bool, error)
	CreateProduct(ctx context.Context, fields catalog.ProductFields) (uint, error)
	UpdateProduct(ctx context.Context, id uint, fields catalog.ProductFields) error
	SetPrices(ctx context.Context, id uint, regular decimal.Decimal, sale decimal.NullDecimal) error
	MarkSimple(ctx context.Context, id uint) error
	EnsureTerm(ctx context.Context, name string, taxonomy models.Taxonomy, parentID uint) (uint, error)
	SetCategories(ctx context.Context, productID uint, termIDs []uint) error
	AddTags(ctx context.Context, productID uint, termIDs []uint) error
	SKUsWithPrefix(ctx context.Context, prefix string, batchSize int) ([]string, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type LogWriter interface {
	Log(ctx context.Context, entry importlog.Entry) error
}

// Locker guards a run against a concurrent one. Acquire fails with
// ErrImportInProgress when another run holds the lease.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

type Option func(*Importer)

func WithLocker(locker Locker) Option {
	return func(im *Importer) {
		im.locker = locker
	}
}

func WithClock(now func() time.Time) Option {
	return func(im *Importer) {
		im.now = now
	}
}

// Importer pulls the product feed into the catalog.
type Importer struct {
	settings SettingsStore
	fetcher  Fetcher
	catalog  Catalog
	log      LogWriter
	logger   *logger.Logger
	locker   Locker
	now      func() time.Time
}

func NewImporter(store SettingsStore, fetcher Fetcher, cat Catalog, log LogWriter, logger *logger.Logger, opts ...Option) *Importer {
	im := &Importer{
		settings: store,
		fetcher:  fetcher,
		catalog:  cat,
		log:      log,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}
