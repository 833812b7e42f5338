package woocommerce

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"masterspa/internal/catalog"
	"masterspa/internal/database"
	"masterspa/internal/importlog"
	"masterspa/internal/logger"
	"masterspa/internal/models"
	"masterspa/internal/services/feed"
	"masterspa/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedServer struct {
	mu     sync.Mutex
	body   string
	status int
	*httptest.Server
}

func newFeedServer(t *testing.T) *feedServer {
	fs := &feedServer{status: http.StatusOK, body: `[]`}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fs.status)
		w.Write([]byte(fs.body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *feedServer) serve(status int, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.status = status
	fs.body = body
}

type fixture struct {
	importer *Importer
	catalog  *catalog.Store
	settings *settings.Store
	logs     *importlog.Repository
	feed     *feedServer
	runDate  time.Time
}

func setup(t *testing.T, configure func(*settings.Settings), opts ...Option) *fixture {
	db, err := database.New("sqlite://:memory:", "silent")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		catalog:  catalog.NewStore(db.DB),
		settings: settings.NewStore(db.DB),
		logs:     importlog.NewRepository(db.DB),
		feed:     newFeedServer(t),
		runDate:  time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}

	s := settings.Defaults()
	s.APIEndpoint = f.feed.URL
	if configure != nil {
		configure(&s)
	}
	f.saveSettings(t, s)

	opts = append([]Option{WithClock(func() time.Time { return f.runDate })}, opts...)
	f.importer = NewImporter(f.settings, feed.NewClient(logger.Nop()), f.catalog, f.logs, logger.Nop(), opts...)
	return f
}

func (f *fixture) saveSettings(t *testing.T, s settings.Settings) {
	require.NoError(t, f.settings.Save(context.Background(), s))
}

func (f *fixture) run(t *testing.T) *Result {
	result, err := f.importer.Import(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func (f *fixture) product(t *testing.T, sku string) *models.Product {
	ctx := context.Background()
	id, ok, err := f.catalog.FindIDBySKU(ctx, sku)
	require.NoError(t, err)
	require.True(t, ok, "product %s not found", sku)
	p, err := f.catalog.Get(ctx, id)
	require.NoError(t, err)
	return p
}

func (f *fixture) exists(t *testing.T, sku string) bool {
	_, ok, err := f.catalog.FindIDBySKU(context.Background(), sku)
	require.NoError(t, err)
	return ok
}

func (f *fixture) messages(t *testing.T) []string {
	page, err := f.logs.List(context.Background(), 1, 1000)
	require.NoError(t, err)
	out := make([]string, 0, len(page.Logs))
	for i := len(page.Logs) - 1; i >= 0; i-- {
		out = append(out, string(page.Logs[i].LogType)+": "+page.Logs[i].Message)
	}
	return out
}

func termsOf(p *models.Product, taxonomy models.Taxonomy) map[string]uint {
	out := map[string]uint{}
	for _, term := range p.Terms {
		if term.Taxonomy == taxonomy {
			out[term.Name] = term.ParentID
		}
	}
	return out
}

const towelFeed = `[{"art":"Towel","clasa":"spa","pret":[{"pret":"10,50"},{"pret":"15"}]}]`

func TestImport_CreatesProductFromFeed(t *testing.T) {
	f := setup(t, nil)
	f.feed.serve(http.StatusOK, towelFeed)

	result := f.run(t)

	assert.True(t, result.Success)
	assert.Equal(t, models.ImportStats{Created: 1, Total: 1}, result.Stats)
	assert.Equal(t, "Import completed: 1 created, 0 updated, 0 errors", result.Message)

	p := f.product(t, "MSPA-4F6FC0866B")
	assert.Equal(t, "Towel", p.Title)
	assert.Equal(t, models.ProductStatusPublish, p.Status)
	assert.Equal(t, models.ProductTypeSimple, p.Type)
	assert.False(t, p.ManageStock)
	assert.Equal(t, models.StockStatusInStock, p.StockStatus)
	assert.Equal(t, "15.00", p.RegularPrice.Decimal.StringFixed(2))
	require.True(t, p.SalePrice.Valid)
	assert.Equal(t, "10.50", p.SalePrice.Decimal.StringFixed(2))
	assert.Equal(t, "10.50", p.Price.Decimal.StringFixed(2))

	spaID, err := f.catalog.EnsureTerm(context.Background(), SpaTerm, models.TaxonomyCategory, 0)
	require.NoError(t, err)
	var parents []uint
	for _, term := range p.Terms {
		if term.Taxonomy == models.TaxonomyCategory {
			assert.Equal(t, "spa", term.Name)
			parents = append(parents, term.ParentID)
		}
	}
	assert.ElementsMatch(t, []uint{0, spaID}, parents)

	tags := termsOf(p, models.TaxonomyTag)
	assert.Contains(t, tags, SpaTerm)

	assert.Equal(t, []string{
		"info: Import started",
		"created: Created product: Towel",
		"info: Import completed: 1 created, 0 updated, 0 errors",
	}, f.messages(t))

	summary, err := f.settings.LoadSummary(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.True(t, summary.Timestamp.Equal(f.runDate))
	assert.Equal(t, result.Stats, summary.Stats)
}

func TestImport_CategoryTree(t *testing.T) {
	f := setup(t, nil)
	f.feed.serve(http.StatusOK, `[
		{"id": 1, "art": "Halat", "clasa": "Textile", "grupa": "Bumbac", "pret": [{"pret": "80"}]},
		{"id": 2, "art": "Papuci", "grupa": "Ignored", "pret": [{"pret": "20"}]}
	]`)

	f.run(t)

	ctx := context.Background()
	spaID, err := f.catalog.EnsureTerm(ctx, SpaTerm, models.TaxonomyCategory, 0)
	require.NoError(t, err)
	textileID, err := f.catalog.EnsureTerm(ctx, "Textile", models.TaxonomyCategory, spaID)
	require.NoError(t, err)

	halat := f.product(t, "MSPA-1")
	var got []models.Term
	for _, term := range halat.Terms {
		if term.Taxonomy == models.TaxonomyCategory {
			got = append(got, term)
		}
	}
	require.Len(t, got, 3)
	parents := map[string]uint{}
	for _, term := range got {
		parents[term.Name] = term.ParentID
	}
	assert.Equal(t, map[string]uint{SpaTerm: 0, "Textile": spaID, "Bumbac": textileID}, parents)

	papuci := f.product(t, "MSPA-2")
	assert.Equal(t, map[string]uint{SpaTerm: 0}, termsOf(papuci, models.TaxonomyCategory))
	assert.Equal(t, "20.00", papuci.RegularPrice.Decimal.StringFixed(2))
	assert.False(t, papuci.SalePrice.Valid)
}

func TestImport_RerunIsIdempotent(t *testing.T) {
	f := setup(t, nil)
	f.feed.serve(http.StatusOK, towelFeed)

	first := f.run(t)
	id := f.product(t, "MSPA-4F6FC0866B").ID

	second := f.run(t)
	assert.Equal(t, 1, first.Stats.Created)
	assert.Equal(t, models.ImportStats{Updated: 1, Total: 1}, second.Stats)

	p := f.product(t, "MSPA-4F6FC0866B")
	assert.Equal(t, id, p.ID)

	skus, err := f.catalog.SKUsWithPrefix(context.Background(), feed.SKUPrefix, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"MSPA-4F6FC0866B"}, skus)
	assert.Len(t, termsOf(p, models.TaxonomyTag), 1)
}

func TestImport_SinglePriceClearsSale(t *testing.T) {
	f := setup(t, nil)
	f.feed.serve(http.StatusOK, `[{"id": 9, "art": "Ulei", "pret": [{"pret": "30"}, {"pret": "25,5"}]}]`)
	f.run(t)
	require.True(t, f.product(t, "MSPA-9").SalePrice.Valid)

	f.feed.serve(http.StatusOK, `[{"id": 9, "art": "Ulei", "pret": [{"pret": "0"}, {"pret": "28"}]}]`)
	f.run(t)

	p := f.product(t, "MSPA-9")
	assert.Equal(t, "28.00", p.RegularPrice.Decimal.StringFixed(2))
	assert.False(t, p.SalePrice.Valid)
	assert.Equal(t, "28.00", p.Price.Decimal.StringFixed(2))
}

func TestImport_MissingTitle(t *testing.T) {
	f := setup(t, nil)
	f.feed.serve(http.StatusOK, `[
		{"id": 5, "desc1": "no title"},
		{"id": 6, "art": "  "},
		{"id": 8, "art": 0},
		{"id": 9, "art": "0"},
		{"id": 10, "art": false},
		{"id": 7, "art": "Ok"}
	]`)

	result := f.run(t)

	assert.True(t, result.Success)
	assert.Equal(t, models.ImportStats{Created: 1, Errors: 5, Total: 6}, result.Stats)
	for _, sku := range []string{"MSPA-5", "MSPA-6", "MSPA-8", "MSPA-9", "MSPA-10"} {
		assert.False(t, f.exists(t, sku), sku)
	}
	assert.True(t, f.exists(t, "MSPA-7"))
	assert.Contains(t, f.messages(t), "error: Product missing title (art field)")
}

func TestImport_MalformedRecordIsIsolated(t *testing.T) {
	f := setup(t, nil)
	f.feed.serve(http.StatusOK, `["not an object", {"id": 1, "art": "Ok"}]`)

	result := f.run(t)

	assert.Equal(t, models.ImportStats{Created: 1, Errors: 1, Total: 2}, result.Stats)
	assert.True(t, f.exists(t, "MSPA-1"))
}

func TestImport_DeleteMissing(t *testing.T) {
	ctx := context.Background()
	f := setup(t, func(s *settings.Settings) {
		s.DeleteMissing = true
		s.BatchSize = 1
	})

	for _, sku := range []string{"MSPA-1", "MSPA-OLD", "MSPA-GONE", "OTHER-1"} {
		_, err := f.catalog.CreateProduct(ctx, catalog.ProductFields{SKU: sku, Title: sku, Status: models.ProductStatusPublish})
		require.NoError(t, err)
	}

	f.feed.serve(http.StatusOK, `[{"id": 1, "art": "Renamed", "clasa": "new"}]`)
	result := f.run(t)

	assert.Equal(t, models.ImportStats{Updated: 1, Total: 1}, result.Stats)
	assert.True(t, f.exists(t, "MSPA-1"))
	assert.Equal(t, "Renamed", f.product(t, "MSPA-1").Title)
	assert.False(t, f.exists(t, "MSPA-OLD"))
	assert.False(t, f.exists(t, "MSPA-GONE"))
	assert.True(t, f.exists(t, "OTHER-1"), "products outside the reserved prefix are never deleted")

	msgs := f.messages(t)
	assert.Contains(t, msgs, "info: Deleted missing product")
}

func TestImport_DeleteMissingNeedsSeenSKUs(t *testing.T) {
	ctx := context.Background()
	f := setup(t, func(s *settings.Settings) {
		s.DeleteMissing = true
	})
	_, err := f.catalog.CreateProduct(ctx, catalog.ProductFields{SKU: "MSPA-KEEP", Title: "Keep", Status: models.ProductStatusPublish})
	require.NoError(t, err)

	f.feed.serve(http.StatusOK, `[{"id": 3}]`)
	result := f.run(t)

	assert.Equal(t, 1, result.Stats.Errors)
	assert.True(t, f.exists(t, "MSPA-KEEP"))
}

func TestImport_DeleteMissingIgnoredInUpdateOnly(t *testing.T) {
	ctx := context.Background()
	f := setup(t, func(s *settings.Settings) {
		s.DeleteMissing = true
		s.ImportMode = settings.ModeUpdateOnly
	})
	_, err := f.catalog.CreateProduct(ctx, catalog.ProductFields{SKU: "MSPA-KEEP", Title: "Keep", Status: models.ProductStatusPublish})
	require.NoError(t, err)

	f.feed.serve(http.StatusOK, `[{"id": 1, "art": "New"}]`)
	result := f.run(t)

	assert.True(t, result.Success)
	assert.Equal(t, models.ImportStats{Total: 1}, result.Stats)
	assert.False(t, f.exists(t, "MSPA-1"), "update-only never creates")
	assert.True(t, f.exists(t, "MSPA-KEEP"))
	assert.Contains(t, f.messages(t), "info: Skipped new product (update only): New")
}

func TestImport_DryRun(t *testing.T) {
	ctx := context.Background()
	f := setup(t, func(s *settings.Settings) {
		s.DryRun = true
		s.DeleteMissing = true
	})
	existingID, err := f.catalog.CreateProduct(ctx, catalog.ProductFields{SKU: "MSPA-1", Title: "Before", Status: models.ProductStatusDraft})
	require.NoError(t, err)
	_, err = f.catalog.CreateProduct(ctx, catalog.ProductFields{SKU: "MSPA-OLD", Title: "Old", Status: models.ProductStatusPublish})
	require.NoError(t, err)

	f.feed.serve(http.StatusOK, `[{"id": 1, "art": "After", "pret": [{"pret": "5"}]}, `+towelFeed[1:])
	result := f.run(t)

	assert.True(t, result.Success)
	assert.Equal(t, models.ImportStats{Created: 1, Updated: 1, Total: 2}, result.Stats)

	before := f.product(t, "MSPA-1")
	assert.Equal(t, existingID, before.ID)
	assert.Equal(t, "Before", before.Title)
	assert.False(t, before.RegularPrice.Valid)
	assert.Empty(t, before.Terms)
	assert.False(t, f.exists(t, "MSPA-4F6FC0866B"))
	assert.True(t, f.exists(t, "MSPA-OLD"))

	msgs := f.messages(t)
	assert.Contains(t, msgs, "updated: Would update product: After")
	assert.Contains(t, msgs, "created: Would create product: Towel")
	assert.Contains(t, msgs, "info: Would delete missing product")

	summary, err := f.settings.LoadSummary(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, result.Stats, summary.Stats)
}

func TestImport_FetchFailure(t *testing.T) {
	f := setup(t, nil)
	f.feed.serve(http.StatusInternalServerError, towelFeed)

	result := f.run(t)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "500")
	assert.Zero(t, result.Stats)
	assert.False(t, f.exists(t, "MSPA-4F6FC0866B"))

	msgs := f.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, "error: API request failed: API returned status code 500", msgs[1])

	summary, err := f.settings.LoadSummary(context.Background())
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestImport_EmptyFeed(t *testing.T) {
	f := setup(t, nil)
	f.feed.serve(http.StatusOK, `{"data": []}`)

	result := f.run(t)

	assert.False(t, result.Success)
	assert.Equal(t, "No products received from API", result.Message)
	assert.Equal(t, []string{"info: Import started", "warning: No products received from API"}, f.messages(t))
}

func TestImport_ProductStatusFromSettings(t *testing.T) {
	f := setup(t, func(s *settings.Settings) {
		s.ProductStatus = models.ProductStatusDraft
	})
	f.feed.serve(http.StatusOK, `{"products": [{"sku": "EXT-1", "art": "Draft me"}]}`)

	f.run(t)

	assert.Equal(t, models.ProductStatusDraft, f.product(t, "EXT-1").Status)
}

type stubLocker struct {
	err      error
	released int
}

func (l *stubLocker) Acquire(ctx context.Context) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released++ }, nil
}

func TestImport_Locker(t *testing.T) {
	t.Run("busy lease refuses the run", func(t *testing.T) {
		locker := &stubLocker{err: ErrImportInProgress}
		f := setup(t, nil, WithLocker(locker))
		f.feed.serve(http.StatusOK, towelFeed)

		result, err := f.importer.Import(context.Background())
		assert.ErrorIs(t, err, ErrImportInProgress)
		assert.Nil(t, result)
		assert.Empty(t, f.messages(t))
	})

	t.Run("lease is released after the run", func(t *testing.T) {
		locker := &stubLocker{}
		f := setup(t, nil, WithLocker(locker))
		f.feed.serve(http.StatusOK, towelFeed)

		f.run(t)
		assert.Equal(t, 1, locker.released)
	})
}

// faultyCatalog fails writes for chosen SKUs and can run a hook after each
// successful create.
type faultyCatalog struct {
	*catalog.Store
	failSKUs    map[string]bool
	afterCreate func()
}

func (c *faultyCatalog) CreateProduct(ctx context.Context, fields catalog.ProductFields) (uint, error) {
	if c.failSKUs[fields.SKU] {
		return 0, errors.New("insert rejected")
	}
	id, err := c.Store.CreateProduct(ctx, fields)
	if err == nil && c.afterCreate != nil {
		c.afterCreate()
	}
	return id, err
}

func (c *faultyCatalog) UpdateProduct(ctx context.Context, id uint, fields catalog.ProductFields) error {
	if c.failSKUs[fields.SKU] {
		return errors.New("update rejected")
	}
	return c.Store.UpdateProduct(ctx, id, fields)
}

func (f *fixture) useCatalog(cat Catalog) {
	f.importer = NewImporter(f.settings, feed.NewClient(logger.Nop()), cat, f.logs, logger.Nop(),
		WithClock(func() time.Time { return f.runDate }))
}

func TestImport_WriteFailuresAreIsolated(t *testing.T) {
	ctx := context.Background()
	f := setup(t, nil)
	_, err := f.catalog.CreateProduct(ctx, catalog.ProductFields{SKU: "MSPA-2", Title: "Old", Status: models.ProductStatusPublish})
	require.NoError(t, err)
	f.useCatalog(&faultyCatalog{Store: f.catalog, failSKUs: map[string]bool{"MSPA-1": true, "MSPA-2": true}})
	f.feed.serve(http.StatusOK, `[{"id": 1, "art": "New"}, {"id": 2, "art": "Renamed"}, {"id": 3, "art": "Good"}]`)

	result := f.run(t)

	assert.True(t, result.Success)
	assert.Equal(t, models.ImportStats{Created: 1, Errors: 2, Total: 3}, result.Stats)
	assert.False(t, f.exists(t, "MSPA-1"))
	assert.Equal(t, "Old", f.product(t, "MSPA-2").Title)
	assert.True(t, f.exists(t, "MSPA-3"))

	msgs := f.messages(t)
	assert.Contains(t, msgs, "error: Failed to create product: insert rejected")
	assert.Contains(t, msgs, "error: Failed to update product: update rejected")
	assert.Contains(t, msgs, "created: Created product: Good")

	summary, err := f.settings.LoadSummary(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, result.Stats, summary.Stats)
}

func TestImport_CallerCancellationDoesNotStopRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := setup(t, nil)
	f.useCatalog(&faultyCatalog{Store: f.catalog, afterCreate: cancel})
	f.feed.serve(http.StatusOK, `[{"id": 1, "art": "A", "clasa": "spa", "pret": [{"pret": "5"}]}, {"id": 2, "art": "B"}]`)

	result, err := f.importer.Import(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Equal(t, models.ImportStats{Created: 2, Total: 2}, result.Stats)

	first := f.product(t, "MSPA-1")
	assert.Equal(t, "5.00", first.RegularPrice.Decimal.StringFixed(2))
	assert.Contains(t, termsOf(first, models.TaxonomyTag), SpaTerm)
	assert.True(t, f.exists(t, "MSPA-2"))

	assert.Equal(t, []string{
		"info: Import started",
		"created: Created product: A",
		"created: Created product: B",
		"info: Import completed: 2 created, 0 updated, 0 errors",
	}, f.messages(t))

	summary, err := f.settings.LoadSummary(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, result.Stats, summary.Stats)
}
