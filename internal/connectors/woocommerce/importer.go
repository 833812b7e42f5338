package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"masterspa/internal/catalog"
	"masterspa/internal/importlog"
	"masterspa/internal/models"
	"masterspa/internal/services/feed"
	"masterspa/internal/settings"
)

// SpaTerm names the top-level category and the marker tag every imported
// product receives.
const SpaTerm = "spa"

const (
	msgStarted   = "Import started"
	msgNoRecords = "No products received from API"
)

// Result is what a run reports back to whoever triggered it.
type Result struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Stats   models.ImportStats `json:"stats"`
}

type run struct {
	date     time.Time
	settings settings.Settings
	stats    models.ImportStats
	seen     map[string]struct{}
}

// Import runs one reconciliation of the feed against the catalog.
//
// A fetch failure or an empty feed ends the run with Success=false before
// anything is written. Record-level failures are logged and counted and
// never stop the run. The returned error is reserved for the lease and the
// settings store.
//
// Once started a run is not cancellable: ctx carries values only, so a
// caller going away never leaves a half-written catalog.
func (im *Importer) Import(ctx context.Context) (*Result, error) {
	ctx = context.WithoutCancel(ctx)

	if im.locker != nil {
		release, err := im.locker.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	s, err := im.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	r := &run{
		date:     im.now(),
		settings: s,
		seen:     make(map[string]struct{}),
	}
	im.record(ctx, r, models.LogTypeInfo, "", 0, msgStarted)

	descriptors, err := im.fetcher.FetchProducts(ctx, s)
	if err != nil {
		im.record(ctx, r, models.LogTypeError, "", 0, "API request failed: "+err.Error())
		return &Result{Message: err.Error(), Stats: r.stats}, nil
	}
	if len(descriptors) == 0 {
		im.record(ctx, r, models.LogTypeWarning, "", 0, msgNoRecords)
		return &Result{Message: msgNoRecords, Stats: r.stats}, nil
	}

	for _, raw := range descriptors {
		im.processRecord(ctx, r, raw)
	}

	if s.ImportMode == settings.ModeCreateUpdate && s.DeleteMissing {
		im.deleteMissing(ctx, r)
	}

	summary := models.ImportSummary{Timestamp: r.date, Stats: r.stats}
	if err := im.settings.SaveSummary(ctx, summary); err != nil {
		im.logger.Error("Failed to save import summary: %v", err)
	}

	msg := fmt.Sprintf("Import completed: %d created, %d updated, %d errors",
		r.stats.Created, r.stats.Updated, r.stats.Errors)
	im.record(ctx, r, models.LogTypeInfo, "", 0, msg)

	return &Result{Success: true, Message: msg, Stats: r.stats}, nil
}

func (im *Importer) processRecord(ctx context.Context, r *run, raw json.RawMessage) {
	r.stats.Total++

	var d feed.Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		r.stats.Errors++
		im.record(ctx, r, models.LogTypeError, "", 0, "Invalid product record: "+err.Error())
		return
	}

	title := d.Title()
	if title == "" {
		r.stats.Errors++
		im.record(ctx, r, models.LogTypeError, "", 0, "Product missing title (art field)")
		return
	}

	sku := feed.SKU(&d)
	r.seen[sku] = struct{}{}

	id, exists, err := im.catalog.FindIDBySKU(ctx, sku)
	if err != nil {
		r.stats.Errors++
		im.record(ctx, r, models.LogTypeError, sku, 0, "Failed to look up product: "+err.Error())
		return
	}

	if !exists && r.settings.ImportMode == settings.ModeUpdateOnly {
		im.record(ctx, r, models.LogTypeInfo, sku, 0, "Skipped new product (update only): "+title)
		return
	}

	fields := catalog.ProductFields{
		SKU:         sku,
		Title:       title,
		Description: d.Description(),
		Status:      r.settings.ProductStatus,
	}
	dryRun := r.settings.DryRun

	if exists {
		if !dryRun {
			if err := im.catalog.UpdateProduct(ctx, id, fields); err != nil {
				r.stats.Errors++
				im.record(ctx, r, models.LogTypeError, sku, id, "Failed to update product: "+err.Error())
				return
			}
		}
		msg := "Updated product: " + title
		if dryRun {
			msg = "Would update product: " + title
		}
		r.stats.Updated++
		im.record(ctx, r, models.LogTypeUpdated, sku, id, msg)
	} else {
		if !dryRun {
			id, err = im.catalog.CreateProduct(ctx, fields)
			if err != nil {
				r.stats.Errors++
				im.record(ctx, r, models.LogTypeError, sku, 0, "Failed to create product: "+err.Error())
				return
			}
		}
		msg := "Created product: " + title
		if dryRun {
			msg = "Would create product: " + title
		}
		r.stats.Created++
		im.record(ctx, r, models.LogTypeCreated, sku, id, msg)
	}

	if dryRun {
		return
	}
	im.applyCatalogFields(ctx, r, id, sku, &d)
}

// applyCatalogFields writes everything beyond the post fields. Failures are
// logged against the product; the record itself already counted.
func (im *Importer) applyCatalogFields(ctx context.Context, r *run, id uint, sku string, d *feed.Descriptor) {
	if prices := feed.ExtractPrices(d); prices.Any() {
		if err := im.catalog.SetPrices(ctx, id, prices.Regular.Decimal, prices.Sale); err != nil {
			im.record(ctx, r, models.LogTypeError, sku, id, "Failed to set prices: "+err.Error())
		}
	}

	if err := im.catalog.MarkSimple(ctx, id); err != nil {
		im.record(ctx, r, models.LogTypeError, sku, id, "Failed to set product type: "+err.Error())
	}

	im.assignCategories(ctx, r, id, d.PrimaryCategory(), d.SecondaryCategory())

	tagID, err := im.catalog.EnsureTerm(ctx, SpaTerm, models.TaxonomyTag, 0)
	if err != nil {
		im.record(ctx, r, models.LogTypeError, "", id, "Failed to create tag: "+SpaTerm)
		return
	}
	if err := im.catalog.AddTags(ctx, id, []uint{tagID}); err != nil {
		im.record(ctx, r, models.LogTypeError, sku, id, "Failed to assign tag: "+err.Error())
	}
}

// assignCategories links the product to spa > primary > secondary. The
// secondary category is only used below a primary one.
func (im *Importer) assignCategories(ctx context.Context, r *run, id uint, primary, secondary string) {
	spaID, err := im.catalog.EnsureTerm(ctx, SpaTerm, models.TaxonomyCategory, 0)
	if err != nil {
		im.record(ctx, r, models.LogTypeError, "", id, "Failed to create category: "+SpaTerm)
		return
	}
	termIDs := []uint{spaID}

	if primary != "" {
		parentID, err := im.catalog.EnsureTerm(ctx, primary, models.TaxonomyCategory, spaID)
		if err != nil {
			im.record(ctx, r, models.LogTypeError, "", id, "Failed to create category: "+primary)
		} else {
			termIDs = append(termIDs, parentID)
			if secondary != "" {
				childID, err := im.catalog.EnsureTerm(ctx, secondary, models.TaxonomyCategory, parentID)
				if err != nil {
					im.record(ctx, r, models.LogTypeError, "", id, "Failed to create category: "+secondary)
				} else {
					termIDs = append(termIDs, childID)
				}
			}
		}
	}

	if err := im.catalog.SetCategories(ctx, id, termIDs); err != nil {
		im.record(ctx, r, models.LogTypeError, "", id, "Failed to assign categories: "+err.Error())
	}
}

// deleteMissing removes importer-owned products the feed no longer lists.
// A run that saw no SKU at all deletes nothing.
func (im *Importer) deleteMissing(ctx context.Context, r *run) {
	if len(r.seen) == 0 {
		return
	}

	skus, err := im.catalog.SKUsWithPrefix(ctx, feed.SKUPrefix, r.settings.BatchSize)
	if err != nil {
		im.record(ctx, r, models.LogTypeError, "", 0, "Failed to list imported products: "+err.Error())
		return
	}

	for _, sku := range skus {
		if _, ok := r.seen[sku]; ok {
			continue
		}

		id, found, err := im.catalog.FindIDBySKU(ctx, sku)
		if err != nil {
			im.record(ctx, r, models.LogTypeError, sku, 0, "Failed to look up product: "+err.Error())
			continue
		}
		if !found {
			continue
		}

		if r.settings.DryRun {
			im.record(ctx, r, models.LogTypeInfo, sku, id, "Would delete missing product")
			continue
		}
		if err := im.catalog.DeleteProduct(ctx, id); err != nil {
			im.record(ctx, r, models.LogTypeError, sku, id, "Failed to delete missing product: "+err.Error())
			continue
		}
		im.record(ctx, r, models.LogTypeInfo, sku, id, "Deleted missing product")
	}
}

func (im *Importer) record(ctx context.Context, r *run, logType models.LogType, sku string, productID uint, message string) {
	im.logger.Debug("[import %s] %s %s", logType, sku, message)

	err := im.log.Log(ctx, importlog.Entry{
		ImportDate: r.date,
		Type:       logType,
		SKU:        sku,
		ProductID:  productID,
		Message:    message,
	})
	if err != nil {
		im.logger.Error("Failed to write import log: %v", err)
	}
}
