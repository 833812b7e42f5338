package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"masterspa/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("product not found")

// ProductFields are the post-level fields the importer owns.
type ProductFields struct {
	SKU         string
	Title       string
	Description string
	Status      models.ProductStatus
}

// Store is the gorm-backed product catalog: products, taxonomy terms and
// the links between them.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindIDBySKU looks a product up by exact SKU.
func (s *Store) FindIDBySKU(ctx context.Context, sku string) (uint, bool, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("sku = ?", sku).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up sku %s: %w", sku, err)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

func (s *Store) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Preload("Terms").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, fields ProductFields) (uint, error) {
	product := models.Product{
		SKU:         fields.SKU,
		Title:       fields.Title,
		Description: fields.Description,
		Status:      fields.Status,
		Type:        models.ProductTypeSimple,
		StockStatus: models.StockStatusInStock,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return 0, err
	}
	return product.ID, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id uint, fields ProductFields) error {
	res := s.db.WithContext(ctx).Model(&models.Product{ID: id}).Updates(map[string]interface{}{
		"sku":         fields.SKU,
		"title":       fields.Title,
		"description": fields.Description,
		"status":      fields.Status,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPrices writes the regular price and either sets or clears the sale
// price. The effective price follows the sale price when there is one.
func (s *Store) SetPrices(ctx context.Context, id uint, regular decimal.Decimal, sale decimal.NullDecimal) error {
	effective := regular
	if sale.Valid {
		effective = sale.Decimal
	}
	return s.db.WithContext(ctx).Model(&models.Product{ID: id}).Updates(map[string]interface{}{
		"regular_price": decimal.NewNullDecimal(regular.Round(2)),
		"sale_price":    sale,
		"price":         decimal.NewNullDecimal(effective.Round(2)),
	}).Error
}

// MarkSimple sets the product type and switches stock tracking off.
func (s *Store) MarkSimple(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Product{ID: id}).Updates(map[string]interface{}{
		"type":         models.ProductTypeSimple,
		"manage_stock": false,
		"stock_status": models.StockStatusInStock,
	}).Error
}

// EnsureTerm returns the id of the named term under parentID, creating it
// when missing.
func (s *Store) EnsureTerm(ctx context.Context, name string, taxonomy models.Taxonomy, parentID uint) (uint, error) {
	term := models.Term{Name: name, Taxonomy: taxonomy, ParentID: parentID}
	err := s.db.WithContext(ctx).
		Where(models.Term{Name: name, Taxonomy: taxonomy}).
		Where("parent_id = ?", parentID).
		FirstOrCreate(&term).Error
	if err != nil {
		return 0, fmt.Errorf("failed to ensure %s term %q: %w", taxonomy, name, err)
	}
	return term.ID, nil
}

// SetCategories replaces the product's category links; tags are untouched.
func (s *Store) SetCategories(ctx context.Context, productID uint, termIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var linked []uint
		err := tx.Table("product_terms").
			Joins("JOIN terms ON terms.id = product_terms.term_id").
			Where("product_terms.product_id = ? AND terms.taxonomy = ?", productID, models.TaxonomyCategory).
			Pluck("product_terms.term_id", &linked).Error
		if err != nil {
			return err
		}
		if len(linked) > 0 {
			err = tx.Where("product_id = ? AND term_id IN ?", productID, linked).Delete(&models.ProductTerm{}).Error
			if err != nil {
				return err
			}
		}
		return linkTerms(tx, productID, termIDs)
	})
}

// AddTags appends tag links, keeping existing ones.
func (s *Store) AddTags(ctx context.Context, productID uint, termIDs []uint) error {
	return linkTerms(s.db.WithContext(ctx), productID, termIDs)
}

func linkTerms(db *gorm.DB, productID uint, termIDs []uint) error {
	if len(termIDs) == 0 {
		return nil
	}
	rows := make([]models.ProductTerm, 0, len(termIDs))
	for _, termID := range termIDs {
		rows = append(rows, models.ProductTerm{ProductID: productID, TermID: termID})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// HasTerm reports whether the product is linked to a term with the given
// name in any of the taxonomies.
func (s *Store) HasTerm(ctx context.Context, productID uint, name string, taxonomies ...models.Taxonomy) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Table("product_terms").
		Joins("JOIN terms ON terms.id = product_terms.term_id").
		Where("product_terms.product_id = ? AND terms.name = ? AND terms.taxonomy IN ?", productID, name, taxonomies).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check terms of product %d: %w", productID, err)
	}
	return count > 0, nil
}

// SKUsWithPrefix lists every SKU starting with prefix, reading batchSize
// rows at a time.
func (s *Store) SKUsWithPrefix(ctx context.Context, prefix string, batchSize int) ([]string, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	var skus []string
	var batch []models.Product
	err := s.db.WithContext(ctx).
		Select("id", "sku").
		Where("sku LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			for _, p := range batch {
				// LIKE is case-insensitive on SQLite
				if strings.HasPrefix(p.SKU, prefix) {
					skus = append(skus, p.SKU)
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list skus with prefix %s: %w", prefix, err)
	}
	return skus, nil
}

// DeleteProduct removes the product and its term links for good.
func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductTerm{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ProductMeta returns the flattened catalog metadata of a product.
func (s *Store) ProductMeta(ctx context.Context, id uint) (map[string]string, error) {
	var product models.Product
	err := s.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}
	return product.Meta(), nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
