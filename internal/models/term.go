package models

import "time"

// Term is a node of a product taxonomy (category tree or flat tag list).
type Term struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_terms_name_taxonomy_parent"`
	Taxonomy  Taxonomy  `json:"taxonomy" gorm:"size:32;not null;uniqueIndex:idx_terms_name_taxonomy_parent"`
	ParentID  uint      `json:"parent_id" gorm:"not null;default:0;uniqueIndex:idx_terms_name_taxonomy_parent"`
	CreatedAt time.Time `json:"created_at"`
}

type Taxonomy string

const (
	TaxonomyCategory Taxonomy = "product_cat"
	TaxonomyTag      Taxonomy = "product_tag"
)

// ProductTerm is the join row between products and terms.
type ProductTerm struct {
	ProductID uint `gorm:"primaryKey"`
	TermID    uint `gorm:"primaryKey;index"`
}
