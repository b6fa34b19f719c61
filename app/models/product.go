package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// PhotoList is an ordered list of opaque photo references stored as a JSON
// array column. References are storage paths or external file ids; the
// catalog never interprets them.
type PhotoList []string

// Value implements driver.Valuer.
func (p PhotoList) Value() (driver.Value, error) {
	if p == nil {
		p = PhotoList{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("models: marshal photos: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *PhotoList) Scan(src interface{}) error {
	if src == nil {
		*p = PhotoList{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("models: scan photos: unsupported type %T", src)
	}
	if len(data) == 0 {
		*p = PhotoList{}
		return nil
	}
	return json.Unmarshal(data, p)
}

// MaxPhotos is the hard cap on photo references per product.
const MaxPhotos = 5

// Product is a sellable catalog item.
//
// The products table owns the durable stock baseline; the in-memory catalog
// cache holds a shadow copy whose stock is decremented by reservations.
// (category_id, stone_id, lower(title)) is unique to prevent duplicate
// listings; TitleLower is maintained by the BeforeSave hook to make the
// case-insensitive part of that constraint portable across drivers.
type Product struct {
	gorm.Model
	Title       string    `gorm:"size:256;not null" json:"title"`
	TitleLower  string    `gorm:"size:256;not null;uniqueIndex:idx_products_bucket_title,priority:3" json:"-"`
	Price       int       `gorm:"not null;default:0" json:"price"` // whole currency units
	Stock       int       `gorm:"not null;default:0" json:"stock"`
	Description string    `gorm:"type:text" json:"description"`
	Photos      PhotoList `gorm:"type:text" json:"photos"`
	CategoryID  uint      `gorm:"not null;index;uniqueIndex:idx_products_bucket_title,priority:1" json:"category_id"`
	StoneID     uint      `gorm:"not null;index;uniqueIndex:idx_products_bucket_title,priority:2" json:"stone_id"`

	Category Category `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Stone    Stone    `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// BeforeSave keeps TitleLower in sync with Title.
func (p *Product) BeforeSave(_ *gorm.DB) error {
	p.TitleLower = strings.ToLower(strings.TrimSpace(p.Title))
	return nil
}
