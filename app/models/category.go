package models

import "gorm.io/gorm"

// Category is a top-level catalog dimension (e.g. "Браслеты").
// Code is the machine key derived from Name via pkg/slugify.
type Category struct {
	gorm.Model
	Code string `gorm:"size:128;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

// Stone is the second catalog dimension (e.g. "Аметист").
// Every product belongs to exactly one (category, stone) bucket.
type Stone struct {
	gorm.Model
	Code string `gorm:"size:128;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}
