package seeders

import (
	"gorm.io/gorm"

	"github.com/alenadem/stonecart/app/models"
)

func init() {
	Register("reference_data", SeedReferenceData)
	Register("demo_catalog", SeedDemoCatalog)
}

// SeedReferenceData inserts the base categories and stones. Idempotent:
// existing codes are left untouched.
func SeedReferenceData(db *gorm.DB) error {
	categories := []models.Category{
		{Code: "bracelets", Name: "Браслеты"},
		{Code: "necklaces", Name: "Ожерелья"},
	}
	stones := []models.Stone{
		{Code: "amethyst", Name: "Аметист"},
		{Code: "citrine", Name: "Цитрин"},
		{Code: "garnet", Name: "Гранат"},
	}

	for _, c := range categories {
		if err := db.Where(models.Category{Code: c.Code}).
			FirstOrCreate(&c).Error; err != nil {
			return err
		}
	}
	for _, s := range stones {
		if err := db.Where(models.Stone{Code: s.Code}).
			FirstOrCreate(&s).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedDemoCatalog inserts the demo products. Skipped entirely when the
// products table already has rows.
func SeedDemoCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := []struct {
		category string
		stone    string
		title    string
		price    int
		stock    int
	}{
		{"bracelets", "amethyst", "Браслет «Аметист люкс»", 3500, 5},
		{"bracelets", "amethyst", "Браслет «Фиолетовый иней»", 2900, 3},
		{"bracelets", "amethyst", "Браслет «Лавандовый свет»", 3100, 2},
		{"bracelets", "citrine", "Браслет «Золотой цитрин»", 3300, 4},
		{"bracelets", "citrine", "Браслет «Солнечная капля»", 2800, 6},
		{"necklaces", "garnet", "Ожерелье «Гранатовая ночь»", 5200, 2},
		{"necklaces", "garnet", "Ожерелье «Рубиновый шёлк»", 5700, 1},
	}

	for _, d := range demo {
		var category models.Category
		if err := db.Where("code = ?", d.category).First(&category).Error; err != nil {
			return err
		}
		var stone models.Stone
		if err := db.Where("code = ?", d.stone).First(&stone).Error; err != nil {
			return err
		}

		p := models.Product{
			Title:      d.title,
			Price:      d.price,
			Stock:      d.stock,
			Photos:     models.PhotoList{},
			CategoryID: category.ID,
			StoneID:    stone.ID,
		}
		if err := db.Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}
