package services

import (
	"strings"

	"mysterybox/internal/models"
)

// PrizeCatalog holds the fixed set of prize categories, in classification order.
type PrizeCatalog struct {
	prizes []models.Prize
}

// NewPrizeCatalog creates a catalog. An empty list falls back to models.DefaultPrizes.
func NewPrizeCatalog(prizes []models.Prize) *PrizeCatalog {
	if len(prizes) == 0 {
		prizes = models.DefaultPrizes()
	}
	return &PrizeCatalog{prizes: prizes}
}

// Prizes returns a copy of the catalog entries.
func (c *PrizeCatalog) Prizes() []models.Prize {
	out := make([]models.Prize, len(c.prizes))
	copy(out, c.prizes)
	return out
}

// Classify finds the category a prize name belongs to. The first prize with a
// keyword contained in the name (case-insensitive) wins.
func (c *PrizeCatalog) Classify(prizeName string) (models.Prize, bool) {
	name := strings.ToLower(prizeName)
	if name == "" {
		return models.Prize{}, false
	}
	for _, p := range c.prizes {
		for _, kw := range p.Keywords {
			if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
				return p, true
			}
		}
	}
	return models.Prize{}, false
}

// DefaultStock is the initial stock built from the catalog.
func (c *PrizeCatalog) DefaultStock() models.PrizeStock {
	stock := make(models.PrizeStock, len(c.prizes))
	for _, p := range c.prizes {
		stock[p.Key] = p.InitialStock
	}
	return stock
}
