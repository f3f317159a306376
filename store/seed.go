package store

import (
	"fmt"
	"os"

	"subiclife/models"

	"gopkg.in/yaml.v3"
)

// seedCatalog mirrors the partner catalog YAML file.
type seedCatalog struct {
	Partners []seedPartner `yaml:"partners"`
}

type seedPartner struct {
	ID               string  `yaml:"id"`
	Name             string  `yaml:"name"`
	Category         string  `yaml:"category"`
	Logo             string  `yaml:"logo"`
	DiscountEligible bool    `yaml:"discount_eligible"`
	CommissionRate   float64 `yaml:"commission_rate"`
}

// SeedFromFile loads the partner catalog into an empty partners
// collection. A store hydrated from a snapshot already carries its
// partners and is left alone.
func (s *Store) SeedFromFile(path string) error {
	if len(s.Partners()) > 0 {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed catalog: %w", err)
	}
	var catalog seedCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return fmt.Errorf("parse seed catalog: %w", err)
	}
	for _, p := range catalog.Partners {
		s.AddPartner(models.Partner{
			ID:               p.ID,
			Name:             p.Name,
			Category:         models.PartnerCategory(p.Category),
			Logo:             p.Logo,
			DiscountEligible: p.DiscountEligible,
			CommissionRate:   p.CommissionRate,
		})
	}
	return nil
}
