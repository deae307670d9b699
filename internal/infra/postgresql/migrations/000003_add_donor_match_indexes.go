package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func addDonorMatchIndexes() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_add_donor_match_indexes",
		Migrate: func(tx *gorm.DB) error {
			statements := []string{
				`CREATE INDEX IF NOT EXISTS idx_donors_match ON donors (blood_group, priority_score DESC) WHERE eligible AND available`,
				`CREATE INDEX IF NOT EXISTS idx_donors_location ON donors (latitude, longitude) WHERE latitude IS NOT NULL AND longitude IS NOT NULL`,
			}
			for _, sql := range statements {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			statements := []string{
				`DROP INDEX IF EXISTS idx_donors_location`,
				`DROP INDEX IF EXISTS idx_donors_match`,
			}
			for _, sql := range statements {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
