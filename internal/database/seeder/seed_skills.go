package seeder

import (
	"context"

	"vahire/internal/database"
	"vahire/internal/domain/profile"
)

// SkillsSeeder loads the VA skills taxonomy. Existing names are left untouched.
type SkillsSeeder struct {
	Catalog []profile.Skill
}

func (SkillsSeeder) Name() string { return "skills" }

func (s SkillsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := requireColumns(ctx, db, "skills", "id", "name", "category", "created_at"); err != nil {
		return err
	}

	items := s.Catalog
	if len(items) == 0 {
		items = profile.DefaultSkillCatalog
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, it := range items {
			_, err := tx.Exec(
				ctx,
				`INSERT INTO skills (id, name, category) VALUES (gen_random_uuid(), $1, $2) ON CONFLICT (name) DO NOTHING`,
				it.Name,
				it.Category,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
