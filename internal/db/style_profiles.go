package db

import (
	"context"
	"fmt"

	"github.com/jonathan/alignment-checker/internal/types"
)

// -----------------------------------------------------------------------------
// Style Profile Methods
// -----------------------------------------------------------------------------

// ListStyleProfiles returns every stored style profile ordered by name
func (db *DB) ListStyleProfiles(ctx context.Context) ([]*types.StyleProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT name, description, core_terms, secondary_terms, mission_phrases
		 FROM style_profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list style profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*types.StyleProfile, 0)
	for rows.Next() {
		var p types.StyleProfile
		if err := rows.Scan(&p.Name, &p.Description, &p.CoreTerms, &p.SecondaryTerms, &p.MissionPhrases); err != nil {
			return nil, fmt.Errorf("failed to scan style profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate style profiles: %w", err)
	}

	return profiles, nil
}

// UpsertStyleProfile inserts or replaces a style profile by name
func (db *DB) UpsertStyleProfile(ctx context.Context, p *types.StyleProfile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid style profile: %w", err)
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO style_profiles (name, description, core_terms, secondary_terms, mission_phrases)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET
		   description = $2, core_terms = $3, secondary_terms = $4, mission_phrases = $5, updated_at = NOW()`,
		p.Name, p.Description, p.CoreTerms, p.SecondaryTerms, nonNil(p.MissionPhrases),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert style profile %s: %w", p.Name, err)
	}
	return nil
}
