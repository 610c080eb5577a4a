package pg

import (
	"context"
	"fmt"

	"github.com/manualsvc/bundler/store"
)

func (s *Store) DescriptionsByService(ctx context.Context, serviceKey string) ([]store.StepDescription, error) {
	rows, err := s.pgPool.Query(ctx, `
SELECT service_key, node_id, description, updated_at
FROM step_description
WHERE service_key = $1
ORDER BY node_id
`, serviceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to select descriptions of service %s: %v", serviceKey, err)
	}

	defer rows.Close()

	var descriptions []store.StepDescription
	for rows.Next() {
		var description store.StepDescription
		if err := rows.Scan(
			&description.ServiceKey,
			&description.NodeId,
			&description.Description,
			&description.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan step description: %v", err)
		}
		descriptions = append(descriptions, description)
	}

	return descriptions, rows.Err()
}

func (s *Store) UpsertDescription(ctx context.Context, description store.StepDescription) error {
	_, err := s.pgPool.Exec(ctx, `
INSERT INTO step_description (service_key, node_id, description, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (service_key, node_id) DO UPDATE
SET description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
`, description.ServiceKey, description.NodeId, description.Description)
	if err != nil {
		return fmt.Errorf("failed to upsert step description: %v", err)
	}
	return nil
}
