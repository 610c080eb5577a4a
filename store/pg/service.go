package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/manualsvc/bundler/store"
)

func (s *Store) ServiceByKey(ctx context.Context, serviceKey string) (store.ServiceProcess, error) {
	row := s.pgPool.QueryRow(ctx, `
SELECT key, name, owner, original_xml, edited_xml, updated_at
FROM service_process
WHERE key = $1
`, serviceKey)

	var service store.ServiceProcess
	if err := row.Scan(
		&service.Key,
		&service.Name,
		&service.Owner,
		&service.OriginalXml,
		&service.EditedXml,
		&service.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ServiceProcess{}, store.ErrNotFound
		}
		return store.ServiceProcess{}, fmt.Errorf("failed to select service %s: %v", serviceKey, err)
	}

	return service, nil
}

func (s *Store) SaveEditedXml(ctx context.Context, serviceKey string, editedXml string) error {
	tag, err := s.pgPool.Exec(ctx, `
UPDATE service_process
SET edited_xml = $2, updated_at = now()
WHERE key = $1
`, serviceKey, editedXml)
	if err != nil {
		return fmt.Errorf("failed to update service %s: %v", serviceKey, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SubprocessesByService(ctx context.Context, serviceKey string) ([]store.Subprocess, error) {
	rows, err := s.pgPool.Query(ctx, `
SELECT id, service_key, name, step_key, original_xml, edited_xml
FROM subprocess
WHERE service_key = $1
ORDER BY id
`, serviceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to select subprocesses of service %s: %v", serviceKey, err)
	}

	defer rows.Close()

	var subprocesses []store.Subprocess
	for rows.Next() {
		var subprocess store.Subprocess
		if err := rows.Scan(
			&subprocess.Id,
			&subprocess.ServiceKey,
			&subprocess.Name,
			&subprocess.StepKey,
			&subprocess.OriginalXml,
			&subprocess.EditedXml,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subprocess: %v", err)
		}
		subprocesses = append(subprocesses, subprocess)
	}

	return subprocesses, rows.Err()
}

func (s *Store) StepsByService(ctx context.Context, serviceKey string) ([]store.MasterDataStep, error) {
	rows, err := s.pgPool.Query(ctx, `
SELECT service_key, step_key, step_name, description, link_urls, link_titles
FROM master_data_step
WHERE service_key = $1
ORDER BY step_key
`, serviceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to select steps of service %s: %v", serviceKey, err)
	}

	defer rows.Close()

	var steps []store.MasterDataStep
	for rows.Next() {
		var step store.MasterDataStep
		if err := rows.Scan(
			&step.ServiceKey,
			&step.StepKey,
			&step.StepName,
			&step.Description,
			&step.LinkUrls,
			&step.LinkTitles,
		); err != nil {
			return nil, fmt.Errorf("failed to scan master data step: %v", err)
		}
		steps = append(steps, step)
	}

	return steps, rows.Err()
}
