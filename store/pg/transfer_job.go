package pg

import (
	"context"
	"fmt"

	"github.com/manualsvc/bundler/store"
)

func (s *Store) CreateTransferJob(ctx context.Context, job store.TransferJob) error {
	_, err := s.pgPool.Exec(ctx, `
INSERT INTO transfer_job (id, service_key, state, detail, project_id, folder_id, files_total, files_failed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`,
		job.Id,
		job.ServiceKey,
		int(job.State),
		job.Detail,
		job.ProjectId,
		job.FolderId,
		job.FilesTotal,
		job.FilesFailed,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer job %d: %v", job.Id, err)
	}
	return nil
}

func (s *Store) UpdateTransferJob(ctx context.Context, job store.TransferJob) error {
	tag, err := s.pgPool.Exec(ctx, `
UPDATE transfer_job
SET state = $2, detail = $3, project_id = $4, folder_id = $5, files_total = $6, files_failed = $7, updated_at = $8
WHERE id = $1
`,
		job.Id,
		int(job.State),
		job.Detail,
		job.ProjectId,
		job.FolderId,
		job.FilesTotal,
		job.FilesFailed,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update transfer job %d: %v", job.Id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) TransferJobsByService(ctx context.Context, serviceKey string) ([]store.TransferJob, error) {
	rows, err := s.pgPool.Query(ctx, `
SELECT id, service_key, state, detail, project_id, folder_id, files_total, files_failed, created_at, updated_at
FROM transfer_job
WHERE service_key = $1
ORDER BY id DESC
`, serviceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to select transfer jobs of service %s: %v", serviceKey, err)
	}

	defer rows.Close()

	var jobs []store.TransferJob
	for rows.Next() {
		var job store.TransferJob
		var state int
		if err := rows.Scan(
			&job.Id,
			&job.ServiceKey,
			&state,
			&job.Detail,
			&job.ProjectId,
			&job.FolderId,
			&job.FilesTotal,
			&job.FilesFailed,
			&job.CreatedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transfer job: %v", err)
		}

		job.State = store.JobState(state)
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}
