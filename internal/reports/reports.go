// Package reports is the report-store collaborator. The access-control core
// treats it as opaque: deletion is authorized by the caller's role, never by
// this store.
package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

// listLimit keeps the dashboard feed to the newest reports.
const listLimit = 50

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) List(ctx context.Context) ([]model.Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, report_type, content, analysis, media_url, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1
	`, listLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Report
	for rows.Next() {
		var report model.Report
		if err := rows.Scan(&report.ID, &report.Type, &report.Content, &report.Analysis, &report.MediaURL, &report.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}

func (s *Store) Add(ctx context.Context, report model.Report) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reports (id, report_type, content, analysis, media_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, report.ID, report.Type, report.Content, report.Analysis, report.MediaURL, report.CreatedAt)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
