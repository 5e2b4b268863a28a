package postgres

import (
	"context"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

type commentRepository struct {
	BaseRepository
}

func NewPatientCommentRepository(base BaseRepository) repository.PatientCommentRepository {
	return &commentRepository{base}
}

func (r *commentRepository) Create(ctx context.Context, c *model.PatientComment) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO patient_comments (patient_id, message) VALUES ($1, $2)
		RETURNING id, created_at
	`, c.PatientID, c.Message).Scan(&c.ID, &c.CreatedAt)
	return wrap("create patient comment", err)
}

func (r *commentRepository) List(ctx context.Context) ([]*model.PatientComment, error) {
	comments := []*model.PatientComment{}
	err := r.db.SelectContext(ctx, &comments, `
		SELECT id, patient_id, message, created_at FROM patient_comments ORDER BY created_at DESC
	`)
	return comments, wrap("list patient comments", err)
}
