package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"

	"image-compressor/internal/domain"
	"image-compressor/internal/repository/photo"
)

type PhotosRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewPhotosRepository(db *dbpg.DB, retries retry.Strategy) *PhotosRepository {
	return &PhotosRepository{
		db:      db,
		retries: retries,
	}
}

func (r *PhotosRepository) Save(ctx context.Context, p *domain.Photo) error {
	query := `
		INSERT INTO photos (
			id, owner_id, filename, path, mime_type,
			original_size, stored_size, compression_ratio, compressed,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		p.ID,
		p.OwnerID,
		p.Filename,
		p.Path,
		p.MimeType,
		p.OriginalSize,
		p.StoredSize,
		p.CompressionRatio,
		p.Compressed,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save photo: %w", err)
	}

	return nil
}

func (r *PhotosRepository) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	query := `
		SELECT id, owner_id, filename, path, mime_type,
		       original_size, stored_size, compression_ratio, compressed,
		       status, created_at, updated_at
		FROM photos
		WHERE id = $1 AND status != $2
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id, domain.StatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query photo: %w", err)
	}

	p, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, photo.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan photo: %w", err)
	}

	return p, nil
}

// GetCurrentByOwner returns the owner's active photo, the one a new
// upload replaces.
func (r *PhotosRepository) GetCurrentByOwner(ctx context.Context, ownerID string) (*domain.Photo, error) {
	query := `
		SELECT id, owner_id, filename, path, mime_type,
		       original_size, stored_size, compression_ratio, compressed,
		       status, created_at, updated_at
		FROM photos
		WHERE owner_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query,
		ownerID, domain.StatusPending, domain.StatusReady)
	if err != nil {
		return nil, fmt.Errorf("failed to query current photo: %w", err)
	}

	p, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, photo.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan photo: %w", err)
	}

	return p, nil
}

func (r *PhotosRepository) UpdateStatus(ctx context.Context, id string, status domain.PhotoStatus) error {
	query := `UPDATE photos SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return photo.ErrPhotoNotFound
	}

	return nil
}

func (r *PhotosRepository) MarkReplaced(ctx context.Context, id string) error {
	return r.UpdateStatus(ctx, id, domain.StatusReplaced)
}

func (r *PhotosRepository) MarkDeleted(ctx context.Context, id string) error {
	return r.UpdateStatus(ctx, id, domain.StatusDeleted)
}

func (r *PhotosRepository) SaveVariant(ctx context.Context, v *domain.PhotoVariant) error {
	query := `
		INSERT INTO photo_variants (
			id, photo_id, preset, path, mime_type,
			width, height, size, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (photo_id, preset) DO UPDATE SET
			path = EXCLUDED.path,
			mime_type = EXCLUDED.mime_type,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			size = EXCLUDED.size,
			created_at = EXCLUDED.created_at
	`

	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		v.ID,
		v.PhotoID,
		v.Preset,
		v.Path,
		v.MimeType,
		v.Width,
		v.Height,
		v.Size,
		v.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save variant: %w", err)
	}

	return nil
}

func (r *PhotosRepository) GetVariants(ctx context.Context, photoID string) ([]domain.PhotoVariant, error) {
	query := `
		SELECT id, photo_id, preset, path, mime_type,
		       width, height, size, created_at
		FROM photo_variants
		WHERE photo_id = $1
		ORDER BY preset
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, photoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.PhotoVariant
	for rows.Next() {
		var v domain.PhotoVariant
		err := rows.Scan(
			&v.ID,
			&v.PhotoID,
			&v.Preset,
			&v.Path,
			&v.MimeType,
			&v.Width,
			&v.Height,
			&v.Size,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return variants, nil
}

func (r *PhotosRepository) GetVariantByPreset(ctx context.Context, photoID, preset string) (*domain.PhotoVariant, error) {
	query := `
		SELECT id, photo_id, preset, path, mime_type,
		       width, height, size, created_at
		FROM photo_variants
		WHERE photo_id = $1 AND preset = $2
		LIMIT 1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, photoID, preset)
	if err != nil {
		return nil, fmt.Errorf("failed to query variant: %w", err)
	}

	var v domain.PhotoVariant
	err = row.Scan(
		&v.ID,
		&v.PhotoID,
		&v.Preset,
		&v.Path,
		&v.MimeType,
		&v.Width,
		&v.Height,
		&v.Size,
		&v.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, photo.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan variant: %w", err)
	}

	return &v, nil
}

func (r *PhotosRepository) DeleteVariants(ctx context.Context, photoID string) error {
	query := `DELETE FROM photo_variants WHERE photo_id = $1`

	if _, err := r.db.ExecWithRetry(ctx, r.retries, query, photoID); err != nil {
		return fmt.Errorf("failed to delete variants: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (*domain.Photo, error) {
	var p domain.Photo
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Filename,
		&p.Path,
		&p.MimeType,
		&p.OriginalSize,
		&p.StoredSize,
		&p.CompressionRatio,
		&p.Compressed,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
