package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"pixeldust/internal/models"
)

const filesFilenameKey = "files_filename_key"

const fileColumns = `id, user_id, filename, original_name, file_type, file_size, upload_date, views`

type FileRepository struct {
	db DBTX
}

func NewFileRepository(db DBTX) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) SumSizeByUser(ctx context.Context, userID string) (int64, error) {
	const query = `SELECT COALESCE(SUM(file_size), 0)::BIGINT FROM files WHERE user_id = $1`
	var used int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&used); err != nil {
		return 0, classify(err)
	}
	return used, nil
}

// CreateWithinQuota inserts file only if the owner's usage plus file.FileSize
// stays within ceiling. The owner row is locked for the duration of the
// transaction so concurrent uploads by the same account are serialized.
func (r *FileRepository) CreateWithinQuota(ctx context.Context, file models.File, ceiling int64) (models.File, error) {
	const lockOwner = `SELECT id FROM users WHERE id = $1 FOR UPDATE`
	const sumUsage = `SELECT COALESCE(SUM(file_size), 0)::BIGINT FROM files WHERE user_id = $1`
	const insert = `
		INSERT INTO files (id, user_id, filename, original_name, file_type, file_size, upload_date, views)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), 0)
		RETURNING upload_date
	`

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var owner string
		if err := tx.QueryRow(ctx, lockOwner, file.UserID).Scan(&owner); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return classify(err)
		}

		var used int64
		if err := tx.QueryRow(ctx, sumUsage, file.UserID).Scan(&used); err != nil {
			return classify(err)
		}
		if used+file.FileSize > ceiling {
			return ErrQuotaExceeded
		}

		row := tx.QueryRow(ctx, insert,
			file.ID,
			file.UserID,
			file.Filename,
			file.OriginalName,
			string(file.FileType),
			file.FileSize,
		)
		if err := row.Scan(&file.UploadDate); err != nil {
			if isUniqueViolation(err, filesFilenameKey) {
				return ErrFilenameTaken
			}
			return classify(err)
		}
		return nil
	})
	if err != nil {
		return models.File{}, err
	}
	file.Views = 0
	return file, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (models.File, error) {
	const query = `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(r.db.QueryRow(ctx, query, id))
}

func (r *FileRepository) GetByIDForUser(ctx context.Context, id, userID string) (models.File, error) {
	const query = `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND user_id = $2`
	return scanFile(r.db.QueryRow(ctx, query, id, userID))
}

func (r *FileRepository) GetByFilename(ctx context.Context, filename string) (models.File, error) {
	const query = `SELECT ` + fileColumns + ` FROM files WHERE filename = $1`
	return scanFile(r.db.QueryRow(ctx, query, filename))
}

func (r *FileRepository) ListByUser(ctx context.Context, userID string) ([]models.File, error) {
	const query = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE user_id = $1
		ORDER BY upload_date DESC
	`
	return r.list(ctx, query, userID)
}

func (r *FileRepository) ListOlderThan(ctx context.Context, userID string, cutoff time.Time) ([]models.File, error) {
	const query = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE user_id = $1 AND upload_date < $2
		ORDER BY upload_date ASC
	`
	return r.list(ctx, query, userID, cutoff)
}

func (r *FileRepository) list(ctx context.Context, query string, args ...any) ([]models.File, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, classify(rows.Err())
}

func (r *FileRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM files WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// DeleteByUser drops the listed records of one account. Ids owned by another
// account are skipped.
func (r *FileRepository) DeleteByUser(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `DELETE FROM files WHERE user_id = $1 AND id = ANY($2)`
	cmd, err := r.db.Exec(ctx, query, userID, ids)
	if err != nil {
		return 0, classify(err)
	}
	return cmd.RowsAffected(), nil
}

// IncrementViews is a single read-modify-write statement; concurrent callers
// never lose an update.
func (r *FileRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE files SET views = views + 1 WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

func scanFile(row pgx.Row) (models.File, error) {
	var (
		file     models.File
		fileType string
	)
	if err := row.Scan(
		&file.ID,
		&file.UserID,
		&file.Filename,
		&file.OriginalName,
		&fileType,
		&file.FileSize,
		&file.UploadDate,
		&file.Views,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.File{}, ErrFileNotFound
		}
		return models.File{}, classify(err)
	}
	file.FileType = models.ContentType(fileType)
	return file, nil
}
