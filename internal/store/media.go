// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quillpress/internal/models"
)

// MediaStore handles media metadata. File bytes live in external storage.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

// mediaColumns lists the columns selected in media queries.
const mediaColumns = `id, user_id, file_name, title, caption, alt, content_type,
	media_type, length, width, height, uploaded_on`

// scanMedia scans a media row from the result set.
func scanMedia(scanner interface{ Scan(...any) error }) (*models.Media, error) {
	var m models.Media
	err := scanner.Scan(
		&m.ID, &m.UserID, &m.FileName, &m.Title, &m.Caption, &m.Alt, &m.ContentType,
		&m.MediaType, &m.Length, &m.Width, &m.Height, &m.UploadedOn,
	)
	if err != nil {
		return nil, err
	}
	m.UploadedOn = m.UploadedOn.UTC()
	return &m, nil
}

// Create inserts a new media record and sets its ID. A zero UploadedOn is
// replaced by the current time.
func (s *MediaStore) Create(ctx context.Context, m *models.Media) error {
	if m.UploadedOn.IsZero() {
		m.UploadedOn = time.Now().UTC().Truncate(time.Microsecond)
	}
	if m.MediaType == "" {
		m.MediaType = models.MediaTypeFor(m.ContentType)
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO media (user_id, file_name, title, caption, alt, content_type,
			media_type, length, width, height, uploaded_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		m.UserID, m.FileName, m.Title, m.Caption, m.Alt, m.ContentType,
		m.MediaType, m.Length, m.Width, m.Height, m.UploadedOn,
	).Scan(&m.ID)
	if err != nil {
		return classify("create media", err)
	}
	return nil
}

// Get retrieves a single media record by ID. Returns nil if not found.
func (s *MediaStore) Get(ctx context.Context, id int64) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

// GetByFileName finds a file uploaded in the given year and month. File
// names are only unique within an upload month.
func (s *MediaStore) GetByFileName(ctx context.Context, fileName string, year, month int) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx, `
		SELECT `+mediaColumns+` FROM media
		WHERE file_name = $1
		  AND EXTRACT(YEAR FROM uploaded_on AT TIME ZONE 'UTC') = $2
		  AND EXTRACT(MONTH FROM uploaded_on AT TIME ZONE 'UTC') = $3
		ORDER BY id
		LIMIT 1`, fileName, year, month))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get media by file name: %w", err)
	}
	return m, nil
}

// ListByType returns one page of media of the given type, newest first,
// plus the total count of that type.
func (s *MediaStore) ListByType(ctx context.Context, mediaType models.MediaType, page, pageSize int) ([]models.Media, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM media WHERE media_type = $1`, mediaType).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count media: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mediaColumns+`
		FROM media
		WHERE media_type = $1
		ORDER BY uploaded_on DESC, id DESC
		LIMIT $2 OFFSET $3
	`, mediaType, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	items := []models.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	return items, total, rows.Err()
}

// Update saves the editable metadata fields.
func (s *MediaStore) Update(ctx context.Context, m *models.Media) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE media SET title = $1, caption = $2, alt = $3, width = $4, height = $5
		WHERE id = $6`,
		m.Title, m.Caption, m.Alt, m.Width, m.Height, m.ID)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	return nil
}

// Delete removes a media record and returns it so the caller can clean
// up the stored file. Returns nil if not found.
func (s *MediaStore) Delete(ctx context.Context, id int64) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx, `
		DELETE FROM media WHERE id = $1
		RETURNING `+mediaColumns, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	return m, nil
}
