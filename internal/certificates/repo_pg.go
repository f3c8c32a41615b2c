package certificates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const certificateColumns = `id, owner_id, owner_display_name, title, blob_handle, storage_provider, file_name, mime_type, size_bytes, uploaded_at, status, reviewer_remarks, reviewed_by, reviewed_at, metadata`

type metadataJSON struct {
	CertificateType     string `json:"certificateType,omitempty"`
	IssuingOrganization string `json:"issuingOrganization,omitempty"`
	IssueYear           int    `json:"issueYear,omitempty"`
	Department          string `json:"department,omitempty"`
}

// Insert stores a new certificate.
func (r *PGRepo) Insert(ctx context.Context, cert Certificate) error {
	const query = `
INSERT INTO certificates (
    id,
    owner_id,
    owner_display_name,
    title,
    blob_handle,
    storage_provider,
    file_name,
    mime_type,
    size_bytes,
    uploaded_at,
    status,
    reviewer_remarks,
    reviewed_by,
    reviewed_at,
    metadata
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	var blobHandle sql.NullString
	if cert.BlobHandle != "" {
		blobHandle = sql.NullString{String: cert.BlobHandle, Valid: true}
	}
	status := cert.Status
	if status == "" {
		status = StatusPending
	}
	var remarks, reviewedBy sql.NullString
	var reviewedAt sql.NullTime
	if cert.ReviewedAt != nil {
		remarks = sql.NullString{String: cert.ReviewerRemarks, Valid: true}
		reviewedBy = sql.NullString{String: cert.ReviewedBy, Valid: true}
		reviewedAt = sql.NullTime{Time: *cert.ReviewedAt, Valid: true}
	}
	metadata, err := encodeMetadata(cert.Metadata)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		cert.ID,
		cert.OwnerID,
		cert.OwnerDisplayName,
		cert.Title,
		blobHandle,
		cert.StorageProvider,
		cert.FileName,
		cert.MimeType,
		cert.SizeBytes,
		cert.UploadedAt,
		string(status),
		remarks,
		reviewedBy,
		reviewedAt,
		metadata,
	)
	return err
}

// GetByID fetches a certificate by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = $1`
	cert, err := scanCertificate(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Certificate{}, ErrNotFound
		}
		return Certificate{}, err
	}
	return cert, nil
}

// List returns matching certificates ordered newest-first.
func (r *PGRepo) List(ctx context.Context, filter Filter) ([]Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates`
	var args []any
	switch filter.Kind {
	case FilterByOwner:
		query += ` WHERE owner_id = $1`
		args = append(args, filter.OwnerID)
	case FilterByStatus:
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	case FilterByNameContains:
		query += ` WHERE owner_display_name ILIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(filter.Name)+"%")
	}
	query += ` ORDER BY uploaded_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Certificate{}
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cert)
	}
	return out, rows.Err()
}

// UpdateReview sets the review fields only while the row is still PENDING.
func (r *PGRepo) UpdateReview(ctx context.Context, id string, review Review) (Certificate, error) {
	query := `
UPDATE certificates
SET status = $2, reviewer_remarks = $3, reviewed_by = $4, reviewed_at = $5
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + certificateColumns

	cert, err := scanCertificate(r.DB.QueryRowContext(
		ctx,
		query,
		id,
		string(review.Status),
		review.Remarks,
		review.ReviewedBy,
		review.ReviewedAt,
	))
	if err == nil {
		return cert, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Certificate{}, err
	}

	var status string
	err = r.DB.QueryRowContext(ctx, `SELECT status FROM certificates WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return Certificate{}, ErrNotFound
	}
	if err != nil {
		return Certificate{}, err
	}
	return Certificate{}, ErrInvalidTransition
}

// Delete removes a certificate record.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored certificates.
func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (Certificate, error) {
	var cert Certificate
	var blobHandle sql.NullString
	var storageProvider sql.NullString
	var mimeType sql.NullString
	var status string
	var remarks sql.NullString
	var reviewedBy sql.NullString
	var reviewedAt sql.NullTime
	var metadata []byte
	if err := row.Scan(
		&cert.ID,
		&cert.OwnerID,
		&cert.OwnerDisplayName,
		&cert.Title,
		&blobHandle,
		&storageProvider,
		&cert.FileName,
		&mimeType,
		&cert.SizeBytes,
		&cert.UploadedAt,
		&status,
		&remarks,
		&reviewedBy,
		&reviewedAt,
		&metadata,
	); err != nil {
		return Certificate{}, err
	}
	cert.Status = Status(status)
	if blobHandle.Valid {
		cert.BlobHandle = blobHandle.String
	}
	if storageProvider.Valid {
		cert.StorageProvider = storageProvider.String
	}
	if mimeType.Valid {
		cert.MimeType = mimeType.String
	}
	if remarks.Valid {
		cert.ReviewerRemarks = remarks.String
	}
	if reviewedBy.Valid {
		cert.ReviewedBy = reviewedBy.String
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time.UTC()
		cert.ReviewedAt = &t
	}
	md, err := decodeMetadata(metadata)
	if err != nil {
		return Certificate{}, err
	}
	cert.Metadata = md
	return cert, nil
}

func encodeMetadata(md *Metadata) (any, error) {
	if md == nil || md.IsZero() {
		return nil, nil
	}
	raw, err := json.Marshal(metadataJSON{
		CertificateType:     md.CertificateType,
		IssuingOrganization: md.IssuingOrganization,
		IssueYear:           md.IssueYear,
		Department:          md.Department,
	})
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return string(raw), nil
}

func decodeMetadata(raw []byte) (*Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var md metadataJSON
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &Metadata{
		CertificateType:     md.CertificateType,
		IssuingOrganization: md.IssuingOrganization,
		IssueYear:           md.IssueYear,
		Department:          md.Department,
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ Repo = (*PGRepo)(nil)
