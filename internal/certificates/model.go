package certificates

import (
	"io"
	"strings"
	"time"
)

// Status is the review state of a certificate.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusVerified Status = "VERIFIED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus maps a case-insensitive status name. ok is false for unknown values.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, true
	case StatusVerified:
		return StatusVerified, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// Decision is a reviewer's verdict on a pending certificate.
type Decision string

const (
	DecisionVerify Decision = "verify"
	DecisionReject Decision = "reject"
)

func (d Decision) target() (Status, bool) {
	switch d {
	case DecisionVerify:
		return StatusVerified, true
	case DecisionReject:
		return StatusRejected, true
	}
	return "", false
}

// Intent is how a retrieved payload will be presented.
type Intent string

const (
	IntentView     Intent = "view"
	IntentDownload Intent = "download"
)

// Metadata holds descriptive fields with no behavioral effect.
type Metadata struct {
	CertificateType     string
	IssuingOrganization string
	IssueYear           int
	Department          string
}

// IsZero reports whether no metadata field is set.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Certificate is a student-submitted credential awaiting or past review.
type Certificate struct {
	ID               string
	OwnerID          string
	OwnerDisplayName string
	Title            string
	BlobHandle       string
	StorageProvider  string
	FileName         string
	MimeType         string
	SizeBytes        int64
	UploadedAt       time.Time
	Status           Status
	ReviewerRemarks  string
	ReviewedBy       string
	ReviewedAt       *time.Time
	Metadata         *Metadata
}

// HasPayload reports whether a blob is attached.
func (c Certificate) HasPayload() bool {
	return c.BlobHandle != ""
}

// Review is the set of fields written by a single review transition.
type Review struct {
	Status     Status
	Remarks    string
	ReviewedBy string
	ReviewedAt time.Time
}

// Payload is a retrieved blob together with presentation hints.
type Payload struct {
	Certificate Certificate
	FileName    string
	MimeType    string
	Intent      Intent
	Body        io.ReadCloser
}
