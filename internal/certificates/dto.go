package certificates

import "time"

// MetadataResponse is the outward-facing form of Metadata.
type MetadataResponse struct {
	CertificateType     string `json:"certificateType,omitempty"`
	IssuingOrganization string `json:"issuingOrganization,omitempty"`
	IssueYear           int    `json:"issueYear,omitempty"`
	Department          string `json:"department,omitempty"`
}

// CertificateResponse is the outward-facing representation of a certificate.
type CertificateResponse struct {
	ID              string            `json:"id"`
	OwnerID         string            `json:"ownerId"`
	OwnerName       string            `json:"ownerName"`
	Title           string            `json:"title"`
	FileName        string            `json:"fileName"`
	MimeType        string            `json:"mimeType,omitempty"`
	SizeBytes       int64             `json:"sizeBytes"`
	HasPayload      bool              `json:"hasPayload"`
	StorageProvider string            `json:"storageProvider,omitempty"`
	UploadedAt      time.Time         `json:"uploadedAt"`
	Status          Status            `json:"status"`
	ReviewerRemarks string            `json:"reviewerRemarks,omitempty"`
	ReviewedBy      string            `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewedAt,omitempty"`
	Metadata        *MetadataResponse `json:"metadata,omitempty"`
}

// ToResponse converts a certificate for JSON output. The blob handle is never exposed.
func ToResponse(cert Certificate) CertificateResponse {
	resp := CertificateResponse{
		ID:              cert.ID,
		OwnerID:         cert.OwnerID,
		OwnerName:       cert.OwnerDisplayName,
		Title:           cert.Title,
		FileName:        cert.FileName,
		MimeType:        cert.MimeType,
		SizeBytes:       cert.SizeBytes,
		HasPayload:      cert.HasPayload(),
		StorageProvider: cert.StorageProvider,
		UploadedAt:      cert.UploadedAt,
		Status:          cert.Status,
		ReviewerRemarks: cert.ReviewerRemarks,
		ReviewedBy:      cert.ReviewedBy,
		ReviewedAt:      cert.ReviewedAt,
	}
	if cert.Metadata != nil {
		resp.Metadata = &MetadataResponse{
			CertificateType:     cert.Metadata.CertificateType,
			IssuingOrganization: cert.Metadata.IssuingOrganization,
			IssueYear:           cert.Metadata.IssueYear,
			Department:          cert.Metadata.Department,
		}
	}
	return resp
}

// ToResponses converts a slice, never returning nil.
func ToResponses(certs []Certificate) []CertificateResponse {
	out := make([]CertificateResponse, 0, len(certs))
	for _, cert := range certs {
		out = append(out, ToResponse(cert))
	}
	return out
}

type reviewRequest struct {
	Remarks string `json:"remarks"`
}
