package seed

import (
	"context"
	"fmt"
	"time"

	"certify-backend/internal/certificates"
	"certify-backend/internal/shared/telemetry"
)

// Samples returns placeholder certificates with no stored payload, relative to now.
func Samples(now time.Time) []certificates.Certificate {
	now = now.UTC()
	javaUploaded := now.AddDate(0, 0, -5)
	javaReviewed := javaUploaded.Add(24 * time.Hour)
	return []certificates.Certificate{
		{
			ID:               "sample-cert-1",
			OwnerID:          "student1",
			OwnerDisplayName: "John Student",
			Title:            "Java Programming Certificate",
			FileName:         "java-cert.pdf",
			MimeType:         "application/pdf",
			UploadedAt:       javaUploaded,
			Status:           certificates.StatusVerified,
			ReviewerRemarks:  "Certificate of completion for Java Programming course",
			ReviewedBy:       "staff1",
			ReviewedAt:       &javaReviewed,
		},
		{
			ID:               "sample-cert-2",
			OwnerID:          "unni",
			OwnerDisplayName: "Unni Krishnan",
			Title:            "Web Development Certificate",
			FileName:         "web-dev-cert.pdf",
			MimeType:         "application/pdf",
			UploadedAt:       now.AddDate(0, 0, -2),
			Status:           certificates.StatusPending,
		},
	}
}

// Run inserts the sample certificates when the store is empty. It returns how many were inserted.
func Run(ctx context.Context, repo certificates.Repo, now time.Time) (int, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count certificates: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	inserted := 0
	for _, cert := range Samples(now) {
		if err := repo.Insert(ctx, cert); err != nil {
			return inserted, fmt.Errorf("insert sample %s: %w", cert.ID, err)
		}
		inserted++
	}
	telemetry.Info("seed.completed", map[string]any{"inserted": inserted})
	return inserted, nil
}
