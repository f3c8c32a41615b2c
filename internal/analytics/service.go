package analytics

import (
	"context"
	"sort"

	"certify-backend/internal/certificates"
)

const (
	StudentRecentLimit = 5
	StaffRecentLimit   = 10
)

// Summary aggregates certificate counts by status plus the most recent uploads.
type Summary struct {
	Total    int
	Verified int
	Pending  int
	Rejected int
	Recent   []certificates.Certificate
}

// Service computes dashboard summaries from the certificate store.
type Service struct {
	Repo certificates.Repo
}

// StudentSummary summarizes certificates owned by ownerID.
func (s *Service) StudentSummary(ctx context.Context, ownerID string) (Summary, error) {
	certs, err := s.Repo.List(ctx, certificates.ByOwner(ownerID))
	if err != nil {
		return Summary{}, err
	}
	return summarize(certs, StudentRecentLimit), nil
}

// StaffSummary summarizes every certificate.
func (s *Service) StaffSummary(ctx context.Context) (Summary, error) {
	certs, err := s.Repo.List(ctx, certificates.All())
	if err != nil {
		return Summary{}, err
	}
	return summarize(certs, StaffRecentLimit), nil
}

func summarize(certs []certificates.Certificate, recent int) Summary {
	out := Summary{Total: len(certs)}
	for _, cert := range certs {
		switch cert.Status {
		case certificates.StatusVerified:
			out.Verified++
		case certificates.StatusRejected:
			out.Rejected++
		default:
			out.Pending++
		}
	}

	sorted := make([]certificates.Certificate, len(certs))
	copy(sorted, certs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UploadedAt.After(sorted[j].UploadedAt)
	})
	if len(sorted) > recent {
		sorted = sorted[:recent]
	}
	out.Recent = sorted
	return out
}
