package certificates

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Certificate
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Certificate),
	}
}

// Insert stores a new certificate.
func (r *MemoryRepo) Insert(ctx context.Context, cert Certificate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[cert.ID] = clone(cert)
	return nil
}

// GetByID returns a certificate by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Certificate, error) {
	if err := ctx.Err(); err != nil {
		return Certificate{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cert, ok := r.data[id]
	if !ok {
		return Certificate{}, ErrNotFound
	}
	return clone(cert), nil
}

// List returns matching certificates, newest first.
func (r *MemoryRepo) List(ctx context.Context, filter Filter) ([]Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]Certificate, 0, len(r.data))
	for _, cert := range r.data {
		if filter.Matches(cert) {
			out = append(out, clone(cert))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// UpdateReview applies a review transition if the certificate is still pending.
func (r *MemoryRepo) UpdateReview(ctx context.Context, id string, review Review) (Certificate, error) {
	if err := ctx.Err(); err != nil {
		return Certificate{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cert, ok := r.data[id]
	if !ok {
		return Certificate{}, ErrNotFound
	}
	if cert.Status != StatusPending {
		return Certificate{}, ErrInvalidTransition
	}
	reviewedAt := review.ReviewedAt
	cert.Status = review.Status
	cert.ReviewerRemarks = review.Remarks
	cert.ReviewedBy = review.ReviewedBy
	cert.ReviewedAt = &reviewedAt
	r.data[id] = cert
	return clone(cert), nil
}

// Delete removes a certificate record.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// Count returns the number of stored certificates.
func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data), nil
}

func clone(cert Certificate) Certificate {
	if cert.ReviewedAt != nil {
		t := *cert.ReviewedAt
		cert.ReviewedAt = &t
	}
	if cert.Metadata != nil {
		m := *cert.Metadata
		cert.Metadata = &m
	}
	return cert
}

var _ Repo = (*MemoryRepo)(nil)
