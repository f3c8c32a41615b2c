package certificates

import (
	"context"
	"strings"
)

// Repo defines persistence operations for certificate records.
type Repo interface {
	Insert(ctx context.Context, cert Certificate) error
	GetByID(ctx context.Context, id string) (Certificate, error)
	List(ctx context.Context, filter Filter) ([]Certificate, error)
	// UpdateReview applies review to a PENDING record and returns the updated record.
	// It returns ErrInvalidTransition when the record is no longer PENDING.
	UpdateReview(ctx context.Context, id string, review Review) (Certificate, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// FilterKind selects which List query is run.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterByOwner
	FilterByStatus
	FilterByNameContains
)

// Filter narrows List results.
type Filter struct {
	Kind    FilterKind
	OwnerID string
	Status  Status
	Name    string
}

func All() Filter                    { return Filter{Kind: FilterAll} }
func ByOwner(ownerID string) Filter  { return Filter{Kind: FilterByOwner, OwnerID: ownerID} }
func ByStatus(status Status) Filter  { return Filter{Kind: FilterByStatus, Status: status} }
func ByNameContains(q string) Filter { return Filter{Kind: FilterByNameContains, Name: q} }

// Matches reports whether cert satisfies the filter. Name search is a
// case-insensitive substring match on the owner's display name.
func (f Filter) Matches(cert Certificate) bool {
	switch f.Kind {
	case FilterByOwner:
		return cert.OwnerID == f.OwnerID
	case FilterByStatus:
		return cert.Status == f.Status
	case FilterByNameContains:
		return strings.Contains(strings.ToLower(cert.OwnerDisplayName), strings.ToLower(f.Name))
	default:
		return true
	}
}
