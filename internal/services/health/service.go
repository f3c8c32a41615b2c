package health

import "context"

// Counter reports how many records the backing store holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Status is the health payload returned by the API.
type Status struct {
	OK           bool   `json:"ok"`
	Certificates int    `json:"certificates"`
	RecordStore  string `json:"recordStore"`
	ObjectStore  string `json:"objectStore"`
	Error        string `json:"error,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	Records     Counter
	RecordStore string
	ObjectStore string
}

// NewService constructs a new health service.
func NewService(records Counter, recordStore, objectStore string) *Service {
	return &Service{Records: records, RecordStore: recordStore, ObjectStore: objectStore}
}

// Status reports whether the record store answers and how many certificates it holds.
func (s *Service) Status(ctx context.Context) Status {
	out := Status{OK: true, RecordStore: s.RecordStore, ObjectStore: s.ObjectStore}
	if s.Records == nil {
		return out
	}
	n, err := s.Records.Count(ctx)
	if err != nil {
		out.OK = false
		out.Error = "record store unavailable"
		return out
	}
	out.Certificates = n
	return out
}
