package health

import (
	"context"
	"errors"
	"testing"
)

type fixedCounter struct {
	n   int
	err error
}

func (f fixedCounter) Count(ctx context.Context) (int, error) {
	return f.n, f.err
}

func TestStatusReportsCount(t *testing.T) {
	svc := NewService(fixedCounter{n: 3}, "memory", "local")
	got := svc.Status(context.Background())
	if !got.OK || got.Certificates != 3 {
		t.Fatalf("unexpected status %+v", got)
	}
	if got.RecordStore != "memory" || got.ObjectStore != "local" {
		t.Fatalf("unexpected stores %+v", got)
	}
}

func TestStatusMarksStoreFailure(t *testing.T) {
	svc := NewService(fixedCounter{err: errors.New("connection refused")}, "postgres", "s3")
	got := svc.Status(context.Background())
	if got.OK {
		t.Fatalf("expected not ok, got %+v", got)
	}
	if got.Error == "" {
		t.Fatalf("expected error message")
	}
}

func TestStatusWithoutStore(t *testing.T) {
	got := NewService(nil, "", "").Status(context.Background())
	if !got.OK {
		t.Fatalf("expected ok without a store, got %+v", got)
	}
}
