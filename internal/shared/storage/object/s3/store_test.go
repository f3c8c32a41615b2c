package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"certify-backend/internal/shared/storage/object"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "owner/file.pdf", want: "owner/file.pdf"},
		{name: "simple prefix", prefix: "root", key: "owner/file.pdf", want: "root/owner/file.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "owner/file.pdf", want: "root/owner/file.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/owner/file.pdf", want: "root/owner/file.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "owner/file.pdf", want: "root/sub/owner/file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	getErr  error
	delErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStoreRoundTrip(t *testing.T) {
	fake := newFakeS3()
	store := newWithClient(fake, "bucket", "certificates/", "")

	res, err := store.Put(context.Background(), "u1", "cert.pdf", "application/pdf", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if res.SizeBytes != int64(len("payload")) {
		t.Fatalf("expected size 7, got %d", res.SizeBytes)
	}
	key := "certificates/" + res.Handle
	if fake.types[key] != "application/pdf" {
		t.Fatalf("expected content type stored under %s", key)
	}

	rc, err := store.Get(context.Background(), res.Handle)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "payload" {
		t.Fatalf("unexpected body %q", data)
	}

	if err := store.Delete(context.Background(), res.Handle); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(context.Background(), res.Handle); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetMapsAPINotFound(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = &smithy.GenericAPIError{Code: "NotFound", Message: "gone"}
	store := newWithClient(fake, "bucket", "", "")

	if _, err := store.Get(context.Background(), "x"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPropagatesTransportErrors(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = errors.New("connection reset")
	store := newWithClient(fake, "bucket", "", "")

	_, err := store.Get(context.Background(), "x")
	if err == nil || errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestDeleteFailureIsReported(t *testing.T) {
	fake := newFakeS3()
	fake.delErr = errors.New("access denied")
	store := newWithClient(fake, "bucket", "", "")

	if err := store.Delete(context.Background(), "x"); err == nil {
		t.Fatalf("expected delete error")
	}
}

func TestEmptyHandleIsAbsentWithoutCallingS3(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = errors.New("should not be called")
	fake.delErr = errors.New("should not be called")
	store := newWithClient(fake, "bucket", "certificates/", "")

	if _, err := store.Get(context.Background(), " "); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(context.Background(), ""); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
}
