package object

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
)

// ErrNotFound reports that no object exists for a handle, either because it was
// never stored or because it has already been removed.
var ErrNotFound = errors.New("object not found")

// DefaultContentType is used when neither the caller nor sniffing yields a type.
const DefaultContentType = "application/octet-stream"

// PutResult describes a stored object.
type PutResult struct {
	Handle      string
	SizeBytes   int64
	ContentType string
}

// ObjectStore defines the contract for saving and retrieving binary payloads.
type ObjectStore interface {
	// Put stores r and returns an opaque handle for it.
	Put(ctx context.Context, ownerID, fileName, contentType string, r io.Reader) (PutResult, error)
	// Get opens the object for reading. Unknown handles yield ErrNotFound.
	Get(ctx context.Context, handle string) (io.ReadCloser, error)
	// Delete removes the object. Deleting an absent handle is not an error.
	Delete(ctx context.Context, handle string) error
}

// SniffContentType reads up to 512 bytes from r to detect a content type when
// contentType is empty. The returned reader replays the sniffed bytes.
func SniffContentType(contentType string, r io.Reader) (string, io.Reader, error) {
	if contentType != "" {
		return contentType, r, nil
	}
	var sniff [512]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	detected := DefaultContentType
	if n > 0 {
		detected = http.DetectContentType(sniff[:n])
	}
	head := make([]byte, n)
	copy(head, sniff[:n])
	return detected, io.MultiReader(bytes.NewReader(head), r), nil
}

// CountingReader counts the bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}
