package gridfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"certify-backend/internal/shared/storage/object"
	"certify-backend/internal/shared/util"
)

const DefaultBucket = "certificates"

var errInvalidHandle = errors.New("invalid gridfs handle")

// Store implements ObjectStore on a MongoDB GridFS bucket.
type Store struct {
	bucket *gridfs.Bucket
}

// New opens the named GridFS bucket in db.
func New(db *mongo.Database, bucketName string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("mongo database is required")
	}
	if strings.TrimSpace(bucketName) == "" {
		bucketName = DefaultBucket
	}
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &Store{bucket: bucket}, nil
}

// Put streams r into a new GridFS file. The handle is the file's ObjectID in hex.
func (s *Store) Put(ctx context.Context, ownerID, fileName, contentType string, r io.Reader) (object.PutResult, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return object.PutResult{}, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return object.PutResult{}, err
	}

	contentType, body, err := object.SniffContentType(contentType, r)
	if err != nil {
		return object.PutResult{}, fmt.Errorf("read sniff: %w", err)
	}

	counter := &object.CountingReader{R: body}
	opts := options.GridFSUpload().SetMetadata(bson.M{
		"owner":       util.OwnerKey(ownerID),
		"contentType": contentType,
	})
	id, err := s.bucket.UploadFromStream(sanitizedName, counter, opts)
	if err != nil {
		return object.PutResult{}, fmt.Errorf("gridfs upload %s: %w", sanitizedName, err)
	}

	return object.PutResult{Handle: id.Hex(), SizeBytes: counter.N, ContentType: contentType}, nil
}

// Get opens a download stream for the file behind handle.
func (s *Store) Get(ctx context.Context, handle string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := parseHandle(handle)
	if err != nil {
		return nil, object.ErrNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, object.ErrNotFound
		}
		return nil, fmt.Errorf("gridfs open %s: %w", handle, err)
	}
	return stream, nil
}

// Delete removes the file and its chunks. Unknown handles are ignored.
func (s *Store) Delete(ctx context.Context, handle string) error {
	id, err := parseHandle(handle)
	if err != nil {
		return nil
	}
	if err := s.bucket.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("gridfs delete %s: %w", handle, err)
	}
	return nil
}

func parseHandle(handle string) (primitive.ObjectID, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return primitive.NilObjectID, errInvalidHandle
	}
	id, err := primitive.ObjectIDFromHex(handle)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %v", errInvalidHandle, err)
	}
	return id, nil
}

var _ object.ObjectStore = (*Store)(nil)
