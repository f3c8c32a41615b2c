package certificates

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "certificates"

// MongoRepo implements Repo on a MongoDB collection.
type MongoRepo struct {
	Coll *mongo.Collection
}

// NewMongoRepo binds a MongoRepo to the certificates collection of db.
func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{Coll: db.Collection(mongoCollection)}
}

type certDoc struct {
	ID               string       `bson:"_id"`
	OwnerID          string       `bson:"ownerId"`
	OwnerDisplayName string       `bson:"ownerDisplayName"`
	Title            string       `bson:"title"`
	BlobHandle       string       `bson:"blobHandle,omitempty"`
	StorageProvider  string       `bson:"storageProvider,omitempty"`
	FileName         string       `bson:"fileName"`
	MimeType         string       `bson:"mimeType,omitempty"`
	SizeBytes        int64        `bson:"sizeBytes"`
	UploadedAt       time.Time    `bson:"uploadedAt"`
	Status           string       `bson:"status"`
	ReviewerRemarks  string       `bson:"reviewerRemarks,omitempty"`
	ReviewedBy       string       `bson:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time   `bson:"reviewedAt,omitempty"`
	Metadata         *metadataDoc `bson:"metadata,omitempty"`
}

type metadataDoc struct {
	CertificateType     string `bson:"certificateType,omitempty"`
	IssuingOrganization string `bson:"issuingOrganization,omitempty"`
	IssueYear           int    `bson:"issueYear,omitempty"`
	Department          string `bson:"department,omitempty"`
}

// EnsureIndexes creates the indexes used by List filters.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.Coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "uploadedAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "uploadedAt", Value: -1}}},
		{Keys: bson.D{{Key: "uploadedAt", Value: -1}}},
	})
	return err
}

// Insert stores a new certificate.
func (r *MongoRepo) Insert(ctx context.Context, cert Certificate) error {
	_, err := r.Coll.InsertOne(ctx, toDoc(cert))
	return err
}

// GetByID fetches a certificate by ID.
func (r *MongoRepo) GetByID(ctx context.Context, id string) (Certificate, error) {
	var doc certDoc
	if err := r.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Certificate{}, ErrNotFound
		}
		return Certificate{}, err
	}
	return fromDoc(doc), nil
}

// List returns matching certificates ordered newest-first.
func (r *MongoRepo) List(ctx context.Context, filter Filter) ([]Certificate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})
	cursor, err := r.Coll.Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []Certificate{}
	for cursor.Next(ctx) {
		var doc certDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, fromDoc(doc))
	}
	return out, cursor.Err()
}

// UpdateReview sets the review fields only while the document is still PENDING.
func (r *MongoRepo) UpdateReview(ctx context.Context, id string, review Review) (Certificate, error) {
	update := bson.M{"$set": bson.M{
		"status":          string(review.Status),
		"reviewerRemarks": review.Remarks,
		"reviewedBy":      review.ReviewedBy,
		"reviewedAt":      review.ReviewedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc certDoc
	err := r.Coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": string(StatusPending)}, update, opts).Decode(&doc)
	if err == nil {
		return fromDoc(doc), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return Certificate{}, err
	}

	n, err := r.Coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return Certificate{}, err
	}
	if n == 0 {
		return Certificate{}, ErrNotFound
	}
	return Certificate{}, ErrInvalidTransition
}

// Delete removes a certificate document.
func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored certificates.
func (r *MongoRepo) Count(ctx context.Context) (int, error) {
	n, err := r.Coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func mongoFilter(filter Filter) bson.M {
	switch filter.Kind {
	case FilterByOwner:
		return bson.M{"ownerId": filter.OwnerID}
	case FilterByStatus:
		return bson.M{"status": string(filter.Status)}
	case FilterByNameContains:
		return bson.M{"ownerDisplayName": primitive.Regex{Pattern: regexp.QuoteMeta(filter.Name), Options: "i"}}
	default:
		return bson.M{}
	}
}

func toDoc(cert Certificate) certDoc {
	status := cert.Status
	if status == "" {
		status = StatusPending
	}
	doc := certDoc{
		ID:               cert.ID,
		OwnerID:          cert.OwnerID,
		OwnerDisplayName: cert.OwnerDisplayName,
		Title:            cert.Title,
		BlobHandle:       cert.BlobHandle,
		StorageProvider:  cert.StorageProvider,
		FileName:         cert.FileName,
		MimeType:         cert.MimeType,
		SizeBytes:        cert.SizeBytes,
		UploadedAt:       cert.UploadedAt,
		Status:           string(status),
		ReviewerRemarks:  cert.ReviewerRemarks,
		ReviewedBy:       cert.ReviewedBy,
		ReviewedAt:       cert.ReviewedAt,
	}
	if cert.Metadata != nil && !cert.Metadata.IsZero() {
		doc.Metadata = &metadataDoc{
			CertificateType:     cert.Metadata.CertificateType,
			IssuingOrganization: cert.Metadata.IssuingOrganization,
			IssueYear:           cert.Metadata.IssueYear,
			Department:          cert.Metadata.Department,
		}
	}
	return doc
}

func fromDoc(doc certDoc) Certificate {
	cert := Certificate{
		ID:               doc.ID,
		OwnerID:          doc.OwnerID,
		OwnerDisplayName: doc.OwnerDisplayName,
		Title:            doc.Title,
		BlobHandle:       doc.BlobHandle,
		StorageProvider:  doc.StorageProvider,
		FileName:         doc.FileName,
		MimeType:         doc.MimeType,
		SizeBytes:        doc.SizeBytes,
		UploadedAt:       doc.UploadedAt.UTC(),
		Status:           Status(doc.Status),
		ReviewerRemarks:  doc.ReviewerRemarks,
		ReviewedBy:       doc.ReviewedBy,
	}
	if doc.ReviewedAt != nil {
		t := doc.ReviewedAt.UTC()
		cert.ReviewedAt = &t
	}
	if doc.Metadata != nil {
		cert.Metadata = &Metadata{
			CertificateType:     doc.Metadata.CertificateType,
			IssuingOrganization: doc.Metadata.IssuingOrganization,
			IssueYear:           doc.Metadata.IssueYear,
			Department:          doc.Metadata.Department,
		}
	}
	return cert
}

var _ Repo = (*MongoRepo)(nil)
