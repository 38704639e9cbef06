package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio-contact-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// submissionDocument is the stored shape; _id is generated by the driver on insert
type submissionDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	Email           string             `bson:"email"`
	Message         string             `bson:"message"`
	ClientIP        string             `bson:"client_ip"`
	ClientUserAgent string             `bson:"client_user_agent"`
	CreatedAt       time.Time          `bson:"created_at"`
}

type submissionRepo struct {
	coll *mongo.Collection
}

// NewSubmissionRepository returns a MongoDB-backed submission store writing to coll.
func NewSubmissionRepository(coll *mongo.Collection) domain.SubmissionStore {
	return &submissionRepo{coll: coll}
}

// EnsureIndexes creates the created_at index used by List.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: -1}},
		Options: options.Index().SetName("contact_submission_created_at"),
	})
	if err != nil && !isIndexExistsError(err) {
		return fmt.Errorf("create created_at index: %w", err)
	}
	return nil
}

func (r *submissionRepo) Save(ctx context.Context, rec *domain.SubmissionRecord) (string, error) {
	doc := submissionDocument{
		Name:            rec.Name,
		Email:           rec.Email,
		Message:         rec.Message,
		ClientIP:        rec.ClientIP,
		ClientUserAgent: rec.ClientUserAgent,
		CreatedAt:       rec.CreatedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert submission: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Sprint(res.InsertedID), nil
	}
	return oid.Hex(), nil
}

func (r *submissionRepo) List(ctx context.Context, opts domain.ListOptions) ([]*domain.SubmissionRecord, error) {
	filter := bson.M{}
	if !opts.Since.IsZero() {
		filter["created_at"] = bson.M{"$gte": opts.Since}
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []submissionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}

	records := make([]*domain.SubmissionRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, &domain.SubmissionRecord{
			ID:              d.ID.Hex(),
			Name:            d.Name,
			Email:           d.Email,
			Message:         d.Message,
			ClientIP:        d.ClientIP,
			ClientUserAgent: d.ClientUserAgent,
			CreatedAt:       d.CreatedAt.UTC(),
		})
	}
	return records, nil
}

func (r *submissionRepo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "duplicate")
}
