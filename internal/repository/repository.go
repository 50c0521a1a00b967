package repository

import (
	"context"
	"errors"
	"time"

	"request-review-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("request not found")
	// ErrConcurrentModification means the version predicate matched nothing
	// but the request exists: another reviewer committed in between.
	ErrConcurrentModification = errors.New("request was modified concurrently")
)

// Mongo implementation
type MongoRequestRepository struct {
	col *mongo.Collection
}

func NewMongoRequestRepository(db *mongo.Database) *MongoRequestRepository {
	return &MongoRequestRepository{col: db.Collection("requests")}
}

func (m *MongoRequestRepository) Save(ctx context.Context, r *model.Request) error {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	filter := bson.M{"_id": r.ID}
	update := bson.M{"$set": r}
	opts := options.Update().SetUpsert(true)
	_, err := m.col.UpdateOne(ctx, filter, update, opts)
	return err
}

func (m *MongoRequestRepository) FindByID(ctx context.Context, id string) (*model.Request, error) {
	var res model.Request
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

func (m *MongoRequestRepository) FindAll(ctx context.Context) ([]*model.Request, error) {
	return m.findMany(ctx, bson.M{})
}

func (m *MongoRequestRepository) FindByStatus(ctx context.Context, status model.Status) ([]*model.Request, error) {
	return m.findMany(ctx, bson.M{"status": status})
}

func (m *MongoRequestRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*model.Request, error) {
	return m.findMany(ctx, bson.M{"customer.id": customerID})
}

// Update replaces the request document iff the stored version still matches
// expectedVersion, bumping the version in the same write. This is the single
// atomic commit point for review submissions and status transitions.
func (m *MongoRequestRepository) Update(ctx context.Context, r *model.Request, expectedVersion int64) error {
	r.Version = expectedVersion + 1
	r.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": r.ID, "version": expectedVersion}
	res, err := m.col.ReplaceOne(ctx, filter, r)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish a stale version from a missing document.
		n, err := m.col.CountDocuments(ctx, bson.M{"_id": r.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConcurrentModification
	}
	return nil
}

func (m *MongoRequestRepository) findMany(ctx context.Context, filter bson.M) ([]*model.Request, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Request
	for cur.Next(ctx) {
		var v model.Request
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
