package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// Collection is a tenant-scoped repository over one collection. A restricted
// scope adds the tenant condition to every query, so documents of another
// tenant behave exactly like missing documents.
type Collection[T any, P ports.Record[T]] struct {
	col         *mongo.Collection
	tenantField string
	indexes     []mongo.IndexModel
}

// NewCollection returns a repository over name. tenantField is the document
// field holding the owning tenant id.
func NewCollection[T any, P ports.Record[T]](db *mongo.Database, name, tenantField string, indexes ...mongo.IndexModel) *Collection[T, P] {
	return &Collection[T, P]{col: db.Collection(name), tenantField: tenantField, indexes: indexes}
}

func (c *Collection[T, P]) scoped(scope domain.Scope, filter bson.M) bson.M {
	if filter == nil {
		filter = bson.M{}
	}
	if !scope.Restricted() {
		return filter
	}
	// The caller may already have pinned the tenant field, e.g. _id on root
	// collections, to another value.
	if v, ok := filter[c.tenantField]; ok && v != scope.TenantID {
		return bson.M{"$and": bson.A{filter, bson.M{c.tenantField: scope.TenantID}}}
	}
	filter[c.tenantField] = scope.TenantID
	return filter
}

// filter builds a list or count filter. The tenant condition is applied
// after the caller's equality filters so none of them can replace it.
func (c *Collection[T, P]) filter(scope domain.Scope, filters []ports.Filter) bson.M {
	return c.scoped(scope, withFilters(bson.M{}, filters))
}

func withFilters(filter bson.M, filters []ports.Filter) bson.M {
	for _, f := range filters {
		filter[f.Field] = f.Value
	}
	return filter
}

func (c *Collection[T, P]) List(ctx context.Context, scope domain.Scope, q ports.ListQuery) ([]*T, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := c.filter(scope, q.Filters)

	total, err := c.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", c.col.Name(), err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cur, err := c.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", c.col.Name(), err)
	}
	defer cur.Close(ctx)

	var items []*T
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", c.col.Name(), err)
	}
	return items, total, nil
}

func (c *Collection[T, P]) Get(ctx context.Context, scope domain.Scope, id string) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec T
	err := c.col.FindOne(ctx, c.scoped(scope, bson.M{"_id": id})).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", c.col.Name(), err)
	}
	return &rec, nil
}

func (c *Collection[T, P]) Create(ctx context.Context, rec *T) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := c.col.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", c.col.Name(), domain.ErrConflict)
		}
		return fmt.Errorf("insert %s: %w", c.col.Name(), err)
	}
	return nil
}

func (c *Collection[T, P]) Update(ctx context.Context, scope domain.Scope, rec *T) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := c.col.ReplaceOne(ctx, c.scoped(scope, bson.M{"_id": P(rec).RecordID()}), rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", c.col.Name(), domain.ErrConflict)
		}
		return fmt.Errorf("replace %s: %w", c.col.Name(), err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (c *Collection[T, P]) Delete(ctx context.Context, scope domain.Scope, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := c.col.DeleteOne(ctx, c.scoped(scope, bson.M{"_id": id}))
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.col.Name(), err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (c *Collection[T, P]) Count(ctx context.Context, scope domain.Scope, filters ...ports.Filter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := c.col.CountDocuments(ctx, c.filter(scope, filters))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.col.Name(), err)
	}
	return n, nil
}

// EnsureIndexes creates the tenant index plus any collection-specific ones.
func (c *Collection[T, P]) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := append([]mongo.IndexModel{}, c.indexes...)
	if c.tenantField != "_id" {
		indexes = append(indexes, mongo.IndexModel{
			Keys: bson.D{{Key: c.tenantField, Value: 1}, {Key: "created_at", Value: -1}},
		})
	}
	if len(indexes) == 0 {
		return nil
	}
	if _, err := c.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("indexes %s: %w", c.col.Name(), err)
	}
	return nil
}
