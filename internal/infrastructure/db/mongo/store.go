package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haulscale/weighbridge/internal/core/domain"
)

// Collection names.
const (
	collectionCompanies = "companies"
	collectionCities    = "cities"
	collectionDrivers   = "drivers"
	collectionVehicles  = "vehicles"
	collectionScales    = "scales"
	collectionLoads     = "loads"
	collectionWeights   = "weights"
	collectionPermits   = "permits"
	collectionWebhooks  = "webhooks"
	collectionAPIKeys   = "api_keys"
)

// Store groups the tenant repositories of one database.
type Store struct {
	Companies *Collection[domain.Company, *domain.Company]
	Cities    *Collection[domain.City, *domain.City]
	Drivers   *Collection[domain.Driver, *domain.Driver]
	Vehicles  *Collection[domain.Vehicle, *domain.Vehicle]
	Scales    *Collection[domain.Scale, *domain.Scale]
	Loads     *Collection[domain.Load, *domain.Load]
	Weights   *Collection[domain.Weight, *domain.Weight]
	Permits   *Collection[domain.Permit, *domain.Permit]
	Webhooks  *WebhookRepository
	APIKeys   *APIKeyRepository
}

func unique(keys ...string) mongo.IndexModel {
	d := bson.D{}
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: 1})
	}
	return mongo.IndexModel{Keys: d, Options: options.Index().SetUnique(true)}
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		Companies: NewCollection[domain.Company](db, collectionCompanies, "_id"),
		Cities:    NewCollection[domain.City](db, collectionCities, "_id"),
		Drivers:   NewCollection[domain.Driver](db, collectionDrivers, "company_id", unique("company_id", "license_number")),
		Vehicles:  NewCollection[domain.Vehicle](db, collectionVehicles, "company_id", unique("company_id", "unit_number")),
		Scales:    NewCollection[domain.Scale](db, collectionScales, "company_id"),
		Loads: NewCollection[domain.Load](db, collectionLoads, "company_id",
			unique("company_id", "reference"),
			mongo.IndexModel{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}}}),
		Weights: NewCollection[domain.Weight](db, collectionWeights, "company_id",
			unique("company_id", "ticket_number"),
			mongo.IndexModel{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "overweight", Value: 1}}}),
		Permits: NewCollection[domain.Permit](db, collectionPermits, "city_id",
			unique("city_id", "permit_number"),
			mongo.IndexModel{Keys: bson.D{{Key: "city_id", Value: 1}, {Key: "status", Value: 1}}}),
		Webhooks: &WebhookRepository{
			Collection: NewCollection[domain.Webhook](db, collectionWebhooks, "company_id"),
		},
		APIKeys: &APIKeyRepository{
			Collection: NewCollection[domain.APIKey](db, collectionAPIKeys, "company_id", unique("prefix")),
		},
	}
}

// EnsureIndexes creates the indexes of every collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, c := range []interface{ EnsureIndexes(context.Context) error }{
		s.Companies, s.Cities, s.Drivers, s.Vehicles, s.Scales, s.Loads,
		s.Weights, s.Permits, s.Webhooks, s.APIKeys,
	} {
		if err := c.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

// WebhookRepository adds subscription lookups to the webhook collection.
type WebhookRepository struct {
	*Collection[domain.Webhook, *domain.Webhook]
}

// ListSubscribed returns the active webhooks of companyID subscribed to eventType.
func (r *WebhookRepository) ListSubscribed(ctx context.Context, companyID, eventType string) ([]*domain.Webhook, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"company_id": companyID,
		"active":     true,
		"events":     bson.M{"$in": bson.A{eventType, "*"}},
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find webhooks: %w", err)
	}
	defer cur.Close(ctx)

	var hooks []*domain.Webhook
	if err := cur.All(ctx, &hooks); err != nil {
		return nil, fmt.Errorf("decode webhooks: %w", err)
	}
	return hooks, nil
}

// APIKeyRepository adds the unscoped prefix lookup used to authenticate keys.
type APIKeyRepository struct {
	*Collection[domain.APIKey, *domain.APIKey]
}

func (r *APIKeyRepository) FindByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var k domain.APIKey
	if err := r.col.FindOne(ctx, bson.M{"prefix": prefix}).Decode(&k); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find api key: %w", err)
	}
	return &k, nil
}

func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_used_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	return nil
}
