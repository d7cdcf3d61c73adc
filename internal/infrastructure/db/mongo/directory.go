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

const (
	collectionCompanyUsers = "company_users"
	collectionCityUsers    = "city_users"
)

// Directory serves account records from MongoDB.
type Directory struct {
	client       *mongo.Client
	companyUsers *mongo.Collection
	cityUsers    *mongo.Collection
}

func NewDirectory(client *mongo.Client, db *mongo.Database) *Directory {
	return &Directory{
		client:       client,
		companyUsers: db.Collection(collectionCompanyUsers),
		cityUsers:    db.Collection(collectionCityUsers),
	}
}

func lookupFilter(by ports.Lookup) (bson.M, error) {
	switch {
	case by.ID != "":
		return bson.M{"_id": by.ID}, nil
	case by.Email != "":
		return bson.M{"email": by.Email}, nil
	default:
		return nil, fmt.Errorf("%w: lookup needs an id or email", domain.ErrInvalidInput)
	}
}

func findOne[T any](ctx context.Context, col *mongo.Collection, by ports.Lookup) (*T, error) {
	filter, err := lookupFilter(by)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec T
	if err := col.FindOne(ctx, filter).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", col.Name(), err)
	}
	return &rec, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M) ([]*T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", col.Name(), err)
	}
	defer cur.Close(ctx)

	out := []*T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", col.Name(), err)
	}
	return out, nil
}

func (d *Directory) FindCompanyUser(ctx context.Context, by ports.Lookup) (*domain.CompanyUser, error) {
	return findOne[domain.CompanyUser](ctx, d.companyUsers, by)
}

func (d *Directory) FindCityUser(ctx context.Context, by ports.Lookup) (*domain.CityUser, error) {
	return findOne[domain.CityUser](ctx, d.cityUsers, by)
}

func (d *Directory) ListCompanyUsers(ctx context.Context, companyID string) ([]*domain.CompanyUser, error) {
	filter := bson.M{}
	if companyID != "" {
		filter["company_id"] = companyID
	}
	return findAll[domain.CompanyUser](ctx, d.companyUsers, filter)
}

func (d *Directory) ListCityUsers(ctx context.Context, cityID string) ([]*domain.CityUser, error) {
	filter := bson.M{}
	if cityID != "" {
		filter["city_id"] = cityID
	}
	return findAll[domain.CityUser](ctx, d.cityUsers, filter)
}

func (d *Directory) CreateCompanyUser(ctx context.Context, u *domain.CompanyUser) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := d.companyUsers.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("company user: %w", domain.ErrConflict)
		}
		return fmt.Errorf("insert company user: %w", err)
	}
	return nil
}

func (d *Directory) UpdateCompanyUser(ctx context.Context, u *domain.CompanyUser) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.companyUsers.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return fmt.Errorf("replace company user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (d *Directory) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// EnsureIndexes makes emails unique per account table.
func (d *Directory) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	if _, err := d.companyUsers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique("email"),
		{Keys: bson.D{{Key: "company_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("indexes %s: %w", collectionCompanyUsers, err)
	}
	if _, err := d.cityUsers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique("email"),
		{Keys: bson.D{{Key: "city_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("indexes %s: %w", collectionCityUsers, err)
	}
	return nil
}
