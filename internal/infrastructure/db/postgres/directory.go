// Package postgres serves account records from the hosted Postgres service's
// users tables.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

//go:embed schema.sql
var schema string

// NewPool constructs a pgx connection pool and verifies connectivity.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	if connString == "" {
		return nil, fmt.Errorf("postgres: empty connection string")
	}
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// Directory implements ports.Directory on Postgres.
type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Migrate creates the users tables when they do not exist.
func (d *Directory) Migrate(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

const companyUserColumns = `id, email, name, company_id, is_admin, active, created_at, updated_at`

func scanCompanyUser(row pgx.Row) (*domain.CompanyUser, error) {
	var u domain.CompanyUser
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CompanyID, &u.IsAdmin, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const cityUserColumns = `id, email, name, city_id, role, active, created_at, updated_at`

func scanCityUser(row pgx.Row) (*domain.CityUser, error) {
	var u domain.CityUser
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CityID, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// lookupClause returns the WHERE clause and argument for a single-record lookup.
func lookupClause(by ports.Lookup) (string, string, error) {
	switch {
	case by.ID != "":
		return "id = $1", by.ID, nil
	case by.Email != "":
		return "email = $1", by.Email, nil
	default:
		return "", "", fmt.Errorf("%w: lookup needs an id or email", domain.ErrInvalidInput)
	}
}

func (d *Directory) FindCompanyUser(ctx context.Context, by ports.Lookup) (*domain.CompanyUser, error) {
	where, arg, err := lookupClause(by)
	if err != nil {
		return nil, err
	}
	u, err := scanCompanyUser(d.pool.QueryRow(ctx, `SELECT `+companyUserColumns+` FROM company_users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: find company user: %w", err)
	}
	return u, nil
}

func (d *Directory) FindCityUser(ctx context.Context, by ports.Lookup) (*domain.CityUser, error) {
	where, arg, err := lookupClause(by)
	if err != nil {
		return nil, err
	}
	u, err := scanCityUser(d.pool.QueryRow(ctx, `SELECT `+cityUserColumns+` FROM city_users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: find city user: %w", err)
	}
	return u, nil
}

func (d *Directory) ListCompanyUsers(ctx context.Context, companyID string) ([]*domain.CompanyUser, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+companyUserColumns+`
		FROM company_users
		WHERE $1 = '' OR company_id = $1
		ORDER BY email`, companyID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list company users: %w", err)
	}
	defer rows.Close()

	out := []*domain.CompanyUser{}
	for rows.Next() {
		u, err := scanCompanyUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan company user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (d *Directory) ListCityUsers(ctx context.Context, cityID string) ([]*domain.CityUser, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+cityUserColumns+`
		FROM city_users
		WHERE $1 = '' OR city_id = $1
		ORDER BY email`, cityID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list city users: %w", err)
	}
	defer rows.Close()

	out := []*domain.CityUser{}
	for rows.Next() {
		u, err := scanCityUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan city user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (d *Directory) CreateCompanyUser(ctx context.Context, u *domain.CompanyUser) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO company_users (`+companyUserColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.CompanyID, u.IsAdmin, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("company user: %w", domain.ErrConflict)
		}
		return fmt.Errorf("postgres: create company user: %w", err)
	}
	return nil
}

func (d *Directory) UpdateCompanyUser(ctx context.Context, u *domain.CompanyUser) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE company_users
		SET name = $2, company_id = $3, is_admin = $4, active = $5, updated_at = $6
		WHERE id = $1`,
		u.ID, u.Name, u.CompanyID, u.IsAdmin, u.Active, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: update company user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (d *Directory) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}
