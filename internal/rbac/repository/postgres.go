package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/domain"
)

// PostgresRoleRepository persists roles in the roles table; grants are a
// JSONB column owned by the role row.
type PostgresRoleRepository struct {
	db *sql.DB
}

// NewPostgresRoleRepository returns a role repository backed by db.
func NewPostgresRoleRepository(db *sql.DB) *PostgresRoleRepository {
	return &PostgresRoleRepository{db: db}
}

const roleColumns = `id, name, slug, status, grants, created_at, updated_at`

// GetBySlug returns the role for slug, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRoleRepository) GetBySlug(ctx context.Context, slug string) (*domain.Role, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE slug = $1`, slug)
	role, err := scanRole(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return role, nil
}

// List returns all roles.
func (r *PostgresRoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roleColumns+` FROM roles ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Role
	for rows.Next() {
		role, err := scanRole(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// Create persists the role. The role must have ID set.
func (r *PostgresRoleRepository) Create(ctx context.Context, role *domain.Role) error {
	grants, err := json.Marshal(role.Grants)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO roles (`+roleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		role.ID, role.Name, role.Slug, role.Status, grants, role.CreatedAt, role.UpdatedAt)
	return err
}

// Update replaces the role's mutable fields. UpdatedAt must be set by the
// caller; the permission index keys its cache on it.
func (r *PostgresRoleRepository) Update(ctx context.Context, role *domain.Role) error {
	grants, err := json.Marshal(role.Grants)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE roles SET name = $2, status = $3, grants = $4, updated_at = $5
		WHERE slug = $1`,
		role.Slug, role.Name, role.Status, grants, role.UpdatedAt)
	return err
}

func scanRole(scan func(...any) error) (*domain.Role, error) {
	var role domain.Role
	var grants []byte
	if err := scan(&role.ID, &role.Name, &role.Slug, &role.Status, &grants,
		&role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	if len(grants) > 0 {
		if err := json.Unmarshal(grants, &role.Grants); err != nil {
			return nil, err
		}
	}
	return &role, nil
}

// PostgresResourceRepository persists resources in the resources table.
type PostgresResourceRepository struct {
	db *sql.DB
}

// NewPostgresResourceRepository returns a resource repository backed by db.
func NewPostgresResourceRepository(db *sql.DB) *PostgresResourceRepository {
	return &PostgresResourceRepository{db: db}
}

const resourceColumns = `id, name, slug, created_at, updated_at`

// GetBySlug returns the resource for slug, or nil if not found.
func (r *PostgresResourceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Resource, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE slug = $1`, slug)
	var res domain.Resource
	err := row.Scan(&res.ID, &res.Name, &res.Slug, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

// List returns all resources.
func (r *PostgresResourceRepository) List(ctx context.Context) ([]*domain.Resource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM resources ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Resource
	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.Slug, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

// Create persists the resource. The resource must have ID set.
func (r *PostgresResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resources (`+resourceColumns+`)
		VALUES ($1, $2, $3, $4, $5)`,
		res.ID, res.Name, res.Slug, res.CreatedAt, res.UpdatedAt)
	return err
}
