// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the admin user (admin@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/iconic-inc/iconic-erp-sub000/internal/config"
	"github.com/iconic-inc/iconic-erp-sub000/internal/db"
	identitydomain "github.com/iconic-inc/iconic-erp-sub000/internal/identity/domain"
	identityrepo "github.com/iconic-inc/iconic-erp-sub000/internal/identity/repository"
	rbacdomain "github.com/iconic-inc/iconic-erp-sub000/internal/rbac/domain"
	rbacrepo "github.com/iconic-inc/iconic-erp-sub000/internal/rbac/repository"
	"github.com/iconic-inc/iconic-erp-sub000/internal/security"
)

const (
	adminEmail    = "admin@example.com"
	employeeEmail = "employee@example.com"
	devPassword   = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	identities := identityrepo.NewPostgresRepository(conn)
	roles := rbacrepo.NewPostgresRoleRepository(conn)
	resources := rbacrepo.NewPostgresResourceRepository(conn)

	existing, err := identities.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	seedResources := []*rbacdomain.Resource{
		{ID: "res-task", Name: "Task", Slug: "task", CreatedAt: now, UpdatedAt: now},
		{ID: "res-document", Name: "Document", Slug: "document", CreatedAt: now, UpdatedAt: now},
		{ID: "res-customer", Name: "Customer", Slug: "customer", CreatedAt: now, UpdatedAt: now},
		{ID: "res-role", Name: "Role", Slug: "role", CreatedAt: now, UpdatedAt: now},
		{ID: "res-resource", Name: "Resource", Slug: "resource", CreatedAt: now, UpdatedAt: now},
	}
	for _, r := range seedResources {
		if err := resources.Create(ctx, r); err != nil {
			log.Fatalf("create resource %s: %v", r.Slug, err)
		}
	}

	anyActions := []rbacdomain.Action{
		{Verb: rbacdomain.VerbCreate, Scope: rbacdomain.ScopeAny},
		{Verb: rbacdomain.VerbRead, Scope: rbacdomain.ScopeAny},
		{Verb: rbacdomain.VerbUpdate, Scope: rbacdomain.ScopeAny},
		{Verb: rbacdomain.VerbDelete, Scope: rbacdomain.ScopeAny},
	}
	ownActions := []rbacdomain.Action{
		{Verb: rbacdomain.VerbCreate, Scope: rbacdomain.ScopeOwn},
		{Verb: rbacdomain.VerbRead, Scope: rbacdomain.ScopeOwn},
		{Verb: rbacdomain.VerbUpdate, Scope: rbacdomain.ScopeOwn},
	}

	adminGrants := make([]rbacdomain.Grant, 0, len(seedResources))
	for _, r := range seedResources {
		adminGrants = append(adminGrants, rbacdomain.Grant{ResourceID: r.ID, Actions: anyActions})
	}
	adminRole := &rbacdomain.Role{
		ID: "role-admin", Name: "Administrator", Slug: "admin",
		Status: rbacdomain.RoleStatusActive, Grants: adminGrants,
		CreatedAt: now, UpdatedAt: now,
	}

	employeeRole := &rbacdomain.Role{
		ID: "role-employee", Name: "Employee", Slug: "employee",
		Status: rbacdomain.RoleStatusActive,
		Grants: []rbacdomain.Grant{
			{ResourceID: "res-task", Actions: ownActions},
			{ResourceID: "res-document", Actions: ownActions},
			{ResourceID: "res-customer", Actions: []rbacdomain.Action{
				{Verb: rbacdomain.VerbRead, Scope: rbacdomain.ScopeOwn},
			}},
		},
		CreatedAt: now, UpdatedAt: now,
	}
	for _, r := range []*rbacdomain.Role{adminRole, employeeRole} {
		if err := roles.Create(ctx, r); err != nil {
			log.Fatalf("create role %s: %v", r.Slug, err)
		}
	}

	admin := &identitydomain.Identity{
		ID: "ident-admin-001", Email: adminEmail, Username: "admin",
		Name: "Admin User", PasswordHash: passwordHash, RoleSlug: "admin",
		Status: identitydomain.IdentityStatusActive, CreatedAt: now, UpdatedAt: now,
	}
	employee := &identitydomain.Identity{
		ID: "ident-employee-001", Email: employeeEmail, Username: "employee",
		Name: "Employee User", PasswordHash: passwordHash, RoleSlug: "employee",
		Status: identitydomain.IdentityStatusActive, CreatedAt: now, UpdatedAt: now,
	}
	for _, ident := range []*identitydomain.Identity{admin, employee} {
		if err := identities.Create(ctx, ident); err != nil {
			log.Fatalf("create identity %s: %v", ident.Username, err)
		}
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", adminEmail, devPassword)
	fmt.Printf("Employee login: %s / %s\n", employeeEmail, devPassword)
}
