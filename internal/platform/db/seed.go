package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"staffperf/internal/domain/auth"
	"staffperf/internal/platform/config"
	"staffperf/internal/platform/querier"
)

// Seed ensures the configured organization exists and, when credentials are
// configured, an HR user who can review and administer leave requests.
func Seed(ctx context.Context, db querier.Querier, cfg config.Config) error {
	orgID, err := EnsureOrganization(ctx, db, cfg.SeedOrganizationName)
	if err != nil {
		return err
	}
	_, err = EnsureUser(ctx, db, SeedUser{
		OrganizationID: orgID,
		Email:          cfg.SeedAdminEmail,
		Password:       cfg.SeedAdminPassword,
		Name:           "Administrator",
		Role:           auth.RoleHR,
	})
	return err
}

func EnsureOrganization(ctx context.Context, db querier.Querier, name string) (string, error) {
	var id string
	err := db.QueryRow(ctx, "SELECT id FROM organizations WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = db.QueryRow(ctx, "INSERT INTO organizations (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

type SeedUser struct {
	OrganizationID string
	Email          string
	Password       string
	Name           string
	Role           string
	ManagerID      string
}

// EnsureUser returns the id of the user with the given email, creating it
// first when missing. Users without credentials are skipped.
func EnsureUser(ctx context.Context, db querier.Querier, u SeedUser) (string, error) {
	if strings.TrimSpace(u.Email) == "" || strings.TrimSpace(u.Password) == "" {
		return "", nil
	}

	var id string
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = lower($1)", u.Email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return "", err
	}

	var manager any
	if u.ManagerID != "" {
		manager = u.ManagerID
	}
	err = db.QueryRow(ctx, `
    INSERT INTO users (organization_id, email, name, password_hash, role, manager_id)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, u.OrganizationID, u.Email, u.Name, hash, u.Role, manager).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
