// ABOUTME: Company database operations
// ABOUTME: Handles CRUD operations, partial updates and company lookups
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/crmpulse/models"
)

var companyColumns = map[string]bool{
	"name":          true,
	"domain":        true,
	"status":        true,
	"tags":          true,
	"cs_manager_id": true,
	"custom_fields": true,
}

const companySelect = `
	SELECT id, name, domain, status, tags, cs_manager_id, custom_fields, created_at, updated_at
	FROM companies`

func (s *Store) CreateCompany(ctx context.Context, company *models.Company) error {
	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	if company.Status == "" {
		company.Status = "active"
	}
	now := s.now()
	company.CreatedAt = now
	company.UpdatedAt = now

	tags, err := encodeJSON(normalizeTags(company.Tags))
	if err != nil {
		return err
	}
	fields, err := encodeJSON(normalizeFields(company.CustomFields))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, domain, status, tags, cs_manager_id, custom_fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, company.ID, company.Name, company.Domain, company.Status, tags,
		nullString(company.CSManagerID), fields, company.CreatedAt, company.UpdatedAt)

	return err
}

// GetCompany returns the company or ErrNotFound.
func (s *Store) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	row := s.db.QueryRowContext(ctx, companySelect+` WHERE id = ?`, id)
	company, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("company %s: %w", id, ErrNotFound)
	}
	return company, err
}

// PatchCompany updates only the given columns of a company.
func (s *Store) PatchCompany(ctx context.Context, id string, p Patch) error {
	if err := s.patch(ctx, "companies", companyColumns, id, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("company %s: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Store) FindCompanies(ctx context.Context, query string, limit int) ([]models.Company, error) {
	if limit <= 0 {
		limit = 10
	}

	searchPattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx, companySelect+`
		WHERE LOWER(name) LIKE ? OR LOWER(domain) LIKE ?
		ORDER BY created_at DESC
		LIMIT ?
	`, searchPattern, searchPattern, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var companies []models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *c)
	}

	return companies, rows.Err()
}

func scanCompany(row rowScanner) (*models.Company, error) {
	var c models.Company
	var domain, csManager sql.NullString
	var tags, fields string

	err := row.Scan(
		&c.ID,
		&c.Name,
		&domain,
		&c.Status,
		&tags,
		&csManager,
		&fields,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Domain = domain.String
	c.CSManagerID = stringPtr(csManager)

	if c.Tags, err = decodeTags(tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if c.CustomFields, err = decodeFields(fields); err != nil {
		return nil, fmt.Errorf("decode custom_fields: %w", err)
	}

	return &c, nil
}
