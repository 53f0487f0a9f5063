// ABOUTME: Lead database operations
// ABOUTME: Handles CRUD, partial updates and filtered lookups for leads
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

var leadColumns = map[string]bool{
	"company_id":    true,
	"name":          true,
	"email":         true,
	"status":        true,
	"tags":          true,
	"assigned_to":   true,
	"custom_fields": true,
}

const leadSelect = `
	SELECT id, company_id, name, email, status, tags, assigned_to, custom_fields, created_at, updated_at
	FROM leads`

func (s *Store) CreateLead(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Status == "" {
		lead.Status = "new"
	}
	now := s.now()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	tags, err := encodeJSON(normalizeTags(lead.Tags))
	if err != nil {
		return err
	}
	fields, err := encodeJSON(normalizeFields(lead.CustomFields))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leads (id, company_id, name, email, status, tags, assigned_to, custom_fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, lead.ID, nullString(lead.CompanyID), lead.Name, lead.Email, lead.Status, tags,
		nullString(lead.AssignedTo), fields, lead.CreatedAt.UTC(), lead.UpdatedAt)

	return err
}

// GetLead returns the lead or ErrNotFound.
func (s *Store) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx, leadSelect+` WHERE id = ?`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lead %s: %w", id, ErrNotFound)
	}
	return lead, err
}

// PatchLead updates only the given columns of a lead.
func (s *Store) PatchLead(ctx context.Context, id string, p Patch) error {
	if err := s.patch(ctx, "leads", leadColumns, id, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("lead %s: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *Store) DeleteLead(ctx context.Context, id string) error {
	if err := s.deleteRow(ctx, "leads", id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("lead %s: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

// LeadFilter narrows FindLeads. Zero values are ignored.
type LeadFilter struct {
	CompanyID string
	Status    string
	Query     string
	Limit     int
}

func (s *Store) FindLeads(ctx context.Context, f LeadFilter) ([]models.Lead, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	var where []string
	var args []interface{}
	if f.CompanyID != "" {
		where = append(where, "company_id = ?")
		args = append(args, f.CompanyID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Query != "" {
		pattern := "%" + strings.ToLower(f.Query) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)")
		args = append(args, pattern, pattern)
	}

	query := leadSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}

	return leads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var lead models.Lead
	var companyID, email, assignedTo sql.NullString
	var tags, fields string

	err := row.Scan(
		&lead.ID,
		&companyID,
		&lead.Name,
		&email,
		&lead.Status,
		&tags,
		&assignedTo,
		&fields,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.CompanyID = stringPtr(companyID)
	lead.Email = email.String
	lead.AssignedTo = stringPtr(assignedTo)

	if lead.Tags, err = decodeTags(tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if lead.CustomFields, err = decodeFields(fields); err != nil {
		return nil, fmt.Errorf("decode custom_fields: %w", err)
	}

	return &lead, nil
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func normalizeFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return map[string]interface{}{}
	}
	return fields
}
