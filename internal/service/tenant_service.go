// Package service holds the use cases behind the CLI: tenant upkeep and the
// bill send / record / spreadsheet flow.
package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/Mayank7Bisnewar/Tenant/internal/drafts"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/repository"
)

// TenantService validates tenant input before it reaches the repository.
type TenantService struct {
	repo   *repository.Repository
	drafts *drafts.Store
	logger *slog.Logger
}

// NewTenantService creates a tenant service.
func NewTenantService(repo *repository.Repository, drafts *drafts.Store, logger *slog.Logger) *TenantService {
	return &TenantService{repo: repo, drafts: drafts, logger: logger}
}

// NormalizeFields trims text fields and drops whitespace from the mobile number.
func NormalizeFields(fields models.TenantFields) models.TenantFields {
	fields.Name = strings.TrimSpace(fields.Name)
	fields.RoomNumber = strings.TrimSpace(fields.RoomNumber)
	fields.MobileNumber = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, fields.MobileNumber)
	return fields
}

// Add validates fields and creates an active tenant.
func (s *TenantService) Add(ctx context.Context, fields models.TenantFields) (models.Tenant, error) {
	fields = NormalizeFields(fields)
	s.logger.Info("Add tenant request", "name", fields.Name, "room", fields.RoomNumber)

	if err := validateStruct(fields); err != nil {
		s.logger.Warn("Add tenant rejected", "error", err)
		return models.Tenant{}, err
	}

	tenant, err := s.repo.Add(ctx, fields)
	if err != nil {
		s.logger.Error("Add tenant failed", "error", err)
		return tenant, err
	}
	return tenant, nil
}

// Edit validates fields and replaces the editable fields of a tenant.
// found is false when the tenant does not exist.
func (s *TenantService) Edit(ctx context.Context, id string, fields models.TenantFields) (models.Tenant, bool, error) {
	fields = NormalizeFields(fields)
	s.logger.Info("Edit tenant request", "tenant_id", id)

	if err := validateStruct(fields); err != nil {
		s.logger.Warn("Edit tenant rejected", "tenant_id", id, "error", err)
		return models.Tenant{}, false, err
	}

	return s.repo.Update(ctx, id, func(t *models.Tenant) {
		t.Name = fields.Name
		t.RoomNumber = fields.RoomNumber
		t.MobileNumber = fields.MobileNumber
		t.MonthlyRent = fields.MonthlyRent
		t.WaterBill = fields.WaterBill
	})
}

// Fields returns the editable fields of a tenant, for pre-filling an edit.
func Fields(t models.Tenant) models.TenantFields {
	return models.TenantFields{
		Name:         t.Name,
		RoomNumber:   t.RoomNumber,
		MobileNumber: t.MobileNumber,
		MonthlyRent:  t.MonthlyRent,
		WaterBill:    t.WaterBill,
	}
}

// Delete soft-deletes a tenant.
func (s *TenantService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// Restore re-activates a soft-deleted tenant.
func (s *TenantService) Restore(ctx context.Context, id string) (bool, error) {
	return s.repo.Restore(ctx, id)
}

// Purge removes a tenant for good, along with its draft.
func (s *TenantService) Purge(ctx context.Context, id string) (bool, error) {
	found, err := s.repo.PermanentDelete(ctx, id)
	if found {
		s.drafts.Forget(id)
	}
	return found, err
}

// Reorder puts the tenants in the order of ids.
func (s *TenantService) Reorder(ctx context.Context, ids []string) error {
	ordered := make([]models.Tenant, len(ids))
	for i, id := range ids {
		ordered[i] = models.Tenant{ID: id}
	}
	return s.repo.Reorder(ctx, ordered)
}
