package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/inspecasa/internal/inspection"
	"github.com/erazemk/inspecasa/internal/model"
)

var _ inspection.DocumentStore = (*Documents)(nil)

// Documents keeps properties and reports in SQLite.
type Documents struct {
	DB *sql.DB
}

func (d *Documents) CreateProperty(ctx context.Context, p *model.Property) error {
	return CreateProperty(ctx, d.DB, p)
}

func (d *Documents) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	return GetProperty(ctx, d.DB, id)
}

func (d *Documents) ListProperties(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error) {
	return ListProperties(ctx, d.DB, filter)
}

func (d *Documents) UpdateInspection(ctx context.Context, p *model.Property) error {
	return UpdatePropertyInspection(ctx, d.DB, p)
}

func (d *Documents) CompleteInspection(ctx context.Context, p *model.Property, r *model.Report) error {
	return CompleteInspection(ctx, d.DB, p, r)
}

func (d *Documents) DeleteProperty(ctx context.Context, id string) error {
	return DeleteProperty(ctx, d.DB, id)
}

func (d *Documents) GetReport(ctx context.Context, id string) (*model.Report, error) {
	return GetReport(ctx, d.DB, id)
}

func (d *Documents) ListReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error) {
	return ListReports(ctx, d.DB, filter)
}

func (d *Documents) SignReport(ctx context.Context, id string, sig model.Signature) (bool, error) {
	return SetReportSignature(ctx, d.DB, id, sig)
}

func (d *Documents) DeleteReport(ctx context.Context, id string) error {
	return DeleteReport(ctx, d.DB, id)
}
