package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/inspecasa/internal/model"
)

const reportColumns = `id, original_property_id, name, address, description, status, progress,
	overall_condition, assign_to, categories, images, original_property_images,
	signature_url, signed_at, signed_date, create_at, update_at, last_date_of_inspection, deleted_at`

// CompleteInspection saves the completed property and inserts its report
// in a single transaction.
func CompleteInspection(ctx context.Context, db *sql.DB, p *model.Property, r *model.Report) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := completeProperty(ctx, tx, p); err != nil {
		return err
	}
	if err := insertReport(ctx, tx, r); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertReport(ctx context.Context, ex execer, r *model.Report) error {
	_, categories, err := encodeTree(nil, r.Categories)
	if err != nil {
		return err
	}
	images, err := json.Marshal(nonNil(r.Images))
	if err != nil {
		return fmt.Errorf("encoding report images: %w", err)
	}
	original, err := json.Marshal(nonNil(r.OriginalPropertyImages))
	if err != nil {
		return fmt.Errorf("encoding report images: %w", err)
	}

	var (
		sigURL, signedDate *string
		signedAt           *time.Time
	)
	if r.Signature != nil {
		sigURL = &r.Signature.URL
		signedDate = &r.Signature.SignedDate
		at := r.Signature.Timestamp.UTC()
		signedAt = &at
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO reports (`+reportColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OriginalPropertyID, r.Name, r.Address, r.Description, r.Status, r.Progress,
		r.OverallCondition, r.AssignTo, categories, string(images), string(original),
		sigURL, signedAt, signedDate, r.CreateAt.UTC(), r.UpdateAt.UTC(),
		r.LastDateOfInspection.UTC(), utcPtr(r.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	return nil
}

// GetReport returns a report by ID, including soft-deleted ones.
func GetReport(ctx context.Context, db *sql.DB, id string) (*model.Report, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id,
	)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}
	return r, nil
}

// ListReports returns the inspection history: signed reports that have not
// been deleted, newest first.
func ListReports(ctx context.Context, db *sql.DB, filter model.ReportFilter) ([]model.Report, error) {
	where := []string{"deleted_at IS NULL", "signature_url IS NOT NULL"}
	var args []any
	if filter.AssignedTo != 0 {
		where = append(where, "assign_to = ?")
		args = append(args, filter.AssignedTo)
	}
	if filter.From != nil {
		where = append(where, "last_date_of_inspection >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		where = append(where, "last_date_of_inspection < ?")
		args = append(args, filter.To.UTC())
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY last_date_of_inspection DESC, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// SetReportSignature attaches a signature to an unsigned report and marks
// it Completed. It reports false when the report is missing, deleted or
// already signed.
func SetReportSignature(ctx context.Context, db *sql.DB, id string, sig model.Signature) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE reports SET signature_url = ?, signed_at = ?, signed_date = ?, status = ?, update_at = ?
		 WHERE id = ? AND signature_url IS NULL AND deleted_at IS NULL`,
		sig.URL, sig.Timestamp.UTC(), sig.SignedDate, model.PropertyStatusCompleted, sig.Timestamp.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("signing report: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("signing report: %w", err)
	}
	return n == 1, nil
}

// DeleteReport soft-deletes a report so it no longer shows in the history.
func DeleteReport(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE reports SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	return nil
}

func scanReport(row rowScanner) (*model.Report, error) {
	var (
		r                            model.Report
		categories, images, original string
		sigURL, signedDate           sql.NullString
		signedAt                     sql.NullTime
	)
	err := row.Scan(&r.ID, &r.OriginalPropertyID, &r.Name, &r.Address, &r.Description,
		&r.Status, &r.Progress, &r.OverallCondition, &r.AssignTo, &categories, &images, &original,
		&sigURL, &signedAt, &signedDate, &r.CreateAt, &r.UpdateAt, &r.LastDateOfInspection,
		&r.DeletedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(categories), &r.Categories); err != nil {
		return nil, fmt.Errorf("decoding categories of report %q: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(images), &r.Images); err != nil {
		return nil, fmt.Errorf("decoding images of report %q: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(original), &r.OriginalPropertyImages); err != nil {
		return nil, fmt.Errorf("decoding images of report %q: %w", r.ID, err)
	}
	if sigURL.Valid {
		r.Signature = &model.Signature{
			URL:        sigURL.String,
			Timestamp:  signedAt.Time,
			SignedDate: signedDate.String,
		}
	}
	return &r, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
