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

const propertyColumns = `id, name, address, description, status, progress, overall_condition,
	images, categories, assign_to, create_at, update_at, last_date_of_inspection`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateProperty inserts a new property.
func CreateProperty(ctx context.Context, db *sql.DB, p *model.Property) error {
	images, categories, err := encodeTree(p.Images, p.Categories)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO properties (`+propertyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Address, p.Description, p.Status, p.Progress, p.OverallCondition,
		images, categories, p.AssignTo, p.CreateAt.UTC(), p.UpdateAt.UTC(), utcPtr(p.LastDateOfInspection),
	)
	if err != nil {
		return fmt.Errorf("creating property: %w", err)
	}
	return nil
}

// GetProperty returns a property by ID.
func GetProperty(ctx context.Context, db *sql.DB, id string) (*model.Property, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id,
	)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting property: %w", err)
	}
	return p, nil
}

// ListProperties returns properties matching filter, most recently
// updated first.
func ListProperties(ctx context.Context, db *sql.DB, filter model.PropertyFilter) ([]model.Property, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
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
	if filter.Query != "" {
		where = append(where, "(name LIKE ? OR address LIKE ?)")
		q := "%" + filter.Query + "%"
		args = append(args, q, q)
	}

	query := `SELECT ` + propertyColumns + ` FROM properties`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY update_at DESC, id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer rows.Close()

	properties := []model.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, *p)
	}
	return properties, rows.Err()
}

// UpdatePropertyInspection overwrites the category tree, progress, status
// and update time of a property. The whole tree is replaced.
func UpdatePropertyInspection(ctx context.Context, db *sql.DB, p *model.Property) error {
	_, categories, err := encodeTree(nil, p.Categories)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE properties SET categories = ?, progress = ?, status = ?, update_at = ?
		 WHERE id = ?`,
		categories, p.Progress, p.Status, p.UpdateAt.UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating inspection: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("updating inspection: property %q does not exist", p.ID)
	}
	return nil
}

// completeProperty writes the finalized fields of a property.
func completeProperty(ctx context.Context, ex execer, p *model.Property) error {
	images, categories, err := encodeTree(p.Images, p.Categories)
	if err != nil {
		return err
	}

	result, err := ex.ExecContext(ctx,
		`UPDATE properties SET categories = ?, images = ?, progress = ?, status = ?,
		     overall_condition = ?, update_at = ?, last_date_of_inspection = ?
		 WHERE id = ?`,
		categories, images, p.Progress, p.Status,
		p.OverallCondition, p.UpdateAt.UTC(), utcPtr(p.LastDateOfInspection), p.ID,
	)
	if err != nil {
		return fmt.Errorf("completing property: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("completing property: property %q does not exist", p.ID)
	}
	return nil
}

// DeleteProperty removes a property. Reports created from it are kept.
func DeleteProperty(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}
	return nil
}

func scanProperty(row rowScanner) (*model.Property, error) {
	var (
		p                  model.Property
		images, categories string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Address, &p.Description, &p.Status, &p.Progress,
		&p.OverallCondition, &images, &categories, &p.AssignTo, &p.CreateAt, &p.UpdateAt,
		&p.LastDateOfInspection)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("decoding images of property %q: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
		return nil, fmt.Errorf("decoding categories of property %q: %w", p.ID, err)
	}
	return &p, nil
}

func encodeTree(images []string, categories []model.CategoryGroup) (string, string, error) {
	if images == nil {
		images = []string{}
	}
	if categories == nil {
		categories = []model.CategoryGroup{}
	}
	img, err := json.Marshal(images)
	if err != nil {
		return "", "", fmt.Errorf("encoding images: %w", err)
	}
	cat, err := json.Marshal(categories)
	if err != nil {
		return "", "", fmt.Errorf("encoding categories: %w", err)
	}
	return string(img), string(cat), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
