package model

import "time"

// Report is the snapshot created once when an inspection is completed.
// It is not kept in sync with later edits to the property.
type Report struct {
	ID                     string          `json:"id" bson:"_id"`
	OriginalPropertyID     string          `json:"original_property_id" bson:"original_property_id"`
	Name                   string          `json:"name" bson:"name"`
	Address                string          `json:"address" bson:"address"`
	Description            string          `json:"description,omitempty" bson:"description"`
	Status                 string          `json:"status" bson:"status"`
	Progress               float64         `json:"progress" bson:"progress"`
	OverallCondition       string          `json:"overall_condition" bson:"overall_condition"`
	AssignTo               int64           `json:"assign_to" bson:"assign_to"`
	Categories             []CategoryGroup `json:"categories" bson:"categories"`
	Images                 []string        `json:"images" bson:"images"`
	OriginalPropertyImages []string        `json:"original_property_images" bson:"original_property_images"`
	Signature              *Signature      `json:"signature" bson:"signature"`
	CreateAt               time.Time       `json:"create_at" bson:"create_at"`
	UpdateAt               time.Time       `json:"update_at" bson:"update_at"`
	LastDateOfInspection   time.Time       `json:"last_date_of_inspection" bson:"last_date_of_inspection"`
	DeletedAt              *time.Time      `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// Signature is attached to a report by the signing step.
type Signature struct {
	URL        string    `json:"url" bson:"url"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	SignedDate string    `json:"signed_date" bson:"signed_date"`
}

// Signed reports whether a signature has been attached.
func (r *Report) Signed() bool {
	return r.Signature != nil && r.Signature.URL != ""
}

// ReportFilter narrows the report history listing.
type ReportFilter struct {
	AssignedTo int64
	From       *time.Time
	To         *time.Time
}
