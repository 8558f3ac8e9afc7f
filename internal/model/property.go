package model

import "time"

// Property is one inspectable property. Its checklist lives in Categories.
type Property struct {
	ID                   string          `json:"id" bson:"_id"`
	Name                 string          `json:"name" bson:"name"`
	Address              string          `json:"address" bson:"address"`
	Description          string          `json:"description,omitempty" bson:"description"`
	Status               string          `json:"status" bson:"status"`
	Progress             float64         `json:"progress" bson:"progress"`
	OverallCondition     string          `json:"overall_condition,omitempty" bson:"overall_condition"`
	Images               []string        `json:"images" bson:"images"`
	Categories           []CategoryGroup `json:"categories" bson:"categories"`
	AssignTo             int64           `json:"assign_to" bson:"assign_to"`
	CreateAt             time.Time       `json:"create_at" bson:"create_at"`
	UpdateAt             time.Time       `json:"update_at" bson:"update_at"`
	LastDateOfInspection *time.Time      `json:"last_date_of_inspection,omitempty" bson:"last_date_of_inspection,omitempty"`
}

// Property statuses. Completed is capitalised on the wire.
const (
	PropertyStatusPending    = "pending"
	PropertyStatusInProgress = "in-progress"
	PropertyStatusCompleted  = "Completed"
)

// CategoryGroup maps a category name (e.g. "bathroom") to its checklist.
type CategoryGroup map[string]Category

// Category holds the ordered subcategories of one room or area.
type Category struct {
	Subcategories []Subcategory `json:"subcategories" bson:"subcategories"`
}

// Subcategory is the smallest inspectable unit, e.g. "sink" in "bathroom".
type Subcategory struct {
	Name               string     `json:"name" bson:"name"`
	InspectionStatus   string     `json:"inspection_status" bson:"inspection_status"`
	Comment            string     `json:"comment" bson:"comment"`
	Images             []string   `json:"images" bson:"images"`
	LastInspectionDate *time.Time `json:"last_inspection_date,omitempty" bson:"last_inspection_date,omitempty"`
}

// SubcategoryUpdate is a partial update of one subcategory. Nil fields are
// left untouched.
type SubcategoryUpdate struct {
	InspectionStatus *string   `json:"inspection_status,omitempty"`
	Comment          *string   `json:"comment,omitempty"`
	Images           *[]string `json:"images,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (u SubcategoryUpdate) Empty() bool {
	return u.InspectionStatus == nil && u.Comment == nil && u.Images == nil
}

// Apply merges the update into sub and returns the result.
func (u SubcategoryUpdate) Apply(sub Subcategory) Subcategory {
	if u.InspectionStatus != nil {
		sub.InspectionStatus = *u.InspectionStatus
	}
	if u.Comment != nil {
		sub.Comment = *u.Comment
	}
	if u.Images != nil {
		sub.Images = append([]string(nil), (*u.Images)...)
	}
	return sub
}

// Condition tags used both per subcategory and as a property's overall condition.
const (
	ConditionGood        = "good"
	ConditionDamaged     = "damaged"
	ConditionNeedsRepair = "needsRepair"
)

// Conditions lists every accepted condition tag in display order.
var Conditions = []string{ConditionGood, ConditionDamaged, ConditionNeedsRepair}

// ValidCondition reports whether c is a known condition tag.
func ValidCondition(c string) bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// CloneCategories returns a deep copy of groups.
func CloneCategories(groups []CategoryGroup) []CategoryGroup {
	if groups == nil {
		return nil
	}
	out := make([]CategoryGroup, len(groups))
	for i, group := range groups {
		g := make(CategoryGroup, len(group))
		for name, cat := range group {
			subs := make([]Subcategory, len(cat.Subcategories))
			for j, sub := range cat.Subcategories {
				if sub.Images != nil {
					sub.Images = append([]string(nil), sub.Images...)
				}
				if sub.LastInspectionDate != nil {
					d := *sub.LastInspectionDate
					sub.LastInspectionDate = &d
				}
				subs[j] = sub
			}
			g[name] = Category{Subcategories: subs}
		}
		out[i] = g
	}
	return out
}

// PropertyFilter narrows a property listing. Zero values mean "no filter".
type PropertyFilter struct {
	Statuses   []string
	AssignedTo int64
	From       *time.Time
	To         *time.Time
	Query      string
}
