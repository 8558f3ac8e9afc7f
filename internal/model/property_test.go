package model

import (
	"testing"
	"time"
)

func TestSubcategoryUpdateApplyKeepsUnsetFields(t *testing.T) {
	sub := Subcategory{
		Name:             "sink",
		InspectionStatus: ConditionGood,
		Comment:          "clean",
		Images:           []string{"https://cdn.example.com/a.jpg"},
	}

	comment := "chipped enamel"
	got := SubcategoryUpdate{Comment: &comment}.Apply(sub)

	if got.Comment != "chipped enamel" {
		t.Errorf("expected comment to change, got %q", got.Comment)
	}
	if got.InspectionStatus != ConditionGood {
		t.Errorf("expected status to be kept, got %q", got.InspectionStatus)
	}
	if len(got.Images) != 1 || got.Images[0] != "https://cdn.example.com/a.jpg" {
		t.Errorf("expected images to be kept, got %v", got.Images)
	}
}

func TestSubcategoryUpdateEmpty(t *testing.T) {
	if !(SubcategoryUpdate{}).Empty() {
		t.Error("expected zero update to be empty")
	}
	images := []string{}
	if (SubcategoryUpdate{Images: &images}).Empty() {
		t.Error("expected update with images to be non-empty")
	}
}

func TestCloneCategoriesIsDeep(t *testing.T) {
	now := time.Now()
	orig := []CategoryGroup{{
		"bathroom": {Subcategories: []Subcategory{
			{Name: "sink", Images: []string{"local://a.jpg"}, LastInspectionDate: &now},
		}},
	}}

	clone := CloneCategories(orig)
	clone[0]["bathroom"].Subcategories[0].Images[0] = "changed"
	clone[0]["bathroom"].Subcategories[0].Comment = "changed"
	*clone[0]["bathroom"].Subcategories[0].LastInspectionDate = now.Add(time.Hour)

	sub := orig[0]["bathroom"].Subcategories[0]
	if sub.Images[0] != "local://a.jpg" {
		t.Errorf("clone shares images slice: %v", sub.Images)
	}
	if sub.Comment != "" {
		t.Errorf("clone shares subcategory: %q", sub.Comment)
	}
	if !sub.LastInspectionDate.Equal(now) {
		t.Error("clone shares last inspection date")
	}

	if CloneCategories(nil) != nil {
		t.Error("expected nil clone of nil categories")
	}
}
