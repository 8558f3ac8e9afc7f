package inspection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/inspecasa/internal/model"
)

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newTestService(docs *memDocs, images *fakeImages) (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	svc := NewService(docs, images, pub)
	svc.Now = func() time.Time { return fixedNow }
	return svc, pub
}

func pendingProperty() model.Property {
	return model.Property{
		ID:         "prop-1",
		Name:       "Seaside flat",
		Address:    "1 Harbour Road",
		Status:     model.PropertyStatusPending,
		Progress:   0.5,
		Categories: bathroomTree(),
		AssignTo:   7,
		Images:     []string{"https://cdn.example.com/front.jpg"},
	}
}

func strPtr(s string) *string { return &s }

func TestSubmitCompletesProgressAndStartsInspection(t *testing.T) {
	docs := newMemDocs(pendingProperty())
	svc, pub := newTestService(docs, &fakeImages{})

	res, err := svc.Submit(context.Background(), "prop-1", "bathroom", "sink", model.SubcategoryUpdate{
		InspectionStatus: strPtr(model.ConditionGood),
		Comment:          strPtr("fine"),
	})
	require.NoError(t, err)
	assert.True(t, res.Initial)
	assert.Equal(t, "Inspection Recorded", res.Message())
	assert.Equal(t, 1.0, res.Property.Progress)
	assert.Equal(t, model.PropertyStatusInProgress, res.Property.Status)

	stored, _ := docs.GetProperty(context.Background(), "prop-1")
	assert.Equal(t, 1.0, stored.Progress)
	assert.Equal(t, model.PropertyStatusInProgress, stored.Status)
	assert.Equal(t, fixedNow, stored.UpdateAt)
	sink := stored.Categories[0]["bathroom"].Subcategories[0]
	assert.Equal(t, "fine", sink.Comment)
	assert.Equal(t, []string{model.EventInspectionSubmitted}, pub.types())
}

func TestSubmitUpdateKeepsOtherFields(t *testing.T) {
	prop := pendingProperty()
	prop.Status = model.PropertyStatusInProgress
	prop.Categories[0]["bathroom"].Subcategories[1].Images = []string{"https://cdn.example.com/tub.jpg"}
	docs := newMemDocs(prop)
	svc, _ := newTestService(docs, &fakeImages{})

	res, err := svc.Submit(context.Background(), "prop-1", "bathroom", "tub", model.SubcategoryUpdate{
		Comment: strPtr("small stain"),
	})
	require.NoError(t, err)
	assert.False(t, res.Initial)
	assert.Equal(t, "Inspection Updated", res.Message())
	assert.Equal(t, model.PropertyStatusInProgress, res.Property.Status)

	stored, _ := docs.GetProperty(context.Background(), "prop-1")
	tub := stored.Categories[0]["bathroom"].Subcategories[1]
	assert.Equal(t, "small stain", tub.Comment)
	assert.Equal(t, model.ConditionGood, tub.InspectionStatus)
	assert.Equal(t, []string{"https://cdn.example.com/tub.jpg"}, tub.Images)
}

func TestSubmitRefusesCompletedProperty(t *testing.T) {
	prop := pendingProperty()
	prop.Status = model.PropertyStatusCompleted
	prop.Progress = 1.0
	docs := newMemDocs(prop)
	svc, pub := newTestService(docs, &fakeImages{})

	_, err := svc.Submit(context.Background(), "prop-1", "bathroom", "sink", model.SubcategoryUpdate{
		Comment: strPtr("late note"),
		Images:  &[]string{"local://late.jpg"},
	})
	require.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, 0, docs.writeCount())
	assert.Empty(t, pub.types())

	stored, _ := docs.GetProperty(context.Background(), "prop-1")
	assert.Equal(t, 1.0, stored.Progress)
	assert.Empty(t, stored.Categories[0]["bathroom"].Subcategories[0].Images)
}

func TestSubmitRejectsImagesThatCannotUpload(t *testing.T) {
	docs := newMemDocs(pendingProperty())
	svc, _ := newTestService(docs, &fakeImages{})

	_, err := svc.Submit(context.Background(), "prop-1", "bathroom", "sink", model.SubcategoryUpdate{
		Images: &[]string{"local://sink.jpg", "file:///data/user/0/app/cache/IMG_1.jpg"},
	})
	require.ErrorIs(t, err, ErrInvalidImage)
	assert.Contains(t, err.Error(), "IMG_1.jpg")
	assert.Equal(t, 0, docs.writeCount())

	res, err := svc.Submit(context.Background(), "prop-1", "bathroom", "sink", model.SubcategoryUpdate{
		Images: &[]string{"local://sink.jpg", "https://cdn.example.com/old.jpg", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStatusInProgress, res.Property.Status)
}

func TestPendingImageRefs(t *testing.T) {
	active := pendingProperty()
	active.Images = []string{"https://cdn.example.com/front.jpg", "local://front.jpg"}
	active.Categories[0]["bathroom"].Subcategories[0].Images = []string{"local://sink.jpg", "https://cdn.example.com/tub.jpg"}

	done := pendingProperty()
	done.ID = "prop-2"
	done.Status = model.PropertyStatusCompleted
	done.Categories[0]["bathroom"].Subcategories[0].Images = []string{"local://stale.jpg"}

	svc, _ := newTestService(newMemDocs(active, done), &fakeImages{})

	refs, err := svc.PendingImageRefs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"local://front.jpg": true, "local://sink.jpg": true}, refs)
}

func TestSubmitUnsetStatusBecomesInProgress(t *testing.T) {
	prop := pendingProperty()
	prop.Status = ""
	docs := newMemDocs(prop)
	svc, _ := newTestService(docs, &fakeImages{})

	res, err := svc.Submit(context.Background(), "prop-1", "bathroom", "sink", model.SubcategoryUpdate{
		Images: &[]string{"local://sink.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStatusInProgress, res.Property.Status)
	assert.Equal(t, 0.5, res.Property.Progress)
}

func TestSubmitUnknownKeysFailWithoutWriting(t *testing.T) {
	tests := []struct {
		name, property, category, subcategory string
	}{
		{"unknown category", "prop-1", "kitchen", "sink"},
		{"unknown subcategory", "prop-1", "bathroom", "shower"},
		{"unknown property", "prop-2", "bathroom", "sink"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := newMemDocs(pendingProperty())
			svc, pub := newTestService(docs, &fakeImages{})

			_, err := svc.Submit(context.Background(), tt.property, tt.category, tt.subcategory, model.SubcategoryUpdate{
				Comment: strPtr("x"),
			})
			require.ErrorIs(t, err, ErrNotFound)
			assert.Equal(t, 0, docs.writeCount())
			assert.Empty(t, pub.types())

			stored, _ := docs.GetProperty(context.Background(), "prop-1")
			assert.Equal(t, model.PropertyStatusPending, stored.Status)
			assert.Equal(t, "", stored.Categories[0]["bathroom"].Subcategories[0].Comment)
		})
	}
}

func TestSubmitRejectsUnknownCondition(t *testing.T) {
	docs := newMemDocs(pendingProperty())
	svc, _ := newTestService(docs, &fakeImages{})

	_, err := svc.Submit(context.Background(), "prop-1", "bathroom", "sink", model.SubcategoryUpdate{
		InspectionStatus: strPtr("sparkling"),
	})
	require.ErrorIs(t, err, ErrInvalidCondition)
	assert.Equal(t, 0, docs.writeCount())
}

func TestSubmitWrapsStoreFailure(t *testing.T) {
	docs := newMemDocs(pendingProperty())
	docs.failWrites = errors.New("disk full")
	svc, pub := newTestService(docs, &fakeImages{})

	_, err := svc.Submit(context.Background(), "prop-1", "bathroom", "sink", model.SubcategoryUpdate{
		Comment: strPtr("x"),
	})
	require.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, pub.types())
}

func TestSubmitIgnoresPublishFailure(t *testing.T) {
	docs := newMemDocs(pendingProperty())
	svc, pub := newTestService(docs, &fakeImages{})
	pub.err = errors.New("redis down")

	_, err := svc.Submit(context.Background(), "prop-1", "bathroom", "sink", model.SubcategoryUpdate{
		Comment: strPtr("x"),
	})
	require.NoError(t, err)
}

// Two sessions that read the same tree before either writes: the later
// write wins and the earlier change is lost.
func TestSubmitLastWriterWinsOnCategories(t *testing.T) {
	docs := newMemDocs(pendingProperty())
	svc, _ := newTestService(docs, &fakeImages{})
	ctx := context.Background()

	stale, _ := docs.GetProperty(ctx, "prop-1")

	_, err := svc.Submit(ctx, "prop-1", "bathroom", "sink", model.SubcategoryUpdate{
		InspectionStatus: strPtr(model.ConditionGood),
		Comment:          strPtr("fine"),
	})
	require.NoError(t, err)

	stale.Categories[0]["bathroom"].Subcategories[1].Comment = "edited elsewhere"
	require.NoError(t, docs.UpdateInspection(ctx, stale))

	stored, _ := docs.GetProperty(ctx, "prop-1")
	assert.Equal(t, "", stored.Categories[0]["bathroom"].Subcategories[0].Comment)
	assert.Equal(t, "edited elsewhere", stored.Categories[0]["bathroom"].Subcategories[1].Comment)
}

func TestCreateProperty(t *testing.T) {
	docs := newMemDocs()
	svc, _ := newTestService(docs, &fakeImages{})

	p, err := svc.CreateProperty(context.Background(), &model.Property{
		Name:       "Loft",
		Categories: bathroomTree(),
		AssignTo:   3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, model.PropertyStatusPending, p.Status)
	assert.Equal(t, 0.5, p.Progress)
	assert.Equal(t, fixedNow, p.CreateAt)
	assert.NotNil(t, p.Images)

	stored, _ := docs.GetProperty(context.Background(), p.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "Loft", stored.Name)
}
