package inspection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/inspecasa/internal/model"
)

// Finalize completes the inspection of a property: every local image is
// uploaded, the property is marked Completed with the chosen overall
// condition, and a report snapshot is created in the same atomic write.
// It returns the new report's ID.
//
// Nothing is uploaded or written unless every subcategory is complete and
// a condition was chosen. A single failed upload aborts the whole call.
func (s *Service) Finalize(ctx context.Context, propertyID, condition string) (string, error) {
	ctx = context.WithoutCancel(ctx)

	p, err := s.Docs.GetProperty(ctx, propertyID)
	if err != nil {
		return "", persistence("loading property", err)
	}
	if p == nil {
		return "", notFound("property %q", propertyID)
	}
	if p.Status == model.PropertyStatusCompleted {
		return "", ErrAlreadyCompleted
	}
	if progress := Progress(p.Categories); progress < 1 {
		return "", fmt.Errorf("progress is %.0f%%: %w", progress*100, ErrIncompleteInspection)
	}
	if condition == "" {
		return "", ErrMissingCondition
	}
	if !model.ValidCondition(condition) {
		return "", fmt.Errorf("overall condition %q: %w", condition, ErrInvalidCondition)
	}

	categories := model.CloneCategories(p.Categories)
	uploaded, err := s.uploadLocalImages(ctx, categories)
	if err != nil {
		slog.Error("finalize aborted", "property", p.ID, "error", err)
		return "", err
	}

	now := s.now()
	stampInspectionDate(categories, now)

	p.Categories = categories
	p.Status = model.PropertyStatusCompleted
	p.Progress = 1.0
	p.OverallCondition = condition
	p.UpdateAt = now
	p.LastDateOfInspection = &now

	originalImages := p.Images
	p.Images = dedupe(p.Images)

	r := newReport(p, originalImages, now)
	if err := s.Docs.CompleteInspection(ctx, p, r); err != nil {
		return "", persistence("completing inspection", err)
	}
	s.release(uploaded)

	slog.Info("inspection completed", "property", p.ID, "report", r.ID, "condition", condition)
	s.publish(ctx, model.Event{
		Type:       model.EventInspectionCompleted,
		PropertyID: p.ID,
		ReportID:   r.ID,
		UserID:     p.AssignTo,
		Progress:   p.Progress,
		Status:     p.Status,
		At:         now,
	})
	return r.ID, nil
}

// uploadLocalImages replaces every local image reference in groups with the
// URL returned by the image store and returns the references it uploaded.
// Each distinct reference is uploaded once; uploads run concurrently and the
// first failure cancels the rest.
func (s *Service) uploadLocalImages(ctx context.Context, groups []model.CategoryGroup) ([]string, error) {
	index := make(map[string]int)
	var refs []string
	eachSubcategory(groups, func(sub *model.Subcategory) {
		for _, img := range sub.Images {
			if img == "" || IsRemoteURL(img) {
				continue
			}
			if _, ok := index[img]; !ok {
				index[img] = len(refs)
				refs = append(refs, img)
			}
		}
	})

	urls := make([]string, len(refs))
	if len(refs) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for i, ref := range refs {
			g.Go(func() error {
				url, err := s.upload(gctx, ref)
				if err != nil {
					return err
				}
				urls[i] = url
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		slog.Info("uploaded inspection images", "count", len(refs))
	}

	eachSubcategory(groups, func(sub *model.Subcategory) {
		images := make([]string, 0, len(sub.Images))
		for _, img := range sub.Images {
			if i, ok := index[img]; ok {
				img = urls[i]
			}
			if img != "" {
				images = append(images, img)
			}
		}
		sub.Images = images
	})
	return refs, nil
}

// upload sends one local reference to the image store under the upload
// timeout. Expiry counts as a failed upload.
func (s *Service) upload(ctx context.Context, ref string) (string, error) {
	timeout := s.UploadTimeout
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url, err := s.Images.Upload(ctx, ref)
	if err == nil && url == "" {
		err = errors.New("image store returned no url")
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", ref, ErrUploadFailed, err)
	}
	return url, nil
}

func stampInspectionDate(groups []model.CategoryGroup, at time.Time) {
	eachSubcategory(groups, func(sub *model.Subcategory) {
		d := at
		sub.LastInspectionDate = &d
	})
}

func eachSubcategory(groups []model.CategoryGroup, fn func(sub *model.Subcategory)) {
	for _, group := range groups {
		for _, cat := range group {
			for i := range cat.Subcategories {
				fn(&cat.Subcategories[i])
			}
		}
	}
}

func dedupe(images []string) []string {
	out := make([]string, 0, len(images))
	seen := make(map[string]bool)
	for _, img := range images {
		if !seen[img] {
			seen[img] = true
			out = append(out, img)
		}
	}
	return out
}

// newReport builds the report snapshot of a just-completed property.
// originalImages is the property's image list as it was before completion.
func newReport(p *model.Property, originalImages []string, now time.Time) *model.Report {
	createAt := p.CreateAt
	if createAt.IsZero() {
		createAt = now
	}

	return &model.Report{
		ID:                     uuid.NewString(),
		OriginalPropertyID:     p.ID,
		Name:                   p.Name,
		Address:                p.Address,
		Description:            p.Description,
		Status:                 model.PropertyStatusCompleted,
		Progress:               1.0,
		OverallCondition:       p.OverallCondition,
		AssignTo:               p.AssignTo,
		Categories:             model.CloneCategories(p.Categories),
		Images:                 append([]string{}, p.Images...),
		OriginalPropertyImages: append([]string{}, originalImages...),
		Signature:              nil,
		CreateAt:               createAt,
		UpdateAt:               now,
		LastDateOfInspection:   now,
	}
}
