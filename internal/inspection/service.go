package inspection

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/inspecasa/internal/model"
)

// DefaultUploadTimeout bounds a single image upload.
const DefaultUploadTimeout = 30 * time.Second

// DocumentStore persists properties and reports. Reads return nil, nil when
// the document does not exist. Writes either apply fully or not at all.
type DocumentStore interface {
	CreateProperty(ctx context.Context, p *model.Property) error
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	ListProperties(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error)
	// UpdateInspection overwrites categories, progress, status and update_at.
	UpdateInspection(ctx context.Context, p *model.Property) error
	// CompleteInspection writes the completed property and inserts the
	// report as one atomic batch.
	CompleteInspection(ctx context.Context, p *model.Property, r *model.Report) error
	DeleteProperty(ctx context.Context, id string) error

	GetReport(ctx context.Context, id string) (*model.Report, error)
	ListReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error)
	// SignReport attaches sig if the report is not signed yet and reports
	// whether it did.
	SignReport(ctx context.Context, id string, sig model.Signature) (bool, error)
	DeleteReport(ctx context.Context, id string) error
}

// ImageStore uploads a local image reference and returns its remote URL.
type ImageStore interface {
	Upload(ctx context.Context, ref string) (string, error)
}

// RefChecker is implemented by image stores that can tell up front whether
// a local reference will upload. Submit rejects references that fail.
type RefChecker interface {
	CheckRef(ref string) error
}

// Releaser is implemented by image stores that hold local copies until an
// inspection is completed. Release is called with the uploaded references
// once the completion is committed.
type Releaser interface {
	Release(refs []string) error
}

// Publisher broadcasts events about persisted changes.
type Publisher interface {
	Publish(ctx context.Context, ev model.Event) error
}

// Service runs inspection submissions and completions against a document
// store and an image store.
type Service struct {
	Docs          DocumentStore
	Images        ImageStore
	Events        Publisher
	Now           func() time.Time
	UploadTimeout time.Duration
}

// NewService creates a service with the default clock and upload timeout.
// events may be nil.
func NewService(docs DocumentStore, images ImageStore, events Publisher) *Service {
	return &Service{
		Docs:          docs,
		Images:        images,
		Events:        events,
		Now:           time.Now,
		UploadTimeout: DefaultUploadTimeout,
	}
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	Property *model.Property
	// Initial is true when the subcategory had no status, comment or
	// images before this submission.
	Initial bool
}

// Message returns the confirmation shown to the inspector.
func (r *SubmitResult) Message() string {
	if r.Initial {
		return "Inspection Recorded"
	}
	return "Inspection Updated"
}

// CreateProperty stores a new pending property.
func (s *Service) CreateProperty(ctx context.Context, p *model.Property) (*model.Property, error) {
	now := s.now()
	p.ID = uuid.NewString()
	p.Status = model.PropertyStatusPending
	p.Progress = Progress(p.Categories)
	p.OverallCondition = ""
	p.CreateAt = now
	p.UpdateAt = now
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Categories == nil {
		p.Categories = []model.CategoryGroup{}
	}

	if err := s.Docs.CreateProperty(ctx, p); err != nil {
		return nil, persistence("creating property", err)
	}
	slog.Info("property created", "property", p.ID, "assign_to", p.AssignTo)
	return p, nil
}

// Submit merges upd into one subcategory of the property and saves the
// whole category tree together with the recomputed progress. A pending
// property moves to in-progress.
//
// The categories field is overwritten wholesale: a concurrent submission
// for another subcategory of the same property can be lost.
func (s *Service) Submit(ctx context.Context, propertyID, categoryType, subcategoryName string, upd model.SubcategoryUpdate) (*SubmitResult, error) {
	ctx = context.WithoutCancel(ctx)

	if upd.InspectionStatus != nil && *upd.InspectionStatus != "" && !model.ValidCondition(*upd.InspectionStatus) {
		return nil, fmt.Errorf("inspection status %q: %w", *upd.InspectionStatus, ErrInvalidCondition)
	}
	if err := s.checkImages(upd); err != nil {
		return nil, err
	}

	p, err := s.Docs.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, persistence("loading property", err)
	}
	if p == nil {
		return nil, notFound("property %q", propertyID)
	}
	if p.Status == model.PropertyStatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	if slices.Contains(DuplicateCategories(p.Categories), categoryType) {
		slog.Warn("category appears in several groups, updating the first",
			"property", propertyID, "category", categoryType)
	}

	gi, si, err := findSubcategory(p.Categories, categoryType, subcategoryName)
	if err != nil {
		return nil, err
	}

	subs := p.Categories[gi][categoryType].Subcategories
	existing := subs[si]
	initial := existing.InspectionStatus == "" && existing.Comment == "" && len(existing.Images) == 0
	subs[si] = upd.Apply(existing)

	p.Progress = Progress(p.Categories)
	if p.Status == "" || p.Status == model.PropertyStatusPending {
		p.Status = model.PropertyStatusInProgress
	}
	p.UpdateAt = s.now()

	if err := s.Docs.UpdateInspection(ctx, p); err != nil {
		return nil, persistence("saving inspection", err)
	}

	slog.Info("inspection submitted",
		"property", p.ID, "category", categoryType, "subcategory", subcategoryName,
		"progress", p.Progress, "initial", initial)
	s.publish(ctx, model.Event{
		Type:       model.EventInspectionSubmitted,
		PropertyID: p.ID,
		UserID:     p.AssignTo,
		Progress:   p.Progress,
		Status:     p.Status,
		At:         p.UpdateAt,
	})

	return &SubmitResult{Property: p, Initial: initial}, nil
}

// checkImages rejects images that Finalize could never upload. Empty
// entries are dropped at completion and pass.
func (s *Service) checkImages(upd model.SubcategoryUpdate) error {
	checker, ok := s.Images.(RefChecker)
	if !ok || upd.Images == nil {
		return nil
	}
	for _, img := range *upd.Images {
		if img == "" || IsRemoteURL(img) {
			continue
		}
		if err := checker.CheckRef(img); err != nil {
			return fmt.Errorf("%q: %w: %w", img, ErrInvalidImage, err)
		}
	}
	return nil
}

// PendingImageRefs returns the local image references still held by
// properties that are not completed yet.
func (s *Service) PendingImageRefs(ctx context.Context) (map[string]bool, error) {
	properties, err := s.Docs.ListProperties(ctx, model.PropertyFilter{})
	if err != nil {
		return nil, persistence("listing properties", err)
	}

	refs := make(map[string]bool)
	for i := range properties {
		p := &properties[i]
		if p.Status == model.PropertyStatusCompleted {
			continue
		}
		for _, img := range p.Images {
			if img != "" && !IsRemoteURL(img) {
				refs[img] = true
			}
		}
		eachSubcategory(p.Categories, func(sub *model.Subcategory) {
			for _, img := range sub.Images {
				if img != "" && !IsRemoteURL(img) {
					refs[img] = true
				}
			}
		})
	}
	return refs, nil
}

// release hands uploaded references back to the image store. Failure only
// leaves files behind, so it is logged.
func (s *Service) release(refs []string) {
	r, ok := s.Images.(Releaser)
	if !ok || len(refs) == 0 {
		return
	}
	if err := r.Release(refs); err != nil {
		slog.Warn("failed to release uploaded images", "count", len(refs), "error", err)
	}
}

// Sign uploads the staged signature image and attaches it to the report.
// A report can be signed once.
func (s *Service) Sign(ctx context.Context, reportID, signatureRef string) (*model.Report, error) {
	ctx = context.WithoutCancel(ctx)

	r, err := s.Docs.GetReport(ctx, reportID)
	if err != nil {
		return nil, persistence("loading report", err)
	}
	if r == nil || r.DeletedAt != nil {
		return nil, notFound("report %q", reportID)
	}
	if r.Signed() {
		return nil, ErrAlreadySigned
	}

	url, err := s.upload(ctx, signatureRef)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sig := model.Signature{
		URL:        url,
		Timestamp:  now,
		SignedDate: now.Format("Jan 02, 2006, 03:04 PM"),
	}
	ok, err := s.Docs.SignReport(ctx, reportID, sig)
	if err != nil {
		return nil, persistence("saving signature", err)
	}
	if !ok {
		return nil, ErrAlreadySigned
	}

	r.Signature = &sig
	r.Status = model.PropertyStatusCompleted
	r.UpdateAt = now

	s.release([]string{signatureRef})

	slog.Info("report signed", "report", reportID)
	s.publish(ctx, model.Event{
		Type:       model.EventReportSigned,
		PropertyID: r.OriginalPropertyID,
		ReportID:   r.ID,
		UserID:     r.AssignTo,
		At:         now,
	})
	return r, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) publish(ctx context.Context, ev model.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		slog.Warn("failed to publish event", "type", ev.Type, "error", err)
	}
}
