package inspection

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/erazemk/inspecasa/internal/model"
)

// memDocs is an in-memory DocumentStore that hands out copies, so callers
// never share state with what is stored.
type memDocs struct {
	mu         sync.Mutex
	properties map[string]model.Property
	reports    map[string]model.Report
	writes     int
	failWrites error
}

func newMemDocs(props ...model.Property) *memDocs {
	d := &memDocs{
		properties: make(map[string]model.Property),
		reports:    make(map[string]model.Report),
	}
	for _, p := range props {
		p.Categories = model.CloneCategories(p.Categories)
		d.properties[p.ID] = p
	}
	return d
}

func (d *memDocs) CreateProperty(_ context.Context, p *model.Property) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrites != nil {
		return d.failWrites
	}
	d.writes++
	cp := *p
	cp.Categories = model.CloneCategories(p.Categories)
	d.properties[p.ID] = cp
	return nil
}

func (d *memDocs) DeleteProperty(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrites != nil {
		return d.failWrites
	}
	d.writes++
	delete(d.properties, id)
	return nil
}

func (d *memDocs) GetProperty(_ context.Context, id string) (*model.Property, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.properties[id]
	if !ok {
		return nil, nil
	}
	p.Categories = model.CloneCategories(p.Categories)
	return &p, nil
}

func (d *memDocs) ListProperties(_ context.Context, _ model.PropertyFilter) ([]model.Property, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []model.Property
	for _, p := range d.properties {
		out = append(out, p)
	}
	return out, nil
}

func (d *memDocs) UpdateInspection(_ context.Context, p *model.Property) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrites != nil {
		return d.failWrites
	}
	stored, ok := d.properties[p.ID]
	if !ok {
		return errors.New("no such property")
	}
	d.writes++
	stored.Categories = model.CloneCategories(p.Categories)
	stored.Progress = p.Progress
	stored.Status = p.Status
	stored.UpdateAt = p.UpdateAt
	d.properties[p.ID] = stored
	return nil
}

func (d *memDocs) CompleteInspection(_ context.Context, p *model.Property, r *model.Report) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrites != nil {
		return d.failWrites
	}
	d.writes++
	cp := *p
	cp.Categories = model.CloneCategories(p.Categories)
	d.properties[p.ID] = cp
	d.reports[r.ID] = *r
	return nil
}

func (d *memDocs) GetReport(_ context.Context, id string) (*model.Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.reports[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (d *memDocs) ListReports(_ context.Context, _ model.ReportFilter) ([]model.Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []model.Report
	for _, r := range d.reports {
		out = append(out, r)
	}
	return out, nil
}

func (d *memDocs) SignReport(_ context.Context, id string, sig model.Signature) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrites != nil {
		return false, d.failWrites
	}
	r, ok := d.reports[id]
	if !ok || r.Signature != nil {
		return false, nil
	}
	d.writes++
	r.Signature = &sig
	r.Status = model.PropertyStatusCompleted
	d.reports[id] = r
	return true, nil
}

func (d *memDocs) DeleteReport(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.reports, id)
	return nil
}

func (d *memDocs) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// fakeImages uploads by mapping "local://x" to a CDN URL, failing for refs
// listed in fail. Only "local://" refs pass CheckRef.
type fakeImages struct {
	mu       sync.Mutex
	uploaded []string
	released []string
	fail     map[string]bool
}

func (f *fakeImages) CheckRef(ref string) error {
	if !strings.HasPrefix(ref, "local://") {
		return errors.New("not a staged image")
	}
	return nil
}

func (f *fakeImages) Release(refs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, refs...)
	return nil
}

func (f *fakeImages) Upload(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[ref] {
		return "", errors.New("quota exceeded")
	}
	f.uploaded = append(f.uploaded, ref)
	return "https://cdn.example.com/" + strings.TrimPrefix(ref, "local://"), nil
}

func (f *fakeImages) uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploaded...)
}

func (f *fakeImages) releases() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
