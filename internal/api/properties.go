package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/inspecasa/internal/inspection"
	"github.com/erazemk/inspecasa/internal/model"
	"github.com/erazemk/inspecasa/internal/store"
)

// PropertiesHandler handles property and inspection endpoints. Inspectors
// only see the properties assigned to them.
type PropertiesHandler struct {
	DB      *sql.DB
	Service *inspection.Service
}

type createPropertyRequest struct {
	Name        string                `json:"name"`
	Address     string                `json:"address"`
	Description string                `json:"description"`
	Images      []string              `json:"images"`
	Categories  []model.CategoryGroup `json:"categories"`
	AssignTo    int64                 `json:"assign_to"`

	// DueDate is when the next inspection is scheduled.
	DueDate *time.Time `json:"last_date_of_inspection"`
}

type propertyResponse struct {
	*model.Property
	Normalized          []inspection.NormalizedCategory `json:"normalized_categories"`
	DuplicateCategories []string                        `json:"duplicate_categories,omitempty"`
}

type submitInspectionRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	model.SubcategoryUpdate
}

type submitInspectionResponse struct {
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status"`
}

type completeInspectionRequest struct {
	OverallCondition string `json:"overall_condition"`
}

// List handles GET /api/properties.
func (h *PropertiesHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	q := r.URL.Query()

	from, to, err := parseDateRange(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := model.PropertyFilter{
		From:  from,
		To:    to,
		Query: strings.TrimSpace(q.Get("q")),
	}
	for _, v := range q["status"] {
		for _, status := range strings.Split(v, ",") {
			if status = strings.TrimSpace(status); status != "" {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}

	if claims.IsAdmin() {
		if v := q.Get("inspector"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				jsonError(w, http.StatusBadRequest, "invalid inspector id")
				return
			}
			filter.AssignedTo = id
		}
	} else {
		filter.AssignedTo = claims.UserID
	}

	properties, err := h.Service.Docs.ListProperties(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list properties", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list properties")
		return
	}
	if properties == nil {
		properties = []model.Property{}
	}
	jsonResponse(w, http.StatusOK, properties)
}

// Create handles POST /api/properties.
func (h *PropertiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPropertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if req.AssignTo != 0 {
		user, err := store.GetUser(r.Context(), h.DB, req.AssignTo)
		if err != nil {
			slog.Error("failed to look up assignee", "error", err)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if user == nil || user.DeletedAt != nil {
			jsonError(w, http.StatusBadRequest, "assignee not found")
			return
		}
	}

	p, err := h.Service.CreateProperty(r.Context(), &model.Property{
		Name:        req.Name,
		Address:     strings.TrimSpace(req.Address),
		Description: req.Description,
		Images:      req.Images,
		Categories:  req.Categories,
		AssignTo:    req.AssignTo,

		LastDateOfInspection: req.DueDate,
	})
	if err != nil {
		serviceError(w, "create property", err)
		return
	}

	jsonResponse(w, http.StatusCreated, p)
}

// Get handles GET /api/properties/{id}.
func (h *PropertiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}

	p.Progress = inspection.Progress(p.Categories)
	jsonResponse(w, http.StatusOK, propertyResponse{
		Property:            p,
		Normalized:          inspection.Normalize(p.Categories),
		DuplicateCategories: inspection.DuplicateCategories(p.Categories),
	})
}

// Delete handles DELETE /api/properties/{id}.
func (h *PropertiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}

	if err := h.Service.Docs.DeleteProperty(r.Context(), p.ID); err != nil {
		slog.Error("failed to delete property", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete property")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("property deleted", "user", claims.Username, "property", p.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "property deleted"})
}

// SubmitInspection handles PUT /api/properties/{id}/inspections.
func (h *PropertiesHandler) SubmitInspection(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}

	var req submitInspectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Category == "" || req.Subcategory == "" {
		jsonError(w, http.StatusBadRequest, "category and subcategory required")
		return
	}
	if req.SubcategoryUpdate.Empty() {
		jsonError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	res, err := h.Service.Submit(r.Context(), p.ID, req.Category, req.Subcategory, req.SubcategoryUpdate)
	if err != nil {
		serviceError(w, "submit inspection", err)
		return
	}

	jsonResponse(w, http.StatusOK, submitInspectionResponse{
		Message:  res.Message(),
		Progress: res.Property.Progress,
		Status:   res.Property.Status,
	})
}

// Complete handles POST /api/properties/{id}/complete.
func (h *PropertiesHandler) Complete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}

	var req completeInspectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reportID, err := h.Service.Finalize(r.Context(), p.ID, req.OverallCondition)
	if err != nil {
		serviceError(w, "complete inspection", err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]string{
		"message":   "Inspection Completed",
		"report_id": reportID,
	})
}

// load fetches the property named in the path. A property assigned to
// someone else is reported as missing.
func (h *PropertiesHandler) load(w http.ResponseWriter, r *http.Request) (*model.Property, bool) {
	p, err := h.Service.Docs.GetProperty(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get property", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get property")
		return nil, false
	}

	claims := GetClaims(r.Context())
	if p == nil || (!claims.IsAdmin() && p.AssignTo != claims.UserID) {
		jsonError(w, http.StatusNotFound, "property not found")
		return nil, false
	}
	return p, true
}
