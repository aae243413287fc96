package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
	"github.com/MikeSquared-Agency/Frontier/internal/store"
)

type StudiesHandler struct {
	store  store.Store
	logger *slog.Logger
}

func NewStudiesHandler(s store.Store, logger *slog.Logger) *StudiesHandler {
	return &StudiesHandler{store: s, logger: logger}
}

type CreateStudyRequest struct {
	Name       string   `json:"name"`
	Directions []string `json:"directions"`
}

func (h *StudiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStudyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Directions) == 0 {
		writeError(w, http.StatusBadRequest, "at least one direction required")
		return
	}
	directions, err := pareto.ParseDirections(req.Directions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	study := &store.Study{Name: req.Name, Directions: directions}
	if err := h.store.CreateStudy(r.Context(), study); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.logger.Info("study created", "study_id", study.ID, "n_objectives", study.NObjectives())
	writeJSON(w, http.StatusCreated, study)
}

func (h *StudiesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.StudyFilter{Name: r.URL.Query().Get("name")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	studies, err := h.store.ListStudies(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if studies == nil {
		studies = []*store.Study{}
	}
	writeJSON(w, http.StatusOK, studies)
}

func (h *StudiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	study, ok := loadStudy(w, r, h.store)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, study)
}

func (h *StudiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	study, ok := loadStudy(w, r, h.store)
	if !ok {
		return
	}
	if err := h.store.DeleteStudy(r.Context(), study.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.logger.Info("study deleted", "study_id", study.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// loadStudy resolves the {id} URL parameter. On failure it has already
// written the response.
func loadStudy(w http.ResponseWriter, r *http.Request, s store.Store) (*store.Study, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid study id")
		return nil, false
	}
	study, err := s.GetStudy(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if study == nil {
		writeError(w, http.StatusNotFound, "study not found")
		return nil, false
	}
	return study, true
}
