package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Frontier/internal/ingest"
	"github.com/MikeSquared-Agency/Frontier/internal/store"
)

type TrialsHandler struct {
	store  store.Store
	ingest *ingest.Ingestor
}

func NewTrialsHandler(s store.Store, g *ingest.Ingestor) *TrialsHandler {
	return &TrialsHandler{store: s, ingest: g}
}

type CreateTrialRequest struct {
	State     store.TrialState       `json:"state,omitempty"`
	Values    []float64              `json:"values,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
	UserAttrs map[string]interface{} `json:"user_attrs,omitempty"`
}

func (h *TrialsHandler) Create(w http.ResponseWriter, r *http.Request) {
	study, ok := loadStudy(w, r, h.store)
	if !ok {
		return
	}
	var req CreateTrialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.State != "" && !req.State.Valid() {
		writeError(w, http.StatusBadRequest, "invalid state: "+string(req.State))
		return
	}

	trial, err := h.ingest.RecordTrial(r.Context(), study, &store.Trial{
		State:     req.State,
		Values:    req.Values,
		Params:    req.Params,
		UserAttrs: req.UserAttrs,
	}, ingest.SourceAPI)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trial)
}

func (h *TrialsHandler) List(w http.ResponseWriter, r *http.Request) {
	study, ok := loadStudy(w, r, h.store)
	if !ok {
		return
	}
	filter := store.TrialFilter{StudyID: study.ID}
	if v := r.URL.Query().Get("state"); v != "" {
		state := store.TrialState(v)
		if !state.Valid() {
			writeError(w, http.StatusBadRequest, "invalid state: "+v)
			return
		}
		filter.State = &state
	}

	trials, err := h.store.ListTrials(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if trials == nil {
		trials = []*store.Trial{}
	}
	writeJSON(w, http.StatusOK, trials)
}

type CompleteTrialRequest struct {
	Values []float64 `json:"values"`
}

func (h *TrialsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	study, ok := loadStudy(w, r, h.store)
	if !ok {
		return
	}
	number, ok := trialNumber(w, r)
	if !ok {
		return
	}
	var req CompleteTrialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trial, err := h.ingest.CompleteTrial(r.Context(), study, number, req.Values, ingest.SourceAPI)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trial)
}

type FailTrialRequest struct {
	Error string `json:"error"`
}

func (h *TrialsHandler) Fail(w http.ResponseWriter, r *http.Request) {
	study, ok := loadStudy(w, r, h.store)
	if !ok {
		return
	}
	number, ok := trialNumber(w, r)
	if !ok {
		return
	}
	var req FailTrialRequest
	// The reason is optional, so an empty body is accepted.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trial, err := h.ingest.FailTrial(r.Context(), study, number, req.Error, ingest.SourceAPI)
	if err != nil {
		writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trial)
}

func trialNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid trial number")
		return 0, false
	}
	return n, true
}

func writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingest.ErrValueCount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ingest.ErrTrialNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ingest.ErrNotRunning):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
