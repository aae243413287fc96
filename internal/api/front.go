package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Frontier/internal/config"
	"github.com/MikeSquared-Agency/Frontier/internal/metrics"
	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
	"github.com/MikeSquared-Agency/Frontier/internal/plot"
	"github.com/MikeSquared-Agency/Frontier/internal/store"
)

type FrontHandler struct {
	store  store.Store
	colors plot.Colors
	logger *slog.Logger
}

func NewFrontHandler(s store.Store, cfg config.PlotConfig, logger *slog.Logger) *FrontHandler {
	return &FrontHandler{
		store:  s,
		colors: plot.Colors{Front: cfg.FrontColor, Dominated: cfg.DominatedColor},
		logger: logger,
	}
}

type FrontResponse struct {
	StudyID   string         `json:"study_id"`
	Front     []*store.Trial `json:"front"`
	Dominated []*store.Trial `json:"dominated"`
}

// Front returns the complete trials of a study split into non-dominated and
// dominated, each ordered by number. It works for any number of objectives.
func (h *FrontHandler) Front(w http.ResponseWriter, r *http.Request) {
	study, ok := loadStudy(w, r, h.store)
	if !ok {
		return
	}
	trials, err := h.completeTrials(r, study)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	f := h.extract(trials, study.Directions)
	byNumber := make(map[int]*store.Trial, len(trials))
	for _, t := range trials {
		byNumber[t.Number] = t
	}
	resp := FrontResponse{
		StudyID:   study.ID.String(),
		Front:     make([]*store.Trial, 0, len(f.Front)),
		Dominated: make([]*store.Trial, 0, len(f.Dominated)),
	}
	for _, p := range f.Front {
		resp.Front = append(resp.Front, byNumber[p.Number])
	}
	for _, p := range f.Dominated {
		resp.Dominated = append(resp.Dominated, byNumber[p.Number])
	}
	writeJSON(w, http.StatusOK, resp)
}

// Plot renders the study's front as a figure. The dimensionality check runs
// before any trial is read.
func (h *FrontHandler) Plot(w http.ResponseWriter, r *http.Request) {
	study, ok := loadStudy(w, r, h.store)
	if !ok {
		return
	}
	n := study.NObjectives()
	if err := pareto.CheckDimension(n); err != nil {
		h.plotFailed(w, err)
		return
	}
	opts, err := parsePlotOptions(r.URL.Query(), n)
	if err != nil {
		h.plotFailed(w, err)
		return
	}

	trials, err := h.completeTrials(r, study)
	if err != nil {
		h.plotFailed(w, err)
		return
	}

	start := time.Now()
	s, err := pareto.Plot(store.CompletedPoints(trials), study.Directions, opts)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.plotFailed(w, err)
		return
	}
	metrics.FrontSize.Observe(float64(s.FrontLen))
	metrics.PlotRequests.WithLabelValues(metrics.OutcomeOK).Inc()
	writeJSON(w, http.StatusOK, plot.NewFigure(s, h.colors))
}

func (h *FrontHandler) plotFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pareto.ErrUnsupportedDimension):
		metrics.PlotRequests.WithLabelValues(metrics.OutcomeUnsupportedDimension).Inc()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, pareto.ErrInvalidArgument):
		metrics.PlotRequests.WithLabelValues(metrics.OutcomeInvalidArgument).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		metrics.PlotRequests.WithLabelValues(metrics.OutcomeError).Inc()
		h.logger.Error("plot failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *FrontHandler) completeTrials(r *http.Request, study *store.Study) ([]*store.Trial, error) {
	complete := store.TrialComplete
	trials, err := h.store.ListTrials(r.Context(), store.TrialFilter{StudyID: study.ID, State: &complete})
	if err != nil {
		return nil, fmt.Errorf("list trials: %w", err)
	}
	return trials, nil
}

func (h *FrontHandler) extract(trials []*store.Trial, directions []pareto.Direction) pareto.Front {
	start := time.Now()
	f := pareto.Extract(store.CompletedPoints(trials), directions)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	metrics.FrontSize.Observe(float64(len(f.Front)))
	return f
}

// parsePlotOptions reads include_dominated_trials, names and axis_order.
// A single names value is split on commas; "names=" on its own is an
// explicit empty list and is rejected later by the name count check.
func parsePlotOptions(q url.Values, n int) (pareto.Options, error) {
	var opts pareto.Options

	if v := q.Get("include_dominated_trials"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: include_dominated_trials %q", pareto.ErrInvalidArgument, v)
		}
		opts.IncludeDominated = b
	}

	if vs, ok := q["names"]; ok {
		switch {
		case len(vs) == 1 && vs[0] == "":
			opts.Names = []string{}
		case len(vs) == 1:
			opts.Names = strings.Split(vs[0], ",")
		default:
			opts.Names = vs
		}
	}

	if v, ok := q["axis_order"]; ok {
		order, err := parseAxisOrder(strings.Join(v, ","))
		if err != nil {
			return opts, err
		}
		if !pareto.IsPermutation(order, n) {
			return opts, fmt.Errorf("%w: axis_order %v is not a permutation of 0..%d", pareto.ErrInvalidArgument, order, n-1)
		}
		opts.AxisOrder = order
	}
	return opts, nil
}

func parseAxisOrder(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	order := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: axis_order entry %q", pareto.ErrInvalidArgument, p)
		}
		order[i] = v
	}
	return order, nil
}
