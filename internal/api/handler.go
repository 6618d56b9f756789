package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/groceryroute/tourplanner/internal/config"
	"github.com/groceryroute/tourplanner/internal/domain"
	"github.com/groceryroute/tourplanner/internal/orchestrator"
)

// planRequest is the HTTP request body: the depot and the orders to route.
// Fleet and hub configuration come from the server's loaded document rather
// than the request, matching the spec's treatment of configuration as a
// deployment concern, not a per-call one.
type planRequest struct {
	Depot      domain.Location `json:"depot"`
	Orders     []domain.Order  `json:"orders"`
	TimeBudget string          `json:"time_budget,omitempty"` // e.g. "30s"; defaults to 30s
}

type planResponse struct {
	Solution    domain.RoutingSolution `json:"solution"`
	Diagnostics []string               `json:"diagnostics,omitempty"`
}

type planHandler struct {
	orch *orchestrator.Orchestrator
	doc  config.Document
	log  *logrus.Logger
}

func (h *planHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	budget := 30 * time.Second
	if req.TimeBudget != "" {
		d, err := time.ParseDuration(req.TimeBudget)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid time_budget: "+err.Error())
			return
		}
		budget = d
	}

	solution, diag, err := h.orch.Plan(orchestrator.Input{
		Depot:      req.Depot,
		Orders:     req.Orders,
		Fleet:      h.doc.Fleet,
		Hubs:       h.doc.Hubs,
		Cluster:    h.doc.Cluster,
		MultiTrip:  h.doc.MultiTrip,
		CVRPTW:     h.doc.CVRPTW,
		TimeBudget: budget,
	})
	if err != nil {
		h.log.WithError(err).Warn("plan request failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, planResponse{Solution: solution, Diagnostics: diag.Warnings})
}
