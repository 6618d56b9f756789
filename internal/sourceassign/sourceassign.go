// Package sourceassign implements the Source Assigner (spec §4.3): for each
// order it decides whether the depot or a hub should serve it. Grounded on
// original_source/src/solver/dynamic_source_assigner.py.
package sourceassign

import (
	"math"
	"strings"

	"github.com/groceryroute/tourplanner/internal/domain"
	"github.com/groceryroute/tourplanner/internal/geo"
	"github.com/groceryroute/tourplanner/internal/hubindex"
)

// Cost is the weighted cost breakdown of serving an order from one source.
type Cost struct {
	SourceID  string
	Distance  float64
	Duration  float64
	Total     float64
}

// Assigner decides per-order sources using the configured mode.
type Assigner struct {
	hubs      []domain.HubConfig
	idx       *hubindex.Manager
	matrices  domain.Matrices
	cfg       domain.SourceAssignmentConfig
	zoneToHub map[string]string
}

// New builds an Assigner over the full (depot+hubs+customers) matrices.
func New(hubs []domain.HubConfig, idx *hubindex.Manager, matrices domain.Matrices, cfg domain.SourceAssignmentConfig) (*Assigner, error) {
	if len(hubs) == 0 && cfg.Mode != domain.ZoneBased {
		return nil, &domain.ConfigError{Reason: "no hubs declared but source-assignment mode is not zone_based"}
	}

	zoneToHub := make(map[string]string)
	for _, h := range hubs {
		for _, z := range h.Zones {
			zoneToHub[z] = h.ID
		}
	}

	return &Assigner{hubs: hubs, idx: idx, matrices: matrices, cfg: cfg, zoneToHub: zoneToHub}, nil
}

// weightedCost returns the weighted cost of serving order (at its matrix
// index orderMatrixIdx) from the source at sourceMatrixIdx.
func (a *Assigner) weightedCost(sourceMatrixIdx, orderMatrixIdx int) Cost {
	dist := a.matrices.Distance[sourceMatrixIdx][orderMatrixIdx]
	dur := a.matrices.Duration[sourceMatrixIdx][orderMatrixIdx]
	return Cost{
		Distance: dist,
		Duration: dur,
		Total:    a.cfg.DistanceWeight*dist + a.cfg.TimeWeight*dur,
	}
}

// bestDynamicSource returns the source (DEPOT or a hub id) that minimizes
// weighted cost to order at customerMatrixIdx.
func (a *Assigner) bestDynamicSource(customerMatrixIdx int) (string, Cost) {
	best := domain.DepotSourceID
	bestCost := a.weightedCost(a.idx.DepotIndex(), customerMatrixIdx)
	bestCost.SourceID = domain.DepotSourceID

	for _, h := range a.hubs {
		hubIdx, err := a.idx.HubIndex(h.ID)
		if err != nil {
			continue
		}
		c := a.weightedCost(hubIdx, customerMatrixIdx)
		c.SourceID = h.ID
		if c.Total < bestCost.Total {
			best = h.ID
			bestCost = c
		}
	}
	return best, bestCost
}

// zoneSource returns the zone-mapped source for order, honoring the
// unassigned-zone policy when the order's zone maps to no hub.
func (a *Assigner) zoneSource(order domain.Order, policy domain.UnassignedZonePolicy) string {
	zone := strings.ToUpper(order.Zone)
	if zone == "" {
		return a.unassignedZoneSource(order, policy)
	}
	if hubID, ok := a.zoneToHub[zone]; ok {
		return hubID
	}
	return a.unassignedZoneSource(order, policy)
}

func (a *Assigner) unassignedZoneSource(order domain.Order, policy domain.UnassignedZonePolicy) string {
	if policy == domain.DepotFallback || len(a.hubs) == 0 {
		return domain.DepotSourceID
	}
	// NearestHub: straight-line nearest hub location.
	best := domain.DepotSourceID
	bestDist := math.Inf(1)
	for _, h := range a.hubs {
		d := geo.HaversineKm(order.Coordinates.Lat, order.Coordinates.Lng, h.Hub.Coordinates.Lat, h.Hub.Coordinates.Lng)
		if d < bestDist {
			bestDist = d
			best = h.ID
		}
	}
	return best
}

// emptyAssignment seeds the result map with every possible source key so
// callers can always look up DEPOT and every hub id, even when empty.
func (a *Assigner) emptyAssignment() map[string][]domain.Order {
	result := map[string][]domain.Order{domain.DepotSourceID: nil}
	for _, h := range a.hubs {
		result[h.ID] = nil
	}
	return result
}

// Assign partitions orders across {DEPOT} u hub_ids according to the
// configured mode. customerStartIdx is the matrix index of orders[0].
func (a *Assigner) Assign(orders []domain.Order, customerStartIdx int, zonePolicy domain.UnassignedZonePolicy) map[string][]domain.Order {
	result := a.emptyAssignment()

	switch a.cfg.Mode {
	case domain.Dynamic:
		for i, o := range orders {
			source, _ := a.bestDynamicSource(customerStartIdx + i)
			result[source] = append(result[source], o)
		}
	case domain.Hybrid:
		for i, o := range orders {
			zoneSource := a.zoneSource(o, zonePolicy)
			matrixIdx := customerStartIdx + i
			zoneIdx := a.sourceMatrixIndex(zoneSource)
			zoneCost := a.weightedCost(zoneIdx, matrixIdx)

			dynSource, dynCost := a.bestDynamicSource(matrixIdx)

			final := zoneSource
			if zoneCost.Total > 0 {
				advantage := (zoneCost.Total - dynCost.Total) / zoneCost.Total * 100
				if advantage >= a.cfg.MinCostAdvantagePercent {
					final = dynSource
				}
			}
			result[final] = append(result[final], o)
		}
	default: // ZoneBased
		for _, o := range orders {
			source := a.zoneSource(o, zonePolicy)
			result[source] = append(result[source], o)
		}
	}

	return result
}

func (a *Assigner) sourceMatrixIndex(sourceID string) int {
	if sourceID == domain.DepotSourceID {
		return a.idx.DepotIndex()
	}
	idx, err := a.idx.HubIndex(sourceID)
	if err != nil {
		return a.idx.DepotIndex()
	}
	return idx
}
