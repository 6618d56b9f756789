// Package blindvan implements the Blind-Van Planner (spec §4.5): a single
// low-capacity van visits active hubs to drop consolidated loads, optionally
// picking up en-route deliveries along the way for hubs configured in
// Mode B. Grounded on
// original_source/src/solver/blind_van_router.py.
package blindvan

import (
	"sort"

	"github.com/groceryroute/tourplanner/internal/domain"
	"github.com/groceryroute/tourplanner/internal/hubindex"
)

const (
	consolidationServiceTimeMinutes = 10
	deliveryServiceTimeMinutes      = 5
)

// Candidate is an order under consideration for en-route delivery before a
// given hub stop.
type Candidate struct {
	Order          domain.Order
	OrderMatrixIdx int
	HubID          string
	DetourKm       float64
	DetourMinutes  float64
	Score          float64
}

// Planner builds the blind-van route.
type Planner struct {
	depot            domain.Location
	hubs             []domain.HubConfig
	classified       map[string][]domain.Order
	van              domain.Vehicle
	matrices         domain.Matrices
	cfg              domain.MultiHubConfig
	idx              *hubindex.Manager
	orderMatrixIndex map[string]int

	deliveredEnRoute []domain.Order
}

// New builds a Planner. classified maps source id (DEPOT or hub id) to the
// orders assigned to it; orderMatrixIndex maps order id to its matrix row.
func New(
	depot domain.Location,
	hubs []domain.HubConfig,
	classified map[string][]domain.Order,
	van domain.Vehicle,
	matrices domain.Matrices,
	cfg domain.MultiHubConfig,
	idx *hubindex.Manager,
	orderMatrixIndex map[string]int,
) *Planner {
	return &Planner{
		depot:            depot,
		hubs:             hubs,
		classified:       classified,
		van:              van,
		matrices:         matrices,
		cfg:              cfg,
		idx:              idx,
		orderMatrixIndex: orderMatrixIndex,
	}
}

// DeliveredEnRoute returns the DEPOT-pool orders consumed by en-route
// delivery, so the caller can remove them from the depot's order pool
// before handing the remainder to the CVRPTW engine.
func (p *Planner) DeliveredEnRoute() []domain.Order { return p.deliveredEnRoute }

// Solve runs the full pipeline: active-hub TSP, en-route candidate
// selection, then route assembly. Returns nil if no hub has any orders.
func (p *Planner) Solve() *domain.Route {
	active := p.activeHubs()
	if len(active) == 0 {
		return nil
	}

	sequence := p.solveHubTSP(active)
	enRoute := p.identifyEnRouteOrders(sequence)
	return p.buildRoute(sequence, enRoute)
}

func (p *Planner) activeHubs() []domain.HubConfig {
	var active []domain.HubConfig
	for _, h := range p.hubs {
		if len(p.classified[h.ID]) > 0 {
			active = append(active, h)
		}
	}
	return active
}

// solveHubTSP orders active hubs by nearest-neighbor starting from the
// depot. Ties and unknown hub indices fall back to appending the remainder
// in original order.
func (p *Planner) solveHubTSP(hubs []domain.HubConfig) []domain.HubConfig {
	if len(hubs) <= 1 {
		return hubs
	}

	unvisited := make([]domain.HubConfig, len(hubs))
	copy(unvisited, hubs)

	var sequence []domain.HubConfig
	currentIdx := p.idx.DepotIndex()

	for len(unvisited) > 0 {
		bestPos := -1
		bestDistance := -1.0

		for i, h := range unvisited {
			hubIdx, err := p.idx.HubIndex(h.ID)
			if err != nil {
				continue
			}
			d := p.matrices.Distance[currentIdx][hubIdx]
			if bestPos == -1 || d < bestDistance {
				bestDistance = d
				bestPos = i
			}
		}

		if bestPos == -1 {
			sequence = append(sequence, unvisited...)
			break
		}

		chosen := unvisited[bestPos]
		sequence = append(sequence, chosen)
		unvisited = append(unvisited[:bestPos], unvisited[bestPos+1:]...)
		idx, _ := p.idx.HubIndex(chosen.ID)
		currentIdx = idx
	}

	return sequence
}

// identifyEnRouteOrders finds, for every Mode-B hub in sequence, which DEPOT
// orders can be delivered in the corridor leading up to that hub.
func (p *Planner) identifyEnRouteOrders(sequence []domain.HubConfig) map[string][]domain.Order {
	enRoute := make(map[string][]domain.Order)

	depotOrders := append([]domain.Order{}, p.classified[domain.DepotSourceID]...)
	if len(depotOrders) == 0 {
		return enRoute
	}

	selected := make(map[string]bool)
	prevIdx := p.idx.DepotIndex()

	for _, hub := range sequence {
		hubIdx, err := p.idx.HubIndex(hub.ID)
		if err != nil {
			continue
		}

		if !hub.BlindVan.DeliveryEnabled() {
			prevIdx = hubIdx
			continue
		}
		cfg := hub.BlindVan.EnRouteConfig

		candidates := p.findCorridorCandidates(prevIdx, hubIdx, depotOrders, cfg, hub.ID, selected)
		chosen := p.selectEnRouteOrders(candidates, cfg)

		for _, o := range chosen {
			selected[o.ID] = true
			p.deliveredEnRoute = append(p.deliveredEnRoute, o)
		}
		enRoute[hub.ID] = chosen
		prevIdx = hubIdx
	}

	return enRoute
}

func (p *Planner) findCorridorCandidates(
	startIdx, endIdx int,
	depotOrders []domain.Order,
	cfg domain.EnRouteDeliveryConfig,
	hubID string,
	excluded map[string]bool,
) []Candidate {
	directDistance := p.matrices.Distance[startIdx][endIdx]
	directDuration := p.matrices.Duration[startIdx][endIdx]

	var candidates []Candidate
	for _, o := range depotOrders {
		if excluded[o.ID] {
			continue
		}
		orderIdx, ok := p.orderMatrixIndex[o.ID]
		if !ok {
			continue
		}

		distToOrder := p.matrices.Distance[startIdx][orderIdx]
		distOrderToEnd := p.matrices.Distance[orderIdx][endIdx]
		totalDistance := distToOrder + distOrderToEnd

		timeToOrder := p.matrices.Duration[startIdx][orderIdx]
		timeOrderToEnd := p.matrices.Duration[orderIdx][endIdx]
		totalTime := timeToOrder + timeOrderToEnd + deliveryServiceTimeMinutes

		detourKm := totalDistance - directDistance
		detourMinutes := totalTime - directDuration

		if detourKm <= cfg.MaxDetourKm && detourMinutes <= cfg.MaxDetourMinutes {
			score := detourKm*2 + detourMinutes/10
			candidates = append(candidates, Candidate{
				Order:          o,
				OrderMatrixIdx: orderIdx,
				HubID:          hubID,
				DetourKm:       detourKm,
				DetourMinutes:  detourMinutes,
				Score:          score,
			})
		}
	}
	return candidates
}

// selectEnRouteOrders greedily accepts lowest-score candidates that fit
// within the van's remaining capacity after consolidation loads and the
// hub's reserved buffer.
func (p *Planner) selectEnRouteOrders(candidates []Candidate, cfg domain.EnRouteDeliveryConfig) []domain.Order {
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score < candidates[j].Score
		}
		return candidates[i].Order.WeightKg < candidates[j].Order.WeightKg
	})

	availableCapacity := p.van.Type.CapacityKg - p.totalConsolidationWeight() - cfg.ReserveCapacityKg

	var selected []domain.Order
	totalWeight := 0.0
	for _, c := range candidates {
		if len(selected) >= cfg.MaxStops {
			break
		}
		if totalWeight+c.Order.WeightKg > availableCapacity {
			continue
		}
		selected = append(selected, c.Order)
		totalWeight += c.Order.WeightKg
	}
	return selected
}

func (p *Planner) totalConsolidationWeight() float64 {
	total := 0.0
	for _, h := range p.hubs {
		for _, o := range p.classified[h.ID] {
			total += o.WeightKg
		}
	}
	return total
}

// buildRoute walks the hub sequence, inserting en-route deliveries
// immediately before the hub they were selected for, followed by a
// consolidation pseudo-stop at the hub itself.
func (p *Planner) buildRoute(sequence []domain.HubConfig, enRoute map[string][]domain.Order) *domain.Route {
	var stops []domain.RouteStop
	currentTime := p.cfg.BlindVanDeparture
	prevIdx := p.idx.DepotIndex()

	currentWeight := 0.0

	totalDistance := 0.0

	for _, hub := range sequence {
		hubIdx, err := p.idx.HubIndex(hub.ID)
		if err != nil {
			continue
		}

		for _, o := range enRoute[hub.ID] {
			orderIdx, ok := p.orderMatrixIndex[o.ID]
			if !ok {
				continue
			}

			travelDistance := p.matrices.Distance[prevIdx][orderIdx]
			travelTime := p.matrices.Duration[prevIdx][orderIdx]
			totalDistance += travelDistance

			arrival := currentTime + int(travelTime)
			departure := arrival + deliveryServiceTimeMinutes

			currentWeight += o.WeightKg
			stops = append(stops, domain.RouteStop{
				Order:            o,
				ArrivalTime:      arrival,
				DepartureTime:    departure,
				DistanceFromPrev: travelDistance,
				CumulativeWeight: currentWeight,
				Sequence:         len(stops),
			})

			currentTime = departure
			prevIdx = orderIdx
		}

		travelDistance := p.matrices.Distance[prevIdx][hubIdx]
		travelTime := p.matrices.Duration[prevIdx][hubIdx]
		totalDistance += travelDistance

		arrival := currentTime + int(travelTime)
		departure := arrival + consolidationServiceTimeMinutes

		hubOrder := p.consolidationOrder(hub)
		currentWeight += hubOrder.WeightKg
		stops = append(stops, domain.RouteStop{
			Order:            hubOrder,
			ArrivalTime:      arrival,
			DepartureTime:    departure,
			DistanceFromPrev: travelDistance,
			CumulativeWeight: currentWeight,
			Sequence:         len(stops),
		})

		currentTime = departure
		prevIdx = hubIdx
	}

	// Corrected per the source's return-leg: the last stop visited, not a
	// customer index, feeds the return-to-depot distance.
	if p.cfg.BlindVanReturnToDepot {
		totalDistance += p.matrices.Distance[prevIdx][p.idx.DepotIndex()]
	}

	return &domain.Route{
		Vehicle:       p.van,
		Stops:         stops,
		DepartureTime: p.cfg.BlindVanDeparture,
		TotalDistance: totalDistance,
		TotalCost:     totalDistance * p.van.Type.CostPerKm,
		Source:        domain.DepotSourceID,
		TripNumber:    1,
	}
}

func (p *Planner) consolidationOrder(hub domain.HubConfig) domain.Order {
	hubOrders := p.classified[hub.ID]
	totalWeight := 0.0
	for _, o := range hubOrders {
		totalWeight += o.WeightKg
	}

	deliveryDate := ""
	if len(hubOrders) > 0 {
		deliveryDate = hubOrders[0].DeliveryDate
	}

	return domain.NewConsolidationOrder(
		hub.ID,
		hub.Hub.Name,
		hub.Hub.Address,
		hub.Hub.Coordinates,
		totalWeight,
		deliveryDate,
		domain.TimeWindow{Start: 330, End: 360},
	)
}
