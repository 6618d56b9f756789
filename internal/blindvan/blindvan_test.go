package blindvan

import (
	"testing"

	"github.com/groceryroute/tourplanner/internal/domain"
	"github.com/groceryroute/tourplanner/internal/hubindex"
)

// layout: 0=depot, 1=hubA, 2=hubB, 3=orderD1 (depot pool, on corridor depot->hubA)
func testMatrices() domain.Matrices {
	dist := domain.NewMatrix(4)
	dur := domain.NewMatrix(4)
	set := func(i, j int, d float64) {
		dist[i][j] = d
		dist[j][i] = d
		dur[i][j] = d * 2
		dur[j][i] = d * 2
	}
	set(0, 1, 10) // depot-hubA
	set(0, 2, 20) // depot-hubB
	set(1, 2, 8)  // hubA-hubB
	set(0, 3, 4)  // depot-order
	set(1, 3, 4)  // hubA-order
	set(2, 3, 20) // hubB-order
	return domain.Matrices{Distance: dist, Duration: dur}
}

func TestSolve_NoActiveHubsReturnsNil(t *testing.T) {
	idx := hubindex.New([]string{"A", "B"})
	p := New(domain.Location{}, nil, map[string][]domain.Order{}, domain.Vehicle{}, testMatrices(), domain.MultiHubConfig{}, idx, nil)
	if got := p.Solve(); got != nil {
		t.Fatalf("expected nil route with no active hubs, got %+v", got)
	}
}

func TestSolve_ConsolidationOnly(t *testing.T) {
	idx := hubindex.New([]string{"A", "B"})
	hubA := domain.HubConfig{ID: "A", Hub: domain.Location{Name: "Hub A"}}
	hubB := domain.HubConfig{ID: "B", Hub: domain.Location{Name: "Hub B"}}
	classified := map[string][]domain.Order{
		"A": {mustOrder(t, "c1", 5)},
		"B": {mustOrder(t, "c2", 5)},
	}
	van := domain.Vehicle{Type: domain.VehicleType{Name: "BlindVan", CapacityKg: 100, CostPerKm: 2}}
	cfg := domain.MultiHubConfig{Hubs: []domain.HubConfig{hubA, hubB}, BlindVanDeparture: 300, BlindVanReturnToDepot: true}

	p := New(domain.Location{}, []domain.HubConfig{hubA, hubB}, classified, van, testMatrices(), cfg, idx, map[string]int{})
	route := p.Solve()
	if route == nil {
		t.Fatal("expected a route")
	}
	if len(route.Stops) != 2 {
		t.Fatalf("expected 2 consolidation stops, got %d", len(route.Stops))
	}
	for _, s := range route.Stops {
		if s.Order.Kind != domain.HubConsolidation {
			t.Fatalf("expected consolidation pseudo-orders, got %v", s.Order.Kind)
		}
	}
	// nearest-neighbor from depot should visit A (dist 10) before B (dist 20)
	if route.Stops[0].Order.PartnerID != "A" {
		t.Fatalf("expected hub A visited first, got %s", route.Stops[0].Order.PartnerID)
	}
}

func TestSolve_ModeBPicksUpEnRouteOrder(t *testing.T) {
	idx := hubindex.New([]string{"A"})
	hubA := domain.HubConfig{
		ID:  "A",
		Hub: domain.Location{Name: "Hub A"},
		BlindVan: domain.HubBlindVanConfig{
			Mode: domain.ConsolidationWithDelivery,
			EnRouteConfig: domain.EnRouteDeliveryConfig{
				MaxStops:          2,
				MaxDetourKm:       5,
				MaxDetourMinutes:  30,
				ReserveCapacityKg: 0,
			},
		},
	}
	depotOrder := mustOrder(t, "d1", 5)
	classified := map[string][]domain.Order{
		"A":                    {mustOrder(t, "c1", 5)},
		domain.DepotSourceID: {depotOrder},
	}
	van := domain.Vehicle{Type: domain.VehicleType{Name: "BlindVan", CapacityKg: 100, CostPerKm: 2}}
	cfg := domain.MultiHubConfig{Hubs: []domain.HubConfig{hubA}, BlindVanDeparture: 300, BlindVanReturnToDepot: true}

	p := New(domain.Location{}, []domain.HubConfig{hubA}, classified, van, testMatrices(), cfg, idx, map[string]int{"d1": 3})
	route := p.Solve()
	if route == nil {
		t.Fatal("expected a route")
	}
	if len(p.DeliveredEnRoute()) != 1 || p.DeliveredEnRoute()[0].ID != "d1" {
		t.Fatalf("expected order d1 delivered en route, got %+v", p.DeliveredEnRoute())
	}
	if len(route.Stops) != 2 {
		t.Fatalf("expected delivery stop + consolidation stop, got %d", len(route.Stops))
	}
	if route.Stops[0].Order.ID != "d1" {
		t.Fatalf("expected en-route delivery stop before the hub stop, got %s", route.Stops[0].Order.ID)
	}
}

func TestSelectEnRouteOrders_TiesPreferLowerWeight(t *testing.T) {
	idx := hubindex.New([]string{"A"})
	hubA := domain.HubConfig{ID: "A", Hub: domain.Location{Name: "Hub A"}}
	van := domain.Vehicle{Type: domain.VehicleType{Name: "BlindVan", CapacityKg: 100, CostPerKm: 2}}
	p := New(domain.Location{}, []domain.HubConfig{hubA}, map[string][]domain.Order{}, van, testMatrices(), domain.MultiHubConfig{Hubs: []domain.HubConfig{hubA}}, idx, map[string]int{})

	heavy := mustOrder(t, "heavy", 20)
	light := mustOrder(t, "light", 5)
	candidates := []Candidate{
		{Order: heavy, Score: 1.0},
		{Order: light, Score: 1.0},
	}

	selected := p.selectEnRouteOrders(candidates, domain.EnRouteDeliveryConfig{MaxStops: 1, ReserveCapacityKg: 0})
	if len(selected) != 1 || selected[0].ID != "light" {
		t.Fatalf("expected the lower-weight candidate to win an equal-score tie, got %+v", selected)
	}
}

func mustOrder(t *testing.T, id string, weight float64) domain.Order {
	t.Helper()
	o, err := domain.NewOrder(id, "2026-08-01", "08:00-09:00", weight, "p1", "Name", "Addr", domain.Point{Lat: 1, Lng: 1}, "", false)
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	return o
}
