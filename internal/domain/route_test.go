package domain

import "testing"

func TestRoute_TotalWeight(t *testing.T) {
	r := Route{Stops: []RouteStop{
		{Order: Order{WeightKg: 10}},
		{Order: Order{WeightKg: 15}},
	}}
	if got := r.TotalWeight(); got != 25 {
		t.Fatalf("expected total weight 25, got %v", got)
	}
}

func TestRoute_NumStops(t *testing.T) {
	r := Route{Stops: []RouteStop{{}, {}, {}}}
	if got := r.NumStops(); got != 3 {
		t.Fatalf("expected 3 stops, got %d", got)
	}
}

func TestRoutingSolution_Totals(t *testing.T) {
	s := RoutingSolution{Routes: []Route{
		{Stops: []RouteStop{{}}, TotalDistance: 10, TotalCost: 100},
		{Stops: nil, TotalDistance: 5, TotalCost: 50},
	}}
	if got := s.TotalVehiclesUsed(); got != 1 {
		t.Fatalf("expected 1 used vehicle (the empty route doesn't count), got %d", got)
	}
	if got := s.TotalDistance(); got != 15 {
		t.Fatalf("expected total distance 15, got %v", got)
	}
	if got := s.TotalCost(); got != 150 {
		t.Fatalf("expected total cost 150, got %v", got)
	}
}
