package cvrptw

import (
	"testing"
	"time"

	"github.com/groceryroute/tourplanner/internal/domain"
)

func TestOptimizationStrategy_String(t *testing.T) {
	cases := map[OptimizationStrategy]string{
		Balanced:         "balanced",
		MinimizeVehicles: "minimize_vehicles",
		MinimizeCost:     "minimize_cost",
	}
	for strategy, want := range cases {
		if got := strategy.String(); got != want {
			t.Fatalf("strategy %d: expected %q, got %q", strategy, want, got)
		}
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		Initializing:  "initializing",
		BuildingModel: "building_model",
		Searching:     "searching",
		Feasible:      "feasible",
		Infeasible:    "infeasible",
		Timeout:       "timeout",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("state %d: expected %q, got %q", state, want, got)
		}
	}
}

func TestMatrixMeasure_Cost(t *testing.T) {
	m := domain.Matrix{
		{0, 5, 9},
		{5, 0, 3},
		{9, 3, 0},
	}
	mm := matrixMeasure{m: m}
	if got := mm.Cost(0, 2); got != 9 {
		t.Fatalf("expected cost 9, got %v", got)
	}
	if got := mm.Cost(1, 2); got != 3 {
		t.Fatalf("expected cost 3, got %v", got)
	}
}

func TestStopIndex(t *testing.T) {
	orders := []domain.Order{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if got := stopIndex(orders, "b"); got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
	if got := stopIndex(orders, "missing"); got != -1 {
		t.Fatalf("expected -1 for an unknown id, got %d", got)
	}
}

func TestMinutesOfDay(t *testing.T) {
	tm := time.Date(1970, 1, 1, 7, 45, 0, 0, time.UTC)
	if got := minutesOfDay(tm); got != 465 {
		t.Fatalf("expected 465 minutes, got %d", got)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	e := New(Config{}, nil)
	if e.cfg.ServiceTimeMinutes != defaultServiceTimeMinutes {
		t.Fatalf("expected default service time %d, got %d", defaultServiceTimeMinutes, e.cfg.ServiceTimeMinutes)
	}
	if e.cfg.MaxRouteDurationMinutes != defaultMaxRouteDurationMinutes {
		t.Fatalf("expected default max route duration %d, got %d", defaultMaxRouteDurationMinutes, e.cfg.MaxRouteDurationMinutes)
	}
	if e.log == nil {
		t.Fatal("expected a default logger to be installed")
	}
}

func TestSolve_NoOrdersIsTriviallyFeasible(t *testing.T) {
	e := New(Config{}, nil)
	result, err := e.Solve(Input{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != Feasible {
		t.Fatalf("expected Feasible for an empty order set, got %v", result.State)
	}
}

// TestSolve_CapacityForcesMultipleVehiclesAndRespectsTimeWindows drives the
// real route.NewRouter/solver.Run pipeline with two 60kg orders against a
// 100kg-capacity fleet: the capacity constraint makes a single-vehicle
// solution infeasible, so a feasible plan must split the orders across two
// vehicles. A large unassigned penalty rules out the solver dropping a stop
// instead, and the time windows are wide enough that only a capacity
// violation (or a window violation, checked separately) could explain a
// failure.
func TestSolve_CapacityForcesMultipleVehiclesAndRespectsTimeWindows(t *testing.T) {
	e := New(Config{
		TimeLimit:          2 * time.Second,
		ServiceTimeMinutes: 5,
		UnassignedPenalty:  1_000_000,
	}, nil)

	orders := []domain.Order{
		{ID: "o1", WeightKg: 60, Coordinates: domain.Point{Lat: 0, Lng: 0}, Window: domain.TimeWindow{Start: 480, End: 1080}},
		{ID: "o2", WeightKg: 60, Coordinates: domain.Point{Lat: 0, Lng: 0.01}, Window: domain.TimeWindow{Start: 480, End: 1080}},
	}

	vType := domain.VehicleType{Name: "Motor", CapacityKg: 100, CostPerKm: 1}
	vehicles := []domain.Vehicle{
		{Type: vType, InstanceID: 1, Name: "Motor_1"},
		{Type: vType, InstanceID: 2, Name: "Motor_2"},
	}

	dist := domain.Matrix{
		{0, 2, 2},
		{2, 0, 1},
		{2, 1, 0},
	}
	dur := domain.Matrix{
		{0, 4, 4},
		{4, 0, 2},
		{4, 2, 0},
	}

	result, err := e.Solve(Input{
		Source:   "DEPOT",
		Orders:   orders,
		Vehicles: vehicles,
		Distance: dist,
		Duration: dur,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.UnassignedOrders) != 0 {
		t.Fatalf("expected both orders assigned given the heavy unassigned penalty, got %+v", result.UnassignedOrders)
	}

	assignedVehicles := make(map[string]bool)
	for _, r := range result.Routes {
		if got := r.TotalWeight(); got > vType.CapacityKg {
			t.Fatalf("route on %s exceeds capacity: %v > %v", r.Vehicle.Name, got, vType.CapacityKg)
		}
		for _, s := range r.Stops {
			if s.DepartureTime < s.Order.Window.Start || s.DepartureTime > s.Order.Window.End {
				t.Fatalf("stop %s departs at %d outside its window %v", s.Order.ID, s.DepartureTime, s.Order.Window)
			}
		}
		assignedVehicles[r.Vehicle.Name] = true
	}
	if len(assignedVehicles) < 2 {
		t.Fatalf("expected the 100kg capacity to force the 120kg of demand onto at least 2 vehicles, got %d", len(assignedVehicles))
	}
}
