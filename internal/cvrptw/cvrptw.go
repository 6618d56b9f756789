// Package cvrptw implements the CVRPTW Engine (spec §4.6): one capacitated
// vehicle-routing-with-time-windows solve for a single (source, order
// subset, fleet, submatrices) tuple. It wraps github.com/nextmv-io/sdk's
// route/store packages, generalizing the zone/package-type constraint
// pattern from
// "Custom VRP bakery delivery"/router/main.go (SizeClassificationConstraint)
// and the measure wiring from
// "Parcel Routing Techtalk"/main.go.
package cvrptw

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nextmv-io/sdk/route"
	"github.com/nextmv-io/sdk/store"
	"github.com/sirupsen/logrus"

	"github.com/groceryroute/tourplanner/internal/domain"
)

// OptimizationStrategy selects the objective the solver pursues.
type OptimizationStrategy int

const (
	Balanced OptimizationStrategy = iota
	MinimizeVehicles
	MinimizeCost
)

func (s OptimizationStrategy) String() string {
	switch s {
	case MinimizeVehicles:
		return "minimize_vehicles"
	case MinimizeCost:
		return "minimize_cost"
	default:
		return "balanced"
	}
}

// State names the phases of one solve, per the state machine in §4.6.
type State int

const (
	Initializing State = iota
	BuildingModel
	Searching
	Feasible
	Infeasible
	Timeout
)

func (s State) String() string {
	switch s {
	case BuildingModel:
		return "building_model"
	case Searching:
		return "searching"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	case Timeout:
		return "timeout"
	default:
		return "initializing"
	}
}

// Config parameterizes one engine solve.
type Config struct {
	Strategy                 OptimizationStrategy
	TimeLimit                time.Duration
	ServiceTimeMinutes        int // default 15
	PriorityTimeTolerance     int // minutes
	NonPriorityTimeTolerance  int // minutes
	RelaxTimeWindows          bool
	TimeWindowRelaxationMinutes int
	ZoneCapK                  int // distinct zones per vehicle; <=0 disables the cap
	UnassignedPenalty         int
	VehicleActivationPenalty  int // dominant term for minimize_vehicles
	MaxRouteDurationMinutes   int // default 1440 (24h); enforced as a hard routeDurationConstraint
}

const defaultServiceTimeMinutes = 15
const defaultMaxRouteDurationMinutes = 24 * 60

// Engine solves one CVRPTW instance for a single source.
type Engine struct {
	cfg Config
	log *logrus.Logger
}

// New builds an Engine.
func New(cfg Config, log *logrus.Logger) *Engine {
	if cfg.ServiceTimeMinutes <= 0 {
		cfg.ServiceTimeMinutes = defaultServiceTimeMinutes
	}
	if cfg.MaxRouteDurationMinutes <= 0 {
		cfg.MaxRouteDurationMinutes = defaultMaxRouteDurationMinutes
	}
	if log == nil {
		log = logrus.New()
	}
	return &Engine{cfg: cfg, log: log}
}

// matrixMeasure adapts a domain.Matrix (submatrix indices: 0=source,
// 1..n=customers) to the nextmv-sdk route.ByIndex interface, standing in
// for measure.Indexed when the cost data is a precomputed table rather
// than raw points.
type matrixMeasure struct {
	m domain.Matrix
}

func (mm matrixMeasure) Cost(from, to int) float64 {
	return mm.m[from][to]
}

// zoneCapConstraint caps the number of distinct administrative zones a
// single vehicle may visit. Orders with an empty zone are exempt, matching
// the "unknown zone" carve-out in §4.6.
type zoneCapConstraint struct {
	zones []string // zones[i] is the zone of the stop at submatrix index i; "" for source/exempt
	k     int
}

// Violated implements route.VehicleConstraint.
func (c zoneCapConstraint) Violated(vehicle route.PartialVehicle) (route.VehicleConstraint, bool) {
	if c.k <= 0 {
		return c, false
	}
	seen := make(map[string]bool)
	r := vehicle.Route()
	// Omit start/end (indices 0 and len-1), which are the source location.
	for i := 1; i < len(r)-1; i++ {
		idx := r[i]
		if idx < 0 || idx >= len(c.zones) {
			continue
		}
		z := c.zones[idx]
		if z == "" {
			continue
		}
		seen[z] = true
		if len(seen) > c.k {
			return c, true
		}
	}
	return c, false
}

// objectiveUpdater implements route.PlanUpdater, scoring the active plan
// per the strategy selected in Config. v.Value() already folds in the
// travel-time/value measures wired into the router; this updater layers an
// activation penalty on top, dominant when the strategy is
// MinimizeVehicles, mirroring the fleetData.Update pattern in
// "Custom VRP bakery delivery"/router/main.go.
type objectiveUpdater struct {
	strategy          OptimizationStrategy
	activationPenalty int
	vehicleValues     map[string]int
	planValue         int
}

func (d objectiveUpdater) Update(p route.PartialPlan, vehicles []route.PartialVehicle) (route.PlanUpdater, int, bool) {
	values := make(map[string]int, len(d.vehicleValues))
	for id, v := range d.vehicleValues {
		values[id] = v
	}
	d.vehicleValues = values

	for _, v := range vehicles {
		id := v.ID()
		d.planValue -= d.vehicleValues[id]
		value := v.Value()
		if d.strategy == MinimizeVehicles && len(v.Route()) > 2 {
			value += d.activationPenalty
		}
		d.vehicleValues[id] = value
		d.planValue += value
	}

	return d, d.planValue, true
}

// routeDurationConstraint bounds the elapsed time between a vehicle's first
// arrival and its last departure, enforcing Config.MaxRouteDurationMinutes
// (default 24h). Modeled on the elapsed-time bookkeeping in
// "customization-best-practices"/routing-customized-value/main.go's
// vehicleData.Update (totalDuration := etds[len(etds)-1] - etas[0]), applied
// here as a hard constraint instead of an objective term.
type routeDurationConstraint struct {
	maxSeconds int
}

// Violated implements route.VehicleConstraint.
func (c routeDurationConstraint) Violated(vehicle route.PartialVehicle) (route.VehicleConstraint, bool) {
	if c.maxSeconds <= 0 {
		return c, false
	}
	times := vehicle.Times()
	arr := times.EstimatedArrival
	dep := times.EstimatedDeparture
	if len(arr) == 0 || len(dep) == 0 {
		return c, false
	}
	if dep[len(dep)-1]-arr[0] > c.maxSeconds {
		return c, true
	}
	return c, false
}

// idleVehicleUpdater implements route.VehicleUpdater with no incremental
// work; all objective bookkeeping happens at the plan level above.
type idleVehicleUpdater struct{}

func (idleVehicleUpdater) Update(route.PartialVehicle) (route.VehicleUpdater, int, bool) {
	return idleVehicleUpdater{}, 0, false
}

// Input is one self-contained CVRPTW instance.
type Input struct {
	Source        string // "DEPOT" or a hub id
	Orders        []domain.Order
	Vehicles      []domain.Vehicle
	Distance      domain.Matrix // submatrix, index 0 = source
	Duration      domain.Matrix
	ReturnToDepot bool
}

// Result is the decoded solve outcome.
type Result struct {
	State            State
	Routes           []domain.Route
	UnassignedOrders []domain.Order
}

// Solve runs one CVRPTW instance to completion or to its deadline.
func (e *Engine) Solve(in Input) (Result, error) {
	if len(in.Orders) == 0 {
		return Result{State: Feasible}, nil
	}

	n := len(in.Orders)
	stops := make([]route.Stop, n)
	quantities := make([]int, n)
	services := make([]route.Service, n)
	windows := make([]route.Window, n)
	penalties := make([]int, n)
	zones := make([]string, n+1) // index 0 is the source, exempt

	for i, o := range in.Orders {
		stopID := o.ID
		stops[i] = route.Stop{ID: stopID, Position: route.Position{Lon: o.Coordinates.Lng, Lat: o.Coordinates.Lat}}
		quantities[i] = int(o.WeightKg)
		services[i] = route.Service{ID: stopID, Duration: e.cfg.ServiceTimeMinutes * 60}
		penalties[i] = e.cfg.UnassignedPenalty

		tolerance := e.cfg.NonPriorityTimeTolerance
		if o.IsPriority {
			tolerance = e.cfg.PriorityTimeTolerance
		}
		if e.cfg.RelaxTimeWindows {
			tolerance += e.cfg.TimeWindowRelaxationMinutes
		}
		windows[i] = route.Window{
			TimeWindow: route.TimeWindow{
				Start: time.Unix(int64(o.Window.Start)*60, 0),
				End:   time.Unix(int64(o.Window.End+tolerance)*60, 0),
			},
			MaxWait: -1,
		}
		zones[i+1] = o.Zone
	}

	vehicleIDs := make([]string, len(in.Vehicles))
	capacities := make([]int, len(in.Vehicles))
	sourcePos := route.Position{} // populated by the caller's submatrix convention (index 0)
	starts := make([]route.Position, len(in.Vehicles))
	ends := make([]route.Position, len(in.Vehicles))

	for v, vh := range in.Vehicles {
		vehicleIDs[v] = vh.Name
		capacities[v] = int(vh.Type.CapacityKg)
		starts[v] = sourcePos
		ends[v] = sourcePos
	}

	distMeasure := matrixMeasure{m: in.Distance}
	durMeasure := matrixMeasure{m: in.Duration}
	travelMeasures := make([]route.ByIndex, len(in.Vehicles))
	valueMeasures := make([]route.ByIndex, len(in.Vehicles))
	for v := range in.Vehicles {
		travelMeasures[v] = durMeasure
		valueMeasures[v] = distMeasure
	}

	zoneConstraint := zoneCapConstraint{zones: zones, k: e.cfg.ZoneCapK}
	durationConstraint := routeDurationConstraint{maxSeconds: e.cfg.MaxRouteDurationMinutes * 60}
	objective := objectiveUpdater{
		strategy:          e.cfg.Strategy,
		activationPenalty: e.cfg.VehicleActivationPenalty,
		vehicleValues:     make(map[string]int),
	}

	router, err := route.NewRouter(
		stops,
		vehicleIDs,
		route.Starts(starts),
		route.Ends(ends),
		route.Services(services),
		route.Capacity(quantities, capacities),
		route.Windows(windows),
		route.Unassigned(penalties),
		route.TravelTimeMeasures(travelMeasures),
		route.ValueFunctionMeasures(valueMeasures),
		route.Constraint(zoneConstraint, vehicleIDs),
		route.Constraint(durationConstraint, vehicleIDs),
		route.Update(idleVehicleUpdater{}, objective),
	)
	if err != nil {
		return Result{State: Infeasible}, &domain.NoSolutionError{
			Source: in.Source,
			Phase:  "building_model",
			Hints:  []string{err.Error()},
		}
	}

	var opts store.Options
	limit := e.cfg.TimeLimit
	if limit <= 0 {
		limit = 10 * time.Second
	}
	opts.Limits.Duration = limit

	solver, err := router.Solver(opts)
	if err != nil {
		return Result{State: Infeasible}, &domain.NoSolutionError{
			Source: in.Source,
			Phase:  "building_model",
			Hints:  []string{err.Error()},
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), limit)
	defer cancel()

	var last store.Solution
	found := false
	timedOut := false
	for solution := range solver.Run(ctx) {
		last = solution
		found = true
	}
	if ctx.Err() == context.DeadlineExceeded {
		timedOut = true
	}

	if !found {
		if timedOut {
			return Result{State: Timeout}, &domain.NoSolutionError{
				Source: in.Source,
				Phase:  "searching",
				Hints:  []string{"solver timed out before producing an incumbent"},
			}
		}
		return Result{State: Infeasible}, &domain.NoSolutionError{
			Source: in.Source,
			Phase:  "searching",
			Hints:  []string{"no feasible solution found"},
		}
	}

	// The solver emits its output through the custom Format function wired
	// into the router at JSON-marshal time, matching
	// "Food beverage and LTL delivery"/encoder.go's round-trip through a
	// `{"store": route.Plan}` envelope.
	raw, err := json.Marshal(last)
	if err != nil {
		return Result{State: Infeasible}, fmt.Errorf("marshaling solution: %w", err)
	}
	var envelope struct {
		Store route.Plan `json:"store"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Result{State: Infeasible}, fmt.Errorf("decoding solution: %w", err)
	}

	state := Feasible
	if timedOut {
		state = Timeout
	}
	result, err := e.extract(in, envelope.Store)
	result.State = state
	return result, err
}

// extract walks the solved plan and produces domain Routes, reading arrival
// and departure times, cumulative weight, and distance-from-previous from
// the submatrices. Set route departure_time = max(0, earliest stop window
// start - 30).
func (e *Engine) extract(in Input, plan route.Plan) (Result, error) {
	ordersByID := make(map[string]domain.Order, len(in.Orders))
	for _, o := range in.Orders {
		ordersByID[o.ID] = o
	}

	var routes []domain.Route
	unassignedIDs := make(map[string]bool)
	for _, u := range plan.Unassigned {
		unassignedIDs[u.ID] = true
	}

	vehByName := make(map[string]domain.Vehicle, len(in.Vehicles))
	for _, v := range in.Vehicles {
		vehByName[v.Name] = v
	}

	for _, pv := range plan.Vehicles {
		if len(pv.Route) <= 2 {
			continue
		}
		stops := pv.Route[1 : len(pv.Route)-1]
		if len(stops) == 0 {
			continue
		}

		var routeStops []domain.RouteStop
		cumulativeWeight := 0.0

		for i, s := range stops {
			o, ok := ordersByID[s.ID]
			if !ok {
				continue
			}

			distFromPrev := 0.0
			if i > 0 {
				prevIdx := stopIndex(in.Orders, stops[i-1].ID)
				curIdx := stopIndex(in.Orders, s.ID)
				if prevIdx >= 0 && curIdx >= 0 {
					distFromPrev = in.Distance[prevIdx+1][curIdx+1]
				}
			} else {
				curIdx := stopIndex(in.Orders, s.ID)
				if curIdx >= 0 {
					distFromPrev = in.Distance[0][curIdx+1]
				}
			}

			cumulativeWeight += o.WeightKg
			routeStops = append(routeStops, domain.RouteStop{
				Order:            o,
				ArrivalTime:      minutesOfDay(s.EstimatedArrival),
				DepartureTime:    minutesOfDay(s.EstimatedDeparture),
				DistanceFromPrev: distFromPrev,
				CumulativeWeight: cumulativeWeight,
				Sequence:         len(routeStops),
			})
		}

		totalDistance := 0.0
		for i := 0; i < len(routeStops); i++ {
			totalDistance += routeStops[i].DistanceFromPrev
		}
		if in.ReturnToDepot && len(routeStops) > 0 {
			lastIdx := stopIndex(in.Orders, routeStops[len(routeStops)-1].Order.ID)
			if lastIdx >= 0 {
				totalDistance += in.Distance[lastIdx+1][0]
			}
		}

		vehicle := vehByName[pv.ID]
		departureTime := 0
		if len(routeStops) > 0 {
			departureTime = routeStops[0].Order.DepartureTime()
			for _, rs := range routeStops[1:] {
				if d := rs.Order.DepartureTime(); d < departureTime {
					departureTime = d
				}
			}
		}

		routes = append(routes, domain.Route{
			Vehicle:       vehicle,
			Stops:         routeStops,
			DepartureTime: departureTime,
			TotalDistance: totalDistance,
			TotalCost:     totalDistance * vehicle.Type.CostPerKm,
			Source:        in.Source,
			TripNumber:    1,
		})
	}

	var unassigned []domain.Order
	for id, o := range ordersByID {
		if unassignedIDs[id] {
			unassigned = append(unassigned, o)
		}
	}

	return Result{State: Feasible, Routes: routes, UnassignedOrders: unassigned}, nil
}

func stopIndex(orders []domain.Order, id string) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
