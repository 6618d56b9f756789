// Package multitrip implements the Multi-Trip Assembler (spec §4.7): given,
// for one source, a set of per-cluster route solutions (sorted
// chronologically), it reuses physical vehicles across clusters instead of
// minting a fresh one per trip. Grounded on
// original_source/src/solver/multi_trip_solver.py's
// _assign_physical_vehicles.
package multitrip

import (
	"sort"
	"strconv"

	"github.com/groceryroute/tourplanner/internal/cluster"
	"github.com/groceryroute/tourplanner/internal/domain"
)

const defaultReturnBufferMinutes = 30

// Config parameterizes vehicle reuse.
type Config struct {
	Enabled            bool
	ReloadBufferMinutes int
	MaxTripsPerVehicle int
	// SameSourceOnly must currently be true: cross-source vehicle reuse
	// (same_source_only=false) is left undefined by the source material, so
	// this assembler refuses to run with it false rather than guess at a
	// policy (see DESIGN.md).
	SameSourceOnly bool
}

type physicalVehicle struct {
	physicalID  string
	physicalNum int
	vehicleType string
	source      string
	tripsSoFar  int
	lastEndTime int
}

// ClusterSolution is one cluster's CVRPTW output, paired with the cluster
// metadata the assembler sorts by.
type ClusterSolution struct {
	Cluster cluster.Cluster
	Routes  []domain.Route
}

// Assembler reuses physical vehicles across a source's cluster solutions.
type Assembler struct {
	cfg Config
}

// New builds an Assembler. Returns a ConfigError if cfg.SameSourceOnly is
// false, since the reuse policy for that case is unspecified.
func New(cfg Config) (*Assembler, error) {
	if !cfg.SameSourceOnly {
		return nil, &domain.ConfigError{Reason: "same_source_only=false vehicle reuse is unsupported: the cross-source reuse policy is unspecified"}
	}
	if cfg.ReloadBufferMinutes <= 0 {
		cfg.ReloadBufferMinutes = defaultReturnBufferMinutes
	}
	if cfg.MaxTripsPerVehicle <= 0 {
		cfg.MaxTripsPerVehicle = 1
	}
	return &Assembler{cfg: cfg}, nil
}

// Assemble merges source's cluster solutions into one final route list. If
// multi-trip is disabled, or there is at most one cluster, every route
// passes through unchanged as trip 1 on a fresh physical vehicle.
func (a *Assembler) Assemble(source string, solutions []ClusterSolution) []domain.Route {
	if !a.cfg.Enabled || len(solutions) <= 1 {
		return passthrough(solutions)
	}

	sorted := make([]ClusterSolution, len(solutions))
	copy(sorted, solutions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cluster.EarliestStart < sorted[j].Cluster.EarliestStart
	})

	pool := make(map[string]*physicalVehicle)
	nextID := make(map[string]int)

	var allRoutes []domain.Route
	for _, cs := range sorted {
		for _, route := range cs.Routes {
			if route.NumStops() == 0 {
				continue
			}

			vehicleType := route.Vehicle.Type.Name
			startTime := route.DepartureTime
			endTime := routeEndTime(route)

			assigned := a.findAvailable(pool, vehicleType, startTime, source)
			if assigned != nil {
				route.TripNumber = assigned.tripsSoFar + 1
				route.Vehicle = route.Vehicle.WithInstanceID(assigned.physicalNum)
				assigned.tripsSoFar++
				assigned.lastEndTime = endTime
			} else {
				id := nextID[vehicleType] + 1
				nextID[vehicleType] = id
				route.Vehicle = route.Vehicle.WithInstanceID(id)
				route.TripNumber = 1

				pool[physicalKey(vehicleType, id)] = &physicalVehicle{
					physicalID:  physicalKeyID(vehicleType, id),
					physicalNum: id,
					vehicleType: vehicleType,
					source:      source,
					tripsSoFar:  1,
					lastEndTime: endTime,
				}
			}

			route.Source = source
			allRoutes = append(allRoutes, route)
		}
	}

	return allRoutes
}

// findAvailable looks for an existing physical vehicle of vehicleType at
// source that will be free (last_end_time + reload_buffer) before
// startTime and hasn't exhausted its trip budget. Among candidates it
// picks the one that becomes available earliest, then the lowest physical
// id.
func (a *Assembler) findAvailable(pool map[string]*physicalVehicle, vehicleType string, startTime int, source string) *physicalVehicle {
	var best *physicalVehicle
	var bestAvailable int

	for _, pv := range pool {
		if pv.vehicleType != vehicleType {
			continue
		}
		if a.cfg.SameSourceOnly && pv.source != source {
			continue
		}
		if pv.tripsSoFar >= a.cfg.MaxTripsPerVehicle {
			continue
		}
		available := pv.lastEndTime + a.cfg.ReloadBufferMinutes
		if available > startTime {
			continue
		}
		if best == nil || available < bestAvailable ||
			(available == bestAvailable && pv.physicalNum < best.physicalNum) {
			best = pv
			bestAvailable = available
		}
	}
	return best
}

func routeEndTime(r domain.Route) int {
	if len(r.Stops) == 0 {
		return r.DepartureTime
	}
	return r.Stops[len(r.Stops)-1].DepartureTime + defaultReturnBufferMinutes
}

func passthrough(solutions []ClusterSolution) []domain.Route {
	var out []domain.Route
	nextID := make(map[string]int)
	for _, cs := range solutions {
		for _, route := range cs.Routes {
			if route.NumStops() == 0 {
				continue
			}
			vehicleType := route.Vehicle.Type.Name
			id := nextID[vehicleType] + 1
			nextID[vehicleType] = id
			route.Vehicle = route.Vehicle.WithInstanceID(id)
			route.TripNumber = 1
			out = append(out, route)
		}
	}
	return out
}

func physicalKey(vehicleType string, id int) string {
	return physicalKeyID(vehicleType, id)
}

func physicalKeyID(vehicleType string, id int) string {
	return vehicleType + "#" + strconv.Itoa(id)
}
