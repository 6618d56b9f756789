// Package orchestrator implements the Top-Level Orchestrator (spec §4.8):
// it threads order data and configuration through the Source Assigner, the
// Blind-Van Planner, the Time-Window Clusterer, the CVRPTW Engine, and the
// Multi-Trip Assembler, and merges their output into one routing solution.
// Grounded on the Generate-Routing flow in original_source/app.py (the
// MultiHubVRPSolver composition root) and on the two-tier split in
// original_source/src/solver/two_tier_vrp_solver.py.
package orchestrator

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/groceryroute/tourplanner/internal/blindvan"
	"github.com/groceryroute/tourplanner/internal/cluster"
	"github.com/groceryroute/tourplanner/internal/cvrptw"
	"github.com/groceryroute/tourplanner/internal/domain"
	"github.com/groceryroute/tourplanner/internal/hubindex"
	"github.com/groceryroute/tourplanner/internal/multitrip"
	"github.com/groceryroute/tourplanner/internal/oracle"
	"github.com/groceryroute/tourplanner/internal/sourceassign"
)

const defaultMinClusterBudget = 5 * time.Second

// Input is everything one Plan call needs: the dated order set, the depot,
// the fleet and multi-hub setup, and the sub-configs threaded into each
// subsystem.
type Input struct {
	Depot     domain.Location
	Orders    []domain.Order
	Fleet     domain.Fleet
	Hubs      domain.MultiHubConfig
	Cluster   cluster.Config
	MultiTrip multitrip.Config
	CVRPTW    cvrptw.Config

	// TimeBudget is the overall wall-clock budget for the solve; it is
	// divided across every cluster, across every source, per §5.
	TimeBudget time.Duration
	// MinClusterBudget floors the per-cluster slice so a plan with many
	// small clusters never starves an individual solve. Defaults to 5s.
	MinClusterBudget time.Duration
}

// Diagnostics surfaces non-fatal issues recovered during a Plan call: oracle
// fallback and per-cluster solver warnings, per §7.
type Diagnostics struct {
	OracleFallback bool
	Warnings       []string
}

// Orchestrator runs the full pipeline for one day's order set.
type Orchestrator struct {
	oracleAdapter *oracle.Adapter
	log           *logrus.Logger
}

// New builds an Orchestrator over the given distance oracle adapter.
func New(oracleAdapter *oracle.Adapter, log *logrus.Logger) *Orchestrator {
	if log == nil {
		log = logrus.New()
	}
	return &Orchestrator{oracleAdapter: oracleAdapter, log: log}
}

type sourcePlan struct {
	source    string
	orders    []domain.Order
	matrices  domain.Matrices // source-local submatrix: index 0 = source
	clusters  []cluster.Cluster
	posByID   map[string]int // order id -> position in this source's submatrix (>=1)
}

// Plan builds the full location list, fetches matrices, partitions orders
// across the depot and hubs, plans the blind-van consolidation leg, and
// solves+assembles a CVRPTW+multi-trip sub-plan per source, concatenating
// DEPOT first and then hubs in configuration order.
func (o *Orchestrator) Plan(in Input) (domain.RoutingSolution, Diagnostics, error) {
	start := time.Now()
	var diag Diagnostics

	if len(in.Orders) == 0 {
		return domain.RoutingSolution{OptimizationStrategy: in.CVRPTW.Strategy.String()}, diag, nil
	}

	hubIDs := in.Hubs.AllHubIDs()
	idx := hubindex.New(hubIDs)

	locations := make([]domain.Location, 0, 1+len(hubIDs)+len(in.Orders))
	locations = append(locations, in.Depot)
	for _, h := range in.Hubs.Hubs {
		locations = append(locations, h.Hub)
	}
	orderMatrixIndex := make(map[string]int, len(in.Orders))
	for i, ord := range in.Orders {
		locations = append(locations, domain.Location{
			Kind:        domain.KindCustomer,
			Name:        ord.DisplayName,
			Coordinates: ord.Coordinates,
			Address:     ord.Address,
		})
		orderMatrixIndex[ord.ID] = idx.CustomerIndex(i)
	}

	matrices := o.oracleAdapter.Matrices(locations)
	if o.oracleAdapter.UsedFallback() {
		diag.OracleFallback = true
		diag.Warnings = append(diag.Warnings, "distance oracle unavailable; great-circle fallback used")
	}

	classified, err := o.classify(in, idx, matrices)
	if err != nil {
		return domain.RoutingSolution{}, diag, err
	}

	blindRoute, blindDiag := o.planBlindVan(in, idx, matrices, orderMatrixIndex, classified)
	diag.Warnings = append(diag.Warnings, blindDiag...)

	lastMileFleet := in.Fleet
	if in.Hubs.BlindVanVehicleName != "" {
		lastMileFleet = in.Fleet.WithoutType(in.Hubs.BlindVanVehicleName)
	}

	sourceOrder := append([]string{domain.DepotSourceID}, hubIDs...)

	plans := make([]sourcePlan, 0, len(sourceOrder))
	totalClusters := 0
	for _, source := range sourceOrder {
		orders := classified[source]
		if len(orders) == 0 {
			continue
		}

		sourceIdx := idx.DepotIndex()
		if source != domain.DepotSourceID {
			si, hErr := idx.HubIndex(source)
			if hErr != nil {
				return domain.RoutingSolution{}, diag, hErr
			}
			sourceIdx = si
		}

		posByID := make(map[string]int, len(orders))
		indices := make([]int, 0, 1+len(orders))
		indices = append(indices, sourceIdx)
		for i, ord := range orders {
			indices = append(indices, orderMatrixIndex[ord.ID])
			posByID[ord.ID] = i + 1
		}
		sub := matrices.Submatrix(indices)

		clusters := cluster.Run(orders, in.Cluster)
		if len(clusters) == 0 {
			continue
		}

		plans = append(plans, sourcePlan{
			source:   source,
			orders:   orders,
			matrices: sub,
			clusters: clusters,
			posByID:  posByID,
		})
		totalClusters += len(clusters)
	}

	floor := in.MinClusterBudget
	if floor <= 0 {
		floor = defaultMinClusterBudget
	}
	budgetPerCluster := in.TimeBudget
	if totalClusters > 0 {
		budgetPerCluster = in.TimeBudget / time.Duration(totalClusters)
	}
	if budgetPerCluster < floor {
		budgetPerCluster = floor
	}

	assembler, err := multitrip.New(in.MultiTrip)
	if err != nil {
		return domain.RoutingSolution{}, diag, err
	}

	var allRoutes []domain.Route
	var allUnassigned []domain.Order

	for _, sp := range plans {
		clusterSolutions := make([]multitrip.ClusterSolution, 0, len(sp.clusters))

		for _, c := range sp.clusters {
			clusterIndices := make([]int, 0, 1+len(c.Orders))
			clusterIndices = append(clusterIndices, 0)
			for _, ord := range c.Orders {
				clusterIndices = append(clusterIndices, sp.posByID[ord.ID])
			}
			clusterMatrices := sp.matrices.Submatrix(clusterIndices)

			vehicles := lastMileFleet.Instances(len(c.Orders))

			engineCfg := in.CVRPTW
			engineCfg.TimeLimit = budgetPerCluster
			engine := cvrptw.New(engineCfg, o.log)

			result, solveErr := engine.Solve(cvrptw.Input{
				Source:        sp.source,
				Orders:        c.Orders,
				Vehicles:      vehicles,
				Distance:      clusterMatrices.Distance,
				Duration:      clusterMatrices.Duration,
				ReturnToDepot: in.Fleet.ReturnToDepot,
			})
			if solveErr != nil {
				if nsErr, ok := solveErr.(*domain.NoSolutionError); ok {
					diag.Warnings = append(diag.Warnings, nsErr.Error())
					continue
				}
				return domain.RoutingSolution{}, diag, solveErr
			}

			clusterSolutions = append(clusterSolutions, multitrip.ClusterSolution{Cluster: c, Routes: result.Routes})
			allUnassigned = append(allUnassigned, result.UnassignedOrders...)
		}

		sourceRoutes := assembler.Assemble(sp.source, clusterSolutions)
		allRoutes = append(allRoutes, sourceRoutes...)
	}

	if blindRoute != nil {
		allRoutes = append([]domain.Route{*blindRoute}, allRoutes...)
	}

	return domain.RoutingSolution{
		Routes:               allRoutes,
		UnassignedOrders:      allUnassigned,
		OptimizationStrategy: in.CVRPTW.Strategy.String(),
		ComputationTime:      time.Since(start).Seconds(),
	}, diag, nil
}

// classify partitions orders across {DEPOT} u hub_ids, per §4.3. In
// zero-hub mode every order goes straight to the depot pool without
// consulting the Source Assigner.
func (o *Orchestrator) classify(in Input, idx *hubindex.Manager, matrices domain.Matrices) (map[string][]domain.Order, error) {
	if in.Hubs.IsZeroHubMode() {
		return map[string][]domain.Order{domain.DepotSourceID: append([]domain.Order{}, in.Orders...)}, nil
	}

	assigner, err := sourceassign.New(in.Hubs.Hubs, idx, matrices, in.Hubs.SourceAssignment)
	if err != nil {
		return nil, err
	}
	return assigner.Assign(in.Orders, idx.CustomerStartIndex(), in.Hubs.UnassignedZonePolicy), nil
}

// planBlindVan runs the Blind-Van Planner when hubs are active, removing
// any en-route-delivered orders from the depot pool before the CVRPTW
// engine ever sees them.
func (o *Orchestrator) planBlindVan(
	in Input,
	idx *hubindex.Manager,
	matrices domain.Matrices,
	orderMatrixIndex map[string]int,
	classified map[string][]domain.Order,
) (*domain.Route, []string) {
	if in.Hubs.IsZeroHubMode() {
		return nil, nil
	}

	vanType, ok := in.Fleet.TypeByName(in.Hubs.BlindVanVehicleName)
	if !ok {
		return nil, []string{fmt.Sprintf(
			"blind-van vehicle type %q not found in fleet; skipping consolidation leg",
			in.Hubs.BlindVanVehicleName)}
	}

	van := domain.Vehicle{Type: vanType, InstanceID: 1, Name: vanType.Name + "_1"}
	planner := blindvan.New(in.Depot, in.Hubs.Hubs, classified, van, matrices, in.Hubs, idx, orderMatrixIndex)
	route := planner.Solve()
	if route == nil {
		return nil, nil
	}

	if delivered := planner.DeliveredEnRoute(); len(delivered) > 0 {
		classified[domain.DepotSourceID] = removeOrders(classified[domain.DepotSourceID], delivered)
	}
	return route, nil
}

func removeOrders(orders []domain.Order, remove []domain.Order) []domain.Order {
	excluded := make(map[string]bool, len(remove))
	for _, o := range remove {
		excluded[o.ID] = true
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if !excluded[o.ID] {
			out = append(out, o)
		}
	}
	return out
}
