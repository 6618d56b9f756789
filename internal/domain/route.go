package domain

// RouteStop is one visit on a route: the order served, its arrival and
// departure times (minutes from midnight), the distance traveled to reach
// it, the vehicle's cumulative carried weight after loading it, and its
// 0-based sequence index within the route.
type RouteStop struct {
	Order             Order
	ArrivalTime       int
	DepartureTime     int
	DistanceFromPrev  float64 // km
	CumulativeWeight  float64 // kg
	Sequence          int
}

// Route is one physical vehicle's ordered set of stops for one trip,
// anchored at a source (the depot or a hub).
type Route struct {
	Vehicle        Vehicle
	Stops          []RouteStop
	DepartureTime  int // minutes from midnight, departure from Source
	TotalDistance  float64
	TotalCost      float64
	Source         string // DepotSourceID or a hub id
	TripNumber     int    // >= 1
}

// NumStops is the number of customer/consolidation stops (excludes the
// source itself, which is never materialized as a stop).
func (r Route) NumStops() int { return len(r.Stops) }

// TotalWeight sums the weight carried at trip start (the sum of all stop
// weights, since every stop is picked up at the source).
func (r Route) TotalWeight() float64 {
	var total float64
	for _, s := range r.Stops {
		total += s.Order.WeightKg
	}
	return total
}

// RoutingSolution is the output of one CVRPTW solve: its routes, the orders
// it could not place, the objective it pursued, and how long it took.
type RoutingSolution struct {
	Routes             []Route
	UnassignedOrders   []Order
	OptimizationStrategy string
	ComputationTime    float64 // seconds
}

// TotalVehiclesUsed counts routes that actually carry stops.
func (s RoutingSolution) TotalVehiclesUsed() int {
	n := 0
	for _, r := range s.Routes {
		if r.NumStops() > 0 {
			n++
		}
	}
	return n
}

// TotalDistance sums route distances across the solution.
func (s RoutingSolution) TotalDistance() float64 {
	var total float64
	for _, r := range s.Routes {
		total += r.TotalDistance
	}
	return total
}

// TotalCost sums route costs across the solution.
func (s RoutingSolution) TotalCost() float64 {
	var total float64
	for _, r := range s.Routes {
		total += r.TotalCost
	}
	return total
}
