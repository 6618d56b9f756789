package domain

// LocationKind tags the role a Location plays. Depot and hub locations share
// the same shape (name, point, address); role-specific behavior lives in the
// orchestrator and its subsystems, not on the type itself.
type LocationKind int

const (
	KindDepot LocationKind = iota
	KindHub
	KindCustomer
)

// Location is a named geographic point. The depot and every hub are each a
// Location; customer stops are addressed via their Order instead.
type Location struct {
	Kind        LocationKind
	Name        string
	Coordinates Point
	Address     string
}

const DepotSourceID = "DEPOT"

// BlindVanMode selects whether a hub's consolidation vehicle may also drop
// customer orders on its way to the hub.
type BlindVanMode int

const (
	// ConsolidationOnly: the blind van visits the hub and drops its load; no
	// customer deliveries happen on this leg (Mode A).
	ConsolidationOnly BlindVanMode = iota
	// ConsolidationWithDelivery: the blind van may additionally deliver a
	// bounded number of depot-pool orders it passes en route (Mode B).
	ConsolidationWithDelivery
)

// EnRouteDeliveryConfig bounds Mode B insertions for one hub.
type EnRouteDeliveryConfig struct {
	MaxStops          int
	MaxDetourMinutes  float64
	MaxDetourKm       float64
	ReserveCapacityKg float64
}

// HubBlindVanConfig is the per-hub blind-van behavior.
type HubBlindVanConfig struct {
	Mode           BlindVanMode
	EnRouteConfig  EnRouteDeliveryConfig // only meaningful when Mode == ConsolidationWithDelivery
}

// DeliveryEnabled reports whether this hub actually takes en-route
// deliveries (Mode B with a positive stop budget).
func (c HubBlindVanConfig) DeliveryEnabled() bool {
	return c.Mode == ConsolidationWithDelivery && c.EnRouteConfig.MaxStops > 0
}

// HubConfig is one consolidation hub: its location, the zones routed through
// it, and its blind-van mode.
type HubConfig struct {
	ID         string
	Hub        Location
	Zones      []string // normalized upper-case
	BlindVan   HubBlindVanConfig
}

// UnassignedZonePolicy decides the source for an order whose zone maps to no
// hub.
type UnassignedZonePolicy int

const (
	NearestHub UnassignedZonePolicy = iota
	DepotFallback
)

// SourceAssignmentMode selects the Source Assigner's strategy.
type SourceAssignmentMode int

const (
	ZoneBased SourceAssignmentMode = iota
	Dynamic
	Hybrid
)

// SourceAssignmentConfig parameterizes §4.3.
type SourceAssignmentConfig struct {
	Mode                    SourceAssignmentMode
	MinCostAdvantagePercent float64
	DistanceWeight          float64
	TimeWeight              float64
}

// MultiHubConfig is the full multi-hub setup threaded through the
// orchestrator.
type MultiHubConfig struct {
	Enabled              bool
	Hubs                 []HubConfig
	BlindVanDeparture    int // minutes from midnight
	BlindVanArrival      int // minutes from midnight (deadline, informational)
	MotorStartTime       int // minutes from midnight
	UnassignedZonePolicy UnassignedZonePolicy
	BlindVanReturnToDepot bool
	SourceAssignment     SourceAssignmentConfig
	// BlindVanVehicleName names the one fleet VehicleType reserved for the
	// consolidation leg; it is excluded from every last-mile CVRPTW fleet.
	BlindVanVehicleName string
}

// NumHubs reports how many hubs are configured.
func (c MultiHubConfig) NumHubs() int { return len(c.Hubs) }

// IsZeroHubMode reports whether hub routing is effectively off.
func (c MultiHubConfig) IsZeroHubMode() bool {
	return !c.Enabled || len(c.Hubs) == 0
}

// HubByID looks up a hub configuration; ok is false when unknown.
func (c MultiHubConfig) HubByID(id string) (HubConfig, bool) {
	for _, h := range c.Hubs {
		if h.ID == id {
			return h, true
		}
	}
	return HubConfig{}, false
}

// ZoneToHub returns the zone->hub_id mapping across all configured hubs.
func (c MultiHubConfig) ZoneToHub() map[string]string {
	m := make(map[string]string)
	for _, h := range c.Hubs {
		for _, z := range h.Zones {
			m[z] = h.ID
		}
	}
	return m
}

// AllHubIDs returns every configured hub id, in configuration order.
func (c MultiHubConfig) AllHubIDs() []string {
	ids := make([]string, len(c.Hubs))
	for i, h := range c.Hubs {
		ids[i] = h.ID
	}
	return ids
}
