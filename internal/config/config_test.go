package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/groceryroute/tourplanner/internal/domain"
)

func loadYAML(t *testing.T, doc string) (Document, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBufferString(doc)); err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	return parse(v)
}

func TestParse_MinimalFleet(t *testing.T) {
	doc, err := loadYAML(t, `
vehicles:
  - name: L300
    capacity_kg: 800
    cost_per_km: 5000
  - name: Granmax
    capacity_kg: 500
    cost_per_km: 3500
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Fleet.Types) != 2 {
		t.Fatalf("expected 2 vehicle types, got %d", len(doc.Fleet.Types))
	}
	if !doc.Fleet.Types[0].Unlimited {
		t.Fatal("expected unlimited to default true")
	}
	if doc.Hubs.Enabled {
		t.Fatal("expected zero-hub mode when hubs section is absent")
	}
}

func TestParse_MissingVehiclesKey(t *testing.T) {
	_, err := loadYAML(t, "routing:\n  return_to_depot: true\n")
	if err == nil {
		t.Fatal("expected error for missing vehicles key")
	}
	if !strings.Contains(err.Error(), "vehicles") {
		t.Fatalf("expected error to mention 'vehicles', got: %v", err)
	}
}

func TestParse_EmptyVehiclesList(t *testing.T) {
	_, err := loadYAML(t, "vehicles: []\n")
	if err == nil {
		t.Fatal("expected error for empty vehicles list")
	}
}

func TestParse_VehicleMissingRequiredField(t *testing.T) {
	_, err := loadYAML(t, `
vehicles:
  - name: L300
    cost_per_km: 5000
`)
	if err == nil {
		t.Fatal("expected error for missing capacity_kg")
	}
	if !strings.Contains(err.Error(), "capacity_kg") {
		t.Fatalf("expected error to mention capacity_kg, got: %v", err)
	}
}

func TestParse_RoutingAndMultiTrip(t *testing.T) {
	doc, err := loadYAML(t, `
vehicles:
  - name: Motor
    capacity_kg: 100
    cost_per_km: 1000
routing:
  return_to_depot: true
  priority_time_tolerance: 15
  non_priority_time_tolerance: 30
  optimization_strategy: minimize_vehicles
  multi_trip:
    enabled: true
    buffer_minutes: 45
    clustering:
      gap_threshold_minutes: 90
      min_cluster_size: 2
    vehicle_reuse:
      same_source_only: true
      max_trips_per_vehicle: 2
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Fleet.ReturnToDepot {
		t.Fatal("expected return_to_depot true")
	}
	if doc.CVRPTW.Strategy.String() != "minimize_vehicles" {
		t.Fatalf("expected minimize_vehicles strategy, got %v", doc.CVRPTW.Strategy)
	}
	if doc.MultiTrip.ReloadBufferMinutes != 45 {
		t.Fatalf("expected buffer 45, got %d", doc.MultiTrip.ReloadBufferMinutes)
	}
	if doc.Cluster.GapThresholdMinutes != 90 || doc.Cluster.MinClusterSize != 2 {
		t.Fatalf("unexpected cluster config: %+v", doc.Cluster)
	}
	if doc.MultiTrip.MaxTripsPerVehicle != 2 {
		t.Fatalf("expected max trips 2, got %d", doc.MultiTrip.MaxTripsPerVehicle)
	}
}

func TestParse_HubsWithModeB(t *testing.T) {
	doc, err := loadYAML(t, `
vehicles:
  - name: Motor
    capacity_kg: 100
    cost_per_km: 1000
hubs:
  enabled: true
  blind_van_departure: 300
  blind_van_return_to_depot: true
  unassigned_zone_behavior: depot
  list:
    - id: hub_a
      name: Hub A
      lat: -6.2
      lng: 106.8
      zones: ["jakarta utara"]
      blind_van:
        mode: consolidation_with_delivery
        en_route_delivery:
          max_stops: 3
          max_detour_km: 4
          max_detour_minutes: 20
          reserve_capacity_kg: 50
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Hubs.Enabled || len(doc.Hubs.Hubs) != 1 {
		t.Fatalf("expected one enabled hub, got %+v", doc.Hubs)
	}
	hub := doc.Hubs.Hubs[0]
	if hub.Zones[0] != "JAKARTA UTARA" {
		t.Fatalf("expected zone normalized to upper case, got %q", hub.Zones[0])
	}
	if hub.BlindVan.Mode != domain.ConsolidationWithDelivery {
		t.Fatal("expected mode B")
	}
	if hub.BlindVan.EnRouteConfig.MaxStops != 3 {
		t.Fatalf("expected max_stops 3, got %d", hub.BlindVan.EnRouteConfig.MaxStops)
	}
	if doc.Hubs.UnassignedZonePolicy != domain.DepotFallback {
		t.Fatal("expected depot fallback policy")
	}
}

func TestParse_HubsEnabledWithoutList(t *testing.T) {
	_, err := loadYAML(t, `
vehicles:
  - name: Motor
    capacity_kg: 100
    cost_per_km: 1000
hubs:
  enabled: true
`)
	if err == nil {
		t.Fatal("expected error when hubs.enabled is true but no list is given")
	}
}

func TestParse_DuplicateHubID(t *testing.T) {
	_, err := loadYAML(t, `
vehicles:
  - name: Motor
    capacity_kg: 100
    cost_per_km: 1000
hubs:
  enabled: true
  list:
    - id: hub_a
      name: A
      lat: -6.2
      lng: 106.8
    - id: hub_a
      name: A2
      lat: -6.3
      lng: 106.9
`)
	if err == nil {
		t.Fatal("expected error for duplicate hub id")
	}
}

func TestParse_CacheSection(t *testing.T) {
	doc, err := loadYAML(t, `
vehicles:
  - name: Motor
    capacity_kg: 100
    cost_per_km: 1000
cache:
  enabled: true
  directory: /tmp/oracle-cache
  ttl_hours: 48
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Cache.CacheEnabled || doc.Cache.CacheDirectory != "/tmp/oracle-cache" || doc.Cache.CacheTTLHours != 48 {
		t.Fatalf("unexpected cache config: %+v", doc.Cache)
	}
}
