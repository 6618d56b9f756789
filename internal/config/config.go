// Package config loads the fleet/hub/routing configuration document (spec
// §6): vehicles, routing parameters, multi-hub setup, and the distance
// oracle's cache settings. Parsed with github.com/spf13/viper, mirroring the
// viper-driven CLI configuration used throughout the nextmv-io-demos
// examples; field-by-field validation follows
// original_source/src/utils/yaml_parser.py's required-field and
// type-coercion checks, extended from just the vehicles section to the full
// document described in original_source/src/models/hub_config.py.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/groceryroute/tourplanner/internal/cluster"
	"github.com/groceryroute/tourplanner/internal/cvrptw"
	"github.com/groceryroute/tourplanner/internal/domain"
	"github.com/groceryroute/tourplanner/internal/multitrip"
	"github.com/groceryroute/tourplanner/internal/oracle"
)

// Document is everything Load produces: the parsed fleet, the multi-hub
// setup, the cache adapter config, and the clustering/multi-trip/CVRPTW
// sub-configs the orchestrator threads into its subsystems.
type Document struct {
	Fleet      domain.Fleet
	Hubs       domain.MultiHubConfig
	Cache      oracle.Config
	Cluster    cluster.Config
	MultiTrip  multitrip.Config
	CVRPTW     cvrptw.Config
}

// defaults mirror the source dataclasses' field defaults
// (EnRouteDeliveryConfig, MultiHubConfig, SourceAssignmentConfig) so that an
// operator only has to name the settings they want to change.
const (
	defaultBlindVanDeparture = 330
	defaultBlindVanArrival   = 360
	defaultMotorStartTime    = 360
	defaultMaxDetourMinutes  = 10
	defaultMaxDetourKm       = 5.0
	defaultReserveCapacityKg = 100.0
	defaultMinCostAdvantage  = 10.0
	defaultDistanceWeight    = 1.0
	defaultTimeWeight        = 0.5
	defaultReloadBufferMin   = 30
	defaultMaxTripsPerVeh    = 1
	defaultGapThresholdMin   = 60
	defaultMinClusterSize    = 3
	defaultCacheTTLHours     = 24
	defaultBlindVanVehicle   = "Blind Van"
)

// Load reads and validates the configuration document at path. path's
// extension is left to viper's format auto-detection (yaml, yml, json);
// every example in the pack uses yaml.
func Load(path string) (Document, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Document{}, &domain.ConfigError{Reason: fmt.Sprintf("reading config file %s: %v", path, err)}
	}
	return parse(v)
}

func parse(v *viper.Viper) (Document, error) {
	fleet, err := parseFleet(v)
	if err != nil {
		return Document{}, err
	}

	hubs, err := parseHubs(v)
	if err != nil {
		return Document{}, err
	}

	cacheCfg := oracle.Config{
		CacheEnabled:   v.GetBool("cache.enabled"),
		CacheDirectory: v.GetString("cache.directory"),
		CacheTTLHours:  intOrDefault(v, "cache.ttl_hours", defaultCacheTTLHours),
	}

	clusterCfg := cluster.Config{
		GapThresholdMinutes: intOrDefault(v, "routing.multi_trip.clustering.gap_threshold_minutes", defaultGapThresholdMin),
		MinClusterSize:      intOrDefault(v, "routing.multi_trip.clustering.min_cluster_size", defaultMinClusterSize),
	}

	multiTripCfg := multitrip.Config{
		Enabled:             v.GetBool("routing.multi_trip.enabled"),
		ReloadBufferMinutes: intOrDefault(v, "routing.multi_trip.buffer_minutes", defaultReloadBufferMin),
		MaxTripsPerVehicle:  intOrDefault(v, "routing.multi_trip.vehicle_reuse.max_trips_per_vehicle", defaultMaxTripsPerVeh),
		SameSourceOnly:      boolOrDefault(v, "routing.multi_trip.vehicle_reuse.same_source_only", true),
	}

	cvrptwCfg := cvrptw.Config{
		Strategy:                    parseStrategy(v.GetString("routing.optimization_strategy")),
		PriorityTimeTolerance:       fleet.PriorityTimeTolerance,
		NonPriorityTimeTolerance:    fleet.NonPriorityTimeTolerance,
		RelaxTimeWindows:            fleet.RelaxTimeWindows,
		TimeWindowRelaxationMinutes: fleet.TimeWindowRelaxationMinutes,
		ZoneCapK:                    v.GetInt("routing.zone_cap"),
		UnassignedPenalty:           intOrDefault(v, "routing.unassigned_penalty", 0),
		VehicleActivationPenalty:    intOrDefault(v, "routing.vehicle_activation_penalty", 0),
	}

	return Document{
		Fleet:     fleet,
		Hubs:      hubs,
		Cache:     cacheCfg,
		Cluster:   clusterCfg,
		MultiTrip: multiTripCfg,
		CVRPTW:    cvrptwCfg,
	}, nil
}

func parseStrategy(s string) cvrptw.OptimizationStrategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimize_vehicles":
		return cvrptw.MinimizeVehicles
	case "minimize_cost":
		return cvrptw.MinimizeCost
	default:
		return cvrptw.Balanced
	}
}

// parseFleet validates the "vehicles" list the way yaml_parser.py's
// _parse_vehicles/_parse_vehicle do: vehicles is required, must be a
// non-empty list, and each entry must carry name/capacity_kg/cost_per_km,
// plus the routing-level tolerances and flags.
func parseFleet(v *viper.Viper) (domain.Fleet, error) {
	if !v.IsSet("vehicles") {
		return domain.Fleet{}, &domain.ConfigError{Reason: "config must contain a 'vehicles' key"}
	}

	raw, ok := v.Get("vehicles").([]interface{})
	if !ok {
		return domain.Fleet{}, &domain.ConfigError{Reason: "'vehicles' must be a list"}
	}
	if len(raw) == 0 {
		return domain.Fleet{}, &domain.ConfigError{Reason: "'vehicles' list cannot be empty"}
	}

	types := make([]domain.VehicleType, 0, len(raw))
	for i, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return domain.Fleet{}, &domain.ConfigError{Reason: fmt.Sprintf("vehicle %d: must be a mapping", i)}
		}
		t, err := parseVehicleType(entry, i)
		if err != nil {
			return domain.Fleet{}, err
		}
		types = append(types, t)
	}

	f := domain.Fleet{
		Types:                       types,
		ReturnToDepot:               v.GetBool("routing.return_to_depot"),
		PriorityTimeTolerance:       intOrDefault(v, "routing.priority_time_tolerance", 0),
		NonPriorityTimeTolerance:    intOrDefault(v, "routing.non_priority_time_tolerance", 0),
		RelaxTimeWindows:            v.GetBool("routing.relax_time_windows"),
		TimeWindowRelaxationMinutes: intOrDefault(v, "routing.time_window_relaxation_minutes", 0),
		MultiTripEnabled:            v.GetBool("routing.multiple_trips"),
	}

	if err := f.Validate(); err != nil {
		return domain.Fleet{}, err
	}
	return f, nil
}

func parseVehicleType(entry map[string]interface{}, idx int) (domain.VehicleType, error) {
	for _, field := range []string{"name", "capacity_kg", "cost_per_km"} {
		if _, ok := entry[field]; !ok {
			return domain.VehicleType{}, &domain.ConfigError{Reason: fmt.Sprintf("vehicle %d: missing required field %q", idx, field)}
		}
	}

	name, ok := entry["name"].(string)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return domain.VehicleType{}, &domain.ConfigError{Reason: fmt.Sprintf("vehicle %d: name must be a non-empty string", idx)}
	}

	capacity, err := toFloat(entry["capacity_kg"])
	if err != nil {
		return domain.VehicleType{}, &domain.ConfigError{Reason: fmt.Sprintf("vehicle %d (%s): invalid capacity_kg: %v", idx, name, err)}
	}

	costPerKm, err := toFloat(entry["cost_per_km"])
	if err != nil {
		return domain.VehicleType{}, &domain.ConfigError{Reason: fmt.Sprintf("vehicle %d (%s): invalid cost_per_km: %v", idx, name, err)}
	}

	unlimited := true
	if raw, ok := entry["unlimited"]; ok {
		b, ok := raw.(bool)
		if !ok {
			return domain.VehicleType{}, &domain.ConfigError{Reason: fmt.Sprintf("vehicle %d (%s): 'unlimited' must be a boolean", idx, name)}
		}
		unlimited = b
	}

	count := 0
	if raw, ok := entry["fixed_count"]; ok {
		n, err := toInt(raw)
		if err != nil {
			return domain.VehicleType{}, &domain.ConfigError{Reason: fmt.Sprintf("vehicle %d (%s): invalid fixed_count: %v", idx, name, err)}
		}
		count = n
	}

	return domain.VehicleType{
		Name:       name,
		CapacityKg: capacity,
		CostPerKm:  costPerKm,
		Count:      count,
		Unlimited:  unlimited,
	}, nil
}

// parseHubs builds the multi-hub configuration. An absent or disabled "hubs"
// section is valid: it yields the zero-hub (direct-from-depot) mode.
func parseHubs(v *viper.Viper) (domain.MultiHubConfig, error) {
	if !v.IsSet("hubs") {
		return domain.MultiHubConfig{}, nil
	}

	cfg := domain.MultiHubConfig{
		Enabled:               v.GetBool("hubs.enabled"),
		BlindVanDeparture:     intOrDefault(v, "hubs.blind_van_departure", defaultBlindVanDeparture),
		BlindVanArrival:       intOrDefault(v, "hubs.blind_van_arrival", defaultBlindVanArrival),
		MotorStartTime:        intOrDefault(v, "hubs.motor_start_time", defaultMotorStartTime),
		BlindVanReturnToDepot: v.GetBool("hubs.blind_van_return_to_depot"),
		BlindVanVehicleName:   stringOrDefault(v, "hubs.blind_van_vehicle_name", defaultBlindVanVehicle),
		UnassignedZonePolicy:  parseZonePolicy(v.GetString("hubs.unassigned_zone_behavior")),
		SourceAssignment: domain.SourceAssignmentConfig{
			Mode:                    parseSourceAssignmentMode(v.GetString("hubs.source_assignment.mode")),
			MinCostAdvantagePercent: floatOrDefault(v, "hubs.source_assignment.min_cost_advantage_percent", defaultMinCostAdvantage),
			DistanceWeight:          floatOrDefault(v, "hubs.source_assignment.distance_weight", defaultDistanceWeight),
			TimeWeight:              floatOrDefault(v, "hubs.source_assignment.time_weight", defaultTimeWeight),
		},
	}

	raw, ok := v.Get("hubs.list").([]interface{})
	if !ok {
		if cfg.Enabled {
			return domain.MultiHubConfig{}, &domain.ConfigError{Reason: "hubs.enabled is true but 'hubs.list' is missing or not a list"}
		}
		return cfg, nil
	}

	seen := make(map[string]bool, len(raw))
	for i, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return domain.MultiHubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hubs.list[%d]: must be a mapping", i)}
		}
		h, err := parseHub(entry, i)
		if err != nil {
			return domain.MultiHubConfig{}, err
		}
		if seen[h.ID] {
			return domain.MultiHubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hubs.list[%d]: duplicate hub id %q", i, h.ID)}
		}
		seen[h.ID] = true
		cfg.Hubs = append(cfg.Hubs, h)
	}

	if cfg.Enabled && len(cfg.Hubs) == 0 {
		return domain.MultiHubConfig{}, &domain.ConfigError{Reason: "hubs.enabled is true but no hubs are configured"}
	}
	return cfg, nil
}

func parseHub(entry map[string]interface{}, idx int) (domain.HubConfig, error) {
	for _, field := range []string{"id", "name", "lat", "lng"} {
		if _, ok := entry[field]; !ok {
			return domain.HubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hubs.list[%d]: missing required field %q", idx, field)}
		}
	}

	id, ok := entry["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return domain.HubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hubs.list[%d]: id must be a non-empty string", idx)}
	}
	name, _ := entry["name"].(string)

	lat, err := toFloat(entry["lat"])
	if err != nil {
		return domain.HubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hub %s: invalid lat: %v", id, err)}
	}
	lng, err := toFloat(entry["lng"])
	if err != nil {
		return domain.HubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hub %s: invalid lng: %v", id, err)}
	}
	point := domain.Point{Lat: lat, Lng: lng}
	if !point.Valid() {
		return domain.HubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hub %s: coordinates out of range", id)}
	}

	var zones []string
	if raw, ok := entry["zones"].([]interface{}); ok {
		for _, z := range raw {
			s, ok := z.(string)
			if !ok {
				return domain.HubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hub %s: zones must be strings", id)}
			}
			zones = append(zones, strings.ToUpper(strings.TrimSpace(s)))
		}
	}

	address, _ := entry["address"].(string)

	bv := domain.HubBlindVanConfig{Mode: domain.ConsolidationOnly}
	if raw, ok := entry["blind_van"].(map[string]interface{}); ok {
		mode, _ := raw["mode"].(string)
		if strings.EqualFold(mode, "consolidation_with_delivery") {
			bv.Mode = domain.ConsolidationWithDelivery
			bv.EnRouteConfig = domain.EnRouteDeliveryConfig{
				MaxStops:          0,
				MaxDetourMinutes:  defaultMaxDetourMinutes,
				MaxDetourKm:       defaultMaxDetourKm,
				ReserveCapacityKg: defaultReserveCapacityKg,
			}
			if er, ok := raw["en_route_delivery"].(map[string]interface{}); ok {
				if n, ok := er["max_stops"]; ok {
					v, err := toInt(n)
					if err != nil {
						return domain.HubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hub %s: invalid en_route_delivery.max_stops: %v", id, err)}
					}
					bv.EnRouteConfig.MaxStops = v
				}
				if n, ok := er["max_detour_minutes"]; ok {
					v, err := toFloat(n)
					if err != nil {
						return domain.HubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hub %s: invalid en_route_delivery.max_detour_minutes: %v", id, err)}
					}
					bv.EnRouteConfig.MaxDetourMinutes = v
				}
				if n, ok := er["max_detour_km"]; ok {
					v, err := toFloat(n)
					if err != nil {
						return domain.HubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hub %s: invalid en_route_delivery.max_detour_km: %v", id, err)}
					}
					bv.EnRouteConfig.MaxDetourKm = v
				}
				if n, ok := er["reserve_capacity_kg"]; ok {
					v, err := toFloat(n)
					if err != nil {
						return domain.HubConfig{}, &domain.ConfigError{Reason: fmt.Sprintf("hub %s: invalid en_route_delivery.reserve_capacity_kg: %v", id, err)}
					}
					bv.EnRouteConfig.ReserveCapacityKg = v
				}
			}
		}
	}

	return domain.HubConfig{
		ID:       id,
		Hub:      domain.Location{Kind: domain.KindHub, Name: name, Coordinates: point, Address: address},
		Zones:    zones,
		BlindVan: bv,
	}, nil
}

func parseZonePolicy(s string) domain.UnassignedZonePolicy {
	if strings.EqualFold(strings.TrimSpace(s), "depot") {
		return domain.DepotFallback
	}
	return domain.NearestHub
}

func parseSourceAssignmentMode(s string) domain.SourceAssignmentMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dynamic":
		return domain.Dynamic
	case "hybrid":
		return domain.Hybrid
	default:
		return domain.ZoneBased
	}
}

func intOrDefault(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	return v.GetInt(key)
}

func floatOrDefault(v *viper.Viper, key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	return v.GetFloat64(key)
}

func boolOrDefault(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	return v.GetBool(key)
}

func stringOrDefault(v *viper.Viper, key string, def string) string {
	if !v.IsSet(key) {
		return def
	}
	return v.GetString(key)
}

func toFloat(raw interface{}) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%f", &f); err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %v", raw)
	}
}

func toInt(raw interface{}) (int, error) {
	switch n := raw.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", raw)
	}
}
