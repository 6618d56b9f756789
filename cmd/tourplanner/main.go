// Command tourplanner is the composition root: it loads the fleet/hub
// configuration, reads the day's orders, wires the distance oracle and the
// Top-Level Orchestrator (internal/orchestrator) together, and writes the
// resulting routing solution as JSON. Modeled on
// erenceh-delivery-route-api/cmd/server/main.go's plain explicit-wiring
// style rather than the nextmv-sdk run.Run/run.CLI convention the other
// teacher examples use, since the orchestrator composes several solves
// rather than exposing a single store.Solver.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/groceryroute/tourplanner/internal/config"
	"github.com/groceryroute/tourplanner/internal/domain"
	"github.com/groceryroute/tourplanner/internal/oracle"
	"github.com/groceryroute/tourplanner/internal/orchestrator"
)

// orderRow mirrors the order input table (spec §6): sale_order_id,
// delivery_date, delivery_time, load_weight_in_kg, partner_id, display_name,
// alamat, coordinates ("lat,lng"), kota, is_priority.
type orderRow struct {
	SaleOrderID    string `json:"sale_order_id"`
	DeliveryDate   string `json:"delivery_date"`
	DeliveryTime   string `json:"delivery_time"`
	LoadWeightInKg string `json:"load_weight_in_kg"`
	PartnerID      string `json:"partner_id"`
	DisplayName    string `json:"display_name"`
	Alamat         string `json:"alamat"`
	Coordinates    string `json:"coordinates"`
	Kota           string `json:"kota"`
	IsPriority     string `json:"is_priority"`
}

func main() {
	configPath := flag.String("config", "", "path to the fleet/hub/routing configuration document (yaml or json)")
	ordersPath := flag.String("orders", "", "path to the order input file (JSON array); defaults to stdin")
	timeBudget := flag.Duration("time-budget", 30*time.Second, "overall solve time budget across every cluster")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *configPath == "" {
		log.Fatal("missing required -config flag")
	}

	if err := run(*configPath, *ordersPath, *timeBudget, log); err != nil {
		log.WithError(err).Fatal("tourplanner run failed")
	}
}

func run(configPath, ordersPath string, timeBudget time.Duration, log *logrus.Logger) error {
	doc, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	depot, err := depotFromEnv()
	if err != nil {
		return fmt.Errorf("reading depot location from environment: %w", err)
	}

	rows, err := readOrderRows(ordersPath)
	if err != nil {
		return fmt.Errorf("reading order input: %w", err)
	}

	orders, err := ordersFromRows(rows)
	if err != nil {
		return fmt.Errorf("parsing order input: %w", err)
	}

	client := oracleClientFromEnv()
	adapter := oracle.New(client, doc.Cache, log)

	orch := orchestrator.New(adapter, log)
	solution, diag, err := orch.Plan(orchestrator.Input{
		Depot:      depot,
		Orders:     orders,
		Fleet:      doc.Fleet,
		Hubs:       doc.Hubs,
		Cluster:    doc.Cluster,
		MultiTrip:  doc.MultiTrip,
		CVRPTW:     doc.CVRPTW,
		TimeBudget: timeBudget,
	})
	if err != nil {
		return fmt.Errorf("planning routes: %w", err)
	}

	for _, w := range diag.Warnings {
		log.Warn(w)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(solution)
}

// depotFromEnv reads the depot location from the environment (spec §6:
// "depot location ... and oracle endpoint URL are environment-supplied").
func depotFromEnv() (domain.Location, error) {
	lat, err := strconv.ParseFloat(os.Getenv("TOURPLANNER_DEPOT_LAT"), 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("TOURPLANNER_DEPOT_LAT: %w", err)
	}
	lng, err := strconv.ParseFloat(os.Getenv("TOURPLANNER_DEPOT_LNG"), 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("TOURPLANNER_DEPOT_LNG: %w", err)
	}
	point := domain.Point{Lat: lat, Lng: lng}
	if !point.Valid() {
		return domain.Location{}, fmt.Errorf("depot coordinates out of range: %v", point)
	}
	return domain.Location{
		Kind:        domain.KindDepot,
		Name:        envOrDefault("TOURPLANNER_DEPOT_NAME", "Depot"),
		Coordinates: point,
		Address:     os.Getenv("TOURPLANNER_DEPOT_ADDRESS"),
	}, nil
}

// oracleClientFromEnv wires the HTTP distance oracle when an endpoint is
// configured; otherwise the adapter falls back to great-circle distance for
// every request, which is a valid offline mode.
func oracleClientFromEnv() oracle.Client {
	url := os.Getenv("TOURPLANNER_ORACLE_URL")
	if url == "" {
		return nil
	}
	return oracle.NewHTTPClient(url)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func readOrderRows(path string) ([]orderRow, error) {
	var r = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var rows []orderRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding order rows: %w", err)
	}
	return rows, nil
}

func ordersFromRows(rows []orderRow) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(rows))
	for i, row := range rows {
		weight, err := strconv.ParseFloat(strings.TrimSpace(row.LoadWeightInKg), 64)
		if err != nil {
			return nil, &domain.ValidationError{Row: i, Field: "load_weight_in_kg", Reason: err.Error()}
		}

		point, err := parseCoordinates(row.Coordinates)
		if err != nil {
			return nil, &domain.ValidationError{Row: i, Field: "coordinates", Reason: err.Error()}
		}

		isPriority, err := domain.ParseBoolLike(row.IsPriority)
		if err != nil {
			return nil, &domain.ValidationError{Row: i, Field: "is_priority", Reason: err.Error()}
		}

		order, err := domain.NewOrder(
			row.SaleOrderID,
			row.DeliveryDate,
			row.DeliveryTime,
			weight,
			row.PartnerID,
			row.DisplayName,
			row.Alamat,
			point,
			row.Kota,
			isPriority,
		)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// parseCoordinates splits the wire format "lat,lng" into a Point.
func parseCoordinates(s string) (domain.Point, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ",", 2)
	if len(parts) != 2 {
		return domain.Point{}, fmt.Errorf("expected \"lat,lng\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	point := domain.Point{Lat: lat, Lng: lng}
	if !point.Valid() {
		return domain.Point{}, fmt.Errorf("coordinates out of range: %v", point)
	}
	return point, nil
}
