package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OrderKind distinguishes a real customer delivery from the synthetic stop a
// route emits when a vehicle drops a consolidated load at a hub. Keeping a
// single Order type with an explicit kind (rather than sentinel IDs) keeps
// "every order appears exactly once" checkable without string sniffing.
type OrderKind int

const (
	RealDelivery OrderKind = iota
	HubConsolidation
)

func (k OrderKind) String() string {
	if k == HubConsolidation {
		return "hub_consolidation"
	}
	return "real_delivery"
}

// TimeWindow is a delivery window expressed in minutes from midnight of the
// order's delivery date. A point delivery time is represented with Start ==
// End.
type TimeWindow struct {
	Start int
	End   int
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

// Point is a geographic coordinate, latitude first to match the external
// "lat,lng" wire format.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point lies in range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Order is a single dated customer delivery. Orders are immutable once
// constructed: no component in this module mutates an Order after ingestion.
type Order struct {
	ID           string
	Kind         OrderKind
	DeliveryDate string // normalized YYYY-MM-DD
	Window       TimeWindow
	WeightKg     float64
	PartnerID    string
	DisplayName  string
	Address      string
	Coordinates  Point
	Zone         string // administrative zone ("kota"); "" means unmapped
	IsPriority   bool
}

// DepartureTime is the time a vehicle should leave its source to be on time
// for this order, 30 minutes ahead of the window start, never negative.
func (o Order) DepartureTime() int {
	if o.Window.Start-30 < 0 {
		return 0
	}
	return o.Window.Start - 30
}

// NewOrder validates and constructs an Order. It mirrors the validation the
// original ingestion layer performs per-row: positive weight, in-range
// coordinates, and a parseable time window.
func NewOrder(
	id, deliveryDate, deliveryTime string,
	weightKg float64,
	partnerID, displayName, address string,
	coords Point,
	zone string,
	isPriority bool,
) (Order, error) {
	if weightKg <= 0 {
		return Order{}, fmt.Errorf("order %s: weight must be positive, got %g", id, weightKg)
	}
	if !coords.Valid() {
		return Order{}, fmt.Errorf("order %s: invalid coordinates %v", id, coords)
	}

	date, err := normalizeDate(deliveryDate)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: %w", id, err)
	}

	window, err := parseTimeWindow(deliveryTime)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: %w", id, err)
	}

	return Order{
		ID:           id,
		Kind:         RealDelivery,
		DeliveryDate: date,
		Window:       window,
		WeightKg:     weightKg,
		PartnerID:    partnerID,
		DisplayName:  displayName,
		Address:      address,
		Coordinates:  coords,
		Zone:         strings.ToUpper(strings.TrimSpace(zone)),
		IsPriority:   isPriority,
	}, nil
}

// NewConsolidationOrder builds the pseudo-order a blind-van route uses to
// represent a hub drop-off. It carries the aggregate weight of the hub's
// consolidation load and is always flagged priority, matching the source
// material's treatment of hub arrival as a hard commitment.
func NewConsolidationOrder(hubID, hubName, hubAddress string, coords Point, weightKg float64, deliveryDate string, window TimeWindow) Order {
	return Order{
		ID:           "HUB_CONSOLIDATION_" + hubID,
		Kind:         HubConsolidation,
		DeliveryDate: deliveryDate,
		Window:       window,
		WeightKg:     weightKg,
		PartnerID:    hubID,
		DisplayName:  "Consolidation to " + hubName,
		Address:      hubAddress,
		Coordinates:  coords,
		IsPriority:   true,
	}
}

func normalizeDate(s string) (string, error) {
	if strings.Contains(s, "T") {
		t, err := time.Parse(time.RFC3339, strings.Replace(s, "Z", "+00:00", 1))
		if err != nil {
			// Some feeds omit the zone entirely.
			t, err = time.Parse("2006-01-02T15:04:05", s)
			if err != nil {
				return "", fmt.Errorf("invalid date format %q: expected YYYY-MM-DD or ISO-8601", s)
			}
		}
		return t.Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("invalid date format %q: expected YYYY-MM-DD", s)
	}
	return s, nil
}

// parseTimeWindow accepts "HH:MM" (a point window) or "HH:MM-HH:MM" (a range).
func parseTimeWindow(s string) (TimeWindow, error) {
	if idx := strings.IndexByte(s, '-'); idx >= 0 {
		startStr, endStr := s[:idx], s[idx+1:]
		start, err := parseClock(startStr)
		if err != nil {
			return TimeWindow{}, fmt.Errorf("invalid time format %q: %w", s, err)
		}
		end, err := parseClock(endStr)
		if err != nil {
			return TimeWindow{}, fmt.Errorf("invalid time format %q: %w", s, err)
		}
		return TimeWindow{Start: start, End: end}, nil
	}
	m, err := parseClock(s)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("invalid time format %q: %w", s, err)
	}
	return TimeWindow{Start: m, End: m}, nil
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range HH:MM %q", s)
	}
	return h*60 + m, nil
}

// ParseBoolLike accepts the various truthy spellings the order feed uses for
// is_priority: "0"/"1", "true"/"false", "yes"/"no".
func ParseBoolLike(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	default:
		return false, fmt.Errorf("unrecognized boolean value %q", s)
	}
}
