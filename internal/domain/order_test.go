package domain

import "testing"

func TestNewOrder_Valid(t *testing.T) {
	o, err := NewOrder("o1", "2024-05-01", "08:00-09:00", 50, "p1", "Jane", "Jl. Sudirman", Point{Lat: -6.2, Lng: 106.8}, "jakarta", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Window != (TimeWindow{Start: 480, End: 540}) {
		t.Fatalf("unexpected window: %+v", o.Window)
	}
	if o.Zone != "JAKARTA" {
		t.Fatalf("expected normalized upper-case zone, got %q", o.Zone)
	}
	if !o.IsPriority {
		t.Fatal("expected the caller-supplied priority flag to carry through")
	}
}

func TestNewOrder_PointWindow(t *testing.T) {
	o, err := NewOrder("o1", "2024-05-01", "08:00", 10, "p1", "Jane", "addr", Point{Lat: 1, Lng: 1}, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Window.Start != o.Window.End {
		t.Fatalf("expected a point window, got %+v", o.Window)
	}
}

func TestNewOrder_RejectsNonPositiveWeight(t *testing.T) {
	if _, err := NewOrder("o1", "2024-05-01", "08:00", 0, "p1", "Jane", "addr", Point{Lat: 1, Lng: 1}, "", false); err == nil {
		t.Fatal("expected an error for zero weight")
	}
}

func TestNewOrder_RejectsInvalidCoordinates(t *testing.T) {
	if _, err := NewOrder("o1", "2024-05-01", "08:00", 10, "p1", "Jane", "addr", Point{Lat: 200, Lng: 1}, "", false); err == nil {
		t.Fatal("expected an error for an out-of-range latitude")
	}
}

func TestNewOrder_RejectsMalformedTime(t *testing.T) {
	if _, err := NewOrder("o1", "2024-05-01", "not-a-time", 10, "p1", "Jane", "addr", Point{Lat: 1, Lng: 1}, "", false); err == nil {
		t.Fatal("expected an error for a malformed time window")
	}
}

func TestNewOrder_AcceptsISO8601Date(t *testing.T) {
	o, err := NewOrder("o1", "2024-05-01T10:00:00Z", "08:00", 10, "p1", "Jane", "addr", Point{Lat: 1, Lng: 1}, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.DeliveryDate != "2024-05-01" {
		t.Fatalf("expected the date portion to survive, got %q", o.DeliveryDate)
	}
}

func TestParseBoolLike(t *testing.T) {
	truthy := []string{"1", "true", "yes", "Y"}
	falsy := []string{"0", "false", "no", "", "N"}
	for _, s := range truthy {
		b, err := ParseBoolLike(s)
		if err != nil || !b {
			t.Fatalf("expected %q to parse true, got %v err %v", s, b, err)
		}
	}
	for _, s := range falsy {
		b, err := ParseBoolLike(s)
		if err != nil || b {
			t.Fatalf("expected %q to parse false, got %v err %v", s, b, err)
		}
	}
	if _, err := ParseBoolLike("maybe"); err == nil {
		t.Fatal("expected an error for an unrecognized boolean spelling")
	}
}

func TestDepartureTime_NeverNegative(t *testing.T) {
	o := Order{Window: TimeWindow{Start: 10}}
	if got := o.DepartureTime(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	o2 := Order{Window: TimeWindow{Start: 100}}
	if got := o2.DepartureTime(); got != 70 {
		t.Fatalf("expected 70, got %d", got)
	}
}

func TestNewConsolidationOrder_IsPriorityAndTagged(t *testing.T) {
	o := NewConsolidationOrder("H1", "Hub One", "addr", Point{Lat: 1, Lng: 1}, 120, "2024-05-01", TimeWindow{Start: 330, End: 360})
	if o.Kind != HubConsolidation {
		t.Fatalf("expected HubConsolidation kind, got %v", o.Kind)
	}
	if !o.IsPriority {
		t.Fatal("expected a consolidation stop to be priority")
	}
	if o.WeightKg != 120 {
		t.Fatalf("expected weight 120, got %v", o.WeightKg)
	}
}
