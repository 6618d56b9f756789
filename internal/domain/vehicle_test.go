package domain

import "testing"

func TestFleet_Validate(t *testing.T) {
	if err := (Fleet{}).Validate(); err == nil {
		t.Fatal("expected an error for a fleet with no vehicle types")
	}
	f := Fleet{Types: []VehicleType{{Name: "Motor", CapacityKg: -1, CostPerKm: 1}}}
	if err := f.Validate(); err == nil {
		t.Fatal("expected an error for a non-positive capacity")
	}
	ok := Fleet{Types: []VehicleType{{Name: "Motor", CapacityKg: 100, CostPerKm: 1}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFleet_Instances_FixedCount(t *testing.T) {
	f := Fleet{Types: []VehicleType{{Name: "Motor", CapacityKg: 100, Count: 3}}}
	got := f.Instances(10)
	if len(got) != 3 {
		t.Fatalf("expected 3 fixed instances regardless of extra, got %d", len(got))
	}
}

func TestFleet_Instances_UnlimitedMintsExtra(t *testing.T) {
	f := Fleet{Types: []VehicleType{{Name: "Motor", CapacityKg: 100, Count: 2, Unlimited: true}}}
	got := f.Instances(3)
	if len(got) != 5 {
		t.Fatalf("expected Count+extra=5 instances, got %d", len(got))
	}
	for i, v := range got {
		if v.InstanceID != i+1 {
			t.Fatalf("expected stable 1-based instance ids, got %d at position %d", v.InstanceID, i)
		}
	}
}

func TestFleet_WithoutType(t *testing.T) {
	f := Fleet{Types: []VehicleType{
		{Name: "Blind Van", CapacityKg: 500},
		{Name: "Motor", CapacityKg: 100},
	}}
	got := f.WithoutType("Blind Van")
	if len(got.Types) != 1 || got.Types[0].Name != "Motor" {
		t.Fatalf("expected only Motor to remain, got %+v", got.Types)
	}
}

func TestFleet_TypeByName(t *testing.T) {
	f := Fleet{Types: []VehicleType{{Name: "Motor", CapacityKg: 100}}}
	if _, ok := f.TypeByName("Motor"); !ok {
		t.Fatal("expected Motor to be found")
	}
	if _, ok := f.TypeByName("Truck"); ok {
		t.Fatal("expected Truck to be absent")
	}
}

func TestVehicle_WithInstanceID(t *testing.T) {
	v := Vehicle{Type: VehicleType{Name: "Motor"}, InstanceID: 1, Name: "Motor_1"}
	v2 := v.WithInstanceID(7)
	if v2.InstanceID != 7 || v2.Name != "Motor_7" {
		t.Fatalf("expected rebound instance, got %+v", v2)
	}
	if v.InstanceID != 1 {
		t.Fatal("expected WithInstanceID not to mutate the receiver")
	}
}
