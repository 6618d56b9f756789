package domain

import "fmt"

// VehicleType is a class of vehicle in the fleet: its capacity, its
// per-kilometer cost, and how many physical units of it the operator owns.
type VehicleType struct {
	Name       string
	CapacityKg float64
	CostPerKm  float64
	Count      int  // owned units
	Unlimited  bool // may mint virtual units beyond Count when true
}

func (t VehicleType) validate() error {
	if t.CapacityKg <= 0 {
		return fmt.Errorf("vehicle type %s: capacity must be positive", t.Name)
	}
	if t.CostPerKm < 0 {
		return fmt.Errorf("vehicle type %s: cost per km must be non-negative", t.Name)
	}
	return nil
}

// Vehicle is one instance of a VehicleType, identified for a single solve.
type Vehicle struct {
	Type       VehicleType
	InstanceID int    // 1-based, stable within one physical-vehicle pool
	Name       string // e.g. "Sepeda Motor_1"
}

// WithInstanceID returns a copy of v bound to a new physical vehicle number,
// matching the source's clone_with_id: same specs, new identity.
func (v Vehicle) WithInstanceID(id int) Vehicle {
	v.InstanceID = id
	v.Name = fmt.Sprintf("%s_%d", v.Type.Name, id)
	return v
}

// Fleet is the ordered set of vehicle types available to a solve, plus the
// global routing parameters that govern every route in the plan.
type Fleet struct {
	Types []VehicleType

	ReturnToDepot               bool
	PriorityTimeTolerance       int // minutes
	NonPriorityTimeTolerance    int // minutes
	RelaxTimeWindows            bool
	TimeWindowRelaxationMinutes int
	MultiTripEnabled            bool
}

// Validate checks fleet-level invariants: at least one vehicle type, and
// each type internally consistent.
func (f Fleet) Validate() error {
	if len(f.Types) == 0 {
		return &ConfigError{Reason: "fleet must declare at least one vehicle type"}
	}
	for _, t := range f.Types {
		if err := t.validate(); err != nil {
			return &ConfigError{Reason: err.Error()}
		}
	}
	return nil
}

// Instances materializes concrete Vehicle values for one solve. The "at
// least Count, may mint more" reading of Unlimited (see design notes) means
// an unlimited type always contributes extra virtual units beyond its fixed
// count up to extra, never fewer than Count.
func (f Fleet) Instances(extra int) []Vehicle {
	var out []Vehicle
	id := 1
	for _, t := range f.Types {
		n := t.Count
		if t.Unlimited {
			n += extra
		}
		for i := 0; i < n; i++ {
			out = append(out, Vehicle{Type: t, InstanceID: id, Name: fmt.Sprintf("%s_%d", t.Name, id)})
			id++
		}
	}
	return out
}

// HasUnlimited reports whether any vehicle type in the fleet can mint extra
// virtual units.
func (f Fleet) HasUnlimited() bool {
	for _, t := range f.Types {
		if t.Unlimited {
			return true
		}
	}
	return false
}

// TypeByName looks up a vehicle type by name; ok is false when unknown.
func (f Fleet) TypeByName(name string) (VehicleType, bool) {
	for _, t := range f.Types {
		if t.Name == name {
			return t, true
		}
	}
	return VehicleType{}, false
}

// WithoutType returns a copy of the fleet excluding the named vehicle type,
// matching the source's motor-only fleet carve-out that excludes the blind
// van from every last-mile CVRPTW solve.
func (f Fleet) WithoutType(name string) Fleet {
	out := f
	out.Types = nil
	for _, t := range f.Types {
		if t.Name != name {
			out.Types = append(out.Types, t)
		}
	}
	return out
}
