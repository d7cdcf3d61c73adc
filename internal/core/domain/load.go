package domain

import "time"

// LoadStatus represents the lifecycle state of a load.
type LoadStatus string

const (
	LoadPlanned    LoadStatus = "planned"
	LoadDispatched LoadStatus = "dispatched"
	LoadInTransit  LoadStatus = "in_transit"
	LoadDelivered  LoadStatus = "delivered"
	LoadCancelled  LoadStatus = "cancelled"
)

// loadTransitions defines the allowed state machine transitions.
var loadTransitions = map[LoadStatus][]LoadStatus{
	LoadPlanned:    {LoadDispatched, LoadCancelled},
	LoadDispatched: {LoadInTransit, LoadCancelled},
	LoadInTransit:  {LoadDelivered, LoadCancelled},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s LoadStatus) CanTransitionTo(next LoadStatus) bool {
	for _, allowed := range loadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s LoadStatus) Valid() bool {
	switch s {
	case LoadPlanned, LoadDispatched, LoadInTransit, LoadDelivered, LoadCancelled:
		return true
	}
	return false
}

// LoadStatusEntry records a single status transition on a load.
type LoadStatusEntry struct {
	Status    LoadStatus `json:"status" bson:"status"`
	Timestamp time.Time  `json:"timestamp" bson:"timestamp"`
	ChangedBy string     `json:"changed_by,omitempty" bson:"changed_by,omitempty"`
}

// Load is a haul assigned to a driver and vehicle.
type Load struct {
	Base          `bson:",inline"`
	CompanyID     string            `json:"company_id" bson:"company_id"`
	Reference     string            `json:"reference" bson:"reference"`
	DriverID      string            `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	VehicleID     string            `json:"vehicle_id,omitempty" bson:"vehicle_id,omitempty"`
	Origin        string            `json:"origin" bson:"origin"`
	Destination   string            `json:"destination" bson:"destination"`
	Commodity     string            `json:"commodity,omitempty" bson:"commodity,omitempty"`
	Status        LoadStatus        `json:"status" bson:"status"`
	PickupAt      *time.Time        `json:"pickup_at,omitempty" bson:"pickup_at,omitempty"`
	StatusHistory []LoadStatusEntry `json:"status_history" bson:"status_history"`
}

func (l *Load) Owner() string { return l.CompanyID }

func (l *Load) SetOwner(id string) { l.CompanyID = id }
