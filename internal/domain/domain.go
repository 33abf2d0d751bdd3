package domain

import "github.com/shopspring/decimal"

// Order statuses. The store accepts any status after any other; see
// orders.Store for the rationale.
const (
	StatusPending   = "pending"
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// OrderStatuses lists every valid order status in display order.
var OrderStatuses = []string{StatusPending, StatusScheduled, StatusCompleted, StatusCancelled}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

type Order struct {
	ID             string   `json:"id"`
	Volume         string   `json:"volume"`
	CollectionDate string   `json:"collectionDate" format:"date"`
	Location       Location `json:"location"`
	Status         string   `json:"status" enum:"pending,scheduled,completed,cancelled"`
	CreatedAt      string   `json:"createdAt" format:"date-time"`
	UpdatedAt      string   `json:"updatedAt" format:"date-time"`
	Notes          string   `json:"notes,omitempty"`
	CustomerNotes  string   `json:"customerNotes,omitempty"`
	EstimatedTime  string   `json:"estimatedTime,omitempty"`
	AssignedDriver string   `json:"assignedDriver,omitempty"`
}

// Roles as stored in the identity provider's profile metadata. The empty
// string means the user has not picked a role yet.
const (
	RoleCustomer = "customer"
	RoleCompany  = "company"
	RoleAdmin    = "admin"
	RoleUnset    = ""
)

// ParseRole normalizes a metadata role claim; unknown values map to unset.
func ParseRole(s string) string {
	switch s {
	case RoleCustomer, RoleCompany, RoleAdmin:
		return s
	}
	return RoleUnset
}

// Delivery statuses for the simulated tracker.
const (
	DeliveryScheduled = "scheduled"
	DeliveryInTransit = "in_transit"
	DeliveryDelivered = "delivered"
	DeliveryDelayed   = "delayed"
)

type Driver struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	VehicleNo string `json:"vehicle_no"`
}

// Delivery is a read model derived from scheduled orders; it is never
// persisted.
type Delivery struct {
	OrderID          string   `json:"order_id"`
	Status           string   `json:"status" enum:"scheduled,in_transit,delivered,delayed"`
	Volume           string   `json:"volume"`
	Destination      Location `json:"destination"`
	EstimatedArrival string   `json:"estimated_arrival,omitempty" format:"date-time"`
	Driver           Driver   `json:"driver"`
	Progress         int      `json:"progress"`
}

type Container struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Size        string          `json:"size"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
}

type Reward struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PointsCost  int    `json:"points_cost"`
	Description string `json:"description,omitempty"`
}

// LedgerEntry records one points movement; positive for earning, negative
// for redemption.
type LedgerEntry struct {
	Action  string `json:"action"`
	Points  int    `json:"points"`
	OrderID string `json:"order_id,omitempty"`
	TS      string `json:"ts" format:"date-time"`
}

type LeaderboardEntry struct {
	Name           string `json:"name"`
	Points         int    `json:"points"`
	LitersRecycled int    `json:"liters_recycled"`
	Rank           int    `json:"rank"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
