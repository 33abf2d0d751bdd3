package server

import (
	"tadweer/internal/domain"
	"tadweer/internal/rewards"
)

type SignInRequest struct {
	ID   string `json:"id" example:"user-1"`
	Name string `json:"name,omitempty" example:"Sara"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type SessionResponse struct {
	Loaded   bool   `json:"loaded"`
	SignedIn bool   `json:"signed_in"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

type SetRoleRequest struct {
	Role string `json:"role" example:"customer"`
}

// LocationInput is either an explicit point or a free-text query resolved
// against the location picker.
type LocationInput struct {
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
	Address string  `json:"address,omitempty"`
	Query   string  `json:"query,omitempty"`
}

type CreateOrderRequest struct {
	Volume         string        `json:"volume" example:"1000L"`
	CollectionDate string        `json:"collectionDate" example:"2026-10-01"`
	Location       LocationInput `json:"location"`
}

type CollectionRequestBody struct {
	ContainerSize string        `json:"containerSize" example:"10L"`
	Quantity      string        `json:"quantity" example:"3"`
	Phone         string        `json:"phone" example:"+968 9123 4567"`
	Date          string        `json:"date" example:"2026-10-01"`
	TimeSlot      string        `json:"timeSlot" example:"09:00 - 11:00"`
	Location      LocationInput `json:"location"`
	Notes         string        `json:"notes,omitempty"`
}

type UpdateOrderRequest struct {
	Volume         *string          `json:"volume,omitempty"`
	CollectionDate *string          `json:"collectionDate,omitempty"`
	Location       *domain.Location `json:"location,omitempty"`
	Status         *string          `json:"status,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	CustomerNotes  *string          `json:"customerNotes,omitempty"`
	EstimatedTime  *string          `json:"estimatedTime,omitempty"`
	AssignedDriver *string          `json:"assignedDriver,omitempty"`
}

type SetStatusRequest struct {
	Status string `json:"status" example:"completed"`
	Note   string `json:"note,omitempty"`
}

type PointsResponse struct {
	Balance int                  `json:"balance"`
	Entries []domain.LedgerEntry `json:"entries"`
}

type RedeemResponse struct {
	Reward  domain.Reward `json:"reward"`
	Balance int           `json:"balance"`
}

type QuoteRequest struct {
	Items []rewards.QuoteItem `json:"items" minItems:"1"`
}
