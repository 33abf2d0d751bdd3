// Package analytics computes the dashboard read models. It never mutates
// orders; everything is derived from a store snapshot.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"tadweer/internal/domain"
)

// Liters parses a volume descriptor like "500L"; malformed descriptors
// count as zero rather than failing a whole aggregate.
func Liters(volume string) int {
	n, err := cast.ToIntE(strings.TrimSpace(strings.TrimSuffix(strings.ToUpper(volume), "L")))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

type Summary struct {
	TotalOrders   int            `json:"total_orders"`
	TotalLiters   int            `json:"total_liters"`
	ByStatus      map[string]int `json:"by_status"`
	EfficiencyPct float64        `json:"efficiency_pct"`
}

// Summarize aggregates volume, status counts and the completed-order
// efficiency percentage.
func Summarize(list []domain.Order) Summary {
	s := Summary{ByStatus: map[string]int{}}
	for _, o := range list {
		s.TotalOrders++
		s.TotalLiters += Liters(o.Volume)
		s.ByStatus[o.Status]++
	}
	if s.TotalOrders > 0 {
		s.EfficiencyPct = float64(s.ByStatus[domain.StatusCompleted]) / float64(s.TotalOrders) * 100
	}
	return s
}

type MonthBucket struct {
	Month  string `json:"month"`
	Liters int    `json:"liters"`
	Orders int    `json:"orders"`
}

// MonthlyVolume buckets orders by collection month (YYYY-MM), oldest first,
// for the volume chart consumer.
func MonthlyVolume(list []domain.Order) []MonthBucket {
	byMonth := map[string]*MonthBucket{}
	for _, o := range list {
		d, err := time.Parse("2006-01-02", o.CollectionDate)
		if err != nil {
			continue
		}
		key := d.Format("2006-01")
		b, ok := byMonth[key]
		if !ok {
			b = &MonthBucket{Month: key}
			byMonth[key] = b
		}
		b.Liters += Liters(o.Volume)
		b.Orders++
	}
	out := make([]MonthBucket, 0, len(byMonth))
	for _, b := range byMonth {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Filter narrows a list by status ("" or "all" keeps everything) and a
// free-text needle matched against id and address, the way the orders page
// filters.
func Filter(list []domain.Order, status, search string) []domain.Order {
	needle := strings.ToLower(strings.TrimSpace(search))
	var out []domain.Order
	for _, o := range list {
		if status != "" && status != "all" && o.Status != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(o.ID), needle) &&
			!strings.Contains(strings.ToLower(o.Location.Address), needle) {
			continue
		}
		out = append(out, o)
	}
	return out
}
