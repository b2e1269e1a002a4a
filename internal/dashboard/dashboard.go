// Package dashboard aggregates booking and seat figures for the admin view.
package dashboard

import (
	"sort"
	"time"

	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
)

// RecentLimit is how many of the newest bookings the dashboard lists.
const RecentLimit = 5

type Stats struct {
	Counts map[string]int `json:"counts"`
	// PendingReview counts pending bookings that already carry a payment proof.
	PendingReview         int               `json:"pendingReview"`
	TotalBookings         int               `json:"totalBookings"`
	TotalRevenue          decimal.Decimal   `json:"totalRevenue"`
	AverageApprovedAmount decimal.Decimal   `json:"averageApprovedAmount"`
	Seats                 SeatStats         `json:"seats"`
	RevenueByMonth        []MonthRevenue    `json:"revenueByMonth"`
	CategoryDistribution  []CategoryCount   `json:"categoryDistribution"`
	RecentBookings        []*models.Booking `json:"recentBookings"`
	Errors                map[string]string `json:"errors,omitempty"`
}

type SeatStats struct {
	Total            int     `json:"total"`
	Available        int     `json:"available"`
	Reserved         int     `json:"reserved"`
	Booked           int     `json:"booked"`
	AvailablePercent float64 `json:"availablePercent"`
	ReservedPercent  float64 `json:"reservedPercent"`
	BookedPercent    float64 `json:"bookedPercent"`
}

type MonthRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Input is what the dashboard reads. A nil slice means the read failed.
type Input struct {
	Bookings []*models.Booking
	Seats    []*models.Seat
	Recent   []*models.Booking
}

// Compute derives every dashboard figure from the raw rows.
func Compute(in Input) *Stats {
	stats := &Stats{
		Counts: map[string]int{
			models.BookingPending:   0,
			models.BookingApproved:  0,
			models.BookingRejected:  0,
			models.BookingCancelled: 0,
		},
		TotalRevenue:          decimal.Zero,
		AverageApprovedAmount: decimal.Zero,
		RevenueByMonth:        []MonthRevenue{},
		CategoryDistribution:  []CategoryCount{},
		RecentBookings:        []*models.Booking{},
	}
	if in.Recent != nil {
		stats.RecentBookings = in.Recent
	}

	stats.TotalBookings = len(in.Bookings)
	for _, b := range in.Bookings {
		stats.Counts[b.Status]++
		if b.Status == models.BookingPending && b.HasProof() {
			stats.PendingReview++
		}
		if b.Status == models.BookingApproved {
			stats.TotalRevenue = stats.TotalRevenue.Add(b.Amount)
		}
	}
	if approved := stats.Counts[models.BookingApproved]; approved > 0 {
		stats.AverageApprovedAmount = stats.TotalRevenue.Div(decimal.NewFromInt(int64(approved))).Round(2)
	}

	stats.Seats = seatStats(in.Seats)
	stats.RevenueByMonth = revenueByMonth(in.Bookings)
	stats.CategoryDistribution = categoryDistribution(in.Bookings, in.Seats)
	return stats
}

func seatStats(seats []*models.Seat) SeatStats {
	s := SeatStats{Total: len(seats)}
	for _, seat := range seats {
		switch seat.Status {
		case models.SeatAvailable:
			s.Available++
		case models.SeatReserved:
			s.Reserved++
		case models.SeatBooked:
			s.Booked++
		}
	}
	s.AvailablePercent = percent(s.Available, s.Total)
	s.ReservedPercent = percent(s.Reserved, s.Total)
	s.BookedPercent = percent(s.Booked, s.Total)
	return s
}

// percent is part/total*100 to two decimals, 0 when total is 0.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part) * 100).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()
}

// revenueByMonth buckets approved amounts by UTC calendar month, oldest first.
func revenueByMonth(bookings []*models.Booking) []MonthRevenue {
	totals := make(map[time.Time]decimal.Decimal)
	for _, b := range bookings {
		if b.Status != models.BookingApproved {
			continue
		}
		created := b.CreatedAt.UTC()
		month := time.Date(created.Year(), created.Month(), 1, 0, 0, 0, 0, time.UTC)
		totals[month] = totals[month].Add(b.Amount)
	}

	months := make([]time.Time, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	out := make([]MonthRevenue, 0, len(months))
	for _, m := range months {
		out = append(out, MonthRevenue{Month: m.Format("Jan 2006"), Revenue: totals[m]})
	}
	return out
}

// categoryDistribution counts seats held by pending or approved bookings per
// category, largest first.
func categoryDistribution(bookings []*models.Booking, seats []*models.Seat) []CategoryCount {
	active := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if b.Status == models.BookingPending || b.Status == models.BookingApproved {
			active[b.ID] = true
		}
	}

	counts := make(map[string]int)
	for _, seat := range seats {
		if seat.Category == "" || seat.BookingID == nil || !active[*seat.BookingID] {
			continue
		}
		counts[seat.Category]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for name, value := range counts {
		out = append(out, CategoryCount{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}
