package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ms-booking/internal/database/dbtest"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bookingAt(id, status string, amount int64, created time.Time) *models.Booking {
	return &models.Booking{ID: id, Status: status, Amount: decimal.NewFromInt(amount), CreatedAt: created}
}

func seat(id, status, category, bookingID string) *models.Seat {
	s := &models.Seat{ID: id, Status: status, Category: category}
	if bookingID != "" {
		s.BookingID = &bookingID
	}
	return s
}

func TestComputeCountsAndRevenue(t *testing.T) {
	proof := "proofs/p.png"
	withProof := bookingAt("b2", models.BookingPending, 40, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC))
	withProof.Image = &proof

	// Late on Jan 31 in UTC+3 is still January in UTC.
	cairo := time.FixedZone("EET", 3*60*60)
	bookings := []*models.Booking{
		bookingAt("b1", models.BookingPending, 10, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)),
		withProof,
		bookingAt("b3", models.BookingApproved, 100, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
		bookingAt("b4", models.BookingApproved, 50, time.Date(2026, 2, 1, 1, 0, 0, 0, cairo)),
		bookingAt("b5", models.BookingApproved, 25, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)),
		bookingAt("b6", models.BookingRejected, 70, time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC)),
		bookingAt("b7", models.BookingCancelled, 80, time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)),
	}

	stats := Compute(Input{Bookings: bookings})

	assert.Equal(t, 7, stats.TotalBookings)
	assert.Equal(t, map[string]int{"pending": 2, "approved": 3, "rejected": 1, "cancelled": 1}, stats.Counts)
	assert.Equal(t, 1, stats.PendingReview)
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(175)), stats.TotalRevenue.String())
	assert.Equal(t, "58.33", stats.AverageApprovedAmount.StringFixed(2))

	require.Len(t, stats.RevenueByMonth, 2)
	assert.Equal(t, "Jan 2026", stats.RevenueByMonth[0].Month)
	assert.True(t, stats.RevenueByMonth[0].Revenue.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "Mar 2026", stats.RevenueByMonth[1].Month)
	assert.True(t, stats.RevenueByMonth[1].Revenue.Equal(decimal.NewFromInt(125)))
}

func TestComputeRevenueMonthsAcrossYears(t *testing.T) {
	stats := Compute(Input{Bookings: []*models.Booking{
		bookingAt("a", models.BookingApproved, 1, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)),
		bookingAt("b", models.BookingApproved, 1, time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)),
		bookingAt("c", models.BookingApproved, 1, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
	}})

	var months []string
	for _, m := range stats.RevenueByMonth {
		months = append(months, m.Month)
	}
	assert.Equal(t, []string{"Feb 2025", "Dec 2025", "Jan 2026"}, months)
}

func TestComputeSeatPercentages(t *testing.T) {
	stats := Compute(Input{Seats: []*models.Seat{
		seat("s1", models.SeatAvailable, "VIP", ""),
		seat("s2", models.SeatAvailable, "VIP", ""),
		seat("s3", models.SeatReserved, "VIP", "b1"),
	}})

	assert.Equal(t, SeatStats{
		Total:            3,
		Available:        2,
		Reserved:         1,
		AvailablePercent: 66.67,
		ReservedPercent:  33.33,
	}, stats.Seats)
}

func TestComputeEmptyInput(t *testing.T) {
	stats := Compute(Input{})

	assert.Zero(t, stats.TotalBookings)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.Equal(t, SeatStats{}, stats.Seats)
	assert.NotNil(t, stats.RevenueByMonth)
	assert.NotNil(t, stats.CategoryDistribution)
	assert.NotNil(t, stats.RecentBookings)
}

func TestComputeCategoryDistribution(t *testing.T) {
	bookings := []*models.Booking{
		bookingAt("pending", models.BookingPending, 0, time.Now()),
		bookingAt("approved", models.BookingApproved, 0, time.Now()),
		bookingAt("rejected", models.BookingRejected, 0, time.Now()),
	}
	seats := []*models.Seat{
		seat("1", models.SeatReserved, "Regular", "pending"),
		seat("2", models.SeatBooked, "VIP", "approved"),
		seat("3", models.SeatBooked, "Regular", "approved"),
		seat("4", models.SeatReserved, "Balcony", "rejected"),
		seat("5", models.SeatBooked, "", "approved"),
		seat("6", models.SeatAvailable, "VIP", ""),
		seat("7", models.SeatBooked, "Box", "approved"),
	}

	stats := Compute(Input{Bookings: bookings, Seats: seats})
	assert.Equal(t, []CategoryCount{
		{Name: "Regular", Value: 2},
		{Name: "Box", Value: 1},
		{Name: "VIP", Value: 1},
	}, stats.CategoryDistribution)
}

// ---------------- SERVICE ----------------

type MockReader struct {
	mock.Mock
}

func (m *MockReader) Bookings(ctx context.Context) ([]*models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *MockReader) Seats(ctx context.Context) ([]*models.Seat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Seat), args.Error(1)
}

func (m *MockReader) RecentBookings(ctx context.Context, limit int) ([]*models.Booking, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func TestStatsReportsFailedReadsAlongsidePartialResults(t *testing.T) {
	reader := new(MockReader)
	reader.On("Bookings", mock.Anything).Return([]*models.Booking{
		bookingAt("b1", models.BookingApproved, 30, time.Now()),
	}, nil)
	reader.On("Seats", mock.Anything).Return(nil, errors.New("permission denied for table seats"))
	reader.On("RecentBookings", mock.Anything, RecentLimit).Return([]*models.Booking{}, nil)

	stats := NewService(reader, logger.NewTestLogger()).Stats(context.Background())

	assert.Equal(t, map[string]string{"seats": "permission denied for table seats"}, stats.Errors)
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(30)))
	assert.Zero(t, stats.Seats.Total)
	reader.AssertExpectations(t)
}

func TestStatsFromDatabase(t *testing.T) {
	bunDB := dbtest.New(t)
	dbtest.Seed(t, bunDB, 4)

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	for i, status := range []string{models.BookingApproved, models.BookingPending, models.BookingApproved, models.BookingRejected, models.BookingPending, models.BookingCancelled} {
		b := &models.Booking{
			ID:        fmt.Sprintf("booking-%d", i),
			Name:      "Guest",
			Email:     "guest@example.com",
			Phone:     "0",
			Amount:    decimal.NewFromInt(int64(10 * (i + 1))),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		switch i {
		case 0:
			dbtest.InsertBooking(t, bunDB, b, models.SeatBooked, dbtest.SeatID(1))
		case 1:
			dbtest.InsertBooking(t, bunDB, b, models.SeatReserved, dbtest.SeatID(2), dbtest.SeatID(3))
		default:
			dbtest.InsertBooking(t, bunDB, b, "")
		}
	}

	stats := NewService(NewDB(bunDB), logger.NewTestLogger()).Stats(context.Background())

	assert.Empty(t, stats.Errors)
	assert.Equal(t, 6, stats.TotalBookings)
	assert.Equal(t, 2, stats.Counts[models.BookingApproved])
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(40)), stats.TotalRevenue.String())
	assert.Equal(t, SeatStats{
		Total: 4, Available: 1, Reserved: 2, Booked: 1,
		AvailablePercent: 25, ReservedPercent: 50, BookedPercent: 25,
	}, stats.Seats)
	assert.Equal(t, []CategoryCount{{Name: "VIP", Value: 2}, {Name: "Regular", Value: 1}}, stats.CategoryDistribution)

	require.Len(t, stats.RecentBookings, RecentLimit)
	assert.Equal(t, "booking-5", stats.RecentBookings[0].ID)
}
