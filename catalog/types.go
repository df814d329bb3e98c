// Package catalog provides the travel offerings (flights and hotels) that
// eligibility is evaluated against, and the booking records written once an
// eligible offering is booked. Search and ranking live elsewhere; this package
// only resolves an offering by ID and persists confirmed bookings.
package catalog

import (
	"context"
	"errors"
	"time"
)

// Kind distinguishes flights from hotels.
type Kind string

const (
	KindFlight Kind = "flight"
	KindHotel  Kind = "hotel"
)

// IsValid returns true if the Kind is a known value.
func (k Kind) IsValid() bool {
	return k == KindFlight || k == KindHotel
}

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// Flight classes.
const (
	ClassEconomy  = "Economy"
	ClassBusiness = "Business"
	ClassFirst    = "First"
)

// Hotel categories.
const (
	CategoryStandard = "Standard"
	CategoryPremium  = "Premium"
	CategoryLuxury   = "Luxury"
)

// TierRank orders offering tiers independent of kind.
type TierRank int

const (
	TierBase TierRank = iota
	TierMiddle
	TierTop
)

// Rank maps a flight class or hotel category onto base/middle/top.
// Unknown tiers rank as base, matching the default class of a record
// with no class attribute.
func Rank(tier string) TierRank {
	switch tier {
	case ClassBusiness, CategoryPremium:
		return TierMiddle
	case ClassFirst, CategoryLuxury:
		return TierTop
	}
	return TierBase
}

var (
	// ErrOfferingNotFound is returned when no flight or hotel has the given ID.
	ErrOfferingNotFound = errors.New("offering not found")

	// ErrBookingExists is returned when a booking ID collides with a stored booking.
	ErrBookingExists = errors.New("booking already exists")
)

// Offering is a bookable flight or hotel.
type Offering struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// Tier is the flight class or hotel category.
	Tier string `json:"tier"`

	// Price is per ticket for flights and per night for hotels.
	Price float64 `json:"price"`

	// Flight attributes.
	Origin        string `json:"origin,omitempty"`
	Destination   string `json:"destination,omitempty"`
	Airline       string `json:"airline,omitempty"`
	FlightNumber  string `json:"flight_number,omitempty"`
	DepartureDate string `json:"departure_date,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`

	// Hotel attributes.
	Name           string `json:"name,omitempty"`
	Location       string `json:"location,omitempty"`
	RoomType       string `json:"room_type,omitempty"`
	RoomsAvailable int    `json:"rooms_available,omitempty"`
}

// Catalog resolves offerings by kind and ID.
type Catalog interface {
	// Get returns the offering, or an error wrapping ErrOfferingNotFound.
	Get(ctx context.Context, kind Kind, id string) (*Offering, error)
}

// BookingStatusConfirmed is the status of every booking written by this package.
const BookingStatusConfirmed = "Confirmed"

// Booking is a confirmed reservation of an offering for an employee.
type Booking struct {
	ID         string    `json:"booking_id"`
	EmployeeID string    `json:"emp_id"`
	OfferingID string    `json:"offering_id"`
	Kind       Kind      `json:"kind"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	Tier       string    `json:"tier"`
	UnitPrice  float64   `json:"unit_price"`
	// Nights is zero for flights.
	Nights     int     `json:"nights,omitempty"`
	TotalPrice float64 `json:"total_price"`
}

// BookingStore persists bookings.
type BookingStore interface {
	// Put stores a new booking. Returns ErrBookingExists if the ID is taken.
	Put(ctx context.Context, booking *Booking) error
}
