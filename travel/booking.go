package travel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/byteness/travelgate/catalog"
	travelerrors "github.com/byteness/travelgate/errors"
	"github.com/byteness/travelgate/logging"
)

// Book reserves an offering for empID after the eligibility gate passes.
// Hotels need at least one night and are charged price × nights; nights is
// ignored for flights. An ineligible offering is a POLICY_VIOLATION error.
func (s *Service) Book(ctx context.Context, empID string, kind catalog.Kind, offeringID string, nights int) Result {
	const op = logging.OperationBooking
	if kind == catalog.KindHotel && nights < 1 {
		return s.errorResult(op, travelerrors.InvalidParameter("nights", strconv.Itoa(nights), errors.New("at least one night is required")))
	}
	if kind == catalog.KindFlight {
		nights = 0
	}
	if s.bookings == nil {
		return s.errorResult(op, travelerrors.New(travelerrors.ErrCodeInternal, "booking store is not configured",
			travelerrors.Suggestions[travelerrors.ErrCodeInternal], nil))
	}

	res, p, err := s.eligibility(ctx, empID, kind, offeringID)
	if err != nil {
		return s.errorResult(op, err)
	}
	s.audit.LogDecision(logging.NewBookingDecision(empID, string(res.Grade), offeringID, nights, res.Eligibility).WithPolicyVersion(p))

	if !res.Eligible {
		te := travelerrors.New(travelerrors.ErrCodePolicyViolation,
			fmt.Sprintf("Not eligible for this %s: %s", kind, res.Reason),
			travelerrors.Suggestions[travelerrors.ErrCodePolicyViolation], nil)
		r := s.errorResult(op, travelerrors.WithContext(te, "offering_id", offeringID))
		r.Data = res
		return r
	}

	o := res.Offering
	booking := &catalog.Booking{
		ID:         s.newBookingID(),
		EmployeeID: empID,
		OfferingID: o.ID,
		Kind:       o.Kind,
		Status:     catalog.BookingStatusConfirmed,
		CreatedAt:  s.now(),
		Tier:       o.Tier,
		UnitPrice:  o.Price,
		Nights:     nights,
		TotalPrice: o.Price,
	}
	if kind == catalog.KindHotel {
		booking.TotalPrice = o.Price * float64(nights)
	}

	if err := s.bookings.Put(ctx, booking); err != nil {
		if errors.Is(err, catalog.ErrBookingExists) {
			err = travelerrors.New(travelerrors.ErrCodeInternal, "booking ID collision: "+booking.ID,
				travelerrors.Suggestions[travelerrors.ErrCodeInternal], err)
		}
		return s.errorResult(op, err)
	}

	return success(fmt.Sprintf("%s booked successfully", titleKind(kind)), booking)
}
