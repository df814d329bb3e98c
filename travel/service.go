// Package travel is the operation boundary of the travel policy engine.
//
// Service exposes every logical operation (eligibility, trip validation,
// approval routing, passport checks, the approval workflow, employee lookups
// and booking) and converts each outcome into a Result. Transports such as
// the Lambda handler and the CLI only parse parameters and render Results.
package travel

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/byteness/travelgate/catalog"
	"github.com/byteness/travelgate/employee"
	travelerrors "github.com/byteness/travelgate/errors"
	"github.com/byteness/travelgate/logging"
	"github.com/byteness/travelgate/policy"
	"github.com/byteness/travelgate/workflow"
	"github.com/google/uuid"
)

// Config holds the collaborators of a Service.
type Config struct {
	// Directory and Workflow are required.
	Directory employee.Directory
	Workflow  *workflow.Workflow

	// Catalog and Bookings back eligibility and booking. Those operations
	// report INTERNAL_ERROR when they are not configured.
	Catalog  catalog.Catalog
	Bookings catalog.BookingStore

	// Policy loads the travel policy by PolicyParameter. When nil the
	// built-in DefaultPolicy is used.
	Policy          policy.PolicyLoader
	PolicyParameter string

	// Logger receives policy decision audit entries.
	Logger logging.Logger

	// Log receives operational logs. Defaults to zap.L().
	Log *zap.Logger

	// Now and NewBookingID default to time.Now and uuid.NewString.
	Now          func() time.Time
	NewBookingID func() string
}

// Service implements the travel operations.
type Service struct {
	directory       employee.Directory
	workflow        *workflow.Workflow
	catalog         catalog.Catalog
	bookings        catalog.BookingStore
	policy          policy.PolicyLoader
	policyParameter string
	audit           logging.Logger
	log             *zap.Logger
	now             func() time.Time
	newBookingID    func() string
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Directory == nil {
		return nil, errors.New("travel: directory is required")
	}
	if cfg.Workflow == nil {
		return nil, errors.New("travel: workflow is required")
	}

	s := &Service{
		directory:       cfg.Directory,
		workflow:        cfg.Workflow,
		catalog:         cfg.Catalog,
		bookings:        cfg.Bookings,
		policy:          cfg.Policy,
		policyParameter: cfg.PolicyParameter,
		audit:           cfg.Logger,
		log:             cfg.Log,
		now:             cfg.Now,
		newBookingID:    cfg.NewBookingID,
	}
	if s.policy == nil {
		s.policy = policy.StaticLoader{}
	}
	if s.audit == nil {
		s.audit = logging.NewNopLogger()
	}
	if s.log == nil {
		s.log = zap.L()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newBookingID == nil {
		s.newBookingID = uuid.NewString
	}
	return s, nil
}

func (s *Service) loadPolicy(ctx context.Context) (*policy.TravelPolicy, error) {
	return s.policy.Load(ctx, s.policyParameter)
}

// employee fetches a directory record, mapping a missing record to NOT_FOUND.
func (s *Service) employee(ctx context.Context, empID string) (*employee.Employee, error) {
	emp, err := s.directory.Get(ctx, empID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return nil, travelerrors.NotFound("Employee", empID, err)
		}
		return nil, err
	}
	return emp, nil
}

// gradeOf returns the employee's grade. Employees missing from the
// directory are evaluated as Junior.
func (s *Service) gradeOf(ctx context.Context, empID string) (employee.Grade, error) {
	emp, err := s.directory.Get(ctx, empID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.GradeJunior, nil
		}
		return "", err
	}
	return emp.Grade, nil
}

func requireParams(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return travelerrors.MissingParameter(pairs[i])
		}
	}
	return nil
}
