package lambda

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	travelerrors "github.com/byteness/travelgate/errors"
)

// DateLayout is the format of check-in and check-out dates.
const DateLayout = "2006-01-02"

var errNotFinite = errors.New("not a finite number")

// Params holds the named string parameters of one invocation.
type Params map[string]string

// Str returns the trimmed value of name.
func (p Params) Str(name string) string {
	return strings.TrimSpace(p[name])
}

// Int parses name as an integer. A missing value is zero.
func (p Params) Int(name string) (int, error) {
	v := p.Str(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Agents sometimes send "5.0" for whole numbers.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, travelerrors.InvalidParameter(name, v, err)
		}
		n = int(f)
	}
	return n, nil
}

// Float parses name as a number. A missing value is zero.
func (p Params) Float(name string) (float64, error) {
	v := p.Str(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, travelerrors.InvalidParameter(name, v, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, travelerrors.InvalidParameter(name, v, errNotFinite)
	}
	return f, nil
}

type employeeParams struct {
	EmpID string `param:"emp_id" validate:"required"`
}

type tripParams struct {
	EmpID       string `param:"emp_id" validate:"required"`
	Destination string `param:"destination" validate:"required"`
	Duration    string `param:"duration" validate:"required"`
	Cost        string `param:"cost" validate:"required"`
}

type offeringParams struct {
	EmpID      string `param:"emp_id" validate:"required"`
	Kind       string `param:"kind" validate:"required,oneof=flight hotel"`
	OfferingID string `param:"offering_id" validate:"required"`
}

type hotelStayParams struct {
	CheckIn  string `param:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOut string `param:"check_out_date" validate:"required,datetime=2006-01-02"`
}

type createRequestParams struct {
	EmpID       string `param:"emp_id" validate:"required"`
	RequestType string `param:"request_type" validate:"required,max=64"`
	Details     string `param:"details"`
}

type requestParams struct {
	RequestID string `param:"request_id" validate:"required"`
	EmpID     string `param:"emp_id" validate:"required"`
}

type decisionParams struct {
	RequestID  string `param:"request_id" validate:"required"`
	EmpID      string `param:"emp_id" validate:"required"`
	ApproverID string `param:"approver_id" validate:"required"`
	Reason     string `param:"reason"`
}

type approverParams struct {
	ApproverID string `param:"approver_id" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("param")
	})
	return v
}

// bind fills the string fields of dst from p by their param tag and
// validates the result. A failed "required" rule is MISSING_PARAMETER;
// any other failed rule is INVALID_PARAMETER.
func bind(v *validator.Validate, p Params, dst any) error {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		if name := rt.Field(i).Tag.Get("param"); name != "" {
			rv.Field(i).SetString(p.Str(name))
		}
	}

	err := v.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return travelerrors.MissingParameter(fe.Field())
	}
	return travelerrors.InvalidParameter(fe.Field(), fmt.Sprint(fe.Value()), fmt.Errorf("failed %q rule", fe.ActualTag()))
}

// nights returns the number of nights between check-in and check-out.
func (s hotelStayParams) nights() (int, error) {
	in, err := time.Parse(DateLayout, s.CheckIn)
	if err != nil {
		return 0, travelerrors.InvalidParameter("check_in_date", s.CheckIn, err)
	}
	out, err := time.Parse(DateLayout, s.CheckOut)
	if err != nil {
		return 0, travelerrors.InvalidParameter("check_out_date", s.CheckOut, err)
	}
	n := int(out.Sub(in).Hours() / 24)
	if n < 1 {
		return 0, travelerrors.InvalidParameter("check_out_date", s.CheckOut,
			errors.New("check-out must be after check-in"))
	}
	return n, nil
}
