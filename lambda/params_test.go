package lambda

import (
	"testing"

	travelerrors "github.com/byteness/travelgate/errors"
)

func TestParams_Int(t *testing.T) {
	p := Params{"a": "5", "b": " 7 ", "c": "5.0", "d": "5.5", "e": "five"}

	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"a", 5, false},
		{"b", 7, false},
		{"c", 5, false},
		{"d", 0, true},
		{"e", 0, true},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		got, err := p.Int(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Int(%s) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err != nil && travelerrors.GetCode(err) != travelerrors.ErrCodeInvalidParameter {
			t.Errorf("Int(%s) code = %s", tt.name, travelerrors.GetCode(err))
		}
		if got != tt.want {
			t.Errorf("Int(%s) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestParams_Float(t *testing.T) {
	p := Params{"cost": "1500.75", "bad": "$10"}

	if got, err := p.Float("cost"); err != nil || got != 1500.75 {
		t.Errorf("Float(cost) = %v, %v", got, err)
	}
	if _, err := p.Float("bad"); travelerrors.GetCode(err) != travelerrors.ErrCodeInvalidParameter {
		t.Errorf("Float(bad) error = %v", err)
	}
	for _, v := range []string{"NaN", "Inf", "-inf", "1e400"} {
		if _, err := (Params{"cost": v}).Float("cost"); travelerrors.GetCode(err) != travelerrors.ErrCodeInvalidParameter {
			t.Errorf("Float(%s) error = %v, want INVALID_PARAMETER", v, err)
		}
	}
}

func TestBind(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name      string
		params    Params
		code      string
		parameter string
	}{
		{"complete", Params{"emp_id": "E001", "kind": "hotel", "offering_id": "H1"}, "", ""},
		{"whitespace only is missing", Params{"emp_id": "  ", "kind": "hotel", "offering_id": "H1"}, travelerrors.ErrCodeMissingParameter, "emp_id"},
		{"first missing field reported", Params{"kind": "hotel"}, travelerrors.ErrCodeMissingParameter, "emp_id"},
		{"oneof", Params{"emp_id": "E001", "kind": "train", "offering_id": "T1"}, travelerrors.ErrCodeInvalidParameter, "kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in offeringParams
			err := bind(v, tt.params, &in)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("bind() error = %v", err)
				}
				if in.EmpID != "E001" || in.Kind != "hotel" || in.OfferingID != "H1" {
					t.Errorf("bound = %+v", in)
				}
				return
			}
			te, ok := travelerrors.AsTravelError(err)
			if !ok {
				t.Fatalf("bind() error = %v, want TravelError", err)
			}
			if te.Code() != tt.code || te.Context()["parameter"] != tt.parameter {
				t.Errorf("got %s/%s, want %s/%s", te.Code(), te.Context()["parameter"], tt.code, tt.parameter)
			}
		})
	}
}

func TestBind_RequestTypeLength(t *testing.T) {
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'x'
	}
	var in createRequestParams
	err := bind(newValidator(), Params{"emp_id": "E001", "request_type": string(long)}, &in)
	if travelerrors.GetCode(err) != travelerrors.ErrCodeInvalidParameter {
		t.Errorf("error = %v, want INVALID_PARAMETER", err)
	}
}

func TestHotelStayNights(t *testing.T) {
	tests := []struct {
		in, out string
		want    int
		wantErr bool
	}{
		{"2026-06-01", "2026-06-02", 1, false},
		{"2026-02-27", "2026-03-02", 3, false},
		{"2026-06-01", "2026-06-01", 0, true},
		{"2026-06-05", "2026-06-01", 0, true},
	}
	for _, tt := range tests {
		got, err := hotelStayParams{CheckIn: tt.in, CheckOut: tt.out}.nights()
		if (err != nil) != tt.wantErr {
			t.Errorf("nights(%s, %s) error = %v", tt.in, tt.out, err)
			continue
		}
		if got != tt.want {
			t.Errorf("nights(%s, %s) = %d, want %d", tt.in, tt.out, got, tt.want)
		}
	}
}
