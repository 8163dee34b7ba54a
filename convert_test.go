package curator

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestConvert(t *testing.T) {
	conv := DefaultConversions()
	testCases := []struct {
		name    string
		value   any
		field   Field
		want    any
		wantErr error
	}{
		{"iso date", "2024-03-31", Scalar("d", TypeDate), day("2024-03-31"), nil},
		{"datetime to date", time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC), Scalar("d", TypeDate), day("2024-03-31"), nil},
		{"bad date", "31/03/2024", Scalar("d", TypeDate), nil, ErrConversionRuntime},
		{"blank optional decimal", "", Optional("x", TypeDecimal), nil, nil},
		{"null optional decimal", nil, Optional("x", TypeDecimal), nil, nil},
		{"null required decimal", nil, Scalar("x", TypeDecimal), nil, ErrConversionRuntime},
		{"number to decimal", json.Number("1234.5678"), Scalar("x", TypeDecimal), dec("1234.5678"), nil},
		{"float to decimal", 0.1, Scalar("x", TypeDecimal), dec("0.1"), nil},
		{"string to decimal", " 12.50 ", Scalar("x", TypeDecimal), dec("12.5"), nil},
		{"bool to decimal", true, Scalar("x", TypeDecimal), nil, ErrConversionRuntime},
		{"number to int", json.Number("42"), Scalar("n", TypeInt), int64(42), nil},
		{"integral number to int", json.Number("42.0"), Scalar("n", TypeInt), int64(42), nil},
		{"fraction to int", json.Number("42.5"), Scalar("n", TypeInt), nil, ErrConversionRuntime},
		{"text to int", "many", Scalar("n", TypeInt), nil, ErrConversionRuntime},
		{"float to int", float64(3), Scalar("n", TypeInt), int64(3), nil},
		{"fractional float to int", 2.5, Scalar("n", TypeInt), nil, ErrConversionRuntime},
		{"large float to int", float64(1e19), Optional("n", TypeInt), nil, ErrConversionRuntime},
		{"large negative float to int", float64(-1e19), Optional("n", TypeInt), nil, ErrConversionRuntime},
		{"large number to int", json.Number("1e19"), Scalar("n", TypeInt), nil, ErrConversionRuntime},
		{"number to float", json.Number("1.5"), Scalar("f", TypeFloat), 1.5, nil},
		{"number to string", json.Number("7"), Scalar("s", TypeString), "7", nil},
		{"text to bool", "true", Scalar("b", TypeBool), true, nil},
		{"currency", "usd", Scalar("c", TypeCurrency), "USD", nil},
		{"unknown currency", "XYZ", Scalar("c", TypeCurrency), nil, ErrConversionRuntime},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := conv.Convert(tc.value, tc.field)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Convert(%#v, %s) error = %v, want %v", tc.value, tc.field.Type(), err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Convert(%#v, %s) failed: %v", tc.value, tc.field.Type(), err)
			}
			if !Equal(got, tc.want) {
				t.Errorf("Convert(%#v, %s) = %#v, want %#v", tc.value, tc.field.Type(), got, tc.want)
			}
		})
	}
}

func TestConvert_notImplemented(t *testing.T) {
	conv := NewConversions()
	_, err := conv.Convert("x", Scalar("s", TypeString))
	if !errors.Is(err, ErrConversionNotImplemented) {
		t.Fatalf("Convert() on an empty registry error = %v, want ErrConversionNotImplemented", err)
	}
	var ce *ConversionError
	if !errors.As(err, &ce) || ce.Type != TypeString {
		t.Errorf("Convert() error = %#v, want a *ConversionError for %s", err, TypeString)
	}

	conv.Register(TypeString, func(v any) (any, error) { return "custom", nil })
	got, err := conv.Convert("x", Scalar("s", TypeString))
	if err != nil || got != "custom" {
		t.Errorf("Convert() with a registered converter = %v, %v, want custom", got, err)
	}
}

func TestDefaultConversions_types(t *testing.T) {
	want := []ScalarType{TypeBool, TypeCurrency, TypeDate, TypeDecimal, TypeFloat, TypeInt, TypeString}
	if diff := cmp.Diff(want, DefaultConversions().Types()); diff != "" {
		t.Errorf("DefaultConversions().Types() mismatch (-want +got):\n%s", diff)
	}
}
