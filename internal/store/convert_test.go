package store

import (
	"errors"
	"testing"
	"time"

	"github.com/twinbridge/twinbridge-core/internal/model"
)

func TestUpsertProcedure(t *testing.T) {
	tests := []struct {
		dataType model.DataType
		want     string
	}{
		{model.DataTypeBool, "history.upsert_time_series_bools_array"},
		{model.DataTypeInt, "history.upsert_time_series_ints_array"},
		{model.DataTypeFloat, "history.upsert_time_series_floats_array"},
		{model.DataTypeString, "history.upsert_time_series_strings_array"},
		{model.DataTypeEnumeration, "history.upsert_time_series_strings_array"},
		{model.DataTypeDateTime, "history.upsert_time_series_datetimes_array"},
		{model.DataTypeObject, "history.upsert_time_series_objects_array"},
		{model.DataTypeGeopoint, "history.upsert_time_series_geopoints_array"},
	}

	for _, tt := range tests {
		t.Run(string(tt.dataType), func(t *testing.T) {
			got, err := upsertProcedure(tt.dataType)
			if err != nil {
				t.Fatalf("upsertProcedure(%q) error = %v", tt.dataType, err)
			}
			if got != tt.want {
				t.Errorf("upsertProcedure(%q) = %q, want %q", tt.dataType, got, tt.want)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		_, err := upsertProcedure(model.DataType("vector"))
		if !errors.Is(err, ErrUnsupportedDataType) {
			t.Errorf("upsertProcedure error = %v, want ErrUnsupportedDataType", err)
		}
	})
}

func TestToFloats_WidensIntegers(t *testing.T) {
	got, err := toFloats([]any{1.5, int64(2), 3})
	if err != nil {
		t.Fatalf("toFloats() error = %v", err)
	}
	want := []float64{1.5, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("toFloats()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestToFloats_RejectsStrings(t *testing.T) {
	_, err := toFloats([]any{"21.5"})
	if !errors.Is(err, ErrValueTypeMismatch) {
		t.Errorf("toFloats() error = %v, want ErrValueTypeMismatch", err)
	}
}

func TestToStrings_CoercesNonStrings(t *testing.T) {
	got := toStrings([]any{"ready", int64(2), true})
	want := []string{"ready", "2", "true"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("toStrings()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestToInts(t *testing.T) {
	got, err := toInts([]any{int64(5), 6, float64(7)})
	if err != nil {
		t.Fatalf("toInts() error = %v", err)
	}
	want := []int64{5, 6, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("toInts()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestToBools_RejectsMixed(t *testing.T) {
	_, err := toBools([]any{true, 1})
	if !errors.Is(err, ErrValueTypeMismatch) {
		t.Errorf("toBools() error = %v, want ErrValueTypeMismatch", err)
	}
}

func TestToTimes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got, err := toTimes([]any{now, "2025-06-01T12:00:00Z"})
	if err != nil {
		t.Fatalf("toTimes() error = %v", err)
	}
	for i := range got {
		if !got[i].Equal(now) {
			t.Errorf("toTimes()[%d] = %v, want %v", i, got[i], now)
		}
	}

	if _, err := toTimes([]any{"not-a-time"}); !errors.Is(err, ErrValueTypeMismatch) {
		t.Errorf("toTimes() error = %v, want ErrValueTypeMismatch", err)
	}
}

func TestToJSONDocs(t *testing.T) {
	got, err := toJSONDocs([]any{`{"a":1}`, map[string]any{"b": 2}})
	if err != nil {
		t.Fatalf("toJSONDocs() error = %v", err)
	}
	if got[0] != `{"a":1}` {
		t.Errorf("toJSONDocs()[0] = %q, want passthrough", got[0])
	}
	if got[1] != `{"b":2}` {
		t.Errorf("toJSONDocs()[1] = %q, want %q", got[1], `{"b":2}`)
	}
}

func TestToPoints(t *testing.T) {
	got, err := toPoints([]any{model.Geopoint{Lon: 13.4, Lat: 52.5}})
	if err != nil {
		t.Fatalf("toPoints() error = %v", err)
	}
	if got[0].P.X != 13.4 || got[0].P.Y != 52.5 {
		t.Errorf("toPoints()[0] = %+v, want X=13.4 Y=52.5", got[0].P)
	}
	if !got[0].Valid {
		t.Error("toPoints()[0].Valid = false, want true")
	}

	if _, err := toPoints([]any{"13.4,52.5"}); !errors.Is(err, ErrValueTypeMismatch) {
		t.Errorf("toPoints() error = %v, want ErrValueTypeMismatch", err)
	}
}

func TestConvertValues_ObjectCast(t *testing.T) {
	_, cast, err := convertValues(model.DataTypeObject, []any{`{}`})
	if err != nil {
		t.Fatalf("convertValues() error = %v", err)
	}
	if cast != "::jsonb[]" {
		t.Errorf("convertValues() cast = %q, want ::jsonb[]", cast)
	}
}
