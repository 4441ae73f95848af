package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/twinbridge/twinbridge-core/internal/model"
)

// upsertProcedure maps a data type to its history upsert procedure. String
// and enumeration values share the strings column family.
func upsertProcedure(dataType model.DataType) (string, error) {
	switch dataType {
	case model.DataTypeBool:
		return "history.upsert_time_series_bools_array", nil
	case model.DataTypeInt:
		return "history.upsert_time_series_ints_array", nil
	case model.DataTypeFloat:
		return "history.upsert_time_series_floats_array", nil
	case model.DataTypeString, model.DataTypeEnumeration:
		return "history.upsert_time_series_strings_array", nil
	case model.DataTypeDateTime:
		return "history.upsert_time_series_datetimes_array", nil
	case model.DataTypeObject:
		return "history.upsert_time_series_objects_array", nil
	case model.DataTypeGeopoint:
		return "history.upsert_time_series_geopoints_array", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDataType, dataType)
	}
}

// convertValues converts a generic value column into the typed slice the
// upsert procedure expects. The returned cast is appended to the values
// placeholder when the wire type needs an explicit cast.
func convertValues(dataType model.DataType, values []any) (converted any, cast string, err error) {
	switch dataType {
	case model.DataTypeBool:
		out, err := toBools(values)
		return out, "", err
	case model.DataTypeInt:
		out, err := toInts(values)
		return out, "", err
	case model.DataTypeFloat:
		out, err := toFloats(values)
		return out, "", err
	case model.DataTypeString, model.DataTypeEnumeration:
		return toStrings(values), "", nil
	case model.DataTypeDateTime:
		out, err := toTimes(values)
		return out, "", err
	case model.DataTypeObject:
		out, err := toJSONDocs(values)
		return out, "::jsonb[]", err
	case model.DataTypeGeopoint:
		out, err := toPoints(values)
		return out, "", err
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedDataType, dataType)
	}
}

func toBools(values []any) ([]bool, error) {
	out := make([]bool, len(values))
	for i, v := range values {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: sample %d is %T, want bool", ErrValueTypeMismatch, i, v)
		}
		out[i] = b
	}
	return out, nil
}

func toInts(values []any) ([]int64, error) {
	out := make([]int64, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case int64:
			out[i] = n
		case int:
			out[i] = int64(n)
		case float64:
			out[i] = int64(n)
		default:
			return nil, fmt.Errorf("%w: sample %d is %T, want integer", ErrValueTypeMismatch, i, v)
		}
	}
	return out, nil
}

// toFloats widens integer-encoded samples; upstream encoders drop the
// fraction on whole floats.
func toFloats(values []any) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case float64:
			out[i] = n
		case int64:
			out[i] = float64(n)
		case int:
			out[i] = float64(n)
		default:
			return nil, fmt.Errorf("%w: sample %d is %T, want float", ErrValueTypeMismatch, i, v)
		}
	}
	return out, nil
}

func toStrings(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func toTimes(values []any) ([]time.Time, error) {
	out := make([]time.Time, len(values))
	for i, v := range values {
		switch ts := v.(type) {
		case time.Time:
			out[i] = ts
		case string:
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return nil, fmt.Errorf("%w: sample %d: %v", ErrValueTypeMismatch, i, err)
			}
			out[i] = parsed
		default:
			return nil, fmt.Errorf("%w: sample %d is %T, want timestamp", ErrValueTypeMismatch, i, v)
		}
	}
	return out, nil
}

func toJSONDocs(values []any) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		doc, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: sample %d: %v", ErrValueTypeMismatch, i, err)
		}
		out[i] = string(doc)
	}
	return out, nil
}

func toPoints(values []any) ([]pgtype.Point, error) {
	out := make([]pgtype.Point, len(values))
	for i, v := range values {
		gp, ok := v.(model.Geopoint)
		if !ok {
			return nil, fmt.Errorf("%w: sample %d is %T, want geopoint", ErrValueTypeMismatch, i, v)
		}
		out[i] = pgtype.Point{
			P:     pgtype.Vec2{X: gp.Lon, Y: gp.Lat},
			Valid: true,
		}
	}
	return out, nil
}
