package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/twinbridge/twinbridge-core/internal/model"
)

// Sample is one identity-resolved attribute reading.
type Sample struct {
	Attribute string
	ID        int64
	DataType  model.DataType
	Value     any
}

// Batch is one per-data-type write column set. IDs, Values and Timestamps
// are index-aligned.
type Batch struct {
	IDs        []int64
	Values     []any
	Timestamps []time.Time
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int { return len(b.IDs) }

func (b *Batch) append(id int64, value any, ts time.Time) {
	b.IDs = append(b.IDs, id)
	b.Values = append(b.Values, value)
	b.Timestamps = append(b.Timestamps, ts)
}

// Demux buckets samples into per-data-type batches, coercing each raw
// value to its column form. Samples whose value does not fit their
// declared type are skipped and reported; they never abort the event.
func Demux(timestamp time.Time, samples []Sample) (map[model.DataType]*Batch, []error) {
	batches := make(map[model.DataType]*Batch)
	var sampleErrs []error

	for _, sample := range samples {
		value, err := coerceValue(sample)
		if err != nil {
			sampleErrs = append(sampleErrs, err)
			continue
		}

		batch, ok := batches[sample.DataType]
		if !ok {
			batch = &Batch{}
			batches[sample.DataType] = batch
		}
		batch.append(sample.ID, value, timestamp)
	}

	return batches, sampleErrs
}

// coerceValue converts one raw JSON-decoded value to the form its data
// type's column family expects.
func coerceValue(sample Sample) (any, error) {
	switch sample.DataType {
	case model.DataTypeBool:
		if b, ok := sample.Value.(bool); ok {
			return b, nil
		}
		return nil, invalidValue(sample, "not a boolean")

	case model.DataTypeInt:
		switch n := sample.Value.(type) {
		case float64:
			return int64(n), nil
		case int64:
			return n, nil
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, invalidValue(sample, "not an integer")
			}
			return i, nil
		}
		return nil, invalidValue(sample, "not an integer")

	case model.DataTypeFloat:
		// Always a 64-bit float, even when the source encodes a whole
		// number without a fraction.
		switch n := sample.Value.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, invalidValue(sample, "not a number")
			}
			return f, nil
		}
		return nil, invalidValue(sample, "not a number")

	case model.DataTypeString, model.DataTypeEnumeration:
		return textualForm(sample.Value), nil

	case model.DataTypeDateTime:
		s, ok := sample.Value.(string)
		if !ok {
			return nil, invalidValue(sample, "not a timestamp string")
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, invalidValue(sample, "unparseable timestamp")
		}
		return ts, nil

	case model.DataTypeGeopoint:
		obj, ok := sample.Value.(map[string]any)
		if !ok {
			return nil, invalidValue(sample, "not a lon/lat object")
		}
		lon, lonOK := numericField(obj, "lon")
		lat, latOK := numericField(obj, "lat")
		if !lonOK || !latOK {
			return nil, invalidValue(sample, "missing numeric lon/lat fields")
		}
		return model.Geopoint{Lon: lon, Lat: lat}, nil

	case model.DataTypeObject:
		doc, err := json.Marshal(sample.Value)
		if err != nil {
			return nil, invalidValue(sample, "unserialisable value")
		}
		return string(doc), nil

	default:
		return nil, invalidValue(sample, fmt.Sprintf("unhandled data type %q", sample.DataType))
	}
}

// textualForm renders a value the way the strings column family stores it.
func textualForm(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func numericField(obj map[string]any, key string) (float64, bool) {
	switch n := obj[key].(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func invalidValue(sample Sample, reason string) *InvalidValueError {
	return &InvalidValueError{
		Attribute: sample.Attribute,
		DataType:  string(sample.DataType),
		Reason:    reason,
	}
}
