// Package record frames calibration results for transport.
//
// A Record is encoded in protobuf wire format, equivalent to:
//
//	message Point {
//	  optional double reference = 1;
//	  double uncalibrated = 2;
//	  double corrected = 3;
//	}
//
//	message Record {
//	  int64 time = 1;
//	  int32 kind = 2;
//	  CurveType curve_type = 3; // LINEAR = 0, EXPONENTIAL = 1
//	  repeated Point points = 4;
//	  repeated double coefficients = 5; // packed
//	}
//
// On a stream every record is prefixed by its length as a varint, with no
// compression and no checksum.
package record

import (
	"math"
	"time"

	pkgerrors "github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/charlie0129/sensorcal/pkg/calibration"
)

const (
	fieldTime         protowire.Number = 1
	fieldKind         protowire.Number = 2
	fieldCurveType    protowire.Number = 3
	fieldPoints       protowire.Number = 4
	fieldCoefficients protowire.Number = 5

	fieldReference    protowire.Number = 1
	fieldUncalibrated protowire.Number = 2
	fieldCorrected    protowire.Number = 3
)

// Record is one serialized calibration run.
type Record struct {
	// Time is the Unix time in seconds.
	Time         int64                 `json:"time"`
	Kind         int32                 `json:"kind"`
	CurveType    calibration.CurveType `json:"curveType"`
	Points       []Point               `json:"points"`
	Coefficients []float64             `json:"coefficients"`
}

// Point is a calibration point as it appears on the wire. Reference is nil
// for points whose standard had no value.
type Point struct {
	Reference    *float64 `json:"reference,omitempty"`
	Uncalibrated float64  `json:"uncalibrated"`
	Corrected    float64  `json:"corrected"`
}

// New builds a record from a session snapshot taken at ts.
func New(kind int32, snap *calibration.Snapshot, ts time.Time) *Record {
	r := &Record{
		Time:         ts.Unix(),
		Kind:         kind,
		CurveType:    snap.CurveType,
		Points:       make([]Point, len(snap.Points)),
		Coefficients: append([]float64(nil), snap.Coefficients...),
	}
	for i, p := range snap.Points {
		wp := Point{
			Uncalibrated: p.Reading.Uncalibrated,
			Corrected:    p.Reading.Value,
		}
		if v, ok := p.Standard.Value(); ok {
			wp.Reference = &v
		}
		r.Points[i] = wp
	}
	return r
}

// Timestamp returns Time as a time.Time.
func (r *Record) Timestamp() time.Time {
	return time.Unix(r.Time, 0)
}

// Corrector returns a corrector applying the record's coefficients, which are
// stored in fit order.
func (r *Record) Corrector() (calibration.Corrector, error) {
	return calibration.NewFittedCorrector(r.CurveType, r.Coefficients)
}

// Marshal encodes r without a length prefix.
func (r *Record) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldTime, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Time))
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(r.Kind)))
	b = protowire.AppendTag(b, fieldCurveType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.CurveType))

	for _, p := range r.Points {
		b = protowire.AppendTag(b, fieldPoints, protowire.BytesType)
		b = protowire.AppendBytes(b, p.marshal())
	}

	if len(r.Coefficients) > 0 {
		packed := make([]byte, 0, 8*len(r.Coefficients))
		for _, c := range r.Coefficients {
			packed = protowire.AppendFixed64(packed, math.Float64bits(c))
		}
		b = protowire.AppendTag(b, fieldCoefficients, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

func (p Point) marshal() []byte {
	var b []byte
	if p.Reference != nil {
		b = protowire.AppendTag(b, fieldReference, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(*p.Reference))
	}
	b = protowire.AppendTag(b, fieldUncalibrated, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(p.Uncalibrated))
	b = protowire.AppendTag(b, fieldCorrected, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(p.Corrected))
	return b
}

// Unmarshal decodes a record produced by Marshal. Unknown fields are skipped.
func Unmarshal(b []byte) (*Record, error) {
	r := &Record{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, pkgerrors.Wrap(protowire.ParseError(n), "failed to read field tag")
		}
		b = b[n:]

		switch {
		case num == fieldTime && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, pkgerrors.Wrap(protowire.ParseError(n), "failed to read time")
			}
			r.Time = int64(v)
			b = b[n:]
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, pkgerrors.Wrap(protowire.ParseError(n), "failed to read kind")
			}
			r.Kind = int32(int64(v))
			b = b[n:]
		case num == fieldCurveType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, pkgerrors.Wrap(protowire.ParseError(n), "failed to read curve type")
			}
			r.CurveType = calibration.CurveType(v)
			if !r.CurveType.Valid() {
				return nil, pkgerrors.Errorf("invalid curve type %d", v)
			}
			b = b[n:]
		case num == fieldPoints && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, pkgerrors.Wrap(protowire.ParseError(n), "failed to read point")
			}
			p, err := unmarshalPoint(v)
			if err != nil {
				return nil, err
			}
			r.Points = append(r.Points, p)
			b = b[n:]
		case num == fieldCoefficients && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, pkgerrors.Wrap(protowire.ParseError(n), "failed to read coefficients")
			}
			for len(v) > 0 {
				c, m := protowire.ConsumeFixed64(v)
				if m < 0 {
					return nil, pkgerrors.Wrap(protowire.ParseError(m), "failed to read packed coefficient")
				}
				r.Coefficients = append(r.Coefficients, math.Float64frombits(c))
				v = v[m:]
			}
			b = b[n:]
		case num == fieldCoefficients && typ == protowire.Fixed64Type:
			c, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, pkgerrors.Wrap(protowire.ParseError(n), "failed to read coefficient")
			}
			r.Coefficients = append(r.Coefficients, math.Float64frombits(c))
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, pkgerrors.Wrapf(protowire.ParseError(n), "failed to skip field %d", num)
			}
			b = b[n:]
		}
	}
	return r, nil
}

func unmarshalPoint(b []byte) (Point, error) {
	var p Point
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Point{}, pkgerrors.Wrap(protowire.ParseError(n), "failed to read point field tag")
		}
		b = b[n:]

		if typ != protowire.Fixed64Type || num < fieldReference || num > fieldCorrected {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Point{}, pkgerrors.Wrapf(protowire.ParseError(n), "failed to skip point field %d", num)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return Point{}, pkgerrors.Wrapf(protowire.ParseError(n), "failed to read point field %d", num)
		}
		f := math.Float64frombits(v)
		switch num {
		case fieldReference:
			p.Reference = &f
		case fieldUncalibrated:
			p.Uncalibrated = f
		case fieldCorrected:
			p.Corrected = f
		}
		b = b[n:]
	}
	return p, nil
}
