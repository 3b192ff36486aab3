package result

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// flatTimeLayout renders structured timestamps as sortable text in flatten
// mode, for consumers that need one scalar per cell.
const flatTimeLayout = "2006-01-02 15:04:05"

// ColumnType is the closed set of livestatus column types this client
// coerces. Unknown or undeclared columns behave as TypeString.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInt
	TypeFloat
	TypeList
	TypeTime
)

// TypeFromName maps a declared type name from the schema table to a
// ColumnType. Names outside the closed set fall back to TypeString.
func TypeFromName(name string) ColumnType {
	switch name {
	case "int":
		return TypeInt
	case "float":
		return TypeFloat
	case "list":
		return TypeList
	case "time":
		return TypeTime
	default:
		return TypeString
	}
}

// String returns the schema name of the type.
func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeList:
		return "list"
	case TypeTime:
		return "time"
	default:
		return "string"
	}
}

// TimeFormat selects how time columns are represented.
type TimeFormat int

const (
	// TimeStructured coerces epoch seconds to time.Time values.
	TimeStructured TimeFormat = iota

	// TimeStamp leaves time columns as raw epoch numbers.
	TimeStamp
)

// converter coerces one raw field into its typed value.
type converter func(string) (any, error)

// identity keeps the field as raw text.
func identity(s string) (any, error) { return s, nil }

// converterFor resolves the coercion function for one column type, once,
// before row processing. Flatten mode substitutes single-scalar renderings
// for compound values: lists stay raw text and structured timestamps render
// as sortable strings.
func converterFor(t ColumnType, tf TimeFormat, flatten bool) converter {
	switch t {
	case TypeInt:
		return func(s string) (any, error) {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("int field %q: %w", s, err)
			}
			return v, nil
		}
	case TypeFloat:
		return parseFloat
	case TypeList:
		if flatten {
			return identity
		}
		return func(s string) (any, error) {
			return strings.Split(s, ","), nil
		}
	case TypeTime:
		if tf == TimeStamp {
			return parseFloat
		}
		if flatten {
			return func(s string) (any, error) {
				ts, err := parseEpoch(s)
				if err != nil {
					return nil, err
				}
				return ts.Format(flatTimeLayout), nil
			}
		}
		return func(s string) (any, error) {
			ts, err := parseEpoch(s)
			if err != nil {
				return nil, err
			}
			return ts, nil
		}
	default:
		return identity
	}
}

func parseFloat(s string) (any, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("numeric field %q: %w", s, err)
	}
	return v, nil
}

// parseEpoch converts Unix epoch seconds (integral or fractional) to a
// time.Time.
func parseEpoch(s string) (time.Time, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("time field %q: %w", s, err)
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec), nil
}
