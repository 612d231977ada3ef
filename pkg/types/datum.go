// Copyright 2025 Meridian, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"bytes"
	"math"
	"strconv"

	"github.com/pingcap/errors"
)

// Kind constants for Datum.
const (
	KindNull byte = iota
	KindInt64
	KindUint64
	KindFloat64
	KindString
	KindBytes
)

// Datum is a data box that holds a single column value.
// The zero value of Datum is a NULL.
type Datum struct {
	k byte   // datum kind
	i int64  // i can hold int64, uint64 and float64
	b []byte // b can hold string and bytes
}

// Kind gets the kind of the datum.
func (d *Datum) Kind() byte {
	return d.k
}

// IsNull checks if the datum is NULL.
func (d *Datum) IsNull() bool {
	return d.k == KindNull
}

// SetNull sets the datum to NULL.
func (d *Datum) SetNull() {
	d.k = KindNull
	d.i = 0
	d.b = nil
}

// GetInt64 gets the int64 value.
func (d *Datum) GetInt64() int64 {
	return d.i
}

// SetInt64 sets the int64 value.
func (d *Datum) SetInt64(i int64) {
	d.k = KindInt64
	d.i = i
}

// GetUint64 gets the uint64 value.
func (d *Datum) GetUint64() uint64 {
	return uint64(d.i)
}

// SetUint64 sets the uint64 value.
func (d *Datum) SetUint64(u uint64) {
	d.k = KindUint64
	d.i = int64(u)
}

// GetFloat64 gets the float64 value.
func (d *Datum) GetFloat64() float64 {
	return math.Float64frombits(uint64(d.i))
}

// SetFloat64 sets the float64 value.
func (d *Datum) SetFloat64(f float64) {
	d.k = KindFloat64
	d.i = int64(math.Float64bits(f))
}

// GetString gets the string value.
func (d *Datum) GetString() string {
	return string(d.b)
}

// SetString sets the string value.
func (d *Datum) SetString(s string) {
	d.k = KindString
	d.b = []byte(s)
}

// GetBytes gets the bytes value.
func (d *Datum) GetBytes() []byte {
	return d.b
}

// SetBytes sets the bytes value.
func (d *Datum) SetBytes(b []byte) {
	d.k = KindBytes
	d.b = b
}

// NewDatum creates a new Datum from an interface{}.
func NewDatum(in any) (d Datum) {
	switch x := in.(type) {
	case nil:
	case int:
		d.SetInt64(int64(x))
	case int64:
		d.SetInt64(x)
	case uint64:
		d.SetUint64(x)
	case float64:
		d.SetFloat64(x)
	case string:
		d.SetString(x)
	case []byte:
		d.SetBytes(x)
	default:
		panic(errors.Errorf("unsupported datum value %v", in))
	}
	return d
}

// NewIntDatum creates a new Datum from an int64 value.
func NewIntDatum(i int64) (d Datum) {
	d.SetInt64(i)
	return d
}

// NewStringDatum creates a new Datum from a string.
func NewStringDatum(s string) (d Datum) {
	d.SetString(s)
	return d
}

// NewFloat64Datum creates a new Datum from a float64 value.
func NewFloat64Datum(f float64) (d Datum) {
	d.SetFloat64(f)
	return d
}

// Compare compares the datum with another datum.
// A NULL datum sorts before any non-NULL datum. Comparing datums of
// incompatible kinds is an error.
func (d *Datum) Compare(ad *Datum) (int, error) {
	if d.IsNull() {
		if ad.IsNull() {
			return 0, nil
		}
		return -1, nil
	}
	if ad.IsNull() {
		return 1, nil
	}

	switch d.k {
	case KindInt64:
		switch ad.k {
		case KindInt64:
			return CompareInt64(d.GetInt64(), ad.GetInt64()), nil
		case KindUint64:
			return compareSignedUnsigned(d.GetInt64(), ad.GetUint64()), nil
		case KindFloat64:
			return CompareFloat64(float64(d.GetInt64()), ad.GetFloat64()), nil
		}
	case KindUint64:
		switch ad.k {
		case KindUint64:
			return CompareUint64(d.GetUint64(), ad.GetUint64()), nil
		case KindInt64:
			return -compareSignedUnsigned(ad.GetInt64(), d.GetUint64()), nil
		case KindFloat64:
			return CompareFloat64(float64(d.GetUint64()), ad.GetFloat64()), nil
		}
	case KindFloat64:
		switch ad.k {
		case KindFloat64:
			return CompareFloat64(d.GetFloat64(), ad.GetFloat64()), nil
		case KindInt64:
			return CompareFloat64(d.GetFloat64(), float64(ad.GetInt64())), nil
		case KindUint64:
			return CompareFloat64(d.GetFloat64(), float64(ad.GetUint64())), nil
		}
	case KindString, KindBytes:
		if ad.k == KindString || ad.k == KindBytes {
			return bytes.Compare(d.b, ad.b), nil
		}
	}
	return 0, errors.Errorf("cannot compare %s with %s", kindStr(d.k), kindStr(ad.k))
}

func compareSignedUnsigned(i int64, u uint64) int {
	if i < 0 {
		return -1
	}
	return CompareUint64(uint64(i), u)
}

// String returns a human readable representation, used in logs and errors.
func (d Datum) String() string {
	switch d.k {
	case KindNull:
		return "NULL"
	case KindInt64:
		return strconv.FormatInt(d.GetInt64(), 10)
	case KindUint64:
		return strconv.FormatUint(d.GetUint64(), 10)
	case KindFloat64:
		return strconv.FormatFloat(d.GetFloat64(), 'g', -1, 64)
	case KindString, KindBytes:
		return string(d.b)
	}
	return "unknown"
}

func kindStr(k byte) string {
	switch k {
	case KindNull:
		return "null"
	case KindInt64:
		return "bigint"
	case KindUint64:
		return "bigint unsigned"
	case KindFloat64:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	}
	return "unknown"
}
