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

// Type is the id of a column type.
type Type byte

// Column type ids supported by the merge stage.
const (
	TypeLonglong Type = iota + 1
	TypeDouble
	TypeVarString
	TypeBlob
)

// UnsignedFlag marks an integer column as unsigned.
const UnsignedFlag uint = 1 << 5

// FieldType describes the type of a column.
type FieldType struct {
	Tp   Type
	Flag uint
}

// NewFieldType creates a FieldType with the given type id.
func NewFieldType(tp Type) *FieldType {
	return &FieldType{Tp: tp}
}

// AddFlag adds a flag to the FieldType.
func (ft *FieldType) AddFlag(flag uint) {
	ft.Flag |= flag
}

// HasUnsignedFlag reports whether the column is an unsigned integer.
func (ft *FieldType) HasUnsignedFlag() bool {
	return ft.Flag&UnsignedFlag > 0
}

// String implements fmt.Stringer.
func (ft *FieldType) String() string {
	switch ft.Tp {
	case TypeLonglong:
		if ft.HasUnsignedFlag() {
			return "bigint unsigned"
		}
		return "bigint"
	case TypeDouble:
		return "double"
	case TypeVarString:
		return "varchar"
	case TypeBlob:
		return "blob"
	}
	return "unknown"
}
