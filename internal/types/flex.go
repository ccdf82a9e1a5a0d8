// flex.go
//
// JSON scalars that accept numbers, numeric strings or single items
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of API-Estancia2.
// API-Estancia2 is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// API-Estancia2 is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with API-Estancia2.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexFloat is a number that clients may send as a JSON number or a numeric
// string. Unmarshalling never fails so that validation can name the field:
// Present reports the key carried a value, Valid that it parsed.
type FlexFloat struct {
	Value   float64
	Raw     string
	Present bool
	Valid   bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	f.Present = true
	f.Raw = string(data)

	// Try unmarshaling as a number first
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Value, f.Valid = n, true
		return nil
	}

	// Then as a string; an empty string counts as not supplied
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		f.Raw = s
		if s == "" {
			f.Present = false
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			f.Value, f.Valid = v, true
		}
	}

	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Present || !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Float returns a pointer to the value when it was supplied and valid.
func (f FlexFloat) Float() *float64 {
	if !f.Present || !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// FlexList accepts either a single item or an array of items.
type FlexList[T any] []T

func (f *FlexList[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = nil
		return nil
	}

	if data[0] == '[' {
		var slice []T
		if err := json.Unmarshal(data, &slice); err != nil {
			return err
		}
		*f = FlexList[T](slice)
		return nil
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*f = FlexList[T]{item}
	return nil
}

func (f FlexList[T]) Slice() []T {
	return []T(f)
}
