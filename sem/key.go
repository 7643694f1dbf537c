// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sem

import (
	"fmt"
	"strconv"
)

// Key builds a unique string key for a type based on its structure.
// Two structurally identical types produce the same key, so it can be
// used for memoizing translation results by (type identity, rule).
func Key(t Type) string {
	switch tt := t.(type) {
	case Scalar:
		return "scalar:" + strconv.Itoa(int(tt.Kind)) + ":" + strconv.Itoa(int(tt.Width))

	case Vector:
		return "vec:" + strconv.Itoa(int(tt.Count)) + ":" + Key(tt.Elem)

	case Matrix:
		return "mat:" + strconv.Itoa(int(tt.Rows)) + "x" + strconv.Itoa(int(tt.Cols)) +
			":" + strconv.Itoa(int(tt.Major)) + ":" + Key(tt.Elem)

	case Array:
		if tt.Unbounded {
			return "array:runtime:" + Key(tt.Elem)
		}
		return "array:" + strconv.FormatUint(uint64(tt.Count), 10) + ":" + Key(tt.Elem)

	case Struct:
		// Structs include the layout-relevant member annotations since
		// they change the emitted offsets.
		key := "struct:" + tt.Name
		if tt.Base != nil {
			key += ":base(" + Key(*tt.Base) + ")"
		}
		for _, m := range tt.Members {
			key += ":m(" + m.Name + "," + Key(m.Type)
			if m.Offset != nil {
				key += ",o" + strconv.FormatUint(uint64(*m.Offset), 10)
			}
			if m.PackOffset != nil {
				key += ",p" + strconv.FormatUint(uint64(m.PackOffset.ByteOffset()), 10)
			}
			if m.Major != MajorDefault {
				key += ",j" + strconv.Itoa(int(m.Major))
			}
			key += ")"
		}
		return key

	case Resource:
		if tt.Elem == nil {
			return "res:" + strconv.Itoa(int(tt.Kind))
		}
		return "res:" + strconv.Itoa(int(tt.Kind)) + ":" + Key(tt.Elem)

	default:
		return fmt.Sprintf("unknown:%T", t)
	}
}
