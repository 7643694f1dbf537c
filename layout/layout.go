// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package layout computes alignment, size, and stride of semantic types
// under the competing layout rule variants the SPIR-V target knows
// about.
//
// The arithmetic follows the GLSL std140 rules, with each named rule
// modifying them:
//
//   - Std430: array/struct alignment is not rounded up to 16.
//   - RelaxedStd140/RelaxedStd430: vectors are placed at their element
//     alignment when that alignment is at most 4 bytes, unless the
//     vector would improperly straddle a 16-byte boundary.
//   - FxcCTBuffer (fxc cbuffer/tbuffer packing): relaxed vector
//     placement, and arrays/structs do not force trailing padding onto
//     the member that follows them.
//   - FxcSBuffer (fxc structured buffer packing): vector/matrix/array
//     alignment equals the element alignment; no trailing padding.
//   - Scalar: everything is aligned to its scalar element alignment.
//   - None: no layout requirement at all; types computed under it have
//     no offsets or strides.
package layout

import (
	"github.com/gogpu/hlsl2spv/diag"
	"github.com/gogpu/hlsl2spv/sem"
)

// vec4Alignment is the base alignment of a 4-component float vector,
// which std140-flavored rules round alignments up to.
const vec4Alignment = 16

// Rule names a layout rule variant.
type Rule uint8

const (
	// RuleNone marks types with no concrete storage location; no layout
	// decorations are produced under it.
	RuleNone Rule = iota
	RuleStd140
	RuleStd430
	RuleRelaxedStd140
	RuleRelaxedStd430

	// RuleFxcCTBuffer is the fxc constant/texture buffer packing rule.
	RuleFxcCTBuffer

	// RuleFxcSBuffer is the fxc structured buffer packing rule.
	RuleFxcSBuffer

	// RuleScalar is the VK_EXT_scalar_block_layout packing rule.
	RuleScalar
)

// String returns the rule name.
func (r Rule) String() string {
	switch r {
	case RuleNone:
		return "None"
	case RuleStd140:
		return "Std140"
	case RuleStd430:
		return "Std430"
	case RuleRelaxedStd140:
		return "RelaxedStd140"
	case RuleRelaxedStd430:
		return "RelaxedStd430"
	case RuleFxcCTBuffer:
		return "FxcCTBuffer"
	case RuleFxcSBuffer:
		return "FxcSBuffer"
	case RuleScalar:
		return "Scalar"
	default:
		return "Unknown"
	}
}

// padsVectors reports whether vectors get the padded 2N/4N alignment
// instead of their element alignment.
func (r Rule) padsVectors() bool {
	return r != RuleFxcCTBuffer && r != RuleFxcSBuffer && r != RuleScalar
}

// roundsTo16 reports whether array, matrix, and struct alignments are
// rounded up to the vec4 alignment.
func (r Rule) roundsTo16() bool {
	return r == RuleStd140 || r == RuleRelaxedStd140 || r == RuleFxcCTBuffer
}

// relaxedPlacement reports whether struct members are placed with the
// relaxed vector adjustment.
func (r Rule) relaxedPlacement() bool {
	return r == RuleRelaxedStd140 || r == RuleRelaxedStd430 || r == RuleFxcCTBuffer
}

// elementAligned reports whether vectors, matrices, and arrays take the
// bare element alignment and no trailing padding.
func (r Rule) elementAligned() bool {
	return r == RuleFxcSBuffer || r == RuleScalar
}

// skipsTrailingPad reports whether arrays and structs avoid forcing
// trailing padding onto the following member.
func (r Rule) skipsTrailingPad() bool {
	return r == RuleFxcCTBuffer || r == RuleFxcSBuffer
}

// Options configures layout computation.
type Options struct {
	// DefaultRowMajor selects the matrix orientation used when neither
	// the type nor the enclosing declaration carries an annotation.
	DefaultRowMajor bool
}

// Calculator evaluates layout rules over semantic types.
//
// All computations are pure; failures are reported through the
// diagnostic sink and yield zero results so the caller's walk can
// continue.
type Calculator struct {
	sink *diag.Sink
	opts Options
}

// NewCalculator creates a layout calculator reporting through sink.
func NewCalculator(sink *diag.Sink, opts Options) *Calculator {
	return &Calculator{sink: sink, opts: opts}
}

// roundToPow2 rounds val up to the given power of 2.
func roundToPow2(val, pow2 uint32) uint32 {
	return (val + pow2 - 1) &^ (pow2 - 1)
}

// improperStraddle reports whether a vector of the given size placed at
// the given offset crosses a 16-byte boundary. Vectors in this type
// model never exceed 16 bytes (at most 4 components of 4 bytes under
// padded rules place 8-byte elements at vector alignment), so only the
// within-16-bytes check applies.
func improperStraddle(size, offset uint32) bool {
	return offset/16 != (offset+size-1)/16
}

// RowMajor resolves the effective orientation of a matrix given the
// enclosing declaration or member annotation.
func (c *Calculator) RowMajor(m sem.Matrix, hint sem.Majorness) bool {
	if m.Major != sem.MajorDefault {
		return m.Major == sem.RowMajor
	}
	if hint != sem.MajorDefault {
		return hint == sem.RowMajor
	}
	return c.opts.DefaultRowMajor
}

// AlignmentAndSize computes the alignment and size of t under rule,
// along with the element stride for array and matrix types. All results
// are in bytes. Shapes outside the supported set report UnsupportedType
// and return zeros.
func (c *Calculator) AlignmentAndSize(t sem.Type, rule Rule) (alignment, size, stride uint32) {
	return c.alignmentAndSize(t, rule, sem.MajorDefault, sem.Span{})
}

func (c *Calculator) alignmentAndSize(t sem.Type, rule Rule, major sem.Majorness, loc sem.Span) (alignment, size, stride uint32) {
	switch tt := t.(type) {
	case sem.Scalar:
		switch tt.Width {
		case 2, 4, 8:
			w := uint32(tt.Width)
			return w, w, 0
		default:
			c.unsupported(loc, "alignment and size calculation for %d-byte scalar unimplemented", tt.Width)
			return 0, 0, 0
		}

	case sem.Vector:
		a, s, _ := c.alignmentAndSize(tt.Elem, rule, major, loc)
		count := uint32(tt.Count)
		if rule.padsVectors() {
			if count == 3 {
				a = 4 * s
			} else {
				a = count * s
			}
		}
		return a, count * s, 0

	case sem.Matrix:
		a, s, _ := c.alignmentAndSize(tt.Elem, rule, major, loc)
		rowMajor := c.RowMajor(tt, major)

		// Components per stored vector, and how many vectors are stored.
		vecSize := uint32(tt.Rows)
		vecCount := uint32(tt.Cols)
		if rowMajor {
			vecSize, vecCount = vecCount, vecSize
		}

		if rule.elementAligned() {
			stride = vecSize * s
			return a, uint32(tt.Rows) * uint32(tt.Cols) * s, stride
		}

		if vecSize == 3 {
			a *= 4
		} else {
			a *= vecSize
		}
		if rule.roundsTo16() {
			a = roundToPow2(a, vec4Alignment)
		}
		return a, vecCount * a, a

	case sem.Array:
		if tt.Unbounded {
			c.unsupported(loc, "alignment and size calculation for runtime-sized array unimplemented")
			return 0, 0, 0
		}
		a, s, _ := c.alignmentAndSize(tt.Elem, rule, major, loc)

		if rule.elementAligned() {
			return a, s * tt.Count, s
		}

		if rule.roundsTo16() {
			a = roundToPow2(a, vec4Alignment)
		}
		if rule == RuleFxcCTBuffer {
			// fxc cbuffer packing: elements are stride-spaced but the
			// array does not pad past its last element.
			stride = roundToPow2(s, a)
			if tt.Count == 0 {
				return a, 0, stride
			}
			return a, s + stride*(tt.Count-1), stride
		}
		s = roundToPow2(s, a)
		stride = s
		size = roundToPow2(s*tt.Count, a)
		return a, size, stride

	case sem.Struct:
		a, s := c.walkStruct(tt, rule, nil, false)
		return a, s, 0

	default:
		c.unsupported(loc, "alignment and size calculation for type %T unimplemented", t)
		return 0, 0, 0
	}
}

// MemberOffsets computes the byte offset of every member of st under
// rule, in declaration order, with an implicit leading entry for the
// base aggregate if one exists. Overlaps caused by explicit packing
// offsets are reported here (and only here, so a diagnostic appears
// once per struct).
func (c *Calculator) MemberOffsets(st sem.Struct, rule Rule) []uint32 {
	offsets := make([]uint32, 0, len(st.Members)+1)
	c.walkStruct(st, rule, &offsets, true)
	return offsets
}

// effectiveMembers returns the struct's members with the implicit base
// field, if any, inserted unnamed at the front.
func effectiveMembers(st sem.Struct) []sem.Member {
	if st.Base == nil {
		return st.Members
	}
	members := make([]sem.Member, 0, len(st.Members)+1)
	members = append(members, sem.Member{Type: *st.Base})
	return append(members, st.Members...)
}

// walkStruct performs the member placement walk shared by size
// computation and offset decoration building, so both always agree.
func (c *Calculator) walkStruct(st sem.Struct, rule Rule, offsets *[]uint32, report bool) (alignment, size uint32) {
	members := effectiveMembers(st)

	// Empty structs have no alignment requirement.
	if len(members) == 0 {
		return 1, 0
	}

	var maxAlignment, offset uint32
	for _, m := range members {
		a, s, _ := c.alignmentAndSize(m.Type, rule, m.Major, m.Loc)

		// The next available location after placing previous members.
		nextLoc := offset

		if rule.relaxedPlacement() {
			c.alignRelaxed(m.Type, s, a, &offset)
		} else {
			offset = roundToPow2(offset, a)
		}

		// An explicit byte offset takes precedence over all.
		if m.Offset != nil {
			offset = *m.Offset
		} else if m.PackOffset != nil {
			packOffset := m.PackOffset.ByteOffset()
			if packOffset < nextLoc && report {
				c.sink.Error(diag.KindLayoutOverlap, diag.Span(m.Loc),
					"packoffset caused overlap with previous members")
			}
			offset = packOffset
		}

		if offsets != nil {
			*offsets = append(*offsets, offset)
		}
		if a > maxAlignment {
			maxAlignment = a
		}
		offset += s
	}

	if rule == RuleScalar {
		return maxAlignment, offset
	}
	if rule.roundsTo16() {
		maxAlignment = roundToPow2(maxAlignment, vec4Alignment)
	}
	if !rule.skipsTrailingPad() {
		offset = roundToPow2(offset, maxAlignment)
	}
	return maxAlignment, offset
}

// alignRelaxed advances offset for a member under the relaxed placement
// rules: vectors whose element alignment is at most 4 bytes are placed
// at element alignment, bumped back to vec4 alignment when the
// placement would straddle a 16-byte boundary.
func (c *Calculator) alignRelaxed(t sem.Type, size, alignment uint32, offset *uint32) {
	vec, isVec := t.(sem.Vector)
	if isVec {
		if scalarAlignment := uint32(vec.Elem.Width); scalarAlignment <= 4 {
			alignment = scalarAlignment
		}
	}

	*offset = roundToPow2(*offset, alignment)

	if isVec && improperStraddle(size, *offset) {
		*offset = roundToPow2(*offset, vec4Alignment)
	}
}

func (c *Calculator) unsupported(loc sem.Span, format string, args ...any) {
	c.sink.Fatal(diag.KindUnsupportedType, diag.Span(loc), format, args...)
}
