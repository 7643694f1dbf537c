// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"testing"

	"github.com/gogpu/hlsl2spv/diag"
	"github.com/gogpu/hlsl2spv/sem"
)

var (
	f32 = sem.Scalar{Kind: sem.KindFloat, Width: 4}
	f64 = sem.Scalar{Kind: sem.KindFloat, Width: 8}
	i32 = sem.Scalar{Kind: sem.KindSint, Width: 4}
)

func vec(elem sem.Scalar, n uint8) sem.Vector {
	return sem.Vector{Elem: elem, Count: n}
}

func newCalc(t *testing.T) (*Calculator, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink()
	return NewCalculator(sink, Options{}), sink
}

func TestStd140StructPlacement(t *testing.T) {
	c, sink := newCalc(t)
	st := sem.Struct{
		Name: "S",
		Members: []sem.Member{
			{Name: "a", Type: f32},
			{Name: "b", Type: vec(f32, 3)},
		},
	}

	alignment, size, _ := c.AlignmentAndSize(st, RuleStd140)
	if alignment != 16 || size != 32 {
		t.Errorf("Std140 struct: got alignment=%d size=%d, want 16, 32", alignment, size)
	}

	offsets := c.MemberOffsets(st, RuleStd140)
	want := []uint32{0, 16}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("Std140 offset[%d] = %d, want %d", i, offsets[i], want[i])
		}
	}
	if sink.HasErrors() {
		t.Errorf("unexpected diagnostics: %v", sink.Diagnostics())
	}
}

func TestRelaxedStd140TightPlacement(t *testing.T) {
	c, _ := newCalc(t)
	st := sem.Struct{
		Members: []sem.Member{
			{Name: "a", Type: f32},
			{Name: "b", Type: vec(f32, 3)},
		},
	}

	offsets := c.MemberOffsets(st, RuleRelaxedStd140)
	if offsets[1] != 4 {
		t.Errorf("relaxed offset of b = %d, want 4", offsets[1])
	}
	_, size, _ := c.AlignmentAndSize(st, RuleRelaxedStd140)
	if size != 16 {
		t.Errorf("relaxed struct size = %d, want 16", size)
	}
}

func TestRelaxedPlacementStraddle(t *testing.T) {
	// A float2 at offset 12 would cross the 16-byte boundary, so relaxed
	// placement bumps it to 16.
	c, _ := newCalc(t)
	st := sem.Struct{
		Members: []sem.Member{
			{Name: "a", Type: f32},
			{Name: "b", Type: f32},
			{Name: "c", Type: f32},
			{Name: "d", Type: vec(f32, 2)},
		},
	}

	offsets := c.MemberOffsets(st, RuleRelaxedStd430)
	want := []uint32{0, 4, 8, 16}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset[%d] = %d, want %d", i, offsets[i], want[i])
		}
	}
}

func TestVectorAlignment(t *testing.T) {
	c, _ := newCalc(t)
	cases := []struct {
		name      string
		ty        sem.Type
		rule      Rule
		alignment uint32
		size      uint32
	}{
		{"float3 std140", vec(f32, 3), RuleStd140, 16, 12},
		{"float3 std430", vec(f32, 3), RuleStd430, 16, 12},
		{"float2 std430", vec(f32, 2), RuleStd430, 8, 8},
		{"double3 std140", vec(f64, 3), RuleStd140, 32, 24},
		{"float3 fxc sbuffer", vec(f32, 3), RuleFxcSBuffer, 4, 12},
		{"float3 scalar", vec(f32, 3), RuleScalar, 4, 12},
	}
	for _, tc := range cases {
		alignment, size, _ := c.AlignmentAndSize(tc.ty, tc.rule)
		if alignment != tc.alignment || size != tc.size {
			t.Errorf("%s: got alignment=%d size=%d, want %d, %d",
				tc.name, alignment, size, tc.alignment, tc.size)
		}
	}
}

func TestArrayLayout(t *testing.T) {
	c, _ := newCalc(t)
	arr := sem.Array{Elem: f32, Count: 3}

	cases := []struct {
		name      string
		rule      Rule
		alignment uint32
		size      uint32
		stride    uint32
	}{
		{"std140", RuleStd140, 16, 48, 16},
		{"std430", RuleStd430, 4, 12, 4},
		{"fxc ctbuffer", RuleFxcCTBuffer, 16, 36, 16},
		{"fxc sbuffer", RuleFxcSBuffer, 4, 12, 4},
		{"scalar", RuleScalar, 4, 12, 4},
	}
	for _, tc := range cases {
		alignment, size, stride := c.AlignmentAndSize(arr, tc.rule)
		if alignment != tc.alignment || size != tc.size || stride != tc.stride {
			t.Errorf("%s: got alignment=%d size=%d stride=%d, want %d, %d, %d",
				tc.name, alignment, size, stride, tc.alignment, tc.size, tc.stride)
		}
	}
}

func TestMatrixLayout(t *testing.T) {
	c, _ := newCalc(t)

	// Column-major float3x4: 4 stored vectors of 3 components.
	m := sem.Matrix{Elem: f32, Rows: 3, Cols: 4}
	alignment, size, stride := c.AlignmentAndSize(m, RuleStd140)
	if alignment != 16 || size != 64 || stride != 16 {
		t.Errorf("col-major float3x4 std140: got %d/%d/%d, want 16/64/16", alignment, size, stride)
	}

	// Row-major float3x4: 3 stored vectors of 4 components.
	rm := sem.Matrix{Elem: f32, Rows: 3, Cols: 4, Major: sem.RowMajor}
	alignment, size, stride = c.AlignmentAndSize(rm, RuleStd140)
	if alignment != 16 || size != 48 || stride != 16 {
		t.Errorf("row-major float3x4 std140: got %d/%d/%d, want 16/48/16", alignment, size, stride)
	}

	// Std430 does not round the vector alignment up to 16.
	m22 := sem.Matrix{Elem: f32, Rows: 2, Cols: 2}
	alignment, size, stride = c.AlignmentAndSize(m22, RuleStd430)
	if alignment != 8 || size != 16 || stride != 8 {
		t.Errorf("float2x2 std430: got %d/%d/%d, want 8/16/8", alignment, size, stride)
	}

	// Element-aligned rules pack the vectors tightly.
	alignment, size, stride = c.AlignmentAndSize(m, RuleFxcSBuffer)
	if alignment != 4 || size != 48 || stride != 12 {
		t.Errorf("float3x4 fxc sbuffer: got %d/%d/%d, want 4/48/12", alignment, size, stride)
	}
}

func TestPackOffsetOverlap(t *testing.T) {
	c, sink := newCalc(t)
	st := sem.Struct{
		Members: []sem.Member{
			{Name: "a", Type: vec(f32, 4)},
			{Name: "b", Type: f32, PackOffset: &sem.PackOffset{Subcomponent: 0, ComponentOffset: 1}},
		},
	}

	offsets := c.MemberOffsets(st, RuleFxcCTBuffer)
	if len(sink.Diagnostics()) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(sink.Diagnostics()))
	}
	if d := sink.Diagnostics()[0]; d.Kind != diag.KindLayoutOverlap {
		t.Errorf("diagnostic kind = %s, want LayoutOverlap", d.Kind)
	}

	// The explicit value is still honored for placement.
	if offsets[1] != 4 {
		t.Errorf("overlapping member placed at %d, want 4", offsets[1])
	}

	// Size computation must not report the overlap again.
	c.AlignmentAndSize(st, RuleFxcCTBuffer)
	if len(sink.Diagnostics()) != 1 {
		t.Errorf("size computation re-reported the overlap: %d diagnostics", len(sink.Diagnostics()))
	}
}

func TestExplicitOffsetOverride(t *testing.T) {
	c, sink := newCalc(t)
	off := uint32(32)
	st := sem.Struct{
		Members: []sem.Member{
			{Name: "a", Type: f32},
			{Name: "b", Type: f32, Offset: &off},
		},
	}

	offsets := c.MemberOffsets(st, RuleStd430)
	if offsets[1] != 32 {
		t.Errorf("explicit offset member placed at %d, want 32", offsets[1])
	}
	if sink.HasErrors() {
		t.Errorf("unexpected diagnostics: %v", sink.Diagnostics())
	}
}

func TestEmptyStruct(t *testing.T) {
	c, _ := newCalc(t)
	alignment, size, _ := c.AlignmentAndSize(sem.Struct{Name: "Empty"}, RuleStd140)
	if alignment != 1 || size != 0 {
		t.Errorf("empty struct: got alignment=%d size=%d, want 1, 0", alignment, size)
	}
}

func TestFxcCTBufferSkipsTrailingPad(t *testing.T) {
	c, _ := newCalc(t)
	st := sem.Struct{
		Members: []sem.Member{
			{Name: "a", Type: vec(f32, 4)},
			{Name: "b", Type: f32},
		},
	}

	alignment, size, _ := c.AlignmentAndSize(st, RuleFxcCTBuffer)
	if alignment != 16 || size != 20 {
		t.Errorf("fxc ctbuffer struct: got alignment=%d size=%d, want 16, 20", alignment, size)
	}

	alignment, size, _ = c.AlignmentAndSize(st, RuleStd140)
	if alignment != 16 || size != 32 {
		t.Errorf("std140 struct: got alignment=%d size=%d, want 16, 32", alignment, size)
	}
}

func TestScalarRulePacking(t *testing.T) {
	c, _ := newCalc(t)
	st := sem.Struct{
		Members: []sem.Member{
			{Name: "a", Type: f32},
			{Name: "b", Type: f64},
		},
	}

	alignment, size, _ := c.AlignmentAndSize(st, RuleScalar)
	if alignment != 8 || size != 16 {
		t.Errorf("scalar rule struct: got alignment=%d size=%d, want 8, 16", alignment, size)
	}
}

func TestBaseStructLeadingMember(t *testing.T) {
	c, _ := newCalc(t)
	base := sem.Struct{
		Name:    "Base",
		Members: []sem.Member{{Name: "x", Type: vec(f32, 4)}},
	}
	st := sem.Struct{
		Name:    "Derived",
		Base:    &base,
		Members: []sem.Member{{Name: "y", Type: f32}},
	}

	offsets := c.MemberOffsets(st, RuleStd430)
	want := []uint32{0, 16}
	if len(offsets) != len(want) {
		t.Fatalf("got %d offsets, want %d", len(offsets), len(want))
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset[%d] = %d, want %d", i, offsets[i], want[i])
		}
	}
}

func TestUnboundedArrayUnsupported(t *testing.T) {
	c, sink := newCalc(t)
	alignment, size, stride := c.AlignmentAndSize(sem.Array{Elem: f32, Unbounded: true}, RuleStd430)
	if alignment != 0 || size != 0 || stride != 0 {
		t.Errorf("unbounded array: got %d/%d/%d, want zeros", alignment, size, stride)
	}
	if !sink.HasFatal() {
		t.Fatal("expected a fatal diagnostic")
	}
	if d := sink.Diagnostics()[0]; d.Kind != diag.KindUnsupportedType {
		t.Errorf("diagnostic kind = %s, want UnsupportedType", d.Kind)
	}
}

func TestAlignmentIsPowerOfTwo(t *testing.T) {
	c, _ := newCalc(t)
	types := []sem.Type{
		f32, f64, i32,
		vec(f32, 2), vec(f32, 3), vec(f32, 4), vec(f64, 3),
		sem.Matrix{Elem: f32, Rows: 3, Cols: 4},
		sem.Array{Elem: vec(f32, 3), Count: 5},
		sem.Struct{Members: []sem.Member{{Name: "a", Type: f32}, {Name: "b", Type: vec(f32, 3)}}},
	}
	rules := []Rule{RuleStd140, RuleStd430, RuleRelaxedStd140, RuleRelaxedStd430, RuleFxcCTBuffer, RuleFxcSBuffer, RuleScalar}

	for _, ty := range types {
		for _, rule := range rules {
			alignment, size, _ := c.AlignmentAndSize(ty, rule)
			if alignment == 0 || alignment&(alignment-1) != 0 {
				t.Errorf("%s under %s: alignment %d is not a power of two", sem.Key(ty), rule, alignment)
			}

			// Aggregates are trailing-padded to their own alignment under
			// std140; vectors are not (a double3 is 24 bytes at alignment
			// 32).
			switch ty.(type) {
			case sem.Struct, sem.Array:
				if rule == RuleStd140 && size%alignment != 0 {
					t.Errorf("%s under %s: size %d not a multiple of alignment %d", sem.Key(ty), rule, size, alignment)
				}
			}
		}
	}
}

func TestDeclarationMajornessHint(t *testing.T) {
	c, _ := newCalc(t)
	m := sem.Matrix{Elem: f32, Rows: 3, Cols: 4}

	if c.RowMajor(m, sem.MajorDefault) {
		t.Error("unannotated matrix should default to column-major")
	}
	if !c.RowMajor(m, sem.RowMajor) {
		t.Error("declaration hint should make the matrix row-major")
	}
	annotated := sem.Matrix{Elem: f32, Rows: 3, Cols: 4, Major: sem.ColMajor}
	if c.RowMajor(annotated, sem.RowMajor) {
		t.Error("the type's own annotation should win over the declaration hint")
	}
}
