// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl2spv

import (
	"encoding/binary"
	"testing"

	"github.com/gogpu/hlsl2spv/mapper"
	"github.com/gogpu/hlsl2spv/sem"
	"github.com/gogpu/hlsl2spv/spirv"
)

func TestTranslateUnit(t *testing.T) {
	tr := New(DefaultOptions())

	f32 := sem.Scalar{Kind: sem.KindFloat, Width: 4}
	float4 := sem.Vector{Elem: f32, Count: 4}

	tr.RegisterConstantBuffer(sem.Decl{
		Name: "globals",
		Type: sem.Struct{
			Name: "Globals",
			Members: []sem.Member{
				{Name: "mvp", Type: sem.Matrix{Elem: f32, Rows: 4, Cols: 4}},
				{Name: "tint", Type: float4},
			},
		},
	}, false)
	tr.RegisterExternVar(sem.Decl{
		Name: "albedo",
		Type: sem.Resource{Kind: sem.Texture2D, Elem: float4},
	})
	tr.RegisterExternVar(sem.Decl{
		Name: "samp",
		Type: sem.Resource{Kind: sem.Sampler},
	})
	tr.RegisterExternVar(sem.Decl{
		Name: "particles",
		Type: sem.Resource{Kind: sem.RWStructuredBuffer, Elem: float4},
	})

	in := tr.RegisterLocalVar(sem.Decl{
		Name:     "uv",
		Type:     sem.Vector{Elem: f32, Count: 2},
		Semantic: &sem.Semantic{Name: "TEXCOORD"},
	})
	out := tr.RegisterLocalVar(sem.Decl{
		Name:     "pos",
		Type:     float4,
		Semantic: &sem.Semantic{Name: "SV_Position"},
	})
	tr.AssignStageVariables(in, mapper.DirectionInput)
	tr.AssignStageVariables(out, mapper.DirectionOutput)

	bin, err := tr.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v (diagnostics: %v)", err, tr.Diagnostics())
	}
	if len(bin) < 20 || len(bin)%4 != 0 {
		t.Fatalf("binary length %d is not a plausible module", len(bin))
	}
	if got := binary.LittleEndian.Uint32(bin); got != spirv.MagicNumber {
		t.Errorf("magic = %#x, want %#x", got, uint32(spirv.MagicNumber))
	}
}

func TestFinishReportsErrors(t *testing.T) {
	tr := New(DefaultOptions())
	f32 := sem.Scalar{Kind: sem.KindFloat, Width: 4}

	a := tr.RegisterLocalVar(sem.Decl{Name: "a", Type: f32, Semantic: &sem.Semantic{Name: "COLOR"}})
	b := tr.RegisterLocalVar(sem.Decl{Name: "b", Type: f32, Semantic: &sem.Semantic{Name: "COLOR"}})
	tr.AssignStageVariables(a, mapper.DirectionInput)
	tr.AssignStageVariables(b, mapper.DirectionInput)

	bin, err := tr.Finish()
	if err == nil {
		t.Fatal("duplicate semantic did not surface from Finish")
	}
	if len(bin) == 0 {
		t.Error("partial binary not returned alongside the error")
	}
	if len(tr.Diagnostics()) == 0 {
		t.Error("no diagnostics recorded")
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.SPIRVVersion != spirv.Version1_0 {
		t.Errorf("default version = %v, want 1.0", opts.SPIRVVersion)
	}
	if opts.DefaultRowMajor {
		t.Error("matrices should default to column-major storage")
	}
}
