// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package mapper

import (
	"testing"

	"github.com/gogpu/hlsl2spv/diag"
	"github.com/gogpu/hlsl2spv/sem"
)

func TestBindingAssignment(t *testing.T) {
	m, sink := newTestMapper(t)

	m.RegisterExternVar(sem.Decl{
		Name:    "tex",
		Type:    sem.Resource{Kind: sem.Texture2D, Elem: vec(f32, 4)},
		Binding: &sem.Binding{Set: 0, Binding: 2},
	})
	m.RegisterExternVar(sem.Decl{
		Name: "samp",
		Type: sem.Resource{Kind: sem.Sampler},
	})
	m.RegisterExternVar(sem.Decl{
		Name: "buf",
		Type: sem.Resource{Kind: sem.Buffer, Elem: f32},
	})

	if !m.DecorateResourceBindings() {
		t.Fatalf("binding assignment failed: %v", sink.Diagnostics())
	}

	want := []sem.Binding{
		{Set: 0, Binding: 2}, // explicit
		{Set: 0, Binding: 0}, // lowest free
		{Set: 0, Binding: 1},
	}
	if len(m.resourceVars) != len(want) {
		t.Fatalf("got %d resource variables, want %d", len(m.resourceVars), len(want))
	}
	for i, rv := range m.resourceVars {
		if rv.assigned != want[i] {
			t.Errorf("resource %d assigned %v, want %v", i, rv.assigned, want[i])
		}
	}
}

func TestDuplicateBindingRejected(t *testing.T) {
	m, sink := newTestMapper(t)

	b := sem.Binding{Set: 1, Binding: 3}
	m.RegisterExternVar(sem.Decl{Name: "a", Type: sem.Resource{Kind: sem.Sampler}, Binding: &b})
	m.RegisterExternVar(sem.Decl{Name: "b", Type: sem.Resource{Kind: sem.Sampler}, Binding: &b})

	if m.DecorateResourceBindings() {
		t.Fatal("duplicate explicit binding accepted")
	}
	if len(sink.Diagnostics()) != 1 || sink.Diagnostics()[0].Kind != diag.KindDuplicateSemantic {
		t.Fatalf("got diagnostics %v, want one DuplicateSemantic", sink.Diagnostics())
	}
}

func TestCounterVariableGetsBinding(t *testing.T) {
	m, sink := newTestMapper(t)

	m.RegisterExternVar(sem.Decl{
		Name: "acs",
		Type: sem.Resource{Kind: sem.AppendStructuredBuffer, Elem: vec(f32, 4)},
	})
	if !m.DecorateResourceBindings() {
		t.Fatalf("binding assignment failed: %v", sink.Diagnostics())
	}

	// The buffer variable plus its counter variable.
	if len(m.resourceVars) != 2 {
		t.Fatalf("got %d resource variables, want 2", len(m.resourceVars))
	}
	if !m.resourceVars[1].counter {
		t.Error("second resource variable should be the counter")
	}
	if m.resourceVars[0].assigned == m.resourceVars[1].assigned {
		t.Error("buffer and counter share a binding")
	}
}

func TestRegisterConstantBuffer(t *testing.T) {
	m, sink := newTestMapper(t)

	st := sem.Struct{
		Name: "Globals",
		Members: []sem.Member{
			{Name: "mvp", Type: sem.Matrix{Elem: f32, Rows: 4, Cols: 4}},
			{Name: "tint", Type: vec(f32, 4)},
		},
	}
	id := m.RegisterConstantBuffer(sem.Decl{Name: "globals", Type: st}, false)
	if m.TypeID(id) == 0 || m.VarID(id) == 0 {
		t.Errorf("cbuffer got type %d var %d, want nonzero", m.TypeID(id), m.VarID(id))
	}
	if sink.HasErrors() {
		t.Errorf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	if len(m.resourceVars) != 1 {
		t.Errorf("cbuffer registered %d resource variables, want 1", len(m.resourceVars))
	}
}

func TestRegisterConstantBufferRejectsNonStruct(t *testing.T) {
	m, sink := newTestMapper(t)

	m.RegisterConstantBuffer(sem.Decl{Name: "bad", Type: f32}, false)
	if !sink.HasFatal() {
		t.Fatal("non-struct cbuffer accepted")
	}
	if sink.Diagnostics()[0].Kind != diag.KindInternal {
		t.Errorf("diagnostic kind = %s, want Internal", sink.Diagnostics()[0].Kind)
	}
}

func TestRegisterPushConstant(t *testing.T) {
	m, sink := newTestMapper(t)

	st := sem.Struct{
		Name:    "Push",
		Members: []sem.Member{{Name: "offset", Type: vec(f32, 2)}},
	}
	id := m.RegisterPushConstant(sem.Decl{Name: "push", Type: st})
	if m.TypeID(id) == 0 || m.VarID(id) == 0 {
		t.Errorf("push constant got type %d var %d, want nonzero", m.TypeID(id), m.VarID(id))
	}
	if sink.HasErrors() {
		t.Errorf("unexpected diagnostics: %v", sink.Diagnostics())
	}

	// Push constants take no descriptor binding.
	if len(m.resourceVars) != 0 {
		t.Errorf("push constant registered %d resource variables, want 0", len(m.resourceVars))
	}
}

func TestRegisteredDeclLookupIsStable(t *testing.T) {
	m, _ := newTestMapper(t)

	id := m.RegisterExternVar(sem.Decl{Name: "tex", Type: sem.Resource{Kind: sem.Texture2D, Elem: vec(f32, 4)}})
	typeID, varID := m.TypeID(id), m.VarID(id)
	for i := 0; i < 3; i++ {
		if m.TypeID(id) != typeID || m.VarID(id) != varID {
			t.Fatal("registered declaration lookup drifted across queries")
		}
	}
}
