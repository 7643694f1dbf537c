// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package hlsl2spv lowers HLSL declaration types to SPIR-V: memory
// layout under the competing packing rules, opaque resource shapes,
// stage interface locations, descriptor bindings, and the counter
// variables append/consume buffers need.
//
// The package operates on the semantic type model in package sem; a
// front end constructs declarations and feeds them through a Translator:
//
//	t := hlsl2spv.New(hlsl2spv.DefaultOptions())
//	id := t.RegisterExternVar(decl)
//	...
//	binary, err := t.Finish()
package hlsl2spv

import (
	"fmt"

	"github.com/gogpu/hlsl2spv/diag"
	"github.com/gogpu/hlsl2spv/layout"
	"github.com/gogpu/hlsl2spv/mapper"
	"github.com/gogpu/hlsl2spv/sem"
	"github.com/gogpu/hlsl2spv/spirv"
)

// Options configures translation.
type Options struct {
	// SPIRVVersion is the target SPIR-V version.
	SPIRVVersion spirv.Version

	// DefaultRowMajor selects matrix orientation for unannotated
	// matrices.
	DefaultRowMajor bool

	// ConstantBufferRule lays out cbuffer and tbuffer blocks.
	ConstantBufferRule layout.Rule

	// StructuredBufferRule lays out structured buffer elements.
	StructuredBufferRule layout.Rule

	// PushConstantRule lays out push constant blocks.
	PushConstantRule layout.Rule

	// Debug emits debug names for types, members, and variables.
	Debug bool
}

// DefaultOptions returns the default translation options.
func DefaultOptions() Options {
	m := mapper.DefaultOptions()
	return Options{
		SPIRVVersion:         spirv.Version1_0,
		DefaultRowMajor:      m.DefaultRowMajor,
		ConstantBufferRule:   m.ConstantBufferRule,
		StructuredBufferRule: m.StructuredBufferRule,
		PushConstantRule:     m.PushConstantRule,
		Debug:                m.Debug,
	}
}

// Translator drives declaration lowering for one translation unit.
type Translator struct {
	sink    *diag.Sink
	builder *spirv.ModuleBuilder
	mapper  *mapper.Mapper
}

// New creates a translator for one translation unit.
func New(opts Options) *Translator {
	sink := diag.NewSink()
	builder := spirv.NewModuleBuilder(opts.SPIRVVersion)
	builder.RequireCapability(spirv.CapabilityShader)
	builder.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	return &Translator{
		sink:    sink,
		builder: builder,
		mapper: mapper.New(sink, builder, mapper.Options{
			DefaultRowMajor:      opts.DefaultRowMajor,
			ConstantBufferRule:   opts.ConstantBufferRule,
			StructuredBufferRule: opts.StructuredBufferRule,
			PushConstantRule:     opts.PushConstantRule,
			Debug:                opts.Debug,
		}),
	}
}

// Mapper exposes the declaration mapper for callers that need direct
// access to lowered types, counters, or locations.
func (t *Translator) Mapper() *mapper.Mapper {
	return t.mapper
}

// RegisterExternVar registers a module-scope resource declaration.
func (t *Translator) RegisterExternVar(decl sem.Decl) sem.DeclID {
	return t.mapper.RegisterExternVar(decl)
}

// RegisterLocalVar registers a function-scope declaration.
func (t *Translator) RegisterLocalVar(decl sem.Decl) sem.DeclID {
	return t.mapper.RegisterLocalVar(decl)
}

// RegisterConstantBuffer registers a cbuffer (textureBuffer false) or
// tbuffer (textureBuffer true) block.
func (t *Translator) RegisterConstantBuffer(decl sem.Decl, textureBuffer bool) sem.DeclID {
	return t.mapper.RegisterConstantBuffer(decl, textureBuffer)
}

// RegisterPushConstant registers a push constant block.
func (t *Translator) RegisterPushConstant(decl sem.Decl) sem.DeclID {
	return t.mapper.RegisterPushConstant(decl)
}

// AssignStageVariables flattens a registered declaration onto the stage
// interface for the given direction.
func (t *Translator) AssignStageVariables(id sem.DeclID, dir mapper.Direction) bool {
	return t.mapper.AssignStageVariables(id, dir)
}

// Diagnostics returns all diagnostics reported so far.
func (t *Translator) Diagnostics() []diag.Diagnostic {
	return t.sink.Diagnostics()
}

// Finish assigns interface locations and descriptor bindings, then
// serializes the module. It returns an error when any error or fatal
// diagnostic was reported; the partial binary is still returned so
// tooling can inspect it.
func (t *Translator) Finish() ([]byte, error) {
	t.mapper.FinalizeStageLocations()
	t.mapper.DecorateResourceBindings()

	binary := t.builder.Build()
	if t.sink.HasErrors() {
		return binary, fmt.Errorf("translation failed: %s", firstError(t.sink.Diagnostics()))
	}
	return binary, nil
}

func firstError(diags []diag.Diagnostic) string {
	for _, d := range diags {
		if d.Severity == diag.SeverityFatal || d.Severity == diag.SeverityError {
			return d.String()
		}
	}
	return "unknown error"
}
