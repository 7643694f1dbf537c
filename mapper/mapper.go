// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package mapper

import (
	"go.uber.org/zap"

	"github.com/gogpu/hlsl2spv/diag"
	"github.com/gogpu/hlsl2spv/layout"
	"github.com/gogpu/hlsl2spv/sem"
	"github.com/gogpu/hlsl2spv/spirv"
)

// semanticKey identifies a claimed interface semantic.
type semanticKey struct {
	name  string
	index uint32
	dir   Direction
}

// resourceVar is a created module variable that needs a descriptor set
// and binding number.
type resourceVar struct {
	varID   uint32
	binding *sem.Binding
	counter bool
	loc     sem.Span

	// assigned is the final set/binding, valid after
	// DecorateResourceBindings.
	assigned sem.Binding
}

// declEntry is the registration record for one declaration.
type declEntry struct {
	decl   sem.Decl
	typeID uint32
	varID  uint32
}

// Mapper assigns target artifacts to declarations: lowered types,
// module variables, interface locations, descriptor bindings, and
// buffer counter associations.
//
// Registration is at-most-once per declaration; every artifact a
// declaration owns is created the first time it is registered and
// looked up from the side tables afterwards.
type Mapper struct {
	sink       *diag.Sink
	builder    *spirv.ModuleBuilder
	calc       *layout.Calculator
	translator *Translator
	opts       Options

	decls []declEntry

	stageVars     []*StageVar
	seenSemantics map[semanticKey]bool

	resourceVars []resourceVar

	counterVars      map[sem.DeclID]*CounterRef
	fieldCounterVars map[sem.DeclID]*CounterVarFields
	counterTypeID    uint32
}

// New creates a declaration mapper emitting through builder and
// reporting through sink.
func New(sink *diag.Sink, builder *spirv.ModuleBuilder, opts Options) *Mapper {
	calc := layout.NewCalculator(sink, layout.Options{DefaultRowMajor: opts.DefaultRowMajor})
	return &Mapper{
		sink:             sink,
		builder:          builder,
		calc:             calc,
		translator:       NewTranslator(sink, builder, calc, opts),
		opts:             opts,
		seenSemantics:    make(map[semanticKey]bool),
		counterVars:      make(map[sem.DeclID]*CounterRef),
		fieldCounterVars: make(map[sem.DeclID]*CounterVarFields),
	}
}

// Translator exposes the type translator for callers lowering types
// outside a declaration.
func (m *Mapper) Translator() *Translator {
	return m.translator
}

func (m *Mapper) decl(id sem.DeclID) *sem.Decl {
	if int(id) >= len(m.decls) {
		m.sink.Fatal(diag.KindInternal, diag.Span{}, "unregistered declaration %d", id)
		return nil
	}
	return &m.decls[id].decl
}

// TypeID returns the lowered type of a registered declaration.
func (m *Mapper) TypeID(id sem.DeclID) uint32 {
	if int(id) >= len(m.decls) {
		return 0
	}
	return m.decls[id].typeID
}

// VarID returns the module variable of a registered declaration, or 0
// for declarations that own none (locals).
func (m *Mapper) VarID(id sem.DeclID) uint32 {
	if int(id) >= len(m.decls) {
		return 0
	}
	return m.decls[id].varID
}

func (m *Mapper) register(decl sem.Decl, typeID, varID uint32) sem.DeclID {
	id := sem.DeclID(len(m.decls))
	m.decls = append(m.decls, declEntry{decl: decl, typeID: typeID, varID: varID})
	diag.Logger().Debug("registered declaration",
		zap.String("name", decl.Name),
		zap.Uint32("id", uint32(id)),
		zap.Uint32("type", typeID),
		zap.Uint32("var", varID),
	)
	return id
}

// RegisterExternVar registers a module-scope resource declaration,
// creating its module variable, counter associations, and binding
// record.
//
// The layout rule and storage class follow the declaration's shape:
// samplers, textures, and typed buffers have no byte layout and live in
// UniformConstant storage; structured and byte-address buffers are laid
// out under the structured buffer rule in Uniform storage; anything
// else is laid out under the constant buffer rule in Uniform storage.
func (m *Mapper) RegisterExternVar(decl sem.Decl) sem.DeclID {
	m.translator.pushMajorHint(decl.Major)
	defer m.translator.popMajorHint()

	var typeID uint32
	var storage spirv.StorageClass
	switch {
	case sem.IsStructuredOrByteBuffer(decl.Type):
		typeID = m.translator.TranslateAt(decl.Type, m.opts.StructuredBufferRule, decl.Loc)
		storage = spirv.StorageClassUniform
	case sem.IsOpaque(decl.Type) || sem.IsOpaqueArray(decl.Type) || sem.IsOpaqueStruct(decl.Type):
		// Opaque-carrying aggregates have no byte layout of their own and
		// skip layout decorations entirely.
		typeID = m.translator.TranslateAt(decl.Type, layout.RuleNone, decl.Loc)
		storage = spirv.StorageClassUniformConstant
	default:
		typeID = m.translator.TranslateAt(decl.Type, m.opts.ConstantBufferRule, decl.Loc)
		storage = spirv.StorageClassUniform
	}

	ptrID := m.builder.GetTypePointer(storage, typeID)
	varID := m.builder.AddVariable(ptrID, storage)
	if m.opts.Debug && decl.Name != "" {
		m.builder.AddName(varID, decl.Name)
	}
	m.resourceVars = append(m.resourceVars, resourceVar{
		varID:   varID,
		binding: decl.Binding,
		loc:     decl.Loc,
	})

	id := m.register(decl, typeID, varID)
	m.createCounterVars(id, &decl, false)
	return id
}

// RegisterLocalVar registers a function-scope declaration. Locals are
// lowered without a layout rule, which turns buffer types into alias
// pointers; their counter associations are rebindable. No module
// variable is created: function-scope storage belongs to the code
// generator, which only needs the lowered type and the counter
// associations tracked here.
func (m *Mapper) RegisterLocalVar(decl sem.Decl) sem.DeclID {
	m.translator.pushMajorHint(decl.Major)
	typeID := m.translator.TranslateAt(decl.Type, layout.RuleNone, decl.Loc)
	m.translator.popMajorHint()

	id := m.register(decl, typeID, 0)
	m.createCounterVars(id, &decl, true)
	return id
}

// RegisterConstantBuffer registers a cbuffer or tbuffer block. The
// block's struct type is laid out under the constant buffer rule and
// decorated Block (cbuffer) or BufferBlock plus NonWritable (tbuffer).
func (m *Mapper) RegisterConstantBuffer(decl sem.Decl, textureBuffer bool) sem.DeclID {
	st, ok := decl.Type.(sem.Struct)
	if !ok {
		m.sink.Fatal(diag.KindInternal, diag.Span(decl.Loc),
			"constant buffer %q registered with non-struct type", decl.Name)
		return m.register(decl, 0, 0)
	}

	m.translator.pushMajorHint(decl.Major)
	typeID := m.translator.TranslateBlock(st, m.opts.ConstantBufferRule, textureBuffer, decl.Loc)
	m.translator.popMajorHint()

	if textureBuffer {
		for i := 0; i < effectiveMemberCount(st); i++ {
			m.builder.AddMemberDecorate(typeID, uint32(i), spirv.DecorationNonWritable)
		}
	}

	ptrID := m.builder.GetTypePointer(spirv.StorageClassUniform, typeID)
	varID := m.builder.AddVariable(ptrID, spirv.StorageClassUniform)
	if m.opts.Debug && decl.Name != "" {
		m.builder.AddName(varID, decl.Name)
	}
	m.resourceVars = append(m.resourceVars, resourceVar{
		varID:   varID,
		binding: decl.Binding,
		loc:     decl.Loc,
	})
	return m.register(decl, typeID, varID)
}

// RegisterPushConstant registers a push constant block: laid out under
// the push constant rule, decorated Block, PushConstant storage, no
// descriptor binding.
func (m *Mapper) RegisterPushConstant(decl sem.Decl) sem.DeclID {
	st, ok := decl.Type.(sem.Struct)
	if !ok {
		m.sink.Fatal(diag.KindInternal, diag.Span(decl.Loc),
			"push constant %q registered with non-struct type", decl.Name)
		return m.register(decl, 0, 0)
	}

	m.translator.pushMajorHint(decl.Major)
	typeID := m.translator.TranslateBlock(st, m.opts.PushConstantRule, false, decl.Loc)
	m.translator.popMajorHint()

	ptrID := m.builder.GetTypePointer(spirv.StorageClassPushConstant, typeID)
	varID := m.builder.AddVariable(ptrID, spirv.StorageClassPushConstant)
	if m.opts.Debug && decl.Name != "" {
		m.builder.AddName(varID, decl.Name)
	}
	return m.register(decl, typeID, varID)
}

func effectiveMemberCount(st sem.Struct) int {
	n := len(st.Members)
	if st.Base != nil {
		n++
	}
	return n
}

// DecorateResourceBindings assigns descriptor set and binding numbers
// to every resource variable created so far.
//
// Explicit annotations are honored first; a set/binding pair claimed
// twice reports DuplicateSemantic. The remaining variables, counter
// variables included, then take the lowest unused binding in their set
// (set 0 when unannotated) in registration order.
func (m *Mapper) DecorateResourceBindings() bool {
	used := map[sem.Binding]bool{}
	success := true

	for i := range m.resourceVars {
		rv := &m.resourceVars[i]
		if rv.binding == nil {
			continue
		}
		b := *rv.binding
		if used[b] {
			m.sink.Error(diag.KindDuplicateSemantic, diag.Span(rv.loc),
				"binding %d in descriptor set %d claimed twice", b.Binding, b.Set)
			success = false
		}
		used[b] = true
		rv.assigned = b
		m.builder.AddDecorate(rv.varID, spirv.DecorationDescriptorSet, b.Set)
		m.builder.AddDecorate(rv.varID, spirv.DecorationBinding, b.Binding)
	}

	for i := range m.resourceVars {
		rv := &m.resourceVars[i]
		if rv.binding != nil {
			continue
		}
		b := sem.Binding{Set: 0, Binding: 0}
		for used[b] {
			b.Binding++
		}
		used[b] = true
		rv.assigned = b
		m.builder.AddDecorate(rv.varID, spirv.DecorationDescriptorSet, b.Set)
		m.builder.AddDecorate(rv.varID, spirv.DecorationBinding, b.Binding)
	}
	return success
}
