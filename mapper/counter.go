// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package mapper

import (
	"go.uber.org/zap"

	"github.com/gogpu/hlsl2spv/diag"
	"github.com/gogpu/hlsl2spv/sem"
	"github.com/gogpu/hlsl2spv/spirv"
)

// CounterRef associates an append/consume-capable buffer with the
// variable holding its atomic counter.
//
// A concrete buffer owns a counter variable directly. A local alias
// (a variable that may be re-pointed at different buffers) instead
// carries a rebindable reference that Assign re-points at whatever
// counter the source currently designates.
type CounterRef struct {
	varID uint32
	alias bool

	// target is the currently bound counter variable for aliases.
	target uint32
}

// VarID returns the ID of the variable the reference itself owns: the
// counter for concrete buffers, the pointer slot for aliases.
func (c *CounterRef) VarID() uint32 {
	return c.varID
}

// IsAlias reports whether the reference is rebindable.
func (c *CounterRef) IsAlias() bool {
	return c.alias
}

// Counter returns the counter variable the reference currently
// designates. An alias that was never assigned returns 0.
func (c *CounterRef) Counter() uint32 {
	if c.alias {
		return c.target
	}
	return c.varID
}

// Assign re-points an alias reference at the counter src designates.
// Assigning to a concrete (non-alias) reference is an internal error.
func (c *CounterRef) Assign(src *CounterRef, sink *diag.Sink, loc sem.Span) bool {
	if !c.alias {
		sink.Fatal(diag.KindInternal, diag.Span(loc),
			"counter assignment targets a concrete buffer")
		return false
	}
	c.target = src.Counter()
	return true
}

// counterField is one counter association inside an aggregate,
// addressed by the member index path from the declaration's type down
// to the buffer field.
type counterField struct {
	path []uint32
	ref  *CounterRef
}

// CounterVarFields holds the per-field counter associations of a
// declaration whose type contains append/consume-capable buffers inside
// aggregates.
type CounterVarFields struct {
	fields []counterField
}

// Get returns the association at the given index path, or nil.
func (f *CounterVarFields) Get(path []uint32) *CounterRef {
	for _, field := range f.fields {
		if pathsEqual(field.path, path) {
			return field.ref
		}
	}
	return nil
}

// Assign re-points every alias association in f at the counter the
// source association with the identical index path designates. A path
// present here but missing in src means the two declarations are not
// structurally isomorphic; that reports StructShapeMismatch and fails
// the whole assignment.
func (f *CounterVarFields) Assign(src *CounterVarFields, sink *diag.Sink, loc sem.Span) bool {
	for _, field := range f.fields {
		srcRef := src.Get(field.path)
		if srcRef == nil {
			sink.Error(diag.KindStructShapeMismatch, diag.Span(loc),
				"buffer counter assignment between structs of different shapes")
			return false
		}
		if field.ref.alias {
			field.ref.target = srcRef.Counter()
		}
	}
	return true
}

func pathsEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// counterTypeID lazily creates the aggregate type shared by all counter
// variables: a BufferBlock struct holding one int at offset 0.
func (m *Mapper) counterType() uint32 {
	if m.counterTypeID != 0 {
		return m.counterTypeID
	}
	intID := m.builder.GetTypeInt(32, true)
	id := m.builder.AddTypeStruct(intID)
	m.builder.AddMemberDecorate(id, 0, spirv.DecorationOffset, 0)
	m.builder.AddDecorate(id, spirv.DecorationBufferBlock)
	if m.opts.Debug {
		m.builder.AddName(id, "type.ACSBuffer.counter")
	}
	m.counterTypeID = id
	return id
}

// newCounterRef creates the variable backing one counter association.
// Concrete buffers get a Uniform counter variable that participates in
// binding assignment; aliases get a Private pointer slot that holds a
// pointer to whichever counter they are currently bound to.
func (m *Mapper) newCounterRef(name string, alias bool) *CounterRef {
	ctID := m.counterType()
	ptrUniform := m.builder.GetTypePointer(spirv.StorageClassUniform, ctID)

	var varID uint32
	if alias {
		ptrPrivate := m.builder.GetTypePointer(spirv.StorageClassPrivate, ptrUniform)
		varID = m.builder.AddVariable(ptrPrivate, spirv.StorageClassPrivate)
	} else {
		varID = m.builder.AddVariable(ptrUniform, spirv.StorageClassUniform)
		m.resourceVars = append(m.resourceVars, resourceVar{varID: varID, counter: true})
	}
	if m.opts.Debug {
		m.builder.AddName(varID, "counter.var."+name)
	}
	return &CounterRef{varID: varID, alias: alias}
}

// createCounterVars walks a registered declaration's type and creates
// the counter associations it needs: one whole-declaration counter when
// the type itself is an append/consume-capable buffer, and one
// association per index path to such a buffer nested inside aggregates.
func (m *Mapper) createCounterVars(id sem.DeclID, decl *sem.Decl, alias bool) {
	if sem.IsRWAppendConsumeBuffer(decl.Type) {
		m.counterVars[id] = m.newCounterRef(decl.Name, alias)
		return
	}
	if !sem.ContainsRWAppendConsumeBuffer(decl.Type) {
		return
	}

	fields := &CounterVarFields{}
	m.collectFieldCounters(decl.Name, decl.Type, alias, nil, fields)
	m.fieldCounterVars[id] = fields

	diag.Logger().Debug("created field counters",
		zap.String("decl", decl.Name),
		zap.Int("fields", len(fields.fields)),
	)
}

func (m *Mapper) collectFieldCounters(name string, t sem.Type, alias bool, path []uint32, fields *CounterVarFields) {
	st, ok := t.(sem.Struct)
	if !ok {
		return
	}

	members := st.Members
	base := uint32(0)
	if st.Base != nil {
		m.collectFieldCounters(name, *st.Base, alias, append(append([]uint32{}, path...), 0), fields)
		base = 1
	}
	for i, member := range members {
		memberPath := append(append([]uint32{}, path...), base+uint32(i))
		if sem.IsRWAppendConsumeBuffer(member.Type) {
			fields.fields = append(fields.fields, counterField{
				path: memberPath,
				ref:  m.newCounterRef(name+"."+member.Name, alias),
			})
			continue
		}
		m.collectFieldCounters(name+"."+member.Name, member.Type, alias, memberPath, fields)
	}
}

// Counter returns the counter reference for a registered declaration.
// An empty path addresses a declaration whose type is itself a buffer;
// a non-empty path addresses a buffer field nested inside aggregates.
// Returns nil when no counter exists at that path.
func (m *Mapper) Counter(id sem.DeclID, path []uint32) *CounterRef {
	if len(path) == 0 {
		return m.counterVars[id]
	}
	if fields, ok := m.fieldCounterVars[id]; ok {
		return fields.Get(path)
	}
	return nil
}

// AssignCounters re-points dst's alias counter associations at the
// counters src currently designates, for an assignment between two
// whole declarations. Shape mismatches between the two declarations'
// associations report StructShapeMismatch.
func (m *Mapper) AssignCounters(dst, src sem.DeclID, loc sem.Span) bool {
	if dstRef, ok := m.counterVars[dst]; ok {
		srcRef, ok := m.counterVars[src]
		if !ok {
			m.sink.Error(diag.KindStructShapeMismatch, diag.Span(loc),
				"buffer counter assignment from a declaration with no counter")
			return false
		}
		return dstRef.Assign(srcRef, m.sink, loc)
	}

	if dstFields, ok := m.fieldCounterVars[dst]; ok {
		srcFields, ok := m.fieldCounterVars[src]
		if !ok {
			m.sink.Error(diag.KindStructShapeMismatch, diag.Span(loc),
				"buffer counter assignment from a declaration with no counters")
			return false
		}
		return dstFields.Assign(srcFields, m.sink, loc)
	}
	return true
}
