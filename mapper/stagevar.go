// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package mapper

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/gogpu/hlsl2spv/diag"
	"github.com/gogpu/hlsl2spv/layout"
	"github.com/gogpu/hlsl2spv/sem"
	"github.com/gogpu/hlsl2spv/spirv"
)

// Direction distinguishes the two halves of a stage interface.
type Direction uint8

const (
	DirectionInput Direction = iota
	DirectionOutput
)

// String returns the direction name.
func (d Direction) String() string {
	if d == DirectionInput {
		return "input"
	}
	return "output"
}

func (d Direction) storageClass() spirv.StorageClass {
	if d == DirectionInput {
		return spirv.StorageClassInput
	}
	return spirv.StorageClassOutput
}

// StageVar is one flattened leaf of a stage interface declaration.
type StageVar struct {
	Name      string
	Semantic  sem.Semantic
	Direction Direction
	Type      sem.Type

	// TypeID and VarID are the target IDs created at flattening time.
	TypeID uint32
	VarID  uint32

	// LocationCount is how many consecutive interface locations the
	// variable occupies.
	LocationCount uint32

	// ExplicitLocation and ExplicitIndex are carried from the
	// declaration's annotations; nil means assign automatically.
	ExplicitLocation *uint32
	ExplicitIndex    *uint32

	// BuiltIn is set for system-value semantics; builtin variables take
	// no location.
	BuiltIn *spirv.BuiltIn

	// Location is the assigned location, valid after finalization for
	// non-builtin variables.
	Location uint32

	loc sem.Span
}

// LocationCount returns how many consecutive interface locations t
// occupies.
//
// Scalars and vectors take one location, except vectors of three or
// more 8-byte components, which spill into two. A matrix takes one
// stored vector's worth per stored vector, so its count depends on the
// resolved orientation; major carries the enclosing declaration or
// member annotation. Structs never reach here: the assignor flattens
// them into leaves first.
func (m *Mapper) LocationCount(t sem.Type, major sem.Majorness) uint32 {
	return m.locationCount(t, major, sem.Span{})
}

func (m *Mapper) locationCount(t sem.Type, major sem.Majorness, loc sem.Span) uint32 {
	switch tt := t.(type) {
	case sem.Scalar:
		return 1

	case sem.Vector:
		if tt.Elem.Width == 8 && tt.Count >= 3 {
			return 2
		}
		return 1

	case sem.Matrix:
		rowVec := sem.Vector{Elem: tt.Elem, Count: tt.Cols}
		colVec := sem.Vector{Elem: tt.Elem, Count: tt.Rows}
		if m.calc.RowMajor(tt, major) {
			return uint32(tt.Rows) * m.locationCount(rowVec, major, loc)
		}
		return uint32(tt.Cols) * m.locationCount(colVec, major, loc)

	case sem.Array:
		if tt.Unbounded {
			m.sink.Error(diag.KindUnsupportedType, diag.Span(loc),
				"runtime-sized arrays cannot appear on a stage interface")
			return 0
		}
		return tt.Count * m.locationCount(tt.Elem, major, loc)

	case sem.Struct:
		m.sink.Fatal(diag.KindInternal, diag.Span(loc),
			"location count queried for unflattened struct %q", tt.Name)
		return 0

	default:
		m.sink.Error(diag.KindUnsupportedType, diag.Span(loc),
			"type %s cannot appear on a stage interface", sem.Key(t))
		return 0
	}
}

// semanticBuiltIn maps a system-value semantic to its builtin tag for
// the given direction. Ordinary semantics return (0, false).
func semanticBuiltIn(name string, dir Direction) (spirv.BuiltIn, bool) {
	switch name {
	case "SV_POSITION", "SV_Position":
		if dir == DirectionOutput {
			return spirv.BuiltInPosition, true
		}
		return spirv.BuiltInFragCoord, true
	case "SV_VERTEXID", "SV_VertexID":
		return spirv.BuiltInVertexIndex, true
	case "SV_INSTANCEID", "SV_InstanceID":
		return spirv.BuiltInInstanceIndex, true
	case "SV_DEPTH", "SV_Depth":
		return spirv.BuiltInFragDepth, true
	case "SV_ISFRONTFACE", "SV_IsFrontFace":
		return spirv.BuiltInFrontFacing, true
	case "SV_SAMPLEINDEX", "SV_SampleIndex":
		return spirv.BuiltInSampleID, true
	}
	return 0, false
}

// AssignStageVariables flattens a registered declaration into stage
// variables for the given direction, creating an interface variable per
// leaf. Struct members inherit the declaration's semantic when one was
// given, with the semantic index incrementing per leaf. Claiming a
// semantic already claimed for the same direction reports
// DuplicateSemantic.
//
// Locations are not assigned here; call FinalizeStageLocations once all
// interface declarations have been processed.
func (m *Mapper) AssignStageVariables(id sem.DeclID, dir Direction) bool {
	decl := m.decl(id)
	if decl == nil {
		return false
	}

	var nextIndex uint32
	if decl.Semantic != nil {
		nextIndex = decl.Semantic.Index
	}
	ok := m.createStageVars(decl, decl.Type, dir, decl.Semantic, &nextIndex, decl.Name, decl.Major)
	diag.Logger().Debug("assigned stage variables",
		zap.String("decl", decl.Name),
		zap.Stringer("direction", dir),
		zap.Bool("ok", ok),
	)
	return ok
}

// createStageVars flattens t into stage variables. inherit, when
// non-nil, is a semantic set on an enclosing aggregate or the
// declaration itself; it overrides member semantics, and nextIndex
// numbers its leaves sequentially from its index. major carries the
// innermost orientation annotation seen so far.
func (m *Mapper) createStageVars(decl *sem.Decl, t sem.Type, dir Direction, inherit *sem.Semantic, nextIndex *uint32, name string, major sem.Majorness) bool {
	if st, ok := t.(sem.Struct); ok {
		success := true
		for _, member := range st.Members {
			memberName := name + "." + member.Name
			memberMajor := major
			if member.Major != sem.MajorDefault {
				memberMajor = member.Major
			}
			var memberOK bool
			switch {
			case inherit != nil:
				memberOK = m.createStageVars(decl, member.Type, dir, inherit, nextIndex, memberName, memberMajor)
			case member.Semantic != nil:
				memberIndex := member.Semantic.Index
				memberOK = m.createStageVars(decl, member.Type, dir, member.Semantic, &memberIndex, memberName, memberMajor)
			default:
				memberOK = m.createStageVars(decl, member.Type, dir, nil, nextIndex, memberName, memberMajor)
			}
			if !memberOK {
				success = false
			}
		}
		return success
	}

	// An array whose elements are aggregates has no per-element semantic
	// to flatten under.
	if isArrayOfAggregates(t) {
		m.sink.Error(diag.KindUnsupportedType, diag.Span(decl.Loc),
			"array of aggregates %q cannot appear on a stage interface", name)
		return false
	}

	if inherit == nil {
		m.sink.Fatal(diag.KindInternal, diag.Span(decl.Loc),
			"stage interface leaf %q reached without a semantic", name)
		return false
	}
	semantic := &sem.Semantic{Name: inherit.Name, Index: *nextIndex}
	*nextIndex++

	key := semanticKey{name: semantic.Name, index: semantic.Index, dir: dir}
	if m.seenSemantics[key] {
		m.sink.Error(diag.KindDuplicateSemantic, diag.Span(decl.Loc),
			"semantic %s%d already claimed for %s", semantic.Name, semantic.Index, dir)
		return false
	}
	m.seenSemantics[key] = true

	sv := &StageVar{
		Name:             name,
		Semantic:         *semantic,
		Direction:        dir,
		Type:             t,
		ExplicitLocation: decl.Location,
		ExplicitIndex:    decl.Index,
		loc:              decl.Loc,
	}

	if builtin, ok := semanticBuiltIn(semantic.Name, dir); ok {
		sv.BuiltIn = &builtin
	} else {
		sv.LocationCount = m.locationCount(t, major, decl.Loc)
	}

	sv.TypeID = m.translator.TranslateAt(t, layout.RuleNone, decl.Loc)
	ptrID := m.builder.GetTypePointer(dir.storageClass(), sv.TypeID)
	sv.VarID = m.builder.AddVariable(ptrID, dir.storageClass())

	if m.opts.Debug {
		m.builder.AddName(sv.VarID, "var."+dir.String()+"."+name)
	}
	if sv.BuiltIn != nil {
		m.builder.AddDecorate(sv.VarID, spirv.DecorationBuiltIn, uint32(*sv.BuiltIn))
	}

	m.stageVars = append(m.stageVars, sv)
	return true
}

// FinalizeStageLocations assigns interface locations per direction.
//
// Variables with an explicit location annotation are honored first;
// colliding explicit locations report DuplicateSemantic. The remaining
// variables then take the lowest unused locations in declaration order,
// each reserving as many consecutive slots as its type occupies.
func (m *Mapper) FinalizeStageLocations() bool {
	ok := m.finalizeDirection(DirectionInput)
	if !m.finalizeDirection(DirectionOutput) {
		ok = false
	}
	return ok
}

func (m *Mapper) finalizeDirection(dir Direction) bool {
	used := map[uint32]bool{}
	success := true

	for _, sv := range m.stageVars {
		if sv.Direction != dir || sv.BuiltIn != nil || sv.ExplicitLocation == nil {
			continue
		}
		start := *sv.ExplicitLocation
		for i := uint32(0); i < sv.LocationCount; i++ {
			if used[start+i] {
				m.sink.Error(diag.KindDuplicateSemantic, diag.Span(sv.loc),
					"stage %s location %d claimed twice", dir, start+i)
				success = false
			}
			used[start+i] = true
		}
		m.decorateLocation(sv, start)
	}

	for _, sv := range m.stageVars {
		if sv.Direction != dir || sv.BuiltIn != nil || sv.ExplicitLocation != nil {
			continue
		}
		start := lowestFreeRun(used, sv.LocationCount)
		for i := uint32(0); i < sv.LocationCount; i++ {
			used[start+i] = true
		}
		m.decorateLocation(sv, start)
	}
	return success
}

func (m *Mapper) decorateLocation(sv *StageVar, location uint32) {
	sv.Location = location
	m.builder.AddDecorate(sv.VarID, spirv.DecorationLocation, location)
	if sv.ExplicitIndex != nil {
		m.builder.AddDecorate(sv.VarID, spirv.DecorationIndex, *sv.ExplicitIndex)
	}
	diag.Logger().Debug("assigned location",
		zap.String("var", sv.Name),
		zap.String("semantic", sv.Semantic.Name+strconv.Itoa(int(sv.Semantic.Index))),
		zap.Uint32("location", location),
	)
}

// isArrayOfAggregates reports whether t is an array (of arrays) of
// structs.
func isArrayOfAggregates(t sem.Type) bool {
	arr, ok := t.(sem.Array)
	if !ok {
		return false
	}
	elem := arr.Elem
	for {
		inner, ok := elem.(sem.Array)
		if !ok {
			break
		}
		elem = inner.Elem
	}
	_, isStruct := elem.(sem.Struct)
	return isStruct
}

// lowestFreeRun finds the smallest start such that count consecutive
// locations from it are unused.
func lowestFreeRun(used map[uint32]bool, count uint32) uint32 {
	if count == 0 {
		count = 1
	}
	for start := uint32(0); ; start++ {
		free := true
		for i := uint32(0); i < count; i++ {
			if used[start+i] {
				free = false
				break
			}
		}
		if free {
			return start
		}
	}
}
