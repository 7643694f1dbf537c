// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package mapper translates the semantic type model into target types,
// decorations, stage interface variables, resource bindings, and
// counter associations.
//
// It is the declaration-processing core of the backend: a declaration's
// type is classified, laid out under the rule its storage demands,
// lowered to a target type ID, and — depending on its shape — flattened
// into stage variables or tracked for counter aliasing.
package mapper

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/gogpu/hlsl2spv/diag"
	"github.com/gogpu/hlsl2spv/layout"
	"github.com/gogpu/hlsl2spv/sem"
	"github.com/gogpu/hlsl2spv/spirv"
)

// Options configures declaration mapping.
type Options struct {
	// DefaultRowMajor selects matrix orientation for unannotated
	// matrices.
	DefaultRowMajor bool

	// ConstantBufferRule is the layout rule for cbuffer-style blocks.
	ConstantBufferRule layout.Rule

	// StructuredBufferRule is the layout rule for structured buffer
	// elements.
	StructuredBufferRule layout.Rule

	// PushConstantRule is the layout rule for push constant blocks.
	PushConstantRule layout.Rule

	// Debug emits debug names for types, members, and variables.
	Debug bool
}

// DefaultOptions returns the default mapping options.
func DefaultOptions() Options {
	return Options{
		DefaultRowMajor:      false,
		ConstantBufferRule:   layout.RuleRelaxedStd140,
		StructuredBufferRule: layout.RuleRelaxedStd430,
		PushConstantRule:     layout.RuleStd430,
		Debug:                false,
	}
}

// Translator walks semantic types and emits target binary types plus
// the structural decorations a serializer needs.
//
// Results are memoized by (structural type key, rule, majorness hint),
// so repeated translation of the same declaration returns identical
// target IDs.
type Translator struct {
	sink    *diag.Sink
	builder *spirv.ModuleBuilder
	calc    *layout.Calculator
	opts    Options

	typeIDs map[string]uint32

	// majorHints is the explicit matrix-orientation context, pushed for
	// the duration of a single annotated translate call and popped
	// before it returns.
	majorHints []sem.Majorness
}

// NewTranslator creates a type translator emitting through builder and
// reporting through sink.
func NewTranslator(sink *diag.Sink, builder *spirv.ModuleBuilder, calc *layout.Calculator, opts Options) *Translator {
	return &Translator{
		sink:    sink,
		builder: builder,
		calc:    calc,
		opts:    opts,
		typeIDs: make(map[string]uint32, 16),
	}
}

// pushMajorHint records an explicit orientation annotation for the
// duration of a translate call.
func (tr *Translator) pushMajorHint(m sem.Majorness) {
	tr.majorHints = append(tr.majorHints, m)
}

func (tr *Translator) popMajorHint() {
	tr.majorHints = tr.majorHints[:len(tr.majorHints)-1]
}

func (tr *Translator) majorHint() sem.Majorness {
	for i := len(tr.majorHints) - 1; i >= 0; i-- {
		if tr.majorHints[i] != sem.MajorDefault {
			return tr.majorHints[i]
		}
	}
	return sem.MajorDefault
}

// cacheKey builds the memoization key for a type under a rule and the
// current orientation context.
func (tr *Translator) cacheKey(t sem.Type, rule layout.Rule) string {
	return sem.Key(t) + "|" + rule.String() + "|" + strconv.Itoa(int(tr.majorHint()))
}

// Translate lowers t to a target type ID under the given layout rule.
// Unsupported shapes report a fatal UnsupportedType diagnostic and
// return the zero sentinel ID so the surrounding pass can continue.
func (tr *Translator) Translate(t sem.Type, rule layout.Rule) uint32 {
	return tr.TranslateAt(t, rule, sem.Span{})
}

// TranslateAt is Translate with a source location for diagnostics.
func (tr *Translator) TranslateAt(t sem.Type, rule layout.Rule, loc sem.Span) uint32 {
	key := tr.cacheKey(t, rule)
	if id, ok := tr.typeIDs[key]; ok {
		return id
	}

	id := tr.translate(t, rule, loc)
	tr.typeIDs[key] = id

	diag.Logger().Debug("translated type",
		zap.String("type", sem.Key(t)),
		zap.Stringer("rule", rule),
		zap.Uint32("id", id),
	)
	return id
}

func (tr *Translator) translate(t sem.Type, rule layout.Rule, loc sem.Span) uint32 {
	switch tt := t.(type) {
	case sem.Scalar:
		return tr.translateScalar(tt, rule, loc)

	case sem.Vector:
		elemID := tr.TranslateAt(tt.Elem, rule, loc)
		return tr.builder.GetTypeVector(elemID, uint32(tt.Count))

	case sem.Matrix:
		return tr.translateMatrix(tt, rule, loc)

	case sem.Array:
		return tr.translateArray(tt, rule, loc)

	case sem.Struct:
		return tr.translateStruct(tt, rule, loc, 0)

	case sem.Resource:
		return tr.translateResource(tt, rule, loc)

	default:
		tr.sink.Fatal(diag.KindUnsupportedType, diag.Span(loc), "type %T unimplemented", t)
		return 0
	}
}

func (tr *Translator) translateScalar(s sem.Scalar, rule layout.Rule, loc sem.Span) uint32 {
	bits := uint32(s.Width) * 8
	switch s.Kind {
	case sem.KindBool:
		// There is no physical size or bit pattern defined for booleans,
		// so an unsigned integer stands in whenever layout is required.
		if rule == layout.RuleNone {
			return tr.builder.GetTypeBool()
		}
		return tr.builder.GetTypeInt(32, false)
	case sem.KindFloat:
		return tr.builder.GetTypeFloat(bits)
	case sem.KindSint:
		return tr.builder.GetTypeInt(bits, true)
	case sem.KindUint:
		return tr.builder.GetTypeInt(bits, false)
	default:
		tr.sink.Fatal(diag.KindUnsupportedType, diag.Span(loc), "scalar kind %d unimplemented", s.Kind)
		return 0
	}
}

// translateMatrix lowers a matrix. HLSL matrices are semantically
// row-major while the target's are column-major, so an HLSL row maps to
// a target column: the type is built as Rows columns of Cols-component
// vectors. Non-float matrices have no native matrix type and lower to
// an array of vectors carrying an ArrayStride decoration instead.
func (tr *Translator) translateMatrix(m sem.Matrix, rule layout.Rule, loc sem.Span) uint32 {
	elemID := tr.TranslateAt(m.Elem, rule, loc)
	vecID := tr.builder.GetTypeVector(elemID, uint32(m.Cols))

	if m.Elem.Kind == sem.KindFloat {
		return tr.builder.GetTypeMatrix(vecID, uint32(m.Rows))
	}

	lenID := tr.builder.GetConstantUint32(uint32(m.Rows))
	id := tr.builder.AddTypeArray(vecID, lenID)
	if rule != layout.RuleNone {
		_, _, stride := tr.calc.AlignmentAndSize(m, rule)
		tr.builder.AddDecorate(id, spirv.DecorationArrayStride, stride)
	}
	return id
}

func (tr *Translator) translateArray(a sem.Array, rule layout.Rule, loc sem.Span) uint32 {
	elemID := tr.TranslateAt(a.Elem, rule, loc)

	var id uint32
	if a.Unbounded {
		id = tr.builder.AddTypeRuntimeArray(elemID)
	} else {
		lenID := tr.builder.GetConstantUint32(a.Count)
		id = tr.builder.AddTypeArray(elemID, lenID)
	}

	// Structured and byte-address buffer elements contain runtime
	// arrays, for which no stride exists.
	if rule != layout.RuleNone && !a.Unbounded && !sem.IsStructuredOrByteBuffer(a.Elem) {
		_, _, stride := tr.calc.AlignmentAndSize(a, rule)
		tr.builder.AddDecorate(id, spirv.DecorationArrayStride, stride)
	}
	return id
}

// translateStruct lowers an aggregate, translating members post-order
// and attaching the layout decorations when the rule demands a concrete
// layout. blockKind, when nonzero, additionally decorates the aggregate
// as a Block or BufferBlock; block aggregates bypass the memo cache
// because the block decoration must not leak onto structurally equal
// plain structs.
func (tr *Translator) translateStruct(st sem.Struct, rule layout.Rule, loc sem.Span, blockKind spirv.Decoration) uint32 {
	members := make([]sem.Member, 0, len(st.Members)+1)
	if st.Base != nil {
		members = append(members, sem.Member{Type: *st.Base})
	}
	members = append(members, st.Members...)

	memberIDs := make([]uint32, len(members))
	for i, m := range members {
		tr.pushMajorHint(m.Major)
		memberIDs[i] = tr.TranslateAt(m.Type, rule, m.Loc)
		tr.popMajorHint()
	}

	id := tr.builder.AddTypeStruct(memberIDs...)

	if rule != layout.RuleNone {
		tr.decorateStructLayout(id, st, members, rule)
	}
	if blockKind != 0 {
		tr.builder.AddDecorate(id, blockKind)
	}
	if tr.opts.Debug {
		if st.Name != "" {
			tr.builder.AddName(id, st.Name)
		}
		for i, m := range members {
			if m.Name != "" {
				tr.builder.AddMemberName(id, uint32(i), m.Name)
			}
		}
	}
	return id
}

// decorateStructLayout emits the Offset decoration every member needs,
// plus MatrixStride and the orientation decoration for float matrix
// members (an array of matrices is decorated on the field holding it).
func (tr *Translator) decorateStructLayout(id uint32, st sem.Struct, members []sem.Member, rule layout.Rule) {
	offsets := tr.calc.MemberOffsets(st, rule)

	for i, m := range members {
		tr.builder.AddMemberDecorate(id, uint32(i), spirv.DecorationOffset, offsets[i])

		fieldType := m.Type
		if arr, ok := fieldType.(sem.Array); ok && !arr.Unbounded {
			fieldType = arr.Elem
		}

		mat, ok := fieldType.(sem.Matrix)
		if !ok || mat.Elem.Kind != sem.KindFloat {
			// Non-float matrices are arrays of vectors; orientation
			// decorations do not apply to them.
			continue
		}

		tr.pushMajorHint(m.Major)
		_, _, stride := tr.calc.AlignmentAndSize(mat, rule)
		tr.builder.AddMemberDecorate(id, uint32(i), spirv.DecorationMatrixStride, stride)

		// HLSL matrices are conceptually row-major while the target's
		// are column-major, so the orientation decorations swap.
		if tr.calc.RowMajor(mat, tr.majorHint()) {
			tr.builder.AddMemberDecorate(id, uint32(i), spirv.DecorationColMajor)
		} else {
			tr.builder.AddMemberDecorate(id, uint32(i), spirv.DecorationRowMajor)
		}
		tr.popMajorHint()
	}
}

// TranslateBlock lowers a struct as a standalone interface block
// (cbuffer, tbuffer, or push constant). The aggregate is always built
// fresh with the Block or BufferBlock decoration attached.
func (tr *Translator) TranslateBlock(st sem.Struct, rule layout.Rule, bufferBlock bool, loc sem.Span) uint32 {
	blockKind := spirv.DecorationBlock
	if bufferBlock {
		blockKind = spirv.DecorationBufferBlock
	}
	return tr.translateStruct(st, rule, loc, blockKind)
}
