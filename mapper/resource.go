// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package mapper

import (
	"github.com/gogpu/hlsl2spv/diag"
	"github.com/gogpu/hlsl2spv/layout"
	"github.com/gogpu/hlsl2spv/sem"
	"github.com/gogpu/hlsl2spv/spirv"
)

// imageShape is the dimensionality and arrayedness an image type is
// built with.
type imageShape struct {
	dim     spirv.Dim
	arrayed bool
}

var textureShapes = map[sem.ResourceKind]imageShape{
	sem.Texture1D:        {spirv.Dim1D, false},
	sem.Texture1DArray:   {spirv.Dim1D, true},
	sem.Texture2D:        {spirv.Dim2D, false},
	sem.Texture2DArray:   {spirv.Dim2D, true},
	sem.Texture2DMS:      {spirv.Dim2D, false},
	sem.Texture2DMSArray: {spirv.Dim2D, true},
	sem.Texture3D:        {spirv.Dim3D, false},
	sem.TextureCube:      {spirv.DimCube, false},
	sem.TextureCubeArray: {spirv.DimCube, true},
	sem.RWTexture1D:      {spirv.Dim1D, false},
	sem.RWTexture1DArray: {spirv.Dim1D, true},
	sem.RWTexture2D:      {spirv.Dim2D, false},
	sem.RWTexture2DArray: {spirv.Dim2D, true},
	sem.RWTexture3D:      {spirv.Dim3D, false},
}

// Image type operand values. Depth is always reported as unknown;
// comparison usage is a property of the sampler, not the image type.
const (
	imageDepthUnknown = 2
	imageSampled      = 1
	imageStorage      = 2
)

// translateResource lowers an opaque resource to its target shape.
//
// Sampled textures and samplers become image/sampler types directly.
// Structured and byte-address buffers wrap a runtime array in a
// BufferBlock aggregate carrying the element stride; when translated
// without a concrete layout rule the declaration is a local alias and
// the result is a pointer to that aggregate instead.
func (tr *Translator) translateResource(res sem.Resource, rule layout.Rule, loc sem.Span) uint32 {
	kind := res.Kind
	switch {
	case kind.IsSampler():
		return tr.builder.GetTypeSampler()

	case kind.IsTexture():
		return tr.translateTexture(res, loc)

	case kind.IsRWTexture():
		return tr.translateRWTexture(res, loc)

	case kind == sem.Buffer || kind == sem.RWBuffer:
		return tr.translateTypedBuffer(res, loc)

	case kind.IsStructured():
		return tr.translateStructuredBuffer(res, rule, loc)

	case kind.IsByteAddress():
		return tr.translateByteAddressBuffer(res, rule, loc)

	case kind.IsSubpassInput():
		return tr.translateSubpassInput(res, loc)

	default:
		tr.sink.Fatal(diag.KindUnsupportedType, diag.Span(loc),
			"resource kind %s unimplemented", kind)
		return 0
	}
}

func (tr *Translator) translateTexture(res sem.Resource, loc sem.Span) uint32 {
	shape := textureShapes[res.Kind]
	elem, _, ok := tr.resourceElemScalar(res, loc)
	if !ok {
		return 0
	}
	sampledID := tr.TranslateAt(elem, layout.RuleNone, loc)
	return tr.builder.GetTypeImage(sampledID, shape.dim, imageDepthUnknown,
		shape.arrayed, res.Kind.IsMultisampled(), imageSampled, spirv.ImageFormatUnknown)
}

func (tr *Translator) translateRWTexture(res sem.Resource, loc sem.Span) uint32 {
	shape := textureShapes[res.Kind]
	elem, count, ok := tr.resourceElemScalar(res, loc)
	if !ok {
		return 0
	}
	format, ok := tr.imageFormat(elem, count, res.Kind, loc)
	if !ok {
		return 0
	}
	sampledID := tr.TranslateAt(elem, layout.RuleNone, loc)
	return tr.builder.GetTypeImage(sampledID, shape.dim, imageDepthUnknown,
		shape.arrayed, false, imageStorage, format)
}

// translateTypedBuffer lowers Buffer and RWBuffer, which are texel
// buffers in the target model.
func (tr *Translator) translateTypedBuffer(res sem.Resource, loc sem.Span) uint32 {
	if _, isStruct := res.Elem.(sem.Struct); isStruct && res.Kind == sem.RWBuffer {
		tr.sink.Error(diag.KindUnsupportedResourceElement, diag.Span(loc),
			"cannot instantiate RWBuffer with a struct element")
		return 0
	}
	tr.builder.RequireCapability(spirv.CapabilitySampledBuffer)

	elem, count, ok := tr.resourceElemScalar(res, loc)
	if !ok {
		return 0
	}
	sampled := uint32(imageSampled)
	format := spirv.ImageFormatUnknown
	if res.Kind == sem.RWBuffer {
		sampled = imageStorage
		format, ok = tr.imageFormat(elem, count, res.Kind, loc)
		if !ok {
			return 0
		}
	}
	sampledID := tr.TranslateAt(elem, layout.RuleNone, loc)
	return tr.builder.GetTypeImage(sampledID, spirv.DimBuffer, imageDepthUnknown,
		false, false, sampled, format)
}

// translateStructuredBuffer lowers the four structured buffer kinds: a
// runtime array of the element type wrapped in a BufferBlock aggregate.
// Under RuleNone the declaration is a local alias; the element is laid
// out under the structured buffer rule and the result is a Uniform
// pointer to the aggregate.
func (tr *Translator) translateStructuredBuffer(res sem.Resource, rule layout.Rule, loc sem.Span) uint32 {
	asAlias := rule == layout.RuleNone
	if asAlias {
		rule = tr.opts.StructuredBufferRule
	}

	elemID := tr.TranslateAt(res.Elem, rule, loc)
	_, size, _ := tr.calc.AlignmentAndSize(res.Elem, rule)

	raID := tr.builder.AddTypeRuntimeArray(elemID)
	tr.builder.AddDecorate(raID, spirv.DecorationArrayStride, size)

	id := tr.builder.AddTypeStruct(raID)
	tr.builder.AddMemberDecorate(id, 0, spirv.DecorationOffset, 0)

	// An element that is itself a matrix carries its orientation
	// decoration on the aggregate field holding the runtime array.
	if mat, ok := res.Elem.(sem.Matrix); ok && mat.Elem.Kind == sem.KindFloat {
		_, _, stride := tr.calc.AlignmentAndSize(mat, rule)
		tr.builder.AddMemberDecorate(id, 0, spirv.DecorationMatrixStride, stride)
		if tr.calc.RowMajor(mat, tr.majorHint()) {
			tr.builder.AddMemberDecorate(id, 0, spirv.DecorationColMajor)
		} else {
			tr.builder.AddMemberDecorate(id, 0, spirv.DecorationRowMajor)
		}
	}

	if res.Kind == sem.StructuredBuffer {
		tr.builder.AddMemberDecorate(id, 0, spirv.DecorationNonWritable)
	}
	tr.builder.AddDecorate(id, spirv.DecorationBufferBlock)

	if tr.opts.Debug {
		tr.builder.AddName(id, "type."+res.Kind.String())
	}

	if asAlias {
		return tr.builder.GetTypePointer(spirv.StorageClassUniform, id)
	}
	return id
}

// translateByteAddressBuffer lowers byte-address buffers: a runtime
// array of 32-bit words with stride 4 wrapped in a BufferBlock
// aggregate.
func (tr *Translator) translateByteAddressBuffer(res sem.Resource, rule layout.Rule, loc sem.Span) uint32 {
	uintID := tr.builder.GetTypeInt(32, false)
	raID := tr.builder.AddTypeRuntimeArray(uintID)
	tr.builder.AddDecorate(raID, spirv.DecorationArrayStride, 4)

	id := tr.builder.AddTypeStruct(raID)
	tr.builder.AddMemberDecorate(id, 0, spirv.DecorationOffset, 0)
	if res.Kind == sem.ByteAddressBuffer {
		tr.builder.AddMemberDecorate(id, 0, spirv.DecorationNonWritable)
	}
	tr.builder.AddDecorate(id, spirv.DecorationBufferBlock)

	if tr.opts.Debug {
		tr.builder.AddName(id, "type."+res.Kind.String())
	}

	if rule == layout.RuleNone {
		return tr.builder.GetTypePointer(spirv.StorageClassUniform, id)
	}
	return id
}

func (tr *Translator) translateSubpassInput(res sem.Resource, loc sem.Span) uint32 {
	tr.builder.RequireCapability(spirv.CapabilityInputAttachment)
	elem, _, ok := tr.resourceElemScalar(res, loc)
	if !ok {
		return 0
	}
	sampledID := tr.TranslateAt(elem, layout.RuleNone, loc)
	return tr.builder.GetTypeImage(sampledID, spirv.DimSubpassData, imageDepthUnknown,
		false, res.Kind.IsMultisampled(), imageStorage, spirv.ImageFormatUnknown)
}

// resourceElemScalar resolves the scalar element type and total
// component count a resource is parameterized over. A struct element is
// accepted when it collapses to at most four components of one scalar
// type, mirroring how fxc packs such elements into one register.
func (tr *Translator) resourceElemScalar(res sem.Resource, loc sem.Span) (sem.Scalar, uint32, bool) {
	switch elem := res.Elem.(type) {
	case sem.Scalar:
		return elem, 1, true
	case sem.Vector:
		return elem.Elem, uint32(elem.Count), true
	case sem.Struct:
		return tr.fitIntoOneRegister(elem, res.Kind, loc)
	case nil:
		tr.sink.Fatal(diag.KindInternal, diag.Span(loc),
			"resource %s registered without an element type", res.Kind)
		return sem.Scalar{}, 0, false
	default:
		tr.sink.Error(diag.KindUnsupportedResourceElement, diag.Span(loc),
			"cannot instantiate %s with element type %s", res.Kind, sem.Key(res.Elem))
		return sem.Scalar{}, 0, false
	}
}

// fitIntoOneRegister checks whether a struct element collapses into a
// single register: all members must share one scalar type and together
// span at most four components.
func (tr *Translator) fitIntoOneRegister(st sem.Struct, kind sem.ResourceKind, loc sem.Span) (sem.Scalar, uint32, bool) {
	var elem sem.Scalar
	var total uint32

	for i, m := range st.Members {
		var s sem.Scalar
		var n uint32
		switch mt := m.Type.(type) {
		case sem.Scalar:
			s, n = mt, 1
		case sem.Vector:
			s, n = mt.Elem, uint32(mt.Count)
		default:
			tr.sink.Error(diag.KindUnsupportedResourceElement, diag.Span(m.Loc),
				"cannot instantiate %s with struct containing non-scalar member %q", kind, m.Name)
			return sem.Scalar{}, 0, false
		}
		if i == 0 {
			elem = s
		} else if s != elem {
			tr.sink.Error(diag.KindUnsupportedResourceElement, diag.Span(m.Loc),
				"cannot instantiate %s with struct of mixed element types", kind)
			return sem.Scalar{}, 0, false
		}
		total += n
	}

	if total == 0 || total > 4 {
		tr.sink.Error(diag.KindUnsupportedResourceElement, diag.Span(loc),
			"cannot instantiate %s with a struct element spanning %d components", kind, total)
		return sem.Scalar{}, 0, false
	}
	return elem, total, true
}

// imageFormat maps a storage resource's element to the image format the
// type must declare. Only 32-bit int, uint, and float elements of one,
// two, or four components have a format.
func (tr *Translator) imageFormat(elem sem.Scalar, count uint32, kind sem.ResourceKind, loc sem.Span) (spirv.ImageFormat, bool) {
	if elem.Width != 4 || elem.Kind == sem.KindBool {
		tr.sink.Error(diag.KindUnsupportedResourceElement, diag.Span(loc),
			"cannot instantiate %s with element %s", kind, sem.Key(elem))
		return spirv.ImageFormatUnknown, false
	}
	var formats [3]spirv.ImageFormat
	switch elem.Kind {
	case sem.KindSint:
		formats = [3]spirv.ImageFormat{spirv.ImageFormatR32i, spirv.ImageFormatRg32i, spirv.ImageFormatRgba32i}
	case sem.KindUint:
		formats = [3]spirv.ImageFormat{spirv.ImageFormatR32ui, spirv.ImageFormatRg32ui, spirv.ImageFormatRgba32ui}
	case sem.KindFloat:
		formats = [3]spirv.ImageFormat{spirv.ImageFormatR32f, spirv.ImageFormatRg32f, spirv.ImageFormatRgba32f}
	}
	switch count {
	case 1:
		return formats[0], true
	case 2:
		return formats[1], true
	default:
		return formats[2], true
	}
}
