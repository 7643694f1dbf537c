// Package sem defines the semantic type model consumed by the layout
// core.
//
// Types are immutable tagged variants derived structurally from a
// declaration's declared type. The front end resolves typedefs,
// references and literal types before constructing them, so every
// variant here has a concrete layout-relevant shape.
package sem

// Type represents the inner shape of a semantic type.
type Type interface {
	typeVariant()
}

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	KindSint  ScalarKind = iota // Signed integer
	KindUint                    // Unsigned integer
	KindFloat                   // Floating point
	KindBool                    // Boolean
)

// Scalar represents scalar types. Width is in bytes (2, 4, or 8).
// Booleans carry width 4; they have no physical representation of their
// own and are laid out as 32-bit unsigned integers when a layout rule
// applies.
type Scalar struct {
	Kind  ScalarKind
	Width uint8
}

func (Scalar) typeVariant() {}

// Vector represents vector types of 2 to 4 scalar components.
type Vector struct {
	Elem  Scalar
	Count uint8
}

func (Vector) typeVariant() {}

// Majorness represents a matrix storage orientation.
type Majorness uint8

const (
	// MajorDefault defers to the enclosing declaration's annotation or
	// the translation options.
	MajorDefault Majorness = iota
	RowMajor
	ColMajor
)

// Matrix represents MxN matrix types. Matrices are stored as arrays of
// vectors: a row-major matrix as Rows vectors of Cols components, a
// column-major matrix as Cols vectors of Rows components.
type Matrix struct {
	Elem  Scalar
	Rows  uint8
	Cols  uint8
	Major Majorness
}

func (Matrix) typeVariant() {}

// Array represents array types. Unbounded marks a runtime-sized array,
// in which case Count is 0.
type Array struct {
	Elem      Type
	Count     uint32
	Unbounded bool
}

func (Array) typeVariant() {}

// Struct represents aggregate types with ordered members. Base, when
// non-nil, is an inherited aggregate laid out as an implicit unnamed
// leading member.
type Struct struct {
	Name    string
	Base    *Struct
	Members []Member
}

func (Struct) typeVariant() {}

// Member represents a struct member together with the annotations the
// front end extracted for it.
type Member struct {
	Name string
	Type Type

	// Semantic is the interface semantic attached to the member, if any.
	Semantic *Semantic

	// Offset is an explicit byte offset overriding computed placement.
	Offset *uint32

	// PackOffset is an explicit packing sub-component/offset pair.
	PackOffset *PackOffset

	// Major overrides matrix orientation for this member's type.
	Major Majorness

	// Loc is the member's source location for diagnostics.
	Loc Span
}

// Resource represents an opaque resource type. Elem is the element type
// for resource kinds parameterized over one (textures, buffers,
// structured buffers); it is nil for samplers and byte-address buffers.
type Resource struct {
	Kind ResourceKind
	Elem Type
}

func (Resource) typeVariant() {}

// ResourceKind enumerates the opaque resource kinds.
type ResourceKind uint8

const (
	Texture1D ResourceKind = iota
	Texture1DArray
	Texture2D
	Texture2DArray
	Texture2DMS
	Texture2DMSArray
	Texture3D
	TextureCube
	TextureCubeArray
	RWTexture1D
	RWTexture1DArray
	RWTexture2D
	RWTexture2DArray
	RWTexture3D
	Buffer
	RWBuffer
	Sampler
	SamplerComparison
	StructuredBuffer
	RWStructuredBuffer
	AppendStructuredBuffer
	ConsumeStructuredBuffer
	ByteAddressBuffer
	RWByteAddressBuffer
	SubpassInput
	SubpassInputMS
)

// String returns the HLSL spelling of the resource kind.
func (k ResourceKind) String() string {
	switch k {
	case Texture1D:
		return "Texture1D"
	case Texture1DArray:
		return "Texture1DArray"
	case Texture2D:
		return "Texture2D"
	case Texture2DArray:
		return "Texture2DArray"
	case Texture2DMS:
		return "Texture2DMS"
	case Texture2DMSArray:
		return "Texture2DMSArray"
	case Texture3D:
		return "Texture3D"
	case TextureCube:
		return "TextureCube"
	case TextureCubeArray:
		return "TextureCubeArray"
	case RWTexture1D:
		return "RWTexture1D"
	case RWTexture1DArray:
		return "RWTexture1DArray"
	case RWTexture2D:
		return "RWTexture2D"
	case RWTexture2DArray:
		return "RWTexture2DArray"
	case RWTexture3D:
		return "RWTexture3D"
	case Buffer:
		return "Buffer"
	case RWBuffer:
		return "RWBuffer"
	case Sampler:
		return "SamplerState"
	case SamplerComparison:
		return "SamplerComparisonState"
	case StructuredBuffer:
		return "StructuredBuffer"
	case RWStructuredBuffer:
		return "RWStructuredBuffer"
	case AppendStructuredBuffer:
		return "AppendStructuredBuffer"
	case ConsumeStructuredBuffer:
		return "ConsumeStructuredBuffer"
	case ByteAddressBuffer:
		return "ByteAddressBuffer"
	case RWByteAddressBuffer:
		return "RWByteAddressBuffer"
	case SubpassInput:
		return "SubpassInput"
	case SubpassInputMS:
		return "SubpassInputMS"
	default:
		return "Unknown"
	}
}

// Span identifies a source location as byte offsets. It mirrors
// diag.Span without importing it so the type model stays leaf-most.
type Span struct {
	Start uint32
	End   uint32
}

// Semantic is an interface semantic tag: the name with any trailing
// digits split off as the index.
type Semantic struct {
	Name  string
	Index uint32
}

// PackOffset is an explicit :packoffset() annotation, already parsed
// into register subcomponent and 4-byte component offset.
type PackOffset struct {
	Subcomponent    uint32
	ComponentOffset uint32
}

// ByteOffset returns the byte offset the annotation denotes.
func (p PackOffset) ByteOffset() uint32 {
	return p.Subcomponent*16 + p.ComponentOffset*4
}

// Binding is an explicit descriptor set and binding number annotation.
type Binding struct {
	Set     uint32
	Binding uint32
}

// Decl describes a declaration handed to the layout core, together with
// the annotations the front end extracted.
type Decl struct {
	Name string
	Type Type
	Loc  Span

	// Semantic is the declaration-level interface semantic, inherited by
	// struct members that carry none.
	Semantic *Semantic

	// Location is an explicit interface location.
	Location *uint32

	// Index is an explicit output index (dual-source blending).
	Index *uint32

	// Binding is an explicit descriptor set/binding assignment.
	Binding *Binding

	// Major overrides matrix orientation for the whole declaration.
	Major Majorness
}

// DeclID is a stable per-declaration handle assigned at registration.
type DeclID uint32
