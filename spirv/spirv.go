// Package spirv provides the target module builder for the layout core.
//
// It covers the slice of SPIR-V the layout/legalization core produces:
// types, constants, global variables, and the decorations carrying
// memory layout, resource bindings, and interface locations. Instruction
// encoding follows the SPIR-V physical layout (word count | opcode,
// little-endian words).
package spirv

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common SPIR-V versions
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_4 = Version{1, 4}
	Version1_5 = Version{1, 5}
)

// SPIR-V magic number and constants
const (
	MagicNumber = 0x07230203
	GeneratorID = 0x00000000 // Unregistered generator
)

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes used by the layout core.
const (
	OpNop               OpCode = 0
	OpName              OpCode = 5
	OpMemberName        OpCode = 6
	OpExtension         OpCode = 10
	OpExtInstImport     OpCode = 11
	OpMemoryModel       OpCode = 14
	OpEntryPoint        OpCode = 15
	OpExecutionMode     OpCode = 16
	OpCapability        OpCode = 17
	OpTypeVoid          OpCode = 19
	OpTypeBool          OpCode = 20
	OpTypeInt           OpCode = 21
	OpTypeFloat         OpCode = 22
	OpTypeVector        OpCode = 23
	OpTypeMatrix        OpCode = 24
	OpTypeImage         OpCode = 25
	OpTypeSampler       OpCode = 26
	OpTypeSampledImage  OpCode = 27
	OpTypeArray         OpCode = 28
	OpTypeRuntimeArray  OpCode = 29
	OpTypeStruct        OpCode = 30
	OpTypePointer       OpCode = 32
	OpConstantTrue      OpCode = 41
	OpConstantFalse     OpCode = 42
	OpConstant          OpCode = 43
	OpConstantComposite OpCode = 44
	OpVariable          OpCode = 59
	OpDecorate          OpCode = 71
	OpMemberDecorate    OpCode = 72
)

// Decoration represents a SPIR-V decoration.
type Decoration uint32

// Decorations emitted by the layout core.
const (
	DecorationBlock                Decoration = 2
	DecorationBufferBlock          Decoration = 3
	DecorationRowMajor             Decoration = 4
	DecorationColMajor             Decoration = 5
	DecorationArrayStride          Decoration = 6
	DecorationMatrixStride         Decoration = 7
	DecorationBuiltIn              Decoration = 11
	DecorationNonWritable          Decoration = 24
	DecorationLocation             Decoration = 30
	DecorationIndex                Decoration = 32
	DecorationBinding              Decoration = 33
	DecorationDescriptorSet        Decoration = 34
	DecorationOffset               Decoration = 35
	DecorationInputAttachmentIndex Decoration = 43
)

// StorageClass represents a SPIR-V storage class.
type StorageClass uint32

// Storage classes used by the layout core.
const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassPushConstant    StorageClass = 9
	StorageClassStorageBuffer   StorageClass = 12
)

// Dim represents an image dimensionality.
type Dim uint32

const (
	Dim1D          Dim = 0
	Dim2D          Dim = 1
	Dim3D          Dim = 2
	DimCube        Dim = 3
	DimRect        Dim = 4
	DimBuffer      Dim = 5
	DimSubpassData Dim = 6
)

// ImageFormat represents an image format.
type ImageFormat uint32

// Image formats the resource shape builder emits.
const (
	ImageFormatUnknown  ImageFormat = 0
	ImageFormatRgba32f  ImageFormat = 1
	ImageFormatR32f     ImageFormat = 3
	ImageFormatRg32f    ImageFormat = 6
	ImageFormatRgba32i  ImageFormat = 21
	ImageFormatR32i     ImageFormat = 24
	ImageFormatRg32i    ImageFormat = 25
	ImageFormatRgba32ui ImageFormat = 30
	ImageFormatR32ui    ImageFormat = 33
	ImageFormatRg32ui   ImageFormat = 35
)

// BuiltIn represents a SPIR-V builtin variable tag.
type BuiltIn uint32

// Builtins the stage variable assignor maps HLSL system values to.
const (
	BuiltInPosition      BuiltIn = 0
	BuiltInVertexID      BuiltIn = 5
	BuiltInInstanceID    BuiltIn = 6
	BuiltInFragCoord     BuiltIn = 15
	BuiltInFrontFacing   BuiltIn = 17
	BuiltInSampleID      BuiltIn = 18
	BuiltInFragDepth     BuiltIn = 22
	BuiltInVertexIndex   BuiltIn = 42
	BuiltInInstanceIndex BuiltIn = 43
)

// Capability represents a SPIR-V capability.
type Capability uint32

// Capabilities the layout core may require.
const (
	CapabilityShader          Capability = 1
	CapabilityInputAttachment Capability = 40
	CapabilitySampledBuffer   Capability = 46
	CapabilityImageBuffer     Capability = 47
)

// AddressingModel represents a SPIR-V addressing model.
type AddressingModel uint32

const (
	AddressingModelLogical AddressingModel = 0
)

// MemoryModel represents a SPIR-V memory model.
type MemoryModel uint32

const (
	MemoryModelGLSL450 MemoryModel = 1
)
