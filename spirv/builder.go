package spirv

import (
	"encoding/binary"
	"strconv"
)

// Instruction represents a SPIR-V instruction.
type Instruction struct {
	Opcode OpCode
	Words  []uint32 // result type ID, result ID, operands
}

// InstructionBuilder builds SPIR-V instructions.
type InstructionBuilder struct {
	words []uint32
}

// NewInstructionBuilder creates a new instruction builder.
func NewInstructionBuilder() *InstructionBuilder {
	return &InstructionBuilder{
		words: make([]uint32, 0, 8),
	}
}

// AddWord adds a word to the instruction.
func (b *InstructionBuilder) AddWord(word uint32) {
	b.words = append(b.words, word)
}

// AddString adds a null-terminated UTF-8 string.
func (b *InstructionBuilder) AddString(s string) {
	bytes := []byte(s)
	// Add null terminator if not present
	if len(bytes) == 0 || bytes[len(bytes)-1] != 0 {
		bytes = append(bytes, 0)
	}

	// Pad to word boundary
	for len(bytes)%4 != 0 {
		bytes = append(bytes, 0)
	}

	// Convert to words
	for i := 0; i < len(bytes); i += 4 {
		word := uint32(bytes[i]) |
			uint32(bytes[i+1])<<8 |
			uint32(bytes[i+2])<<16 |
			uint32(bytes[i+3])<<24
		b.words = append(b.words, word)
	}
}

// Build builds the instruction with the given opcode.
func (b *InstructionBuilder) Build(opcode OpCode) Instruction {
	return Instruction{
		Opcode: opcode,
		Words:  b.words,
	}
}

// Encode encodes the instruction to binary.
func (i Instruction) Encode() []uint32 {
	wordCount := uint32(len(i.Words) + 1) // +1 for opcode word
	result := make([]uint32, 0, wordCount)
	result = append(result, (wordCount<<16)|uint32(i.Opcode))
	result = append(result, i.Words...)
	return result
}

// ModuleBuilder builds the type, constant, variable, and annotation
// sections of a SPIR-V module.
//
// Non-aggregate types and scalar constants are deduplicated: asking for
// the same shape twice returns the same ID, as SPIR-V requires them to
// be declared exactly once. Aggregate types (structs, arrays) always get
// a fresh ID because their layout decorations live in the annotation
// section and may differ between structurally equal aggregates; callers
// memoize those by their own keys.
type ModuleBuilder struct {
	// Header
	version   Version
	generator uint32
	bound     uint32 // max ID + 1
	schema    uint32

	// Sections (ordered per SPIR-V spec)
	capabilities []Instruction
	extensions   []Instruction
	memoryModel  *Instruction
	debugNames   []Instruction // OpName, OpMemberName
	annotations  []Instruction // OpDecorate, OpMemberDecorate
	types        []Instruction // OpType*, OpConstant*
	globalVars   []Instruction // OpVariable (global)

	// Deduplication caches
	typeCache  map[string]uint32
	constCache map[uint64]uint32
	capSet     map[Capability]bool

	// ID allocation
	nextID uint32
}

// NewModuleBuilder creates a new SPIR-V module builder.
func NewModuleBuilder(version Version) *ModuleBuilder {
	return &ModuleBuilder{
		version:      version,
		generator:    GeneratorID,
		schema:       0,
		capabilities: make([]Instruction, 0),
		extensions:   make([]Instruction, 0),
		debugNames:   make([]Instruction, 0),
		annotations:  make([]Instruction, 0),
		types:        make([]Instruction, 0),
		globalVars:   make([]Instruction, 0),
		typeCache:    make(map[string]uint32, 16),
		constCache:   make(map[uint64]uint32, 8),
		capSet:       make(map[Capability]bool, 4),
		nextID:       1,
	}
}

// AllocID allocates a new SPIR-V ID.
func (b *ModuleBuilder) AllocID() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

// RequireCapability adds a capability if not already declared.
func (b *ModuleBuilder) RequireCapability(capability Capability) {
	if b.capSet[capability] {
		return
	}
	b.capSet[capability] = true
	builder := NewInstructionBuilder()
	builder.AddWord(uint32(capability))
	b.capabilities = append(b.capabilities, builder.Build(OpCapability))
}

// AddExtension adds an extension.
func (b *ModuleBuilder) AddExtension(name string) {
	builder := NewInstructionBuilder()
	builder.AddString(name)
	b.extensions = append(b.extensions, builder.Build(OpExtension))
}

// SetMemoryModel sets the memory model.
func (b *ModuleBuilder) SetMemoryModel(addressing AddressingModel, memory MemoryModel) {
	builder := NewInstructionBuilder()
	builder.AddWord(uint32(addressing))
	builder.AddWord(uint32(memory))
	inst := builder.Build(OpMemoryModel)
	b.memoryModel = &inst
}

// AddName adds a debug name.
func (b *ModuleBuilder) AddName(id uint32, name string) {
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddString(name)
	b.debugNames = append(b.debugNames, builder.Build(OpName))
}

// AddMemberName adds a debug member name.
func (b *ModuleBuilder) AddMemberName(structID, member uint32, name string) {
	builder := NewInstructionBuilder()
	builder.AddWord(structID)
	builder.AddWord(member)
	builder.AddString(name)
	b.debugNames = append(b.debugNames, builder.Build(OpMemberName))
}

// AddDecorate adds a decoration.
func (b *ModuleBuilder) AddDecorate(id uint32, decoration Decoration, params ...uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(uint32(decoration))
	for _, param := range params {
		builder.AddWord(param)
	}
	b.annotations = append(b.annotations, builder.Build(OpDecorate))
}

// AddMemberDecorate adds a member decoration.
func (b *ModuleBuilder) AddMemberDecorate(structID, member uint32, decoration Decoration, params ...uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(structID)
	builder.AddWord(member)
	builder.AddWord(uint32(decoration))
	for _, param := range params {
		builder.AddWord(param)
	}
	b.annotations = append(b.annotations, builder.Build(OpMemberDecorate))
}

// getOrAddType returns the cached ID for key, or allocates a new ID,
// emits the instruction built by emit, and caches it.
func (b *ModuleBuilder) getOrAddType(key string, emit func(id uint32) Instruction) uint32 {
	if id, ok := b.typeCache[key]; ok {
		return id
	}
	id := b.AllocID()
	b.types = append(b.types, emit(id))
	b.typeCache[key] = id
	return id
}

// GetTypeVoid returns the ID for OpTypeVoid.
func (b *ModuleBuilder) GetTypeVoid() uint32 {
	return b.getOrAddType("void", func(id uint32) Instruction {
		builder := NewInstructionBuilder()
		builder.AddWord(id)
		return builder.Build(OpTypeVoid)
	})
}

// GetTypeBool returns the ID for OpTypeBool.
func (b *ModuleBuilder) GetTypeBool() uint32 {
	return b.getOrAddType("bool", func(id uint32) Instruction {
		builder := NewInstructionBuilder()
		builder.AddWord(id)
		return builder.Build(OpTypeBool)
	})
}

// GetTypeFloat returns the ID for OpTypeFloat of the given bit width.
func (b *ModuleBuilder) GetTypeFloat(width uint32) uint32 {
	return b.getOrAddType("f"+strconv.Itoa(int(width)), func(id uint32) Instruction {
		builder := NewInstructionBuilder()
		builder.AddWord(id)
		builder.AddWord(width)
		return builder.Build(OpTypeFloat)
	})
}

// GetTypeInt returns the ID for OpTypeInt of the given bit width and
// signedness.
func (b *ModuleBuilder) GetTypeInt(width uint32, signed bool) uint32 {
	key := "u" + strconv.Itoa(int(width))
	signedWord := uint32(0)
	if signed {
		key = "i" + strconv.Itoa(int(width))
		signedWord = 1
	}
	return b.getOrAddType(key, func(id uint32) Instruction {
		builder := NewInstructionBuilder()
		builder.AddWord(id)
		builder.AddWord(width)
		builder.AddWord(signedWord)
		return builder.Build(OpTypeInt)
	})
}

// GetTypeVector returns the ID for OpTypeVector.
func (b *ModuleBuilder) GetTypeVector(componentType uint32, count uint32) uint32 {
	key := "v" + strconv.Itoa(int(count)) + ":" + strconv.Itoa(int(componentType))
	return b.getOrAddType(key, func(id uint32) Instruction {
		builder := NewInstructionBuilder()
		builder.AddWord(id)
		builder.AddWord(componentType)
		builder.AddWord(count)
		return builder.Build(OpTypeVector)
	})
}

// GetTypeMatrix returns the ID for OpTypeMatrix.
func (b *ModuleBuilder) GetTypeMatrix(columnType uint32, columnCount uint32) uint32 {
	key := "m" + strconv.Itoa(int(columnCount)) + ":" + strconv.Itoa(int(columnType))
	return b.getOrAddType(key, func(id uint32) Instruction {
		builder := NewInstructionBuilder()
		builder.AddWord(id)
		builder.AddWord(columnType)
		builder.AddWord(columnCount)
		return builder.Build(OpTypeMatrix)
	})
}

// GetTypeSampler returns the ID for OpTypeSampler.
func (b *ModuleBuilder) GetTypeSampler() uint32 {
	return b.getOrAddType("sampler", func(id uint32) Instruction {
		builder := NewInstructionBuilder()
		builder.AddWord(id)
		return builder.Build(OpTypeSampler)
	})
}

// GetTypeImage returns the ID for OpTypeImage with the given operands.
// Depth and sampled follow the SPIR-V encoding (depth 2 = unknown,
// sampled 1 = sampled, 2 = storage).
func (b *ModuleBuilder) GetTypeImage(sampledType uint32, dim Dim, depth uint32, arrayed, ms bool, sampled uint32, format ImageFormat) uint32 {
	arrayedWord := uint32(0)
	if arrayed {
		arrayedWord = 1
	}
	msWord := uint32(0)
	if ms {
		msWord = 1
	}
	key := "img:" + strconv.Itoa(int(sampledType)) + ":" + strconv.Itoa(int(dim)) + ":" +
		strconv.Itoa(int(depth)) + ":" + strconv.Itoa(int(arrayedWord)) + ":" +
		strconv.Itoa(int(msWord)) + ":" + strconv.Itoa(int(sampled)) + ":" + strconv.Itoa(int(format))
	return b.getOrAddType(key, func(id uint32) Instruction {
		builder := NewInstructionBuilder()
		builder.AddWord(id)
		builder.AddWord(sampledType)
		builder.AddWord(uint32(dim))
		builder.AddWord(depth)
		builder.AddWord(arrayedWord)
		builder.AddWord(msWord)
		builder.AddWord(sampled)
		builder.AddWord(uint32(format))
		return builder.Build(OpTypeImage)
	})
}

// GetTypePointer returns the ID for OpTypePointer.
func (b *ModuleBuilder) GetTypePointer(storageClass StorageClass, baseType uint32) uint32 {
	key := "ptr:" + strconv.Itoa(int(storageClass)) + ":" + strconv.Itoa(int(baseType))
	return b.getOrAddType(key, func(id uint32) Instruction {
		builder := NewInstructionBuilder()
		builder.AddWord(id)
		builder.AddWord(uint32(storageClass))
		builder.AddWord(baseType)
		return builder.Build(OpTypePointer)
	})
}

// AddTypeArray adds OpTypeArray. The length operand is a constant ID.
// Array types are not deduplicated; they may carry distinct ArrayStride
// decorations.
func (b *ModuleBuilder) AddTypeArray(elementType uint32, lengthID uint32) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(elementType)
	builder.AddWord(lengthID)
	b.types = append(b.types, builder.Build(OpTypeArray))
	return id
}

// AddTypeRuntimeArray adds OpTypeRuntimeArray.
func (b *ModuleBuilder) AddTypeRuntimeArray(elementType uint32) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(elementType)
	b.types = append(b.types, builder.Build(OpTypeRuntimeArray))
	return id
}

// AddTypeStruct adds OpTypeStruct.
func (b *ModuleBuilder) AddTypeStruct(memberTypes ...uint32) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	for _, memberType := range memberTypes {
		builder.AddWord(memberType)
	}
	b.types = append(b.types, builder.Build(OpTypeStruct))
	return id
}

// GetConstantUint32 returns the ID for a 32-bit unsigned constant,
// deduplicated by value.
func (b *ModuleBuilder) GetConstantUint32(value uint32) uint32 {
	typeID := b.GetTypeInt(32, false)
	key := uint64(typeID)<<32 | uint64(value)
	if id, ok := b.constCache[key]; ok {
		return id
	}
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(typeID)
	builder.AddWord(id)
	builder.AddWord(value)
	b.types = append(b.types, builder.Build(OpConstant))
	b.constCache[key] = id
	return id
}

// AddVariable adds a module-scope OpVariable.
func (b *ModuleBuilder) AddVariable(pointerType uint32, storageClass StorageClass) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(pointerType)
	builder.AddWord(id)
	builder.AddWord(uint32(storageClass))
	b.globalVars = append(b.globalVars, builder.Build(OpVariable))
	return id
}

// Build generates the final SPIR-V binary for the sections this builder
// maintains.
func (b *ModuleBuilder) Build() []byte {
	// Update bound to max ID
	b.bound = b.nextID

	// Calculate total size
	totalWords := 5 // header
	totalWords += countWords(b.capabilities)
	totalWords += countWords(b.extensions)
	if b.memoryModel != nil {
		totalWords += len(b.memoryModel.Encode())
	}
	totalWords += countWords(b.debugNames)
	totalWords += countWords(b.annotations)
	totalWords += countWords(b.types)
	totalWords += countWords(b.globalVars)

	// Allocate buffer
	buffer := make([]byte, totalWords*4)
	offset := 0

	// Write header
	binary.LittleEndian.PutUint32(buffer[offset:], MagicNumber)
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], versionToWord(b.version))
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], b.generator)
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], b.bound)
	offset += 4
	binary.LittleEndian.PutUint32(buffer[offset:], b.schema)
	offset += 4

	// Write sections in order
	offset = writeInstructions(buffer, offset, b.capabilities)
	offset = writeInstructions(buffer, offset, b.extensions)
	if b.memoryModel != nil {
		offset = writeInstruction(buffer, offset, *b.memoryModel)
	}
	offset = writeInstructions(buffer, offset, b.debugNames)
	offset = writeInstructions(buffer, offset, b.annotations)
	offset = writeInstructions(buffer, offset, b.types)
	_ = writeInstructions(buffer, offset, b.globalVars)

	return buffer
}

// countWords counts total words in instructions.
func countWords(instructions []Instruction) int {
	count := 0
	for _, inst := range instructions {
		count += len(inst.Encode())
	}
	return count
}

// writeInstructions writes instructions to buffer.
func writeInstructions(buffer []byte, offset int, instructions []Instruction) int {
	for _, inst := range instructions {
		offset = writeInstruction(buffer, offset, inst)
	}
	return offset
}

// writeInstruction writes a single instruction to buffer.
func writeInstruction(buffer []byte, offset int, inst Instruction) int {
	words := inst.Encode()
	for _, word := range words {
		binary.LittleEndian.PutUint32(buffer[offset:], word)
		offset += 4
	}
	return offset
}

// versionToWord converts Version to SPIR-V word format.
func versionToWord(v Version) uint32 {
	return (uint32(v.Major) << 16) | (uint32(v.Minor) << 8)
}
