package spirv

import (
	"encoding/binary"
	"testing"
)

func TestInstructionEncode(t *testing.T) {
	ib := NewInstructionBuilder()
	ib.AddWord(1)
	ib.AddWord(32)
	inst := ib.Build(OpTypeFloat)

	words := inst.Encode()
	if len(words) != 3 {
		t.Fatalf("encoded length = %d, want 3", len(words))
	}
	if words[0] != (3<<16)|uint32(OpTypeFloat) {
		t.Errorf("first word = %#x, want word count 3 | opcode %d", words[0], OpTypeFloat)
	}
}

func TestInstructionBuilderString(t *testing.T) {
	ib := NewInstructionBuilder()
	ib.AddString("main")
	inst := ib.Build(OpName)

	// "main" plus the null terminator pads to 2 words.
	if len(inst.Words) != 2 {
		t.Fatalf("string words = %d, want 2", len(inst.Words))
	}
	if inst.Words[0] != 0x6e69616d { // "main" little-endian
		t.Errorf("first string word = %#x, want 0x6e69616d", inst.Words[0])
	}
	if inst.Words[1] != 0 {
		t.Errorf("terminator word = %#x, want 0", inst.Words[1])
	}
}

func TestModuleHeader(t *testing.T) {
	b := NewModuleBuilder(Version1_3)
	b.RequireCapability(CapabilityShader)
	b.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)
	b.GetTypeFloat(32)

	bin := b.Build()
	if len(bin)%4 != 0 {
		t.Fatalf("binary length %d not word-aligned", len(bin))
	}
	if got := binary.LittleEndian.Uint32(bin[0:]); got != MagicNumber {
		t.Errorf("magic = %#x, want %#x", got, uint32(MagicNumber))
	}
	if got := binary.LittleEndian.Uint32(bin[4:]); got != 0x00010300 {
		t.Errorf("version word = %#x, want 0x00010300", got)
	}
	if got := binary.LittleEndian.Uint32(bin[12:]); got != b.nextID {
		t.Errorf("bound = %d, want %d", got, b.nextID)
	}
}

func TestNonAggregateTypeDeduplication(t *testing.T) {
	b := NewModuleBuilder(Version1_0)

	if a, c := b.GetTypeFloat(32), b.GetTypeFloat(32); a != c {
		t.Errorf("float32 not deduplicated: %d vs %d", a, c)
	}
	if a, c := b.GetTypeInt(32, true), b.GetTypeInt(32, false); a == c {
		t.Error("int32 and uint32 share an ID")
	}

	f := b.GetTypeFloat(32)
	if a, c := b.GetTypeVector(f, 3), b.GetTypeVector(f, 3); a != c {
		t.Errorf("vec3 not deduplicated: %d vs %d", a, c)
	}
	if a, c := b.GetTypePointer(StorageClassUniform, f), b.GetTypePointer(StorageClassUniform, f); a != c {
		t.Errorf("pointer not deduplicated: %d vs %d", a, c)
	}
}

func TestAggregateTypesGetFreshIDs(t *testing.T) {
	b := NewModuleBuilder(Version1_0)
	f := b.GetTypeFloat(32)

	// Structurally equal aggregates may carry different layout
	// decorations, so each gets its own ID.
	if a, c := b.AddTypeStruct(f, f), b.AddTypeStruct(f, f); a == c {
		t.Error("struct types share an ID")
	}
	n := b.GetConstantUint32(4)
	if a, c := b.AddTypeArray(f, n), b.AddTypeArray(f, n); a == c {
		t.Error("array types share an ID")
	}
}

func TestConstantDeduplication(t *testing.T) {
	b := NewModuleBuilder(Version1_0)
	if a, c := b.GetConstantUint32(7), b.GetConstantUint32(7); a != c {
		t.Errorf("constant 7 not deduplicated: %d vs %d", a, c)
	}
	if a, c := b.GetConstantUint32(7), b.GetConstantUint32(8); a == c {
		t.Error("constants 7 and 8 share an ID")
	}
}

func TestCapabilityDeclaredOnce(t *testing.T) {
	b := NewModuleBuilder(Version1_0)
	b.RequireCapability(CapabilitySampledBuffer)
	b.RequireCapability(CapabilitySampledBuffer)
	if len(b.capabilities) != 1 {
		t.Errorf("capability declared %d times, want 1", len(b.capabilities))
	}
}
