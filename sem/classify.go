// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sem

// IsOpaque reports whether t is an opaque resource type: a texture,
// buffer, or sampler with no user-visible byte layout of its own.
func IsOpaque(t Type) bool {
	_, ok := t.(Resource)
	return ok
}

// IsOpaqueStruct reports whether t is a non-resource aggregate that
// directly or transitively contains an opaque resource member.
func IsOpaqueStruct(t Type) bool {
	st, ok := t.(Struct)
	if !ok {
		return false
	}
	if st.Base != nil && IsOpaqueStruct(*st.Base) {
		return true
	}
	for _, m := range st.Members {
		if IsOpaque(m.Type) || IsOpaqueStruct(m.Type) {
			return true
		}
	}
	return false
}

// IsOpaqueArray reports whether t is an array of opaque resources.
func IsOpaqueArray(t Type) bool {
	arr, ok := t.(Array)
	return ok && IsOpaque(arr.Elem)
}

// IsTexture reports whether k is a sampled texture kind.
func (k ResourceKind) IsTexture() bool {
	switch k {
	case Texture1D, Texture1DArray, Texture2D, Texture2DArray,
		Texture2DMS, Texture2DMSArray, Texture3D, TextureCube, TextureCubeArray:
		return true
	}
	return false
}

// IsRWTexture reports whether k is a storage texture kind.
func (k ResourceKind) IsRWTexture() bool {
	switch k {
	case RWTexture1D, RWTexture1DArray, RWTexture2D, RWTexture2DArray, RWTexture3D:
		return true
	}
	return false
}

// IsMultisampled reports whether k carries a per-sample dimension.
func (k ResourceKind) IsMultisampled() bool {
	return k == Texture2DMS || k == Texture2DMSArray || k == SubpassInputMS
}

// IsSampler reports whether k is a sampler kind.
func (k ResourceKind) IsSampler() bool {
	return k == Sampler || k == SamplerComparison
}

// IsStructured reports whether k is a structured-buffer kind.
func (k ResourceKind) IsStructured() bool {
	switch k {
	case StructuredBuffer, RWStructuredBuffer, AppendStructuredBuffer, ConsumeStructuredBuffer:
		return true
	}
	return false
}

// IsByteAddress reports whether k is a byte-address buffer kind.
func (k ResourceKind) IsByteAddress() bool {
	return k == ByteAddressBuffer || k == RWByteAddressBuffer
}

// IsRWAppendConsume reports whether k is an alias-capable buffer kind
// that needs an associated counter variable.
func (k ResourceKind) IsRWAppendConsume() bool {
	return k == RWStructuredBuffer || k == AppendStructuredBuffer || k == ConsumeStructuredBuffer
}

// IsSubpassInput reports whether k is a subpass-input kind.
func (k ResourceKind) IsSubpassInput() bool {
	return k == SubpassInput || k == SubpassInputMS
}

// IsStructuredOrByteBuffer reports whether t, with any outer arrayness
// stripped, is a structured or byte-address buffer.
func IsStructuredOrByteBuffer(t Type) bool {
	for {
		arr, ok := t.(Array)
		if !ok {
			break
		}
		t = arr.Elem
	}
	if res, ok := t.(Resource); ok {
		return res.Kind.IsStructured() || res.Kind.IsByteAddress()
	}
	return false
}

// ContainsStructuredOrByteBuffer reports whether t is, or recursively
// contains as a struct member, a structured or byte-address buffer.
func ContainsStructuredOrByteBuffer(t Type) bool {
	if res, ok := t.(Resource); ok {
		return res.Kind.IsStructured() || res.Kind.IsByteAddress()
	}
	if st, ok := t.(Struct); ok {
		if st.Base != nil && ContainsStructuredOrByteBuffer(*st.Base) {
			return true
		}
		for _, m := range st.Members {
			if ContainsStructuredOrByteBuffer(m.Type) {
				return true
			}
		}
	}
	return false
}

// IsRWAppendConsumeBuffer reports whether t itself is an alias-capable
// buffer resource.
func IsRWAppendConsumeBuffer(t Type) bool {
	res, ok := t.(Resource)
	return ok && res.Kind.IsRWAppendConsume()
}

// ContainsRWAppendConsumeBuffer reports whether t is, or recursively
// contains as a struct member, an alias-capable buffer resource.
func ContainsRWAppendConsumeBuffer(t Type) bool {
	if IsRWAppendConsumeBuffer(t) {
		return true
	}
	if st, ok := t.(Struct); ok {
		if st.Base != nil && ContainsRWAppendConsumeBuffer(*st.Base) {
			return true
		}
		for _, m := range st.Members {
			if ContainsRWAppendConsumeBuffer(m.Type) {
				return true
			}
		}
	}
	return false
}

// ElemScalar returns the scalar element type underlying a scalar,
// vector, matrix, or array type. The second result is false for shapes
// with no scalar element (structs, samplers, byte-address buffers).
func ElemScalar(t Type) (Scalar, bool) {
	switch tt := t.(type) {
	case Scalar:
		return tt, true
	case Vector:
		return tt.Elem, true
	case Matrix:
		return tt.Elem, true
	case Array:
		return ElemScalar(tt.Elem)
	}
	return Scalar{}, false
}
