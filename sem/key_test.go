// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sem

import "testing"

func TestKeyDistinguishesShapes(t *testing.T) {
	f := Scalar{Kind: KindFloat, Width: 4}
	u := Scalar{Kind: KindUint, Width: 4}

	types := []Type{
		f, u,
		Vector{Elem: f, Count: 3},
		Vector{Elem: f, Count: 4},
		Matrix{Elem: f, Rows: 3, Cols: 4},
		Matrix{Elem: f, Rows: 3, Cols: 4, Major: RowMajor},
		Array{Elem: f, Count: 4},
		Array{Elem: f, Unbounded: true},
		Resource{Kind: Texture2D, Elem: f},
		Resource{Kind: RWTexture2D, Elem: f},
	}
	seen := make(map[string]Type, len(types))
	for _, ty := range types {
		key := Key(ty)
		if prev, ok := seen[key]; ok {
			t.Errorf("key %q produced by both %#v and %#v", key, prev, ty)
		}
		seen[key] = ty
	}
}

func TestKeyStableForEqualTypes(t *testing.T) {
	f := Scalar{Kind: KindFloat, Width: 4}
	a := Struct{Name: "S", Members: []Member{{Name: "x", Type: f}}}
	b := Struct{Name: "S", Members: []Member{{Name: "x", Type: f}}}
	if Key(a) != Key(b) {
		t.Errorf("structurally equal structs keyed differently: %q vs %q", Key(a), Key(b))
	}
}

func TestKeyIncludesLayoutAnnotations(t *testing.T) {
	f := Scalar{Kind: KindFloat, Width: 4}
	off := uint32(16)

	plain := Struct{Name: "S", Members: []Member{{Name: "x", Type: f}}}
	withOffset := Struct{Name: "S", Members: []Member{{Name: "x", Type: f, Offset: &off}}}
	withPack := Struct{Name: "S", Members: []Member{{Name: "x", Type: f, PackOffset: &PackOffset{Subcomponent: 1}}}}
	withMajor := Struct{Name: "S", Members: []Member{{Name: "x", Type: f, Major: RowMajor}}}

	keys := []string{Key(plain), Key(withOffset), Key(withPack), Key(withMajor)}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[i] == keys[j] {
				t.Errorf("annotation variants %d and %d share key %q", i, j, keys[i])
			}
		}
	}
}
