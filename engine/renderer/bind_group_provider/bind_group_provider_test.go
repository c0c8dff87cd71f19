package bind_group_provider

import "testing"

func TestProviderLabelAndGeneration(t *testing.T) {
	p := NewBindGroupProvider("automata surface")
	if p.Label() != "automata surface" {
		t.Fatalf("label = %q", p.Label())
	}
	if p.Generation() != 0 {
		t.Fatalf("initial generation = %d", p.Generation())
	}

	p.SetTexture(0, nil, nil)
	p.SetTextureView(1, nil)
	if p.Generation() != 2 {
		t.Fatalf("generation = %d, want 2", p.Generation())
	}
	if p.Texture(0) != nil {
		t.Fatal("nil texture should not be stored")
	}

	w := NewBufferWrite(p, 3, []byte{1, 2})
	if w.Provider != p || w.Binding != 3 || w.Offset != 0 || len(w.Data) != 2 {
		t.Fatalf("write = %+v", w)
	}

	// Release on an empty provider must not touch nil handles.
	p.Release()
	if len(p.TextureViews()) != 0 {
		t.Fatal("release left texture views behind")
	}
}
