package fingerprint

import "testing"

func TestOf_StableAcrossTrailingNewlines(t *testing.T) {
	base := []byte(`{"uuid":"a"}`)
	variants := [][]byte{
		append(append([]byte{}, base...), '\n'),
		append(append([]byte{}, base...), '\n', '\n'),
		append(append([]byte{}, base...), '\n', '\n', '\n'),
		base, // no trailing newline at all
	}

	want := Of(variants[0])
	for i, v := range variants {
		if got := Of(v); got != want {
			t.Errorf("variant %d: Of() = %q, want %q", i, got, want)
		}
	}
}

func TestOf_DifferentContentDiffers(t *testing.T) {
	a := Of([]byte(`{"uuid":"a"}` + "\n"))
	b := Of([]byte(`{"uuid":"b"}` + "\n"))
	if a == b {
		t.Fatal("expected different fingerprints for different content")
	}
}

func TestOf_Deterministic(t *testing.T) {
	data := []byte("line one\nline two\n")
	if Of(data) != Of(data) {
		t.Fatal("Of() is not deterministic")
	}
}

func TestOf_Empty(t *testing.T) {
	if Of(nil) != Of([]byte{}) {
		t.Fatal("empty inputs should fingerprint identically")
	}
}
