package query

import "testing"

func TestEncodeExactForm(t *testing.T) {
	got := Encode(map[string]any{"a": 1, "b": 2})
	if got != "?a=1&b=2" {
		t.Fatalf("unexpected encoding: %q", got)
	}
}

func TestEncodeMixedTypes(t *testing.T) {
	got := Encode(map[string]any{
		"ensemble_id": "v20p5emp",
		"lat":         -43.5321,
		"n_gms":       10,
	})
	want := "?ensemble_id=v20p5emp&lat=-43.5321&n_gms=10"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestEncodeEmpty(t *testing.T) {
	if got := Encode(nil); got != "?" {
		t.Fatalf("empty mapping should yield bare separator, got %q", got)
	}
}

func TestEncodeDoesNotEscape(t *testing.T) {
	got := Encode(map[string]any{"im": "pSA_0.5"})
	if got != "?im=pSA_0.5" {
		t.Fatalf("values must be concatenated verbatim, got %q", got)
	}
}

func TestEncodeMultiRepeatsKeys(t *testing.T) {
	got := EncodeMulti(map[string][]string{
		"gms_token": {"tok-1", "tok-2"},
		"a":         {"x"},
	})
	want := "?a=x&gms_token=tok-1&gms_token=tok-2"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
