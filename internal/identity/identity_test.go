package identity

import "testing"

func TestKeyDeterministic(t *testing.T) {
	a := Key("seq:5/0", []byte("payload"))
	b := Key("seq:5/0", []byte("payload"))
	if a != b {
		t.Errorf("same inputs produced different keys: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
}

func TestKeyDistinguishesInputs(t *testing.T) {
	base := Key("seq:5/0", []byte("payload"))

	if Key("seq:6/0", []byte("payload")) == base {
		t.Error("different positions produced the same key")
	}
	if Key("seq:5/0", []byte("other")) == base {
		t.Error("different data produced the same key")
	}
	// Position/data boundary must be unambiguous.
	if Key("seq:5/0x", []byte("payload")) == Key("seq:5/0", []byte("xpayload")) {
		t.Error("boundary ambiguity between position and data")
	}
}
