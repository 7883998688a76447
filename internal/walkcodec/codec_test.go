package walkcodec

import "testing"

func TestRoundTripDefault(t *testing.T) {
	c := Default()
	cases := []struct {
		source, offset, hop uint32
	}{
		{0, 0, 0},
		{1, 2, 3},
		{uint32(c.MaxSource()), uint32(c.MaxOffset()), uint32(c.MaxHop())},
		{12345, 67890, 200},
	}
	for _, tc := range cases {
		w, err := c.Encode(tc.source, tc.offset, tc.hop)
		if err != nil {
			t.Fatalf("encode(%v): %v", tc, err)
		}
		s, o, h := c.Decode(w)
		if s != tc.source || o != tc.offset || h != tc.hop {
			t.Fatalf("round-trip mismatch: got (%d,%d,%d) want (%d,%d,%d)", s, o, h, tc.source, tc.offset, tc.hop)
		}
	}
}

func TestEncodeOverflow(t *testing.T) {
	c := Default()
	if _, err := c.Encode(uint32(c.MaxSource())+1, 0, 0); err == nil {
		t.Fatal("expected overflow error for source")
	}
	if _, err := c.Encode(0, uint32(c.MaxOffset())+1, 0); err == nil {
		t.Fatal("expected overflow error for offset")
	}
	if _, err := c.Encode(0, 0, uint32(c.MaxHop())+1); err == nil {
		t.Fatal("expected overflow error for hop")
	}
}

func TestNewRejectsBadSplit(t *testing.T) {
	if _, err := New(28, 28, 7); err == nil {
		t.Fatal("expected error: widths must sum to 64")
	}
	if _, err := New(0, 32, 32); err == nil {
		t.Fatal("expected error: widths must be positive")
	}
}

func TestWithOffset(t *testing.T) {
	c := Default()
	w, err := c.Encode(5, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	w2, err := c.WithOffset(w, 99)
	if err != nil {
		t.Fatal(err)
	}
	s, o, h := c.Decode(w2)
	if s != 5 || o != 99 || h != 2 {
		t.Fatalf("got (%d,%d,%d)", s, o, h)
	}
}

func TestAlternateSplit(t *testing.T) {
	// Small-graph deployment: more hop bits, fewer vertex bits.
	c, err := New(20, 20, 24)
	if err != nil {
		t.Fatal(err)
	}
	w, err := c.Encode(1<<19, 1<<19, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	s, o, h := c.Decode(w)
	if s != 1<<19 || o != 1<<19 || h != 1<<20 {
		t.Fatalf("got (%d,%d,%d)", s, o, h)
	}
}
