package conv

import "testing"

func TestItoa(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{-42, "-42"},
		{37500000, "37500000"},
		{2147483647, "2147483647"},
	}
	for _, c := range cases {
		var buf [20]byte
		if got := string(Itoa(buf[:], c.in)); got != c.want {
			t.Errorf("Itoa(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestU8Hex(t *testing.T) {
	var buf [4]byte
	if got := string(U8Hex(buf[:], 0xC1)); got != "C1" {
		t.Fatalf("got %q", got)
	}
	if got := string(U8Hex(buf[:1], 0x01)); got != "" {
		t.Fatalf("short buffer got %q", got)
	}
}
