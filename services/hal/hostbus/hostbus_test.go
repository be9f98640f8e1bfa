//go:build !tinygo

package hostbus

import "testing"

func TestName(t *testing.T) {
	cases := map[string]string{
		"1":          "1",
		"i2c1":       "1",
		"i2c12":      "12",
		"/dev/i2c-3": "3",
		"i2c":        "i2c",
		"i2cX":       "i2cX",
		"SMBus":      "SMBus",
	}
	for in, want := range cases {
		if got := Name(in); got != want {
			t.Errorf("Name(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSet_CloseEmpty(t *testing.T) {
	s := &Set{buses: nil}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(s.Drivers()) != 0 {
		t.Fatal("empty set exposes drivers")
	}
}
