package fingerprint

import "testing"

func TestToPayloadString(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{nil, "[]"},
		{[]byte{0}, "[0]"},
		{[]byte{0x01, 0xff, 0x80, 0x7f}, "[1, -1, -128, 127]"},
	}
	for _, tt := range tests {
		if got := ToPayloadString(tt.data); got != tt.want {
			t.Errorf("ToPayloadString(% x) = %q, want %q", tt.data, got, tt.want)
		}
	}
}
