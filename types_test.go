package bacsc

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseVMAC(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    VMAC
		wantErr bool
	}{
		"valid": {
			input: "01:02:03:04:05:06",
			want:  VMAC{0x01, 0x02, 0x03, 0x04, 0x05, 0x06},
		},
		"valid upper case": {
			input: "AB:CD:EF:00:11:22",
			want:  VMAC{0xAB, 0xCD, 0xEF, 0x00, 0x11, 0x22},
		},
		"too few octets": {
			input:   "01:02:03",
			wantErr: true,
		},
		"too many octets": {
			input:   "01:02:03:04:05:06:07",
			wantErr: true,
		},
		"non-hex octet": {
			input:   "01:02:03:04:05:zz",
			wantErr: true,
		},
		"multi-byte octet": {
			input:   "01:02:03:04:05:0607",
			wantErr: true,
		},
		"empty": {
			input:   "",
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseVMAC(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestVMACStringParseVMACRoundTrip(t *testing.T) {
	want := VMAC{0x00, 0x1a, 0x2b, 0xff, 0x7e, 0x09}
	got, err := ParseVMAC(want.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestVMACIsZero(t *testing.T) {
	if !(VMAC{}).IsZero() {
		t.Fatal("zero-value VMAC should be IsZero")
	}
	if (VMAC{0x00, 0x00, 0x00, 0x00, 0x00, 0x01}).IsZero() {
		t.Fatal("non-zero VMAC should not be IsZero")
	}
}

func TestParseUUIDRoundTrip(t *testing.T) {
	want, err := NewRandomUUID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := ParseUUID(want.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseUUIDRejectsGarbage(t *testing.T) {
	if _, err := ParseUUID("not-a-uuid"); err == nil {
		t.Fatal("want error, got nil")
	}
}

func TestParseURL(t *testing.T) {
	tests := map[string]struct {
		input   string
		maxLen  int
		want    URL
		wantErr bool
		wantKind Kind
	}{
		"valid": {
			input:  "wss://hub.example.com:443/bacnet",
			maxLen: 256,
			want:   "wss://hub.example.com:443/bacnet",
		},
		"empty": {
			input:    "",
			maxLen:   256,
			wantErr:  true,
			wantKind: KindBadParameter,
		},
		"too long": {
			input:    "wss://" + string(make([]byte, 300)),
			maxLen:   256,
			wantErr:  true,
			wantKind: KindBadParameter,
		},
		"not wss": {
			input:    "https://hub.example.com",
			maxLen:   256,
			wantErr:  true,
			wantKind: KindBadParameter,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseURL(tc.input, tc.maxLen)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error, got nil")
				}
				if !errors.Is(err, tc.wantKind.Sentinel()) {
					t.Fatalf("want Kind %v, got %v", tc.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}
