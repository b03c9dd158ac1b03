package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"testing"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

func TestValidateAddress(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"wallet key", base58.Encode(pub), false},
		{"system program", "11111111111111111111111111111111", false},
		{"not base58", "0OIl", true},
		{"too short", base58.Encode([]byte{1, 2, 3}), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("expected ErrInvalidAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestIsOnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if !IsOnCurve(base58.Encode(pub)) {
		t.Error("expected ed25519 public key to be on curve")
	}

	// Hash until a value that does not decode as a point, the same search a
	// program-derived address performs.
	var offCurve []byte
	for seed := byte(0); seed < 255; seed++ {
		h := sha256.Sum256([]byte{seed})
		if _, err := new(edwards25519.Point).SetBytes(h[:]); err != nil {
			offCurve = h[:]
			break
		}
	}
	if offCurve == nil {
		t.Fatal("could not find an off-curve value")
	}
	if IsOnCurve(base58.Encode(offCurve)) {
		t.Error("expected derived address to be off curve")
	}

	if IsOnCurve("not-an-address") {
		t.Error("expected undecodable address to be off curve")
	}
}

func TestResolveProgram(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"raydium", RaydiumAMMV4},
		{" PumpFun ", PumpFun},
		{RaydiumAMMV4, RaydiumAMMV4},
		{"unknown", "unknown"},
	}

	for _, tt := range tests {
		if got := ResolveProgram(tt.in); got != tt.want {
			t.Errorf("ResolveProgram(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if tt.want != "unknown" {
			if err := ValidateAddress(ResolveProgram(tt.in)); err != nil {
				t.Errorf("resolved %q is not a valid address: %v", tt.in, err)
			}
		}
	}
}
