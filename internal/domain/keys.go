package domain

import (
	"encoding/json"
	"fmt"
)

// ------------- X25519 -------------

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

func (p X25519Public) Slice() []byte  { return p[:] }
func (k X25519Private) Slice() []byte { return k[:] }

func (p X25519Public) IsZero() bool { return p == X25519Public{} }

func (p X25519Public) MarshalJSON() ([]byte, error) { return json.Marshal(p[:]) }
func (p *X25519Public) UnmarshalJSON(data []byte) error {
	return unmarshalFixed(data, p[:], "X25519 public")
}

func (k X25519Private) MarshalJSON() ([]byte, error) { return json.Marshal(k[:]) }
func (k *X25519Private) UnmarshalJSON(data []byte) error {
	return unmarshalFixed(data, k[:], "X25519 private")
}

func MustX25519Private(b []byte) X25519Private {
	if len(b) != 32 {
		panic(fmt.Errorf("X25519 private: want 32 bytes, got %d", len(b)))
	}
	var out X25519Private
	copy(out[:], b)
	return out
}

func MustX25519Public(b []byte) X25519Public {
	if len(b) != 32 {
		panic(fmt.Errorf("X25519 public: want 32 bytes, got %d", len(b)))
	}
	var out X25519Public
	copy(out[:], b)
	return out
}

// ------------- Ed25519 -------------

// Ed25519Public is a signing public key.
type Ed25519Public [32]byte

// Ed25519Private is a signing private key (ed25519.PrivateKey layout,
// seed followed by public).
type Ed25519Private [64]byte

func (p Ed25519Public) Slice() []byte  { return p[:] }
func (k Ed25519Private) Slice() []byte { return k[:] }

func (p Ed25519Public) IsZero() bool { return p == Ed25519Public{} }

func (p Ed25519Public) MarshalJSON() ([]byte, error) { return json.Marshal(p[:]) }
func (p *Ed25519Public) UnmarshalJSON(data []byte) error {
	return unmarshalFixed(data, p[:], "Ed25519 public")
}

func (k Ed25519Private) MarshalJSON() ([]byte, error) { return json.Marshal(k[:]) }
func (k *Ed25519Private) UnmarshalJSON(data []byte) error {
	return unmarshalFixed(data, k[:], "Ed25519 private")
}

func MustEd25519Private(b []byte) Ed25519Private {
	if len(b) != 64 {
		panic(fmt.Errorf("Ed25519 private: want 64 bytes, got %d", len(b)))
	}
	var out Ed25519Private
	copy(out[:], b)
	return out
}

func MustEd25519Public(b []byte) Ed25519Public {
	if len(b) != 32 {
		panic(fmt.Errorf("Ed25519 public: want 32 bytes, got %d", len(b)))
	}
	var out Ed25519Public
	copy(out[:], b)
	return out
}

// ------------- symmetric -------------

// Key is a 32-byte symmetric key (root, chain or message key).
type Key [32]byte

func (k Key) Slice() []byte { return k[:] }
func (k Key) IsZero() bool  { return k == Key{} }

func (k Key) MarshalJSON() ([]byte, error)     { return json.Marshal(k[:]) }
func (k *Key) UnmarshalJSON(data []byte) error { return unmarshalFixed(data, k[:], "symmetric key") }

func MustKey(b []byte) Key {
	if len(b) != 32 {
		panic(fmt.Errorf("symmetric key: want 32 bytes, got %d", len(b)))
	}
	var out Key
	copy(out[:], b)
	return out
}

// unmarshalFixed decodes a JSON base64 string into a fixed-size key, rejecting
// wrong lengths so truncated material never round-trips silently.
func unmarshalFixed(data []byte, dst []byte, kind string) error {
	var b []byte
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("%s: want %d bytes, got %d", kind, len(dst), len(b))
	}
	copy(dst, b)
	return nil
}
