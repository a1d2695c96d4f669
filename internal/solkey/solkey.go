// Package solkey normalizes Solana secret keys between the 32-byte seed form
// and the 64-byte seed||public-key form.
package solkey

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Alphabet is the Bitcoin base58 alphabet used by Solana.
const Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const (
	SeedSize    = ed25519.SeedSize       // 32
	KeypairSize = ed25519.PrivateKeySize // 64
)

var (
	ErrInvalidEncoding = errors.New("invalid base58 encoding")
	ErrDecode          = errors.New("base58 decode failed")
	ErrInvalidKeySize  = errors.New("invalid key size")
)

// Encoding identifies which representation a secret was supplied in.
type Encoding int

const (
	Invalid Encoding = iota
	Seed32
	SeedPlusPublic64
)

func (e Encoding) String() string {
	switch e {
	case Seed32:
		return "seed32"
	case SeedPlusPublic64:
		return "seedPlusPublic64"
	default:
		return "invalid"
	}
}

// Format selects which representation Secret emits.
type Format int

const (
	Format32 Format = 32
	Format64 Format = 64
)

// ParseFormat accepts "32", "64", "" (default 32) and the aliases "seed" and "keypair".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "32", "seed":
		return Format32, nil
	case "64", "keypair":
		return Format64, nil
	}
	return Format32, fmt.Errorf("unknown key format %q (want 32 or 64)", s)
}

// EncodingError lists the characters that fall outside the base58 alphabet.
type EncodingError struct {
	Chars []rune
}

func (e *EncodingError) Error() string {
	if len(e.Chars) == 0 {
		return ErrInvalidEncoding.Error() + ": empty value"
	}
	parts := make([]string, 0, len(e.Chars))
	for _, c := range e.Chars {
		parts = append(parts, fmt.Sprintf("%q (code %d)", c, c))
	}
	return fmt.Sprintf("%s: invalid characters %s", ErrInvalidEncoding, strings.Join(parts, ", "))
}

func (e *EncodingError) Is(target error) bool { return target == ErrInvalidEncoding }

// KeySizeError reports a decoded length other than 32 or 64 bytes.
type KeySizeError struct {
	Got int
}

func (e *KeySizeError) Error() string {
	return fmt.Sprintf("%s: decoded %d bytes, expected %d (seed) or %d (seed+public)",
		ErrInvalidKeySize, e.Got, SeedSize, KeypairSize)
}

func (e *KeySizeError) Is(target error) bool { return target == ErrInvalidKeySize }

// Material is a validated key. Seed is always the canonical 32-byte form.
type Material struct {
	Encoding  Encoding
	Seed      []byte
	PublicKey string

	// EmbeddedPublicKey is the trailing half of a 64-byte input, base58 encoded.
	EmbeddedPublicKey string
	// Mismatch is set when EmbeddedPublicKey does not match PublicKey.
	// PublicKey (derived from the seed) is authoritative.
	Mismatch bool
}

// InvalidChars returns the unique characters of s outside the base58 alphabet,
// in order of first appearance.
func InvalidChars(s string) []rune {
	var out []rune
	seen := map[rune]bool{}
	for _, r := range s {
		if strings.ContainsRune(Alphabet, r) || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// Normalize validates and decodes a base58 secret key.
func Normalize(s string) (*Material, error) {
	if s == "" {
		return nil, &EncodingError{}
	}
	if bad := InvalidChars(s); len(bad) > 0 {
		return nil, &EncodingError{Chars: bad}
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return FromBytes(raw)
}

// FromBytes normalizes raw secret bytes.
func FromBytes(raw []byte) (*Material, error) {
	switch len(raw) {
	case SeedSize:
		seed := bytes.Clone(raw)
		return &Material{
			Encoding:  Seed32,
			Seed:      seed,
			PublicKey: base58.Encode(derive(seed)),
		}, nil
	case KeypairSize:
		seed := bytes.Clone(raw[:SeedSize])
		pub := derive(seed)
		embedded := base58.Encode(raw[SeedSize:])
		derived := base58.Encode(pub)
		return &Material{
			Encoding:          SeedPlusPublic64,
			Seed:              seed,
			PublicKey:         derived,
			EmbeddedPublicKey: embedded,
			Mismatch:          embedded != derived,
		}, nil
	}
	return nil, &KeySizeError{Got: len(raw)}
}

// Derive returns the base58 public key for a 32-byte seed.
func Derive(seed []byte) (string, error) {
	if len(seed) != SeedSize {
		return "", &KeySizeError{Got: len(seed)}
	}
	return base58.Encode(derive(seed)), nil
}

func derive(seed []byte) []byte {
	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey)
}

// Size is the decoded length of the original input.
func (m *Material) Size() int {
	if m.Encoding == SeedPlusPublic64 {
		return KeypairSize
	}
	return SeedSize
}

// SeedBase58 returns the canonical 32-byte form.
func (m *Material) SeedBase58() string {
	return base58.Encode(m.Seed)
}

// Keypair64Base58 returns seed||derived-public-key.
func (m *Material) Keypair64Base58() string {
	return base58.Encode(ed25519.NewKeyFromSeed(m.Seed))
}

// Secret returns the representation selected by f.
func (m *Material) Secret(f Format) string {
	if f == Format64 {
		return m.Keypair64Base58()
	}
	return m.SeedBase58()
}

// ValidatePublicKey checks that s is base58 and decodes to 32 bytes.
func ValidatePublicKey(s string) error {
	if s == "" {
		return &EncodingError{}
	}
	if bad := InvalidChars(s); len(bad) > 0 {
		return &EncodingError{Chars: bad}
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key decoded to %d bytes, expected %d",
			ErrInvalidKeySize, len(raw), ed25519.PublicKeySize)
	}
	return nil
}

// Verify normalizes private and reports whether its derived public key equals public.
func Verify(private, public string) (*Material, bool, error) {
	m, err := Normalize(private)
	if err != nil {
		return nil, false, err
	}
	return m, m.PublicKey == public, nil
}

// ParseByteArray parses a JSON array of byte values such as a Solana CLI
// keypair file ("[247,144,...]").
func ParseByteArray(s string) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &ints); err != nil {
		return nil, fmt.Errorf("parsing byte array: %w", err)
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// Encode is a convenience wrapper around base58 encoding.
func Encode(b []byte) string {
	return base58.Encode(b)
}
