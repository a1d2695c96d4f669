package main

import (
	"bufio"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vinayprograms/bootshim/internal/env"
	"github.com/vinayprograms/bootshim/internal/preflight"
	"github.com/vinayprograms/bootshim/internal/solkey"
)

var errNoKey = errors.New("no key given (pass it as an argument, - for stdin, or set " + preflight.VarPrivateKey + ")")

// resolveKey picks the key from the argument, stdin ("-") or the
// environment, and strips quotes and surrounding whitespace.
func resolveKey(arg string, stdin io.Reader, getenv func(string) string) (string, error) {
	key := arg
	if key == "-" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("reading key from stdin: %w", err)
		}
		key = line
	}
	if key == "" {
		key = getenv(preflight.VarPrivateKey)
	}
	key = env.SanitizeValue(key)
	if key == "" {
		return "", errNoKey
	}
	return key, nil
}

// Run compares the derived public key with the expected one.
func (c *KeysVerifyCmd) Run(a *app) error {
	key, err := resolveKey(c.Key, a.stdin, os.Getenv)
	if err != nil {
		return err
	}
	public := c.Public
	if public == "" {
		public = os.Getenv(preflight.VarPublicKey)
	}
	return verifyKeys(a.stdout, key, env.SanitizeValue(public))
}

func verifyKeys(w io.Writer, key, public string) error {
	m, match, err := solkey.Verify(key, public)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Private key:        %d bytes (%s)\n", m.Size(), m.Encoding)
	if m.Mismatch {
		fmt.Fprintf(w, "Embedded public:    %s (does not match the seed)\n", m.EmbeddedPublicKey)
	}
	fmt.Fprintf(w, "Derived public key: %s\n", m.PublicKey)
	if public == "" {
		fmt.Fprintf(w, "\nNo public key to compare; set %s=%s\n", preflight.VarPublicKey, m.PublicKey)
		return nil
	}
	fmt.Fprintf(w, "Expected public:    %s\n", public)
	if match {
		fmt.Fprintln(w, "\n✓ Private key matches the public key")
		return nil
	}
	fmt.Fprintf(w, "\n✗ Private key does not match the public key\n  Update %s to: %s\n", preflight.VarPublicKey, m.PublicKey)
	return &exitError{code: 1}
}

// Run prints the 32-byte seed form.
func (c *KeysExtractCmd) Run(a *app) error {
	key, err := resolveKey(c.Key, a.stdin, os.Getenv)
	if err != nil {
		return err
	}
	m, err := solkey.Normalize(key)
	if err != nil {
		return err
	}
	if m.Encoding == solkey.Seed32 {
		fmt.Fprintln(a.stderr, "key is already the 32-byte seed")
	}
	fmt.Fprintln(a.stdout, m.SeedBase58())
	return nil
}

// Run converts a key between base58 and the Solana CLI byte-array form.
func (c *KeysConvertCmd) Run(a *app) error {
	key, err := resolveKey(c.Key, a.stdin, os.Getenv)
	if err != nil {
		return err
	}
	out, err := convertKey(key, c.To)
	if err != nil {
		return err
	}
	if c.EnvLine {
		out = preflight.VarPrivateKey + "=" + out
	}
	fmt.Fprintln(a.stdout, out)
	return nil
}

func convertKey(key, to string) (string, error) {
	var m *solkey.Material
	var err error
	if strings.HasPrefix(key, "[") {
		raw, perr := solkey.ParseByteArray(key)
		if perr != nil {
			return "", perr
		}
		m, err = solkey.FromBytes(raw)
	} else {
		m, err = solkey.Normalize(key)
	}
	if err != nil {
		return "", err
	}

	if to == "bytes" {
		full := ed25519.NewKeyFromSeed(m.Seed)
		ints := make([]int, len(full))
		for i, b := range full {
			ints[i] = int(b)
		}
		data, err := json.Marshal(ints)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	format, err := solkey.ParseFormat(to)
	if err != nil {
		return "", err
	}
	return m.Secret(format), nil
}

// Run prints the public key.
func (c *KeysDeriveCmd) Run(a *app) error {
	key, err := resolveKey(c.Key, a.stdin, os.Getenv)
	if err != nil {
		return err
	}
	m, err := solkey.Normalize(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, m.PublicKey)
	return nil
}
