package asyncsnmp

import (
	"bytes"
	"testing"
)

func TestLocalizeKeyIsDeterministicAndEngineSpecific(t *testing.T) {
	engineA := []byte{0x80, 0x00, 0x1f, 0x88, 0x80, 0x01, 0x02, 0x03}
	engineB := []byte{0x80, 0x00, 0x1f, 0x88, 0x80, 0x04, 0x05, 0x06}

	k1 := AuthSHA1.LocalizeKey("authpassword", engineA)
	k2 := AuthSHA1.LocalizeKey("authpassword", engineA)
	if !bytes.Equal(k1, k2) {
		t.Fatal("expected localizing the same passphrase/engine twice to be deterministic")
	}
	if len(k1) != AuthSHA1.DigestLen() {
		t.Fatalf("expected a %d-byte key, got %d", AuthSHA1.DigestLen(), len(k1))
	}
	k3 := AuthSHA1.LocalizeKey("authpassword", engineB)
	if bytes.Equal(k1, k3) {
		t.Fatal("expected localization to differ across engine ids")
	}
}

func TestHMACPlaceholderPatchRoundTripsWithVerify(t *testing.T) {
	key := AuthSHA256.LocalizeKey("supersecret1", []byte{0x80, 0x00, 0x1f, 0x88, 0x01})
	msg := make([]byte, 40)
	for i := range msg {
		msg[i] = byte(i)
	}
	offset := 10
	macLen := AuthSHA256.MacLen()
	for i := 0; i < macLen; i++ {
		msg[offset+i] = 0
	}

	patched := AuthSHA256.hmacPlaceholderPatch(key, msg, offset)
	if len(patched) != macLen {
		t.Fatalf("expected a %d-byte mac, got %d", macLen, len(patched))
	}
	if !AuthSHA256.verifyHMAC(key, msg, msg[offset:offset+macLen]) {
		t.Fatal("expected the patched message to verify against the same key")
	}

	wrongKey := AuthSHA256.LocalizeKey("differentpassword", []byte{0x80, 0x00, 0x1f, 0x88, 0x01})
	if AuthSHA256.verifyHMAC(wrongKey, msg, msg[offset:offset+macLen]) {
		t.Fatal("expected verification under the wrong key to fail")
	}
}

func TestAESCFBEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, PrivAES128.KeyLen())
	for i := range key {
		key[i] = byte(i + 1)
	}
	salt := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	plaintext := []byte("a scoped pdu's worth of bytes, arbitrary length")

	ciphertext, err := PrivAES128.Encrypt(key, 3, 1000, salt, plaintext)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("expected ciphertext to differ from plaintext")
	}
	decrypted, err := PrivAES128.Decrypt(key, 3, 1000, salt, ciphertext)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatal("expected decrypt(encrypt(x)) == x")
	}
}

func TestDESCBCEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, PrivDES.KeyLen())
	for i := range key {
		key[i] = byte(i + 1)
	}
	salt := []byte{8, 7, 6, 5, 4, 3, 2, 1}
	plaintext := []byte("16 bytes exactly")

	ciphertext, err := PrivDES.Encrypt(key, 0, 0, salt, plaintext)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	decrypted, err := PrivDES.Decrypt(key, 0, 0, salt, ciphertext)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted[:len(plaintext)], plaintext) {
		t.Fatal("expected decrypt(encrypt(x)) to recover x (modulo block padding)")
	}
}

func TestKeyExtensionForStretchesShortDigestsToAESKeyLength(t *testing.T) {
	localized := AuthMD5.LocalizeKey("passphrase", []byte{0x80, 0x00, 0x1f, 0x88, 0x01})
	if len(localized) != 16 {
		t.Fatalf("expected MD5 localization to be 16 bytes, got %d", len(localized))
	}
	extended := KeyExtensionFor(AuthMD5, PrivAES256, localized, "passphrase", []byte{0x80, 0x00, 0x1f, 0x88, 0x01})
	if len(extended) != PrivAES256.KeyLen() {
		t.Fatalf("expected a %d-byte extended key, got %d", PrivAES256.KeyLen(), len(extended))
	}
	if !bytes.Equal(extended[:16], localized) {
		t.Fatal("expected the extension to begin with the original localized key")
	}
}

func TestKeyExtensionForIsNoopWhenDigestAlreadyLongEnough(t *testing.T) {
	localized := AuthSHA512.LocalizeKey("passphrase", []byte{0x80, 0x00, 0x1f, 0x88, 0x01})
	extended := KeyExtensionFor(AuthSHA512, PrivAES256, localized, "passphrase", []byte{0x80, 0x00, 0x1f, 0x88, 0x01})
	if !bytes.Equal(extended, localized[:PrivAES256.KeyLen()]) {
		t.Fatal("expected no stretching when the digest already covers the needed key length")
	}
}

// TestKeyExtensionForUsesBlumenthalFormula computes the expected extended
// key directly from the draft-blumenthal-aes-usm-04 chaining formula
// (Ku_{n+1} = Hash(engine_id || Ku_n), no passphrase) and checks
// KeyExtensionFor against it byte-for-byte, rather than only checking
// length/prefix.
func TestKeyExtensionForUsesBlumenthalFormula(t *testing.T) {
	engineID := []byte{0x80, 0x00, 0x1f, 0x88, 0x01}
	localized := AuthMD5.LocalizeKey("passphrase", engineID)

	want := append([]byte(nil), localized...)
	for len(want) < PrivAES256.KeyLen() {
		h := AuthMD5.newHash()()
		h.Write(engineID)
		h.Write(want[len(want)-len(localized):])
		want = append(want, h.Sum(nil)...)
	}
	want = want[:PrivAES256.KeyLen()]

	got := KeyExtensionFor(AuthMD5, PrivAES256, localized, "passphrase", engineID)
	if !bytes.Equal(got, want) {
		t.Fatalf("Blumenthal key extension mismatch:\n got  %x\n want %x", got, want)
	}
}

// TestKeyExtensionForUsesReederFormula computes the expected extended key
// directly from the draft-reeder-snmpv3-usm-3desede-00 chaining formula
// (Ku_{n+1} = Hash(Ku_n || engine_id || round), distinct from Blumenthal's
// engine_id-first ordering) and checks KeyExtensionFor against it
// byte-for-byte.
func TestKeyExtensionForUsesReederFormula(t *testing.T) {
	engineID := []byte{0x80, 0x00, 0x1f, 0x88, 0x01}
	localized := AuthMD5.LocalizeKey("passphrase", engineID)

	want := append([]byte(nil), localized...)
	for round := byte(1); len(want) < Priv3DES.KeyLen(); round++ {
		h := AuthMD5.newHash()()
		h.Write(want[len(want)-len(localized):])
		h.Write(engineID)
		h.Write([]byte{round})
		want = append(want, h.Sum(nil)...)
	}
	want = want[:Priv3DES.KeyLen()]

	got := KeyExtensionFor(AuthMD5, Priv3DES, localized, "passphrase", engineID)
	if !bytes.Equal(got, want) {
		t.Fatalf("Reeder key extension mismatch:\n got  %x\n want %x", got, want)
	}

	// Blumenthal and Reeder must diverge past the first (already-localized)
	// segment: the formulas hash the same inputs in different order/shape.
	blumenthal := KeyExtensionFor(AuthMD5, PrivAES192, localized, "passphrase", engineID)
	if bytes.Equal(blumenthal[len(localized):], got[len(localized):Priv3DES.KeyLen()]) {
		t.Fatal("expected Blumenthal and Reeder extensions to diverge past the localized prefix")
	}
}
