package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// AuthProtocol identifies the USM authentication algorithm, generalizing
// gosnmp's MD5/SHA-only SnmpV3AuthProtocol to the full RFC 7860 family.
//
// Grounded on v3.go's SnmpV3AuthProtocol and its md5HMAC/shaHMAC/genlocalkey
// helpers (password-stretch + localize), extended to the SHA-2 variants.
type AuthProtocol uint8

const (
	NoAuth AuthProtocol = iota
	AuthMD5
	AuthSHA1
	AuthSHA224
	AuthSHA256
	AuthSHA384
	AuthSHA512
)

func (p AuthProtocol) String() string {
	switch p {
	case NoAuth:
		return "NoAuth"
	case AuthMD5:
		return "MD5"
	case AuthSHA1:
		return "SHA1"
	case AuthSHA224:
		return "SHA224"
	case AuthSHA256:
		return "SHA256"
	case AuthSHA384:
		return "SHA384"
	case AuthSHA512:
		return "SHA512"
	default:
		return "Unknown"
	}
}

// MacLen is the truncated authentication parameter length carried on the
// wire: 12 bytes for MD5 and SHA1 (HMAC-96), and RFC 7860 §4.2.2's
// lengths for the SHA-2 family.
func (p AuthProtocol) MacLen() int {
	switch p {
	case AuthMD5, AuthSHA1:
		return 12
	case AuthSHA224:
		return 16
	case AuthSHA256:
		return 24
	case AuthSHA384:
		return 32
	case AuthSHA512:
		return 48
	default:
		return 0
	}
}

// DigestLen is the full underlying hash output length.
func (p AuthProtocol) DigestLen() int {
	switch p {
	case AuthMD5:
		return 16
	case AuthSHA1:
		return 20
	case AuthSHA224:
		return 28
	case AuthSHA256:
		return 32
	case AuthSHA384:
		return 48
	case AuthSHA512:
		return 64
	default:
		return 0
	}
}

func (p AuthProtocol) newHash() func() hash.Hash {
	switch p {
	case AuthMD5:
		return md5.New
	case AuthSHA1:
		return sha1.New
	case AuthSHA224:
		return sha256.New224
	case AuthSHA256:
		return sha256.New
	case AuthSHA384:
		return sha512.New384
	case AuthSHA512:
		return sha512.New
	default:
		return nil
	}
}

// LocalizeKey derives a user's localized authentication key from a
// passphrase and the authoritative engine's id, per RFC 3414 Appendix A:
// stretch the passphrase to 1MiB ("password-to-key"), hash it, then fold
// in the engine id ("key localization").
func (p AuthProtocol) LocalizeKey(passphrase string, engineID []byte) []byte {
	newHash := p.newHash()
	if newHash == nil || passphrase == "" {
		return nil
	}
	stretch := newHash()
	pwBytes := []byte(passphrase)
	var pi int
	chunk := make([]byte, 64)
	for i := 0; i < 1048576; i += 64 {
		for e := 0; e < 64; e++ {
			chunk[e] = pwBytes[pi%len(pwBytes)]
			pi++
		}
		stretch.Write(chunk)
	}
	stretched := stretch.Sum(nil)

	local := newHash()
	local.Write(stretched)
	local.Write(engineID)
	local.Write(stretched)
	return local.Sum(nil)
}

// hmacPlaceholderPatch computes the keyed-hash authentication parameter for
// an outbound message. msg must already have MacLen() zero bytes written at
// authParamOffset (RFC 3414 §6.3.1 requires the field to be zeroed before
// hashing); this function patches the real value in place and also returns
// it.
func (p AuthProtocol) hmacPlaceholderPatch(key []byte, msg []byte, authParamOffset int) []byte {
	newHash := p.newHash()
	mac := hmac.New(newHash, key)
	mac.Write(msg)
	full := mac.Sum(nil)
	macLen := p.MacLen()
	copy(msg[authParamOffset:authParamOffset+macLen], full[:macLen])
	return msg[authParamOffset : authParamOffset+macLen]
}

// verifyHMAC reports whether authParams is the correct keyed-hash digest of
// msg (which must have had its authParams field zeroed before hashing, the
// same as encoding does). Uses hmac.Equal for constant-time comparison.
func (p AuthProtocol) verifyHMAC(key []byte, msg []byte, authParams []byte) bool {
	newHash := p.newHash()
	if newHash == nil {
		return false
	}
	mac := hmac.New(newHash, key)
	mac.Write(msg)
	full := mac.Sum(nil)
	macLen := p.MacLen()
	if len(authParams) != macLen || len(full) < macLen {
		return false
	}
	return hmac.Equal(full[:macLen], authParams)
}
