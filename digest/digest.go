// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package digest handles content digests of source files.
//
// A digest is the SHA-256 of the raw bytes, the same hash function the
// remote execution API uses for its content addressable storage.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Size is the size of a digest in bytes.
const Size = sha256.Size

// Digest is a content digest.
type Digest [Size]byte

// Empty is the digest of empty content.
var Empty = FromBytes(nil)

// FromBytes computes the digest of b.
func FromBytes(b []byte) Digest {
	return Digest(sha256.Sum256(b))
}

// FromReader computes the digest of the content read from r.
func FromReader(r io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, err
	}
	var d Digest
	h.Sum(d[:0])
	return d, nil
}

// FromLocalFile computes the digest of the local file fname.
func FromLocalFile(fname string) (Digest, error) {
	f, err := os.Open(fname)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	return FromReader(f)
}

// Parse parses lowercase (or uppercase) hex string into a digest.
func Parse(s string) (Digest, error) {
	var d Digest
	if len(s) != hex.EncodedLen(Size) {
		return d, fmt.Errorf("bad digest length %d: %q", len(s), s)
	}
	_, err := hex.Decode(d[:], []byte(s))
	if err != nil {
		return Digest{}, fmt.Errorf("bad digest %q: %w", s, err)
	}
	return d, nil
}

// IsZero returns true when d is zero value.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// String returns lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns an abbreviated form for logs and UI.
func (d Digest) Short() string {
	return d.String()[:10]
}
