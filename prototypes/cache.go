// Copyright 2025 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package prototypes

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kilnbuild/kiln/digest"
)

// DefaultCacheSize is the default number of signature sets kept in a Cache.
const DefaultCacheSize = 8192

// Cache memoizes signature sets by content digest, so unchanged files are
// not tokenized again across rebuilds in the same process.
// It is safe for concurrent use.
type Cache struct {
	lru *lru.Cache[digest.Digest, *Set]
}

// NewCache creates a cache holding up to size signature sets.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[digest.Digest, *Set](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Extract returns the signature set of buf whose digest is d.
// A nil cache always extracts.
func (c *Cache) Extract(d digest.Digest, buf []byte) *Set {
	if c == nil {
		return Extract(buf)
	}
	if s, ok := c.lru.Get(d); ok {
		return s
	}
	s := Extract(buf)
	c.lru.Add(d, s)
	return s
}

// Len returns the number of cached signature sets.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
