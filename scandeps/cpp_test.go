// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCPPScan(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name string
		buf  string
		want []string
	}{
		{
			name: "helloworld",
			buf: `
#include <stdio.h>

int main(int arg, char *argv[]) {
  printf("hello, world\n");
}
`,
			want: []string{
				"<stdio.h>",
			},
		},
		{
			name: "base",
			buf: `
// Copyright 2012 The Chromium Authors

#ifndef BASE_VERSION_H_
#define BASE_VERSION_H_

#include <stdint.h>

#include <iosfwd>
#include <string>
#include <vector>

#include "base/base_export.h"
#include "base/strings/string_piece.h"

namespace base {
 ...
}
`,
			want: []string{
				"<stdint.h>",
				"<iosfwd>",
				"<string>",
				"<vector>",
				`"base/base_export.h"`,
				`"base/strings/string_piece.h"`,
			},
		},
		{
			name: "variants",
			buf: `
  #  include "indented.h"
#include_next <next.h>
#import "objc.h"
#include"nospace.h"
#include FOO_H
#include "unclosed.h
#includefoo "bad.h"
#include ""
#pragma once
`,
			want: []string{
				`"indented.h"`,
				"<next.h>",
				`"objc.h"`,
				`"nospace.h"`,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := CPPScan(ctx, tc.name, []byte(tc.buf))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("CPPScan(%q) diff -want +got:\n%s", tc.buf, diff)
			}
		})
	}
}
