// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		name string
		p    string
		want string
	}{
		{"empty", "  ", "/"},
		{"relative", "Cam1", "/cam1"},
		{"trailing", "/live/cam1/", "/live/cam1"},
		{"dots", "/live/../ingest//a", "/ingest/a"},
		{"backslash", `live\cam1`, "/live/cam1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalPath(tt.p))
		})
	}
}

func TestInputPath(t *testing.T) {
	assert.Equal(t, StdinPath, InputPath("-"))
	assert.Equal(t, "/camera", InputPath("/data/Camera.h264"))
	assert.Equal(t, "/noext", InputPath("noext"))
}
