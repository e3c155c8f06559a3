// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scan

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestSplitter_Next(t *testing.T) {
	raw := "Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA==, aO+8sA==,ok"

	token, rest, more := Comma.Next(raw)
	assert.True(t, more)
	assert.Equal(t, "Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA==", token)
	assert.Equal(t, "aO+8sA==,ok", rest)

	token, rest, more = Comma.Next(rest)
	assert.True(t, more)
	assert.Equal(t, "aO+8sA==", token)

	token, rest, more = Comma.Next(rest)
	assert.False(t, more)
	assert.Equal(t, "ok", token)
	assert.Empty(t, rest)
}

func TestSplitter_Cut(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		wantKey   string
		wantValue string
		wantOk    bool
	}{
		{"不带引号", "packetization-mode=1", "packetization-mode", "1", true},
		{"带引号", `profile-level-id="64001F"`, "profile-level-id", "64001F", true},
		{"带空格", " \tmode=  \"AAC-hbr\"\t", "mode", "AAC-hbr", true},
		{"值含分割符", "sprop-parameter-sets=Z0IAHg==,aM4G4g==", "sprop-parameter-sets", "Z0IAHg==,aM4G4g==", true},
		{"没有分割符", " flag ", "flag", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotKey, gotValue, gotOk := Equal.Cut(tt.args)
			assert.Equal(t, tt.wantKey, gotKey)
			assert.Equal(t, tt.wantValue, gotValue)
			assert.Equal(t, tt.wantOk, gotOk)
		})
	}
}

func TestSplitter_MultiRune(t *testing.T) {
	key, value, ok := New('是', unicode.IsSpace).Cut("a是 chj\t")
	assert.True(t, ok)
	assert.Equal(t, "a", key)
	assert.Equal(t, "chj", value)

	key, value, ok = New('=', nil).Cut(" a ")
	assert.False(t, ok)
	assert.Equal(t, " a ", key)
	assert.Empty(t, value)
}

func TestSplitter_Tokens(t *testing.T) {
	assert.Equal(t, []string{"packetization-mode=1", "sprop-parameter-sets=Z0IAHg==,aM4G4g=="},
		Semicolon.Tokens("packetization-mode=1; sprop-parameter-sets=Z0IAHg==,aM4G4g==;"))
	assert.Nil(t, Comma.Tokens(" , "))
}

func BenchmarkFmtp(b *testing.B) {
	s := `packetization-mode=1; sprop-parameter-sets=Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA==,aO+8sA==; profile-level-id=64001F`
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			var sprop string
			for _, token := range Semicolon.Tokens(s) {
				if k, v, _ := Equal.Cut(token); k == "sprop-parameter-sets" {
					sprop = v
				}
			}
			_ = sprop
		}
	})
}
