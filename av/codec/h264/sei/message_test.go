// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sei

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/cnotch/avcsei/av/codec/h264"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	data, err := hex.DecodeString(s)
	require.NoError(t, err)
	return data
}

func TestParseMessages(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		msgs, err := ParseMessages(nil)
		assert.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("only trailing", func(t *testing.T) {
		msgs, err := ParseMessages([]byte{0x80})
		assert.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("two messages", func(t *testing.T) {
		msgs, err := ParseMessages(mustHex(t, "0102aabb"+"0500"+"80"))
		require.NoError(t, err)
		assert.Equal(t, []RawMessage{
			{Type: TypePicTiming, Payload: mustHex(t, "aabb")},
			{Type: TypeUserDataUnregistered, Payload: []byte{}},
		}, msgs)
	})

	t.Run("ff coded size", func(t *testing.T) {
		payload := bytes.Repeat([]byte{0x11}, 300)
		rbsp := append(mustHex(t, "89"+"ff2d"), payload...)
		rbsp = append(rbsp, 0x80)

		msgs, err := ParseMessages(rbsp)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, TypeMasteringDisplayColourVolume, msgs[0].Type)
		assert.Equal(t, payload, msgs[0].Payload)
	})

	t.Run("type 255", func(t *testing.T) {
		msgs, err := ParseMessages(mustHex(t, "ff00"+"01"+"aa"+"80"))
		require.NoError(t, err)
		assert.Equal(t, PayloadType(255), msgs[0].Type)
	})

	t.Run("not aligned", func(t *testing.T) {
		_, err := ParseMessages(mustHex(t, "0500"))
		assert.ErrorIs(t, err, h264.ErrInvalidAlignment)
	})

	t.Run("eof in type", func(t *testing.T) {
		_, err := ParseMessages(mustHex(t, "ffff80"))
		assert.ErrorIs(t, err, h264.ErrUnexpectedEOF)
	})

	t.Run("eof in size", func(t *testing.T) {
		_, err := ParseMessages(mustHex(t, "05ff80"))
		assert.ErrorIs(t, err, h264.ErrUnexpectedEOF)
	})

	t.Run("eof in payload", func(t *testing.T) {
		_, err := ParseMessages(mustHex(t, "0503aabb80"))
		assert.ErrorIs(t, err, h264.ErrUnexpectedEOF)
	})
}

func TestPayloadType_String(t *testing.T) {
	assert.Equal(t, "pic_timing", TypePicTiming.String())
	assert.Equal(t, "user_data_unregistered", TypeUserDataUnregistered.String())
	assert.Equal(t, "sei_prefix_indication", TypeSeiPrefixIndication.String())
	assert.Equal(t, "reserved_sei_message(55)", PayloadType(55).String())
}
