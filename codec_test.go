package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTripArbitraryText(t *testing.T) {
	texts := []string{
		"",
		"plain",
		"line\nbreak\ttab",
		"quotes \" and \\ backslash",
		"<html>&amp;</html>",
		"日本語 🚀 ünïcödé",
		"nul\x00byte",
	}
	for _, text := range texts {
		item := testItem(9, "owner-"+text)
		item.Name = text
		item.Description = text + text

		data, err := encodeItem(item)
		require.NoError(t, err)
		got, err := decodeItem(9, data)
		require.NoError(t, err)
		assert.Equal(t, item, got)
		assert.True(t, got.UpdatedAt.Equal(item.UpdatedAt))
	}
}

func TestDecodeItemRejectsForeignBytes(t *testing.T) {
	valid, err := encodeItem(testItem(4, "alice"))
	require.NoError(t, err)

	cases := map[string]struct {
		key  uint64
		data []byte
	}{
		"garbage":       {4, []byte("\x01\x02\x03")},
		"empty":         {4, nil},
		"wrong shape":   {4, []byte(`[1,2,3]`)},
		"unknown field": {4, []byte(`{"id":4,"owner":"a","color":"red"}`)},
		"trailing data": {4, append(append([]byte{}, valid...), []byte(`{}`)...)},
		"key mismatch":  {5, valid},
		"bad timestamp": {4, []byte(`{"id":4,"created_at":"yesterday"}`)},
		"negative id":   {4, []byte(`{"id":-4}`)},
		"null":          {0, []byte(`null`)},
		"empty object":  {0, []byte(`{}`)},
		"only id":       {4, []byte(`{"id":4}`)},
		"null owner":    {4, []byte(`{"id":4,"owner":null,"name":"n","description":"d","created_at":"2024-05-01T12:00:00Z","updated_at":"2024-05-01T12:00:00Z"}`)},
		"no timestamps": {4, []byte(`{"id":4,"owner":"a","name":"n","description":"d"}`)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeItem(tc.key, tc.data)
			assert.ErrorIs(t, err, ErrCorruptRecord)
		})
	}
}
