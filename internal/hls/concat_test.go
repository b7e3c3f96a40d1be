package hls

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcat(t *testing.T) {
	a := bytes.Repeat([]byte{0x01}, 100)
	b := bytes.Repeat([]byte{0x02}, 150)
	c := bytes.Repeat([]byte{0x03}, 200)

	combined := Concat([][]byte{a, b, c})

	assert.Len(t, combined, 450)
	assert.Equal(t, a, combined[:100])
	assert.Equal(t, b, combined[100:250])
	assert.Equal(t, c, combined[250:])
}

func TestConcat_Empty(t *testing.T) {
	assert.Empty(t, Concat(nil))
	assert.Empty(t, Concat([][]byte{}))
}

func TestConcat_SingleSegment(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	assert.Equal(t, data, Concat([][]byte{data}))
}
