package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/billbot/internal/encoding"
)

func TestDecode_UTF8Passthrough(t *testing.T) {
	input := "nome;tariffa\nAttività Cliente;250,00\nCaffè;12,50\n"

	r, charset, err := encoding.Decode(bytes.NewReader([]byte(input)))
	require.NoError(t, err)
	assert.Equal(t, encoding.UTF8, charset)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestDecode_Windows1252(t *testing.T) {
	// "Attività;250\n" with à = 0xE0 in Windows-1252.
	input := []byte{'A', 't', 't', 'i', 'v', 'i', 't', 0xE0, ';', '2', '5', '0', '\n'}

	r, _, err := encoding.Decode(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Attività;250\n", string(got))
}

func TestDecode_StripsUTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("nome;tariffa\n")...)

	r, charset, err := encoding.Decode(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, encoding.UTF8, charset)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "nome;tariffa\n", string(got))
}
