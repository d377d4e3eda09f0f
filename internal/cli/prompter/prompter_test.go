package prompter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withInput(t *testing.T, in string) *bytes.Buffer {
	t.Helper()
	out := &bytes.Buffer{}
	prevIn, prevOut := Input, Output
	Input, Output = strings.NewReader(in), out
	Reset()
	t.Cleanup(func() {
		Input, Output = prevIn, prevOut
		Reset()
	})
	return out
}

func TestPromptString(t *testing.T) {
	out := withInput(t, "  owner@example.com \nsecond\n")

	email, err := PromptString("Email: ")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", email)
	assert.Equal(t, "Email: ", out.String())

	next, err := PromptString("Next: ")
	require.NoError(t, err)
	assert.Equal(t, "second", next)
}

func TestPromptStringWithoutTrailingNewline(t *testing.T) {
	withInput(t, "last")
	v, err := PromptString("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", v)

	_, err = PromptString("> ")
	assert.Error(t, err)
}

func TestPromptPasswordFromPipe(t *testing.T) {
	withInput(t, "password123\n")
	pw, err := PromptPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "password123", pw)
}

func TestPromptConfirm(t *testing.T) {
	withInput(t, "Y\nno\n")

	ok, err := PromptConfirm("Delete?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = PromptConfirm("Delete?")
	require.NoError(t, err)
	assert.False(t, ok)
}
