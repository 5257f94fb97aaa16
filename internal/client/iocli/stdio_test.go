package iocli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeWith(t *testing.T, input string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	go func() {
		_, _ = w.Write([]byte(input))
		_ = w.Close()
	}()
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestNewStdio(t *testing.T) {
	assert.NotNil(t, NewStdio())
}

func TestStdio_Output(t *testing.T) {
	var out bytes.Buffer
	stdio := NewStdioFrom(pipeWith(t, ""), &out)

	stdio.Println("hello", "world")
	stdio.Printf("test %d %s", 1, "abc")
	_, err := stdio.Write([]byte("!"))
	require.NoError(t, err)

	assert.Equal(t, "hello world\ntest 1 abc!", out.String())
}

// pipe не терминал, поэтому пароль читается строкой
func TestStdio_ReadSequence(t *testing.T) {
	var out bytes.Buffer
	stdio := NewStdioFrom(pipeWith(t, "alice\n  pass with spaces \nlast"), &out)

	username, err := stdio.ReadInput("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	password, err := stdio.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "  pass with spaces ", password)

	last, err := stdio.ReadInput("Last: ")
	require.NoError(t, err)
	assert.Equal(t, "last", last)

	_, err = stdio.ReadInput("EOF: ")
	assert.Error(t, err)

	assert.Contains(t, out.String(), "Username: ")
	assert.Contains(t, out.String(), "Password: ")
}
