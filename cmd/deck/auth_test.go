package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/fakeapi"
)

func TestReadSecret(t *testing.T) {
	cmd := &cobra.Command{}
	var prompt bytes.Buffer
	cmd.SetErr(&prompt)

	got, err := readSecret(cmd, "from-flag", "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", got)
	assert.Empty(t, prompt.String())

	cmd.SetIn(strings.NewReader("s3cret\r\nignored\n"))
	got, err = readSecret(cmd, "", "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Equal(t, "Password: ", prompt.String())

	cmd.SetIn(strings.NewReader(""))
	_, err = readSecret(cmd, "", "Password: ")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestReadSecretFromPipe(t *testing.T) {
	// A pipe is an *os.File but not a terminal, so it takes the line reader
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	_, err = w.WriteString("piped\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	cmd := &cobra.Command{}
	cmd.SetIn(r)
	cmd.SetErr(&bytes.Buffer{})
	got, err := readSecret(cmd, "", "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "piped", got)
}

func TestLoginReadsPipedPassword(t *testing.T) {
	setup(t)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(fakeapi.DemoPassword + "\n"))
	root.SetArgs([]string{"login", "--email", fakeapi.DemoEmail})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Signed in as Demo User")
}
