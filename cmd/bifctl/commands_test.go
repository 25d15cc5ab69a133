package main

import (
	"bytes"
	"strings"
	"testing"

	"bif_backend/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordCmd(t *testing.T) {
	cmd := hashPasswordCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"correct-horse-battery"})

	require.NoError(t, cmd.Execute())
	hash := strings.TrimSpace(out.String())
	assert.True(t, auth.CheckPasswordHash("correct-horse-battery", hash))
}

func TestHashPasswordCmd_Stdin(t *testing.T) {
	cmd := hashPasswordCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("from-stdin-secret\n"))
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.True(t, auth.CheckPasswordHash("from-stdin-secret", strings.TrimSpace(out.String())))
}

func TestHashPasswordCmd_TooShort(t *testing.T) {
	cmd := hashPasswordCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"short"})

	assert.Error(t, cmd.Execute())
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDate("2024-03-05")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 5, d.Day())

	_, err = parseDate("05.03.2024")
	assert.Error(t, err)
}
