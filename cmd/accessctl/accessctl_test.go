package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/accessimport/internal/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInspectCommand(t *testing.T) {
	path := writeFile(t, "export.csv",
		"Badge,Date,Heure,Lecteur\nV-1024,15/03/2024,08:30,Porte_Sortie\n")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", "", "inspect", path})
	require.NoError(t, cmd.Execute())

	var got struct {
		Command string             `json:"command"`
		Result  core.InspectReport `json:"result"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "inspect", got.Command)
	assert.Equal(t, "comma", got.Result.Delimiter)
	require.Len(t, got.Result.Rows, 1)
	assert.Equal(t, "2024-03-15", got.Result.Rows[0].Record.EventDate)
	assert.True(t, got.Result.Rows[0].Record.IsVisitor)
}

func TestInspectCommand_InvalidHeader(t *testing.T) {
	path := writeFile(t, "bad.csv", "foo,bar\n1,2\n")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", "", "inspect", path})

	err := cmd.Execute()
	assert.ErrorIs(t, err, core.ErrInvalidFormat)
}

func TestOpenInput(t *testing.T) {
	path := writeFile(t, "a.csv", "badge,date\n")

	f, err := openInput(path, 0)
	require.NoError(t, err)
	f.Close()

	_, err = openInput(path, 4)
	assert.ErrorIs(t, err, core.ErrFileTooLarge)

	_, err = openInput(writeFile(t, "empty.csv", ""), 0)
	assert.ErrorIs(t, err, core.ErrEmptyFile)

	_, err = openInput(filepath.Dir(path), 0)
	assert.Error(t, err)
}

func TestImportCommand_RequiresFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"import"})
	assert.Error(t, cmd.Execute())
}
