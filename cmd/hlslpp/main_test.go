package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDefine(t *testing.T) {
	tests := []struct {
		in    string
		name  string
		value string
	}{
		{"DEBUG", "DEBUG", "1"},
		{"N=4", "N", "4"},
		{"MSG=hello world", "MSG", "hello world"},
		{"EMPTY=", "EMPTY", ""},
		{"=broken", "", "broken"},
	}

	for _, tt := range tests {
		name, value := splitDefine(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.value, value, tt.in)
	}
}

func TestRootCommandPreprocessesFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "shader.hlsl")
	output := filepath.Join(dir, "shader.i")
	require.NoError(t, os.WriteFile(input, []byte("float data[SIZE];\n"), 0o644))

	rootCmd.SetArgs([]string{
		"--config", filepath.Join(dir, "absent.yaml"),
		"-D", "SIZE=8",
		"-o", output,
		input,
	})
	require.NoError(t, rootCmd.Execute())

	out, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "float data[8];\n", string(out))
}
