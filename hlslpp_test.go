package hlslpp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/hlslpp/pp"
	"github.com/gogpu/hlslpp/profile"
)

// TestPreprocessSimpleShader runs the whole pipeline over a small shader.
func TestPreprocessSimpleShader(t *testing.T) {
	source := `#define SIZE 4
float data[SIZE];
`
	out, err := Preprocess(source)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	want := "\nfloat data[4];\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

// TestPreprocessTargetPredefines checks that the target profile is
// visible to conditional compilation.
func TestPreprocessTargetPredefines(t *testing.T) {
	source := `#if __SHADER_TARGET_MAJOR >= 6
int modern;
#else
int legacy;
#endif
`
	opts := DefaultOptions()
	opts.Target = profile.Target{Stage: profile.StageCompute, Model: profile.ShaderModel6_0}
	out, err := PreprocessWithOptions(source, opts)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if !strings.Contains(out, "int modern;") {
		t.Errorf("SM 6.0 target should select the modern branch, got %q", out)
	}
	if strings.Contains(out, "int legacy;") {
		t.Errorf("dead branch leaked into output: %q", out)
	}
}

// TestPreprocessUserDefinesWinOverPredefines checks -D precedence.
func TestPreprocessUserDefinesWinOverPredefines(t *testing.T) {
	opts := DefaultOptions()
	opts.Defines = map[string]string{"__HLSL_VERSION": "2018"}

	out, err := PreprocessWithOptions("int v = __HLSL_VERSION;\n", opts)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if out != "int v = 2018;\n" {
		t.Errorf("output = %q, want the -D value to win", out)
	}
}

// TestPreprocessFileWithIncludes resolves quoted includes next to the
// main file.
func TestPreprocessFileWithIncludes(t *testing.T) {
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "main.hlsl")
	writeTestFile(t, mainPath, "#include \"common.hlsli\"\nfloat4 c = COLOR;\n")
	writeTestFile(t, filepath.Join(dir, "common.hlsli"), "#define COLOR float4(1, 0, 0, 1)\n")

	out, err := PreprocessFile(mainPath, DefaultOptions())
	if err != nil {
		t.Fatalf("PreprocessFile failed: %v", err)
	}
	if !strings.Contains(out, "float4 c = float4(1, 0, 0, 1);") {
		t.Errorf("macro from include did not expand, got %q", out)
	}
}

// TestPreprocessMissingInclude surfaces resolver errors with the
// searched paths.
func TestPreprocessMissingInclude(t *testing.T) {
	_, err := Preprocess("#include \"nope.hlsli\"\n")
	if err == nil {
		t.Fatal("expected an error for an unresolvable include")
	}
	if !strings.Contains(err.Error(), "nope.hlsli") {
		t.Errorf("error %q should name the include", err)
	}
}

// TestOpaqueHeaderByteIdentity pins the pass-through contract on the
// checked-in native header sample: output must equal input exactly.
func TestOpaqueHeaderByteIdentity(t *testing.T) {
	path := filepath.Join("samples", "custom", "sm5", "opaque_header.h")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	source := string(data)

	out, err := Preprocess(source)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if out != source {
		t.Errorf("opaque header was modified:\n--- input ---\n%s\n--- output ---\n%s", source, out)
	}
}

// TestOpaqueOmitDropsHeader checks the omit mode on the same sample.
func TestOpaqueOmitDropsHeader(t *testing.T) {
	path := filepath.Join("samples", "custom", "sm5", "opaque_header.h")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	opts := DefaultOptions()
	opts.Opaque = pp.OpaqueOmit
	out, err := PreprocessWithOptions(string(data), opts)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if out != "" {
		t.Errorf("omit mode should drop opaque content, got %q", out)
	}
}

// TestScan exposes the line scanner through the root package.
func TestScan(t *testing.T) {
	lines := Scan("#define A 1\nfloat x;\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !lines[0].Directive {
		t.Error("first line should be a directive")
	}
	if lines[1].Tokens[0].Text != "float" {
		t.Errorf("second line starts with %q, want float", lines[1].Tokens[0].Text)
	}
}

// TestClassify exposes the classifier verdict through the root package.
func TestClassify(t *testing.T) {
	rep := Classify("typedef struct _Item { int n; } Item;\n")
	if rep.Verdict.String() != "opaque" {
		t.Errorf("verdict = %v, want opaque", rep.Verdict)
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
