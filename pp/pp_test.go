package pp

import (
	"fmt"
	"strings"
	"testing"
)

func preprocess(t *testing.T, opts Options, source string) string {
	t.Helper()
	p := New(opts)
	out, err := p.Preprocess(source)
	if err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}
	return out
}

func TestPlainSourcePassesThrough(t *testing.T) {
	source := "float4 main() : SV_Target {\n    return color;\n}\n"
	got := preprocess(t, DefaultOptions(), source)
	if got != source {
		t.Errorf("got %q, want %q", got, source)
	}
}

func TestDefineAndExpand(t *testing.T) {
	source := "#define SIZE 4\nint arr[SIZE];\n"
	got := preprocess(t, DefaultOptions(), source)
	want := "\nint arr[4];\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPredefines(t *testing.T) {
	opts := DefaultOptions()
	opts.Defines = map[string]string{"QUALITY": "2", "FAST": ""}

	got := preprocess(t, opts, "int q = QUALITY + FAST;\n")
	want := "int q = 2 + 1;\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConditionalIfdef(t *testing.T) {
	source := "#ifdef FOO\na\n#else\nb\n#endif\n"

	got := preprocess(t, DefaultOptions(), source)
	want := "\n\n\nb\n\n"
	if got != want {
		t.Errorf("undefined: got %q, want %q", got, want)
	}

	opts := DefaultOptions()
	opts.Defines = map[string]string{"FOO": "1"}
	got = preprocess(t, opts, source)
	want = "\na\n\n\n\n"
	if got != want {
		t.Errorf("defined: got %q, want %q", got, want)
	}
}

func TestConditionalElifChain(t *testing.T) {
	source := "#if LEVEL == 1\none\n#elif LEVEL == 2\ntwo\n#else\nother\n#endif\n"

	opts := DefaultOptions()
	opts.Defines = map[string]string{"LEVEL": "2"}
	got := preprocess(t, opts, source)
	want := "\n\n\ntwo\n\n\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNestedConditionals(t *testing.T) {
	source := strings.Join([]string{
		"#if 1",
		"#if 0",
		"dead",
		"#endif",
		"alive",
		"#endif",
		"",
	}, "\n")

	got := preprocess(t, DefaultOptions(), source)
	want := "\n\n\n\nalive\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDefinedOperator(t *testing.T) {
	source := "#if defined(A) && !defined B\nyes\n#endif\n"
	opts := DefaultOptions()
	opts.Defines = map[string]string{"A": "1"}

	got := preprocess(t, opts, source)
	want := "\nyes\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUnterminatedConditional(t *testing.T) {
	p := New(DefaultOptions())
	_, err := p.Preprocess("#if 1\nx\n")
	if err == nil {
		t.Fatal("expected error")
	}
	if !p.Errors().HasErrors() || p.Errors()[0].Kind != ErrUnterminatedConditional {
		t.Errorf("errors = %v", p.Errors())
	}
}

func TestUnbalancedEndif(t *testing.T) {
	p := New(DefaultOptions())
	p.Preprocess("#endif\n")
	if len(p.Errors()) != 1 || p.Errors()[0].Kind != ErrUnbalancedConditional {
		t.Errorf("errors = %v", p.Errors())
	}
}

func TestErrorDirective(t *testing.T) {
	p := New(DefaultOptions())
	p.Preprocess("#error unsupported target\n")
	errs := p.Errors()
	if len(errs) != 1 || errs[0].Kind != ErrErrorDirective {
		t.Fatalf("errors = %v", errs)
	}
	if !strings.Contains(errs[0].Message, "unsupported target") {
		t.Errorf("message = %q", errs[0].Message)
	}
}

func TestErrorDirectiveInDeadBranchIgnored(t *testing.T) {
	p := New(DefaultOptions())
	p.Preprocess("#if 0\n#error never\n#endif\n")
	if p.Errors().HasErrors() {
		t.Errorf("unexpected errors: %v", p.Errors())
	}
}

func TestInclude(t *testing.T) {
	files := map[string]string{
		"inc.h": "#define X 42\n",
	}
	opts := DefaultOptions()
	opts.Include = func(name string, quoted bool, from string) (*IncludeFile, error) {
		content, ok := files[name]
		if !ok {
			return nil, NewError(ErrInclude, "not found: "+name)
		}
		return &IncludeFile{Path: name, Content: content}, nil
	}

	got := preprocess(t, opts, "#include \"inc.h\"\nX\n")
	want := "\n42\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIncludeCycle(t *testing.T) {
	files := map[string]string{
		"a.h": "#include \"b.h\"\n",
		"b.h": "#include \"a.h\"\n",
	}
	opts := DefaultOptions()
	opts.Include = func(name string, quoted bool, from string) (*IncludeFile, error) {
		return &IncludeFile{Path: name, Content: files[name]}, nil
	}

	p := New(opts)
	p.Preprocess("#include \"a.h\"\n")
	found := false
	for _, e := range p.Errors() {
		if e.Kind == ErrInclude && strings.Contains(e.Message, "recursive") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected recursive include error, got %v", p.Errors())
	}
}

func TestPragmaOnce(t *testing.T) {
	count := 0
	opts := DefaultOptions()
	opts.Include = func(name string, quoted bool, from string) (*IncludeFile, error) {
		count++
		return &IncludeFile{Path: "once.h", Content: "#pragma once\nint x;\n"}, nil
	}

	got := preprocess(t, opts, "#include \"once.h\"\n#include \"once.h\"\n")
	want := "\nint x;\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIncludeGuard(t *testing.T) {
	opts := DefaultOptions()
	opts.Include = func(name string, quoted bool, from string) (*IncludeFile, error) {
		return &IncludeFile{
			Path:    "g.h",
			Content: "#ifndef G_H\n#define G_H\nint g;\n#endif\n",
			Guard:   "G_H",
		}, nil
	}

	got := preprocess(t, opts, "#include \"g.h\"\n#include \"g.h\"\n")
	// First inclusion emits the guarded body; the second is suppressed
	// because G_H is defined.
	want := "\n\nint g;\n\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIncludeWithoutResolver(t *testing.T) {
	p := New(DefaultOptions())
	p.Preprocess("#include \"missing.h\"\n")
	if len(p.Errors()) != 1 || p.Errors()[0].Kind != ErrInclude {
		t.Errorf("errors = %v", p.Errors())
	}
}

func TestAngledInclude(t *testing.T) {
	var gotName string
	var gotQuoted bool
	opts := DefaultOptions()
	opts.Include = func(name string, quoted bool, from string) (*IncludeFile, error) {
		gotName = name
		gotQuoted = quoted
		return &IncludeFile{Path: name, Content: ""}, nil
	}

	preprocess(t, opts, "#include <sys/common.hlsli>\n")
	if gotName != "sys/common.hlsli" || gotQuoted {
		t.Errorf("resolved %q quoted=%v", gotName, gotQuoted)
	}
}

func TestCommentStripping(t *testing.T) {
	source := "int x; // trailing\nint /* mid */ y;\n"
	got := preprocess(t, DefaultOptions(), source)
	want := "int x;\nint y;\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestKeepComments(t *testing.T) {
	opts := DefaultOptions()
	opts.KeepComments = true
	source := "int x; // trailing\n"
	got := preprocess(t, opts, source)
	if got != source {
		t.Errorf("got %q, want %q", got, source)
	}
}

func TestPragmaPassesThrough(t *testing.T) {
	source := "#pragma pack_matrix(row_major)\n"
	got := preprocess(t, DefaultOptions(), source)
	if got != source {
		t.Errorf("got %q, want %q", got, source)
	}
}

func TestFileAndLineMacros(t *testing.T) {
	opts := DefaultOptions()
	opts.Filename = "shader.hlsl"
	got := preprocess(t, opts, "__LINE__\n__FILE__\n__LINE__\n")
	want := "1\n\"shader.hlsl\"\n3\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLineDirective(t *testing.T) {
	opts := DefaultOptions()
	got := preprocess(t, opts, "#line 100\n__LINE__\n")
	want := "\n100\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMacroCallAcrossLines(t *testing.T) {
	source := "#define ADD(a,b) a+b\nADD(1,\n2)\n"
	got := preprocess(t, DefaultOptions(), source)
	want := "\n1+2\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLineSpliceInDirective(t *testing.T) {
	source := "#define LONG \\\n  7\nLONG\n"
	got := preprocess(t, DefaultOptions(), source)
	want := "\n\n7\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUnknownDirective(t *testing.T) {
	p := New(DefaultOptions())
	p.Preprocess("#frobnicate\n")
	if len(p.Errors()) != 1 || p.Errors()[0].Kind != ErrUnknownDirective {
		t.Errorf("errors = %v", p.Errors())
	}
}

func TestOpaqueMainPassThrough(t *testing.T) {
	source := "typedef struct _Item {\n    int count;\n} Item;\n"
	opts := DefaultOptions()
	opts.Classify = func(string) bool { return true }

	got := preprocess(t, opts, source)
	if got != source {
		t.Errorf("opaque content modified: got %q", got)
	}
}

func TestOpaqueMainOmit(t *testing.T) {
	opts := DefaultOptions()
	opts.Classify = func(string) bool { return true }
	opts.Opaque = OpaqueOmit

	got := preprocess(t, opts, "anything at all\n")
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestOpaqueForceProcesses(t *testing.T) {
	opts := DefaultOptions()
	opts.Classify = func(string) bool { return true }
	opts.Opaque = OpaqueForce
	opts.Defines = map[string]string{"N": "3"}

	got := preprocess(t, opts, "int x = N;\n")
	want := "int x = 3;\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestOpaqueInclude(t *testing.T) {
	opaqueContent := "typedef struct _T { int n; } T;\n"
	opts := DefaultOptions()
	opts.Classify = func(source string) bool {
		return strings.Contains(source, "typedef")
	}
	opts.Include = func(name string, quoted bool, from string) (*IncludeFile, error) {
		return &IncludeFile{Path: name, Content: opaqueContent}, nil
	}

	got := preprocess(t, opts, "#include \"native.h\"\nfloat4 c;\n")
	want := "typedef struct _T { int n; } T;\nfloat4 c;\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDeepIncludeLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 4
	n := 0
	opts.Include = func(name string, quoted bool, from string) (*IncludeFile, error) {
		n++
		return &IncludeFile{Path: fmt.Sprintf("f%d", n), Content: "#include \"f\"\n"}, nil
	}

	p := New(opts)
	p.Preprocess("#include \"f\"\n")
	found := false
	for _, e := range p.Errors() {
		if e.Kind == ErrTooDeep {
			found = true
		}
	}
	if !found {
		t.Errorf("expected depth error, got %v", p.Errors())
	}
}

func TestBareFunctionMacroKeepsFollowingLines(t *testing.T) {
	// A function-like macro name with no '(' on its line is not an
	// invocation; the lines after it must stay intact.
	source := "#define F(x) x\nF\n#define Y 1\nY\n"
	got := preprocess(t, DefaultOptions(), source)
	want := "\nF\n\n1\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAdjacentLinesStaySeparate(t *testing.T) {
	source := "#define N 2\nint a[N];\nint b[N];\nint c;\n"
	got := preprocess(t, DefaultOptions(), source)
	want := "\nint a[2];\nint b[2];\nint c;\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestArgumentListStopsAtDirective(t *testing.T) {
	source := "#define F(x) x\nF(1,\n#define Y 2\nY\n"

	p := New(DefaultOptions())
	out, err := p.Preprocess(source)
	if err == nil {
		t.Fatal("expected an unterminated-arguments error")
	}
	found := false
	for _, e := range p.Errors() {
		if e.Kind == ErrMacroArguments {
			found = true
		}
	}
	if !found {
		t.Errorf("expected MacroArguments error, got %v", p.Errors())
	}

	// The directive after the open argument list still takes effect.
	if !strings.HasSuffix(out, "\n2\n") {
		t.Errorf("define after open argument list was lost, got %q", out)
	}
}

func TestKeepCommentsBlockSpansLines(t *testing.T) {
	opts := DefaultOptions()
	opts.KeepComments = true
	source := "int /* a\nb */ x;\nfloat y;\n"
	got := preprocess(t, opts, source)
	if got != source {
		t.Errorf("got %q, want %q", got, source)
	}
}

func TestDefinedWithoutOperand(t *testing.T) {
	p := New(DefaultOptions())
	p.Preprocess("#if defined\nint a;\n#endif\n")
	found := false
	for _, e := range p.Errors() {
		if e.Kind == ErrMalformedDirective {
			found = true
		}
	}
	if !found {
		t.Errorf("expected MalformedDirective error, got %v", p.Errors())
	}
}

func TestPreprocessorReuse(t *testing.T) {
	opts := DefaultOptions()
	opts.Include = func(name string, quoted bool, from string) (*IncludeFile, error) {
		return &IncludeFile{Path: name, Content: "#pragma once\nint v;\n"}, nil
	}

	p := New(opts)
	want := "\nint v;\n"
	for run := 0; run < 2; run++ {
		got, err := p.Preprocess("#include \"shared.h\"\n")
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if got != want {
			t.Errorf("run %d: got %q, want %q (once state leaked)", run, got, want)
		}
	}
}

func TestErrorsResetBetweenRuns(t *testing.T) {
	p := New(DefaultOptions())
	if _, err := p.Preprocess("#error boom\n"); err == nil {
		t.Fatal("expected error from first run")
	}

	out, err := p.Preprocess("int x;\n")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if out != "int x;\n" {
		t.Errorf("second run: got %q", out)
	}
}
