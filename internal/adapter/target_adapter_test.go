package adapter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "spectra.dev/pkg/spectra/internal/model"
)

func TestLocalTargetAdapter_LoadDescriptor(t *testing.T) {
	loader := NewLocalTargetAdapter(NewLocalSourceFSAdapter(""))

	target, err := loader.Load(context.Background(), m.Path(filepath.Join("..", "..", "examples", "triangle", "triangle.yaml")))
	require.NoError(t, err)

	assert.Equal(t, "triangle", target.Name)
	assert.Equal(t, "triangle.cpp", filepath.Base(string(target.Source)))
	require.Len(t, target.Parameters, 3)
	assert.Equal(t, m.Parameter{Name: "a", Kind: m.KindInt, Min: -10, Max: 20, Bounded: true}, target.Parameters[0])
	assert.Len(t, target.Tests, 8)
	require.NotNil(t, target.Tests[0].Expected)
	assert.Equal(t, "equilateral", *target.Tests[0].Expected)
	assert.NotEmpty(t, target.Hash)
	assert.Greater(t, target.Complexity, 5)
}

func TestLocalTargetAdapter_LoadBareSource(t *testing.T) {
	loader := NewLocalTargetAdapter(NewLocalSourceFSAdapter(""))

	target, err := loader.Load(context.Background(), m.Path(filepath.Join("..", "..", "examples", "sign", "sign.c")))
	require.NoError(t, err)

	assert.Equal(t, "sign", target.Name)
	assert.Equal(t, m.ParameterSpec{{Name: "x", Kind: m.KindInt, Min: -100, Max: 100}}, target.Parameters)
	assert.Equal(t, 4, target.Complexity)
	assert.Empty(t, target.Tests)
}

func TestLocalTargetAdapter_Errors(t *testing.T) {
	ctx := context.Background()
	loader := NewLocalTargetAdapter(NewLocalSourceFSAdapter(""))
	dir := t.TempDir()

	t.Run("missing descriptor", func(t *testing.T) {
		_, err := loader.Load(ctx, m.Path(filepath.Join(dir, "nope.yaml")))
		assert.Error(t, err)
	})

	t.Run("descriptor without source", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		writeTestFile(t, path, "name: x\n")

		_, err := loader.Load(ctx, m.Path(path))
		assert.ErrorContains(t, err, "no source")
	})

	t.Run("test arity mismatch", func(t *testing.T) {
		writeTestFile(t, filepath.Join(dir, "p.c"), "int f(int a, int b) { return a + b; }\n")
		path := filepath.Join(dir, "arity.yaml")
		writeTestFile(t, path, "source: p.c\ntests:\n  - inputs: [1]\n")

		_, err := loader.Load(ctx, m.Path(path))
		assert.ErrorContains(t, err, "has 1 inputs")
	})

	t.Run("inverted bounds", func(t *testing.T) {
		writeTestFile(t, filepath.Join(dir, "r.c"), "int f(int a) { return a; }\n")
		path := filepath.Join(dir, "bounds.yaml")
		writeTestFile(t, path, "source: r.c\nparameters:\n  - name: a\n    min: 5\n    max: 1\n")

		_, err := loader.Load(ctx, m.Path(path))
		assert.ErrorContains(t, err, "greater than max")
	})

	t.Run("malformed branch label", func(t *testing.T) {
		writeTestFile(t, filepath.Join(dir, "s.c"), "int f(int a) { return a; }\n")
		path := filepath.Join(dir, "branches.yaml")
		writeTestFile(t, path, "source: s.c\nbranches: [L3:b0, then-branch]\n")

		_, err := loader.Load(ctx, m.Path(path))
		assert.ErrorContains(t, err, `branch "then-branch"`)
	})

	t.Run("unknown kind", func(t *testing.T) {
		writeTestFile(t, filepath.Join(dir, "q.c"), "int f(int a) { return a; }\n")
		path := filepath.Join(dir, "kind.yaml")
		writeTestFile(t, path, "source: q.c\nparameters:\n  - name: s\n    kind: string\n")

		_, err := loader.Load(ctx, m.Path(path))
		assert.ErrorContains(t, err, "unknown parameter kind")
	})
}

func TestLocalTargetAdapter_ParameterBounds(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "pin.c"), "int f(int a, int b, char c) { return a + b + c; }\n")
	path := filepath.Join(dir, "pin.yaml")
	writeTestFile(t, path, `source: pin.c
branches: [L1:b0, L1:b1]
parameters:
  - name: a
    kind: int
    min: 0
    max: 0
  - name: b
    min: 5
  - name: c
    kind: char
`)

	target, err := NewLocalTargetAdapter(NewLocalSourceFSAdapter("")).Load(context.Background(), m.Path(path))
	require.NoError(t, err)

	assert.Equal(t, m.ParameterSpec{
		{Name: "a", Kind: m.KindInt, Min: 0, Max: 0, Bounded: true},
		{Name: "b", Kind: m.KindInt, Min: 5, Max: 100, Bounded: true},
		{Name: "c", Kind: m.KindChar, Min: 32, Max: 126},
	}, target.Parameters)
	assert.Equal(t, 2, target.Branches.Len())

	// a pinned range survives population defaults
	assert.Equal(t, 0.0, target.Parameters[0].WithDefaults().Max)
}

func TestInferParameters(t *testing.T) {
	tests := []struct {
		name string
		code string
		want m.ParameterSpec
	}{
		{
			name: "mixed kinds",
			code: "#include <cstdio>\n// int ignored(int z) {\nstatic double area(const double w, float h, char unit, bool *ok) {\n  if (ok) { return w * h; }\n  return 0;\n}\nint main() { return 0; }\n",
			want: m.ParameterSpec{
				{Name: "w", Kind: m.KindFloat, Min: -100, Max: 100},
				{Name: "h", Kind: m.KindFloat, Min: -100, Max: 100},
				{Name: "unit", Kind: m.KindChar, Min: 32, Max: 126},
				{Name: "ok", Kind: m.KindBool, Min: 0, Max: 1},
			},
		},
		{
			name: "skips main and void functions",
			code: "int main() {\n  return 0;\n}\nvoid tick(void) {\n}\nunsigned long count(unsigned long n) {\n  while (n) { n--; }\n  return n;\n}\n",
			want: m.ParameterSpec{{Name: "n", Kind: m.KindInt, Min: -100, Max: 100}},
		},
		{
			name: "defaults to one int",
			code: "int main() { return 0; }\n",
			want: m.ParameterSpec{{Name: "x", Kind: m.KindInt, Min: -100, Max: 100}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferParameters(tt.code))
		})
	}
}

func TestComplexity(t *testing.T) {
	code := "int f(int x) {\n  // if this were a loop\n  if (x) { return 1; }\n  for (;;) { break; }\n  switch (x) { case 1: case 2: break; }\n  return 0;\n}\n"

	assert.Equal(t, 6, Complexity(code))
}
