package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/bvh4/asset"
	"github.com/achilleasa/bvh4/types"
)

func mockResource(name, payload string) *asset.Resource {
	return asset.NewResourceFromStream(name, strings.NewReader(payload))
}

func TestWavefrontFaceTriangulation(t *testing.T) {
	payload := `
# a unit quad and a pentagon
o shapes
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vt 0 0
usemtl white
f 1/1/1 2/1/1 3/1/1 4/1/1
v 0 0 1
v 1 0 1
v 2 1 1
v 1 2 1
v 0 1 1
f -5 -4 -3 -2 -1
f 1//1 2//1 5//1
`
	m, err := newWavefrontReader().Read(mockResource("shapes.obj", payload))
	if err != nil {
		t.Fatal(err)
	}

	if m.Name != "shapes" {
		t.Fatalf("expected mesh name to be shapes; got %s", m.Name)
	}
	if len(m.Vertices) != 9 {
		t.Fatalf("expected 9 vertices; got %d", len(m.Vertices))
	}

	expFaces := [][3]uint32{
		{0, 1, 2}, {0, 2, 3},
		{4, 5, 6}, {4, 6, 7}, {4, 7, 8},
		{0, 1, 4},
	}
	if len(m.Faces) != len(expFaces) {
		t.Fatalf("expected %d faces; got %d", len(expFaces), len(m.Faces))
	}
	for index, exp := range expFaces {
		if m.Faces[index] != exp {
			t.Fatalf("expected face %d to be %v; got %v", index, exp, m.Faces[index])
		}
	}

	if err = m.Validate(); err != nil {
		t.Fatal(err)
	}
	expBBox := types.AABB{types.XYZ(0, 0, 0), types.XYZ(2, 2, 1)}
	if m.BBox() != expBBox {
		t.Fatalf("expected bbox %v; got %v", expBBox, m.BBox())
	}
}

func TestWavefrontErrors(t *testing.T) {
	specs := []struct {
		payload string
		expErr  string
	}{
		{"v 1 2\n", `[broken.obj: 1] error: unsupported syntax for "v"; expected 3 arguments; got 2`},
		{"v 1 2 foo\n", `[broken.obj: 1] error: strconv.ParseFloat: parsing "foo": invalid syntax`},
		{"v 0 0 0\nv 1 0 0\nf 1 2\n", `[broken.obj: 3] error: unsupported syntax for "f"; expected at least 3 arguments; got 2`},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", `[broken.obj: 4] error: could not parse vertex coord for face argument 2: index out of bounds`},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2 3\n", `[broken.obj: 4] error: expected each face argument to contain 2 indices; arg 1 contains 1 indices`},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", `[broken.obj: 4] error: could not parse vertex coord for face argument 0: index 0 is not valid; indices start at 1`},
		{"v 0 0 0\nf /1 /2 /3\n", `[broken.obj: 2] error: face argument 0 does not include a vertex index`},
		{"o\n", `[broken.obj: 1] error: unsupported syntax for "o"; expected 1 argument for object name; got 0`},
		{"call\n", `[broken.obj: 1] error: unsupported syntax for "call"; expected 1 argument; got 0`},
	}

	for specIndex, spec := range specs {
		_, err := newWavefrontReader().Read(mockResource("broken.obj", spec.payload))
		if err == nil || err.Error() != spec.expErr {
			t.Fatalf("[spec %d] expected error %q; got %v", specIndex, spec.expErr, err)
		}
	}
}

func TestWavefrontInclude(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"main.obj": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\ncall part.obj\n",
		"part.obj": "v 5 5 5\nv 6 5 5\nv 5 6 5\nf 1 2 3\ncall missing.obj\n",
	}
	for name, payload := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0644); err != nil {
			t.Fatal(err)
		}
	}

	_, err := ReadMesh(filepath.Join(dir, "main.obj"))
	if err == nil || !strings.Contains(err.Error(), "referenced from") {
		t.Fatalf("expected error with include stack; got %v", err)
	}

	// Drop the broken include and try again.
	files["part.obj"] = "v 5 5 5\nv 6 5 5\nv 5 6 5\nf 1 2 3\n"
	if err = os.WriteFile(filepath.Join(dir, "part.obj"), []byte(files["part.obj"]), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := ReadMesh(filepath.Join(dir, "main.obj"))
	if err != nil {
		t.Fatal(err)
	}
	if m.NumPrimitives() != 2 {
		t.Fatalf("expected 2 triangles; got %d", m.NumPrimitives())
	}
	if m.Faces[1] != [3]uint32{3, 4, 5} {
		t.Fatalf("expected included face indices to be relative to the included file; got %v", m.Faces[1])
	}
}

func TestReadMeshUnsupportedFormat(t *testing.T) {
	if _, err := ReadMesh("mesh.ply"); err == nil {
		t.Fatal("expected an error for unsupported mesh format")
	}
	if _, err := ReadTree("tree.bin"); err == nil {
		t.Fatal("expected an error for unsupported tree format")
	}
}
