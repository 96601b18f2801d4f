package mesh

import (
	"fmt"
	"math/rand"

	"github.com/achilleasa/bvh4/types"
)

// A Mesh is an indexed triangle list. Triangle ids are the face indices.
type Mesh struct {
	Name     string
	Vertices []types.Vec3
	Faces    [][3]uint32
}

// Create an empty mesh.
func New(name string) *Mesh {
	return &Mesh{Name: name}
}

// Get the number of triangles.
func (m *Mesh) NumPrimitives() int {
	return len(m.Faces)
}

// Get the vertices of a triangle.
func (m *Mesh) Triangle(id int) [3]types.Vec3 {
	face := m.Faces[id]
	return [3]types.Vec3{m.Vertices[face[0]], m.Vertices[face[1]], m.Vertices[face[2]]}
}

// Calculate the mesh bounding box.
func (m *Mesh) BBox() types.AABB {
	bbox := types.EmptyAABB()
	for _, face := range m.Faces {
		for _, index := range face {
			bbox = bbox.ExtendPoint(m.Vertices[index])
		}
	}
	return bbox
}

// Append a triangle and return its id.
func (m *Mesh) AddTriangle(v0, v1, v2 types.Vec3) int {
	first := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, v0, v1, v2)
	m.Faces = append(m.Faces, [3]uint32{first, first + 1, first + 2})
	return len(m.Faces) - 1
}

// Check that all vertex coordinates are finite and that all face indices
// reference a vertex.
func (m *Mesh) Validate() error {
	for index, v := range m.Vertices {
		if !(types.AABB{v, v}).IsFinite() {
			return fmt.Errorf("mesh %q: vertex %d has non-finite coordinates %v", m.Name, index, v)
		}
	}
	for faceIndex, face := range m.Faces {
		for _, index := range face {
			if int(index) >= len(m.Vertices) {
				return fmt.Errorf("mesh %q: face %d references vertex %d; mesh has %d vertices", m.Name, faceIndex, index, len(m.Vertices))
			}
		}
	}
	return nil
}

// Generate a mesh with numTriangles random triangles. Triangle centers are
// uniformly distributed inside a cube with side extent; each vertex is
// offset from the center by at most size along each axis.
func Random(numTriangles int, seed int64, extent, size float32) *Mesh {
	rng := rand.New(rand.NewSource(seed))
	randVec := func(scale float32) types.Vec3 {
		return types.XYZ(rng.Float32()*scale, rng.Float32()*scale, rng.Float32()*scale)
	}

	m := New(fmt.Sprintf("random-%d", numTriangles))
	m.Vertices = make([]types.Vec3, 0, 3*numTriangles)
	m.Faces = make([][3]uint32, 0, numTriangles)
	halfSize := types.XYZ(size, size, size)
	for i := 0; i < numTriangles; i++ {
		center := randVec(extent)
		m.AddTriangle(
			center.Add(randVec(2*size).Sub(halfSize)),
			center.Add(randVec(2*size).Sub(halfSize)),
			center.Add(randVec(2*size).Sub(halfSize)),
		)
	}
	return m
}
