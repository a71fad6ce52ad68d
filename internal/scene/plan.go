package scene

import (
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	KindPrimitive = "primitive"
	KindMesh      = "mesh"
)

// Matrix is a row-major 4x4 world transform.
type Matrix [4][4]float64

func matrixFrom(m mgl64.Mat4) Matrix {
	var out Matrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r][c] = m.At(r, c)
		}
	}
	return out
}

// Transform builds translation * Rz * Ry * Rx * scale, the composition of an
// XYZ euler rotation.
func Transform(location, rotation, scale Vec3) mgl64.Mat4 {
	t := mgl64.Translate3D(location[0], location[1], location[2])
	r := mgl64.HomogRotate3DZ(rotation[2]).
		Mul4(mgl64.HomogRotate3DY(rotation[1])).
		Mul4(mgl64.HomogRotate3DX(rotation[0]))
	s := mgl64.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(r).Mul4(s)
}

type Light struct {
	Type     string  `json:"type"`
	Location Vec3    `json:"location"`
	Energy   float64 `json:"energy"`
}

type Camera struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
	World    Matrix `json:"world"`
}

type Material struct {
	Name         string      `json:"name"`
	Texture      string      `json:"texture,omitempty"`
	TextureScale float64     `json:"texture_scale,omitempty"`
	BaseColor    *[4]float64 `json:"base_color,omitempty"`
}

type RigidBody struct {
	Active         bool   `json:"active"`
	CollisionShape string `json:"collision_shape,omitempty"`
}

type Object struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Shape     string    `json:"shape,omitempty"`
	Model     string    `json:"model,omitempty"`
	MeshPart  int       `json:"mesh_part"`
	Category  int       `json:"category_id"`
	Location  Vec3      `json:"location"`
	Rotation  Vec3      `json:"rotation"`
	Scale     Vec3      `json:"scale"`
	World     Matrix    `json:"world"`
	Material  Material  `json:"material"`
	RigidBody RigidBody `json:"rigid_body"`
	// Helper geometry takes part in the simulation only and is deleted
	// before rendering.
	Helper bool `json:"helper"`
}

type Outputs struct {
	Coco             string `json:"coco_dir"`
	HDF5             string `json:"hdf5_dir"`
	AppendToExisting bool   `json:"append_to_existing"`
}

// Plan is the full, sampled description of one scene handed to the engine.
type Plan struct {
	ID        string        `json:"id"`
	Seed      uint64        `json:"seed"`
	CreatedAt time.Time     `json:"created_at"`
	Light     Light         `json:"light"`
	Camera    Camera        `json:"camera"`
	Objects   []Object      `json:"objects"`
	Physics   PhysicsConfig `json:"physics"`
	Render    RenderConfig  `json:"render"`
	Outputs   Outputs       `json:"outputs"`
}

func (p *Plan) RenderObjects() []Object {
	out := make([]Object, 0, len(p.Objects))
	for _, obj := range p.Objects {
		if !obj.Helper {
			out = append(out, obj)
		}
	}
	return out
}

func (p *Plan) Helpers() []Object {
	var out []Object
	for _, obj := range p.Objects {
		if obj.Helper {
			out = append(out, obj)
		}
	}
	return out
}

// Elements returns the active rigid bodies dropped into the scene.
func (p *Plan) Elements() []Object {
	var out []Object
	for _, obj := range p.Objects {
		if obj.RigidBody.Active {
			out = append(out, obj)
		}
	}
	return out
}

func (p *Plan) CountByCategory() map[int]int {
	counts := make(map[int]int)
	for _, obj := range p.RenderObjects() {
		counts[obj.Category]++
	}
	return counts
}

func (p *Plan) Categories() []int {
	counts := p.CountByCategory()
	out := make([]int, 0, len(counts))
	for c := range counts {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}
