package scene

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"
)

type sampler struct {
	rng *rand.Rand
}

func (s sampler) uniform(r Range) float64 {
	if r.Min == r.Max {
		return r.Min
	}
	return distuv.Uniform{Min: r.Min, Max: r.Max, Src: s.rng}.Rand()
}

func (s sampler) normal(n Normal) float64 {
	if n.StdDev == 0 {
		return n.Mean
	}
	return distuv.Normal{Mu: n.Mean, Sigma: n.StdDev, Src: s.rng}.Rand()
}

// intRange returns an integer in [lo, hi], both inclusive.
func (s sampler) intRange(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

func (s sampler) vec(lo, hi Vec3) Vec3 {
	var out Vec3
	for i := range out {
		out[i] = s.uniform(Range{Min: lo[i], Max: hi[i]})
	}
	return out
}

func (s sampler) pick(kinds []ElementKind) ElementKind {
	var total float64
	for _, k := range kinds {
		total += k.Weight
	}
	u := s.rng.Float64() * total
	for _, k := range kinds {
		if u < k.Weight {
			return k
		}
		u -= k.Weight
	}
	return kinds[len(kinds)-1]
}

// Generate samples a scene plan from cfg. Plans are reproducible: the same
// seed yields the same light, counts, poses and kinds.
func Generate(cfg Config, layout Layout) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := sampler{rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))}

	plan := &Plan{
		ID:        uuid.NewString(),
		Seed:      cfg.Seed,
		CreatedAt: time.Now().UTC(),
		Physics:   cfg.Physics,
		Render:    cfg.Render,
		Outputs: Outputs{
			Coco:             layout.Coco,
			HDF5:             layout.HDF5,
			AppendToExisting: cfg.Render.AppendToExisting,
		},
	}

	plan.Light = Light{
		Type: cfg.Light.Type,
		Location: Vec3{
			s.uniform(cfg.Light.X),
			s.uniform(cfg.Light.Y),
			s.uniform(cfg.Light.Z),
		},
		Energy: s.uniform(cfg.Light.Energy),
	}

	plan.Camera = Camera{
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		Position: cfg.Camera.Position,
		Rotation: cfg.Camera.Rotation,
		World:    matrixFrom(Transform(cfg.Camera.Position, cfg.Camera.Rotation, Vec3{1, 1, 1})),
	}

	plan.Objects = append(plan.Objects, ground(cfg.Ground, layout))
	if cfg.Walls.Enabled {
		plan.Objects = append(plan.Objects, walls(cfg.Walls)...)
	}

	seq := make(map[string]int)
	for round := 0; round < cfg.Elements.Rounds; round++ {
		n := s.intRange(cfg.Elements.MinPerRound, cfg.Elements.MaxPerRound)
		for i := 0; i < n; i++ {
			x := s.normal(cfg.Elements.X)
			y := s.normal(cfg.Elements.Y)
			z := s.uniform(cfg.Elements.Z)
			kind := s.pick(cfg.Elements.Kinds)
			rotation := s.vec(kind.RotationMin, kind.RotationMax)

			seq[kind.Name]++
			obj := Object{
				Name:     fmt.Sprintf("%s.%03d", kind.Name, seq[kind.Name]),
				Kind:     KindMesh,
				Model:    filepath.Join(layout.ModelDir, kind.Model),
				MeshPart: kind.MeshPart,
				Category: kind.Category,
				Location: Vec3{x, y, z + kind.ZOffset},
				Rotation: rotation,
				Scale:    Vec3{kind.Scale, kind.Scale, kind.Scale},
				Material: Material{
					Name:         "material",
					Texture:      filepath.Join(layout.TextureDir, kind.Texture),
					TextureScale: kind.TextureScale,
				},
				RigidBody: RigidBody{Active: true},
			}
			obj.World = matrixFrom(Transform(obj.Location, obj.Rotation, obj.Scale))
			plan.Objects = append(plan.Objects, obj)
		}
	}
	return plan, nil
}

func ground(cfg GroundConfig, layout Layout) Object {
	obj := Object{
		Name:     "ground",
		Kind:     KindPrimitive,
		Shape:    cfg.Shape,
		Category: cfg.Category,
		Scale:    cfg.Scale,
		Material: Material{
			Name:         "ground_material",
			Texture:      filepath.Join(layout.TextureDir, cfg.Texture),
			TextureScale: cfg.TextureScale,
		},
		RigidBody: RigidBody{Active: false, CollisionShape: cfg.CollisionShape},
	}
	obj.World = matrixFrom(Transform(obj.Location, obj.Rotation, obj.Scale))
	return obj
}

// walls encloses the drop area with four boxes whose inner faces sit at
// +-HalfSize. Primitive cubes span [-1, 1] so scales are half extents.
func walls(cfg WallConfig) []Object {
	b, t, h := cfg.HalfSize, cfg.Thickness, cfg.Height
	offset := b + t/2
	placements := []struct {
		scale    Vec3
		location Vec3
	}{
		{Vec3{b + t, t / 2, h}, Vec3{0, -offset, h / 2}},
		{Vec3{t / 2, b + t, h}, Vec3{-offset, 0, h / 2}},
		{Vec3{b + t, t / 2, h}, Vec3{0, offset, h / 2}},
		{Vec3{t / 2, b + t, h}, Vec3{offset, 0, h / 2}},
	}

	out := make([]Object, 0, len(placements))
	for i, p := range placements {
		color := cfg.BaseColor
		obj := Object{
			Name:     fmt.Sprintf("wall_%d", i),
			Kind:     KindPrimitive,
			Shape:    "CUBE",
			Category: cfg.Category,
			Location: p.location,
			Scale:    p.scale,
			Material: Material{
				Name:      fmt.Sprintf("wall_material_%d", i),
				BaseColor: &color,
			},
			RigidBody: RigidBody{Active: false, CollisionShape: cfg.CollisionShape},
			Helper:    true,
		}
		obj.World = matrixFrom(Transform(obj.Location, obj.Rotation, obj.Scale))
		out = append(out, obj)
	}
	return out
}
