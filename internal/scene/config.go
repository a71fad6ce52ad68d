package scene

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Vec3 [3]float64

// Range is a closed interval sampled uniformly.
type Range struct {
	Min float64 `toml:"min" json:"min"`
	Max float64 `toml:"max" json:"max"`
}

type Normal struct {
	Mean   float64 `toml:"mean" json:"mean"`
	StdDev float64 `toml:"stddev" json:"stddev"`
}

type Config struct {
	Seed      uint64         `toml:"seed"`
	Light     LightConfig    `toml:"light"`
	Camera    CameraConfig   `toml:"camera"`
	Ground    GroundConfig   `toml:"ground"`
	Walls     WallConfig     `toml:"walls"`
	Elements  ElementsConfig `toml:"elements"`
	Physics   PhysicsConfig  `toml:"physics"`
	Render    RenderConfig   `toml:"render"`
	Resources ResourceConfig `toml:"resources"`
}

type LightConfig struct {
	Type   string `toml:"type"`
	X      Range  `toml:"x"`
	Y      Range  `toml:"y"`
	Z      Range  `toml:"z"`
	Energy Range  `toml:"energy"`
}

type CameraConfig struct {
	Width    int  `toml:"width"`
	Height   int  `toml:"height"`
	Position Vec3 `toml:"position"`
	Rotation Vec3 `toml:"rotation"` // XYZ euler, radians
}

type GroundConfig struct {
	Shape          string  `toml:"shape"`
	Scale          Vec3    `toml:"scale"`
	Category       int     `toml:"category"`
	Texture        string  `toml:"texture"`
	TextureScale   float64 `toml:"texture_scale"`
	CollisionShape string  `toml:"collision_shape"`
}

// WallConfig describes the four passive walls that keep elements inside the
// camera frustum during simulation. Walls are removed before rendering.
type WallConfig struct {
	Enabled        bool       `toml:"enabled"`
	HalfSize       float64    `toml:"half_size"`
	Thickness      float64    `toml:"thickness"`
	Height         float64    `toml:"height"`
	BaseColor      [4]float64 `toml:"base_color"`
	Category       int        `toml:"category"`
	CollisionShape string     `toml:"collision_shape"`
}

type ElementKind struct {
	Name         string  `toml:"name"`
	Model        string  `toml:"model"`
	MeshPart     int     `toml:"mesh_part"` // the only part of the OBJ kept
	Category     int     `toml:"category"`
	Weight       float64 `toml:"weight"`
	Scale        float64 `toml:"scale"`
	ZOffset      float64 `toml:"z_offset"`
	RotationMin  Vec3    `toml:"rotation_min"`
	RotationMax  Vec3    `toml:"rotation_max"`
	Texture      string  `toml:"texture"`
	TextureScale float64 `toml:"texture_scale"`
}

type ElementsConfig struct {
	Rounds      int           `toml:"rounds"`
	MinPerRound int           `toml:"min_per_round"`
	MaxPerRound int           `toml:"max_per_round"`
	X           Normal        `toml:"x"`
	Y           Normal        `toml:"y"`
	Z           Range         `toml:"z"`
	Kinds       []ElementKind `toml:"kinds"`
}

type PhysicsConfig struct {
	MinSimulationTime   float64 `toml:"min_simulation_time" json:"min_simulation_time"`
	MaxSimulationTime   float64 `toml:"max_simulation_time" json:"max_simulation_time"`
	CheckObjectInterval float64 `toml:"check_object_interval" json:"check_object_interval"`
}

type RenderConfig struct {
	DepthAntialiasing bool     `toml:"depth_antialiasing" json:"depth_antialiasing"`
	Transparency      bool     `toml:"transparency" json:"transparency"`
	SegmentationMapBy []string `toml:"segmentation_map_by" json:"segmentation_map_by"`
	AppendToExisting  bool     `toml:"append_to_existing" json:"append_to_existing"`
}

type ResourceConfig struct {
	TextureDir string `toml:"texture_dir"`
	ModelDir   string `toml:"model_dir"`
}

func DefaultConfig() Config {
	return Config{
		Seed: 42,
		Light: LightConfig{
			Type:   "POINT",
			X:      Range{Min: -1, Max: 1},
			Y:      Range{Min: -1, Max: 1},
			Z:      Range{Min: 3, Max: 5},
			Energy: Range{Min: 100, Max: 300},
		},
		Camera: CameraConfig{
			Width:    1024,
			Height:   1024,
			Position: Vec3{0, 0, 9},
		},
		Ground: GroundConfig{
			Shape:          "PLANE",
			Scale:          Vec3{6, 6, 0},
			Category:       0,
			Texture:        "metallic_grid.jpg",
			TextureScale:   0.05,
			CollisionShape: "MESH",
		},
		Walls: WallConfig{
			Enabled:        true,
			HalfSize:       3,
			Thickness:      0.5,
			Height:         20,
			BaseColor:      [4]float64{1, 0, 0, 1},
			Category:       0,
			CollisionShape: "BOX",
		},
		Elements: ElementsConfig{
			Rounds:      2,
			MinPerRound: 1,
			MaxPerRound: 15,
			X:           Normal{Mean: 0, StdDev: 1},
			Y:           Normal{Mean: 0, StdDev: 1},
			Z:           Range{Min: 2, Max: 7},
			Kinds: []ElementKind{
				{
					Name:         "bolt",
					Model:        "1701623.obj",
					Category:     2,
					Weight:       0.5,
					Scale:        0.02,
					RotationMin:  Vec3{0, 0, -math.Pi},
					RotationMax:  Vec3{0, 0, math.Pi},
					Texture:      "black_metal.jpg",
					TextureScale: 0.05,
				},
				{
					Name:         "screw",
					Model:        "screw.obj",
					Category:     1,
					Weight:       0.5,
					Scale:        0.5,
					ZOffset:      2,
					RotationMin:  Vec3{0, math.Pi / 2, -math.Pi},
					RotationMax:  Vec3{0, math.Pi / 2, math.Pi},
					Texture:      "brushed-metal-texture.jpg",
					TextureScale: 0.5,
				},
			},
		},
		Physics: PhysicsConfig{
			MinSimulationTime:   4,
			MaxSimulationTime:   20,
			CheckObjectInterval: 1,
		},
		Render: RenderConfig{
			DepthAntialiasing: true,
			Transparency:      true,
			SegmentationMapBy: []string{"category_id", "instance", "name"},
			AppendToExisting:  true,
		},
		Resources: ResourceConfig{
			TextureDir: "resources/textures",
			ModelDir:   "resources/models",
		},
	}
}

// LoadConfig overlays the TOML file at path on DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	checkRange := func(name string, r Range) {
		if r.Min > r.Max {
			errs = append(errs, fmt.Errorf("%s: min %g greater than max %g", name, r.Min, r.Max))
		}
	}
	checkRange("light.x", c.Light.X)
	checkRange("light.y", c.Light.Y)
	checkRange("light.z", c.Light.Z)
	checkRange("light.energy", c.Light.Energy)
	checkRange("elements.z", c.Elements.Z)

	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera resolution %dx%d must be positive", c.Camera.Width, c.Camera.Height))
	}
	if c.Elements.Rounds < 0 {
		errs = append(errs, fmt.Errorf("elements.rounds must not be negative"))
	}
	if c.Elements.MinPerRound < 0 || c.Elements.MaxPerRound < c.Elements.MinPerRound {
		errs = append(errs, fmt.Errorf("elements per round [%d, %d] is invalid", c.Elements.MinPerRound, c.Elements.MaxPerRound))
	}
	if c.Elements.X.StdDev < 0 || c.Elements.Y.StdDev < 0 {
		errs = append(errs, fmt.Errorf("elements position stddev must not be negative"))
	}
	if c.Elements.Rounds > 0 && c.Elements.MaxPerRound > 0 {
		if len(c.Elements.Kinds) == 0 {
			errs = append(errs, fmt.Errorf("elements.kinds is empty"))
		}
		var total float64
		for i, k := range c.Elements.Kinds {
			if k.Weight < 0 {
				errs = append(errs, fmt.Errorf("elements.kinds[%d] (%s): negative weight", i, k.Name))
			}
			if k.Category == c.Ground.Category {
				errs = append(errs, fmt.Errorf("elements.kinds[%d] (%s): category %d is the background category", i, k.Name, k.Category))
			}
			if k.Model == "" {
				errs = append(errs, fmt.Errorf("elements.kinds[%d] (%s): missing model", i, k.Name))
			}
			for axis := 0; axis < 3; axis++ {
				if k.RotationMin[axis] > k.RotationMax[axis] {
					errs = append(errs, fmt.Errorf("elements.kinds[%d] (%s): rotation axis %d min greater than max", i, k.Name, axis))
				}
			}
			total += k.Weight
		}
		if len(c.Elements.Kinds) > 0 && total <= 0 {
			errs = append(errs, fmt.Errorf("elements.kinds weights sum to zero"))
		}
	}
	if c.Walls.Enabled && (c.Walls.HalfSize <= 0 || c.Walls.Thickness <= 0 || c.Walls.Height <= 0) {
		errs = append(errs, fmt.Errorf("walls dimensions must be positive"))
	}
	if c.Physics.MinSimulationTime < 0 || c.Physics.MaxSimulationTime < c.Physics.MinSimulationTime {
		errs = append(errs, fmt.Errorf("physics simulation time [%g, %g] is invalid", c.Physics.MinSimulationTime, c.Physics.MaxSimulationTime))
	}
	if c.Physics.CheckObjectInterval <= 0 {
		errs = append(errs, fmt.Errorf("physics.check_object_interval must be positive"))
	}
	return errors.Join(errs...)
}
