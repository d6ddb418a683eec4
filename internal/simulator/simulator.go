// Package simulator produces synthetic render outputs without a real
// renderer: an orbiting camera around a lit cube, written as container
// files with color, depth and normal datasets.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"synthpack-go/internal/container"
)

// Vec3 is a 3-component vector.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

func (v Vec3) axis(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Scene describes the synthetic setup: a cube at the origin, a point
// light, and a camera orbit.
type Scene struct {
	Width, Height int
	FOV           float64 // vertical field of view in radians
	Radius        float64 // camera orbit radius
	Elevation     float64 // camera height above the orbit plane
	CubeHalf      float64 // half extent of the cube at the origin
	Light         Vec3
	LightEnergy   float64
}

// DefaultScene returns the stock scene: a 2x2x2 cube viewed from a
// 5-unit orbit at elevation 2, lit from (5, -5, 5).
func DefaultScene() Scene {
	return Scene{
		Width:       512,
		Height:      512,
		FOV:         0.6911, // about 39.6 degrees
		Radius:      5,
		Elevation:   2,
		CubeHalf:    1,
		Light:       Vec3{5, -5, 5},
		LightEnergy: 1000,
	}
}

type camera struct {
	pos     Vec3
	right   Vec3
	up      Vec3
	forward Vec3
}

// camera places view index on the orbit circle, looking at the origin
// with world +Z as up.
func (s Scene) camera(index, total int) camera {
	angle := 2 * math.Pi * float64(index) / float64(total)
	pos := Vec3{s.Radius * math.Cos(angle), s.Radius * math.Sin(angle), s.Elevation}
	forward := Vec3{}.Sub(pos).Normalize()
	right := forward.Cross(Vec3{0, 0, 1}).Normalize()
	up := right.Cross(forward)
	return camera{pos: pos, right: right, up: up, forward: forward}
}

var axisNormals = [3]Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// intersectCube runs the slab test against the axis-aligned cube. The
// returned t is in units of dir, with the surface normal of the entry
// face.
func (s Scene) intersectCube(origin, dir Vec3) (float64, Vec3, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	var normal Vec3
	for i := 0; i < 3; i++ {
		o, d := origin.axis(i), dir.axis(i)
		if math.Abs(d) < 1e-12 {
			if o < -s.CubeHalf || o > s.CubeHalf {
				return 0, Vec3{}, false
			}
			continue
		}
		t1 := (-s.CubeHalf - o) / d
		t2 := (s.CubeHalf - o) / d
		n := axisNormals[i].Scale(-math.Copysign(1, d))
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			normal = n
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, Vec3{}, false
		}
	}
	if tmin <= 0 {
		return 0, Vec3{}, false
	}
	return tmin, normal, true
}

// shade computes a clamped lambertian term for the point light with
// inverse-square falloff and a small ambient floor.
func (s Scene) shade(p, n Vec3) float64 {
	l := s.Light.Sub(p)
	r2 := l.Dot(l)
	lambert := n.Dot(l.Normalize())
	if lambert < 0 {
		lambert = 0
	}
	intensity := s.LightEnergy / (4 * math.Pi * r2)
	v := 0.08 + 0.9*lambert*intensity
	if v > 1 {
		v = 1
	}
	return v
}

// RenderFrame ray-casts view index of total and assembles the frame
// container: uint8 colors, float32 depth with +Inf on miss, float32
// camera-space normals with z toward the viewer, plus camera metadata.
func (s Scene) RenderFrame(index, total int) container.Container {
	cam := s.camera(index, total)
	back := cam.forward.Scale(-1)

	w, h := s.Width, s.Height
	focal := float64(h) / (2 * math.Tan(s.FOV/2))
	cx, cy := float64(w)/2, float64(h)/2

	colors := make([]uint8, w*h*3)
	depth := make([]float32, w*h)
	normals := make([]float32, w*h*3)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := (float64(x) + 0.5 - cx) / focal
			py := (float64(y) + 0.5 - cy) / focal
			// forward keeps coefficient 1 so t is z-depth
			dir := cam.right.Scale(px).Add(cam.up.Scale(-py)).Add(cam.forward)

			i := y*w + x
			t, n, hit := s.intersectCube(cam.pos, dir)
			if !hit {
				depth[i] = float32(math.Inf(1))
				continue
			}
			depth[i] = float32(t)

			p := cam.pos.Add(dir.Scale(t))
			value := uint8(s.shade(p, n)*255 + 0.5)
			colors[i*3] = value
			colors[i*3+1] = value
			colors[i*3+2] = value

			normals[i*3] = float32(n.Dot(cam.right))
			normals[i*3+1] = float32(n.Dot(cam.up))
			normals[i*3+2] = float32(n.Dot(back))
		}
	}

	pose, _ := json.Marshal([4][4]float64{
		{cam.right.X, cam.up.X, back.X, cam.pos.X},
		{cam.right.Y, cam.up.Y, back.Y, cam.pos.Y},
		{cam.right.Z, cam.up.Z, back.Z, cam.pos.Z},
		{0, 0, 0, 1},
	})

	return container.Container{
		"colors": &container.Array{
			Shape: []int{h, w, 3},
			DType: container.Uint8,
			Data:  colors,
		},
		"depth": &container.Array{
			Shape: []int{h, w},
			DType: container.Float32,
			Data:  depth,
		},
		"normals": &container.Array{
			Shape: []int{h, w, 3},
			DType: container.Float32,
			Data:  normals,
		},
		"campose": pose,
		"cam_K": &container.Array{
			Shape: []int{3, 3},
			DType: container.Float64,
			Data:  []float64{focal, 0, cx, 0, focal, cy, 0, 0, 1},
		},
		"frame_index": index,
	}
}

// WriteFrames renders total frames into dir, pacing writes by interval
// when it is positive. Containers land under a temporary name first so
// directory watchers never observe partial files. Returns the number
// written.
func WriteFrames(ctx context.Context, dir string, scene Scene, total int, interval time.Duration, algorithm string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	written := 0
	for i := 0; i < total; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return written, ctx.Err()
			case <-time.After(interval):
			}
		} else if ctx.Err() != nil {
			return written, ctx.Err()
		}

		c := scene.RenderFrame(i, total)
		path := filepath.Join(dir, fmt.Sprintf("%04d%s", i, container.Ext))
		if err := container.WriteFile(path+".tmp", c, algorithm); err != nil {
			return written, err
		}
		if err := os.Rename(path+".tmp", path); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
