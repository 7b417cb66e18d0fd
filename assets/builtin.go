package assets

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vkngwrapper/particles/engine"
)

// Quad returns a unit square in the XY plane facing +Z, centered on the
// origin. Particles are drawn with it.
func Quad() engine.MeshData {
	white := mgl32.Vec3{1, 1, 1}
	return engine.MeshData{
		Vertices: []engine.Vertex{
			{Position: mgl32.Vec3{-0.5, -0.5, 0}, Color: white, TexCoord: mgl32.Vec2{0, 1}},
			{Position: mgl32.Vec3{0.5, -0.5, 0}, Color: white, TexCoord: mgl32.Vec2{1, 1}},
			{Position: mgl32.Vec3{0.5, 0.5, 0}, Color: white, TexCoord: mgl32.Vec2{1, 0}},
			{Position: mgl32.Vec3{-0.5, 0.5, 0}, Color: white, TexCoord: mgl32.Vec2{0, 0}},
		},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	}
}

// cubeFaces lists each face's normal and two in-plane axes, chosen so that
// normal = u × v and the face winds counter-clockwise seen from outside.
var cubeFaces = [6]struct {
	normal, u, v mgl32.Vec3
	color        mgl32.Vec3
}{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0.5, 0.5}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0.5, 1, 1}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0.5, 1, 0.5}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0.5, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0.5, 0.5, 1}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 1, 0.5}},
}

// Cube returns a unit cube centered on the origin with four vertices per
// face, so every face carries its own texture coordinates and tint.
func Cube() engine.MeshData {
	var data engine.MeshData
	corners := [4]mgl32.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	for _, f := range cubeFaces {
		base := uint32(len(data.Vertices))
		for _, c := range corners {
			pos := f.normal.Add(f.u.Mul(c.X())).Add(f.v.Mul(c.Y())).Mul(0.5)
			data.Vertices = append(data.Vertices, engine.Vertex{
				Position: pos,
				Color:    f.color,
				TexCoord: mgl32.Vec2{(c.X() + 1) / 2, (1 - c.Y()) / 2},
			})
		}
		data.Indices = append(data.Indices, base, base+1, base+2, base+2, base+3, base)
	}
	return data
}

// Spark returns a size×size white disc whose alpha falls off smoothly from
// the center to the edge, for tinting particles.
func Spark(size int) engine.TextureData {
	tex := engine.TextureData{
		Pixels: make([]byte, size*size*4),
		Width:  size,
		Height: size,
	}
	half := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := (float64(x) + 0.5 - half) / half
			dy := (float64(y) + 0.5 - half) / half
			falloff := 1 - math.Min(1, math.Hypot(dx, dy))

			p := tex.Pixels[(y*size+x)*4:]
			p[0], p[1], p[2] = 0xff, 0xff, 0xff
			p[3] = uint8(math.Round(255 * falloff * falloff))
		}
	}
	return tex
}
