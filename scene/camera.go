package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	minDistance = 1
	maxDistance = 50
	// Pitch stays just short of the poles, where LookAt degenerates.
	maxPitch = math.Pi/2 - 0.01
)

// OrbitCamera circles a target point at a distance. Yaw turns around the
// world Y axis, pitch tilts toward it.
type OrbitCamera struct {
	Target mgl32.Vec3
	FovY   float32
	Near   float32
	Far    float32

	distance float32
	yaw      float32
	pitch    float32
	version  uint64
}

func NewOrbitCamera(target mgl32.Vec3, distance float32) *OrbitCamera {
	c := &OrbitCamera{
		Target: target,
		FovY:   mgl32.DegToRad(45),
		Near:   0.1,
		Far:    100,
		pitch:  0.4,
	}
	c.distance = clamp(distance, minDistance, maxDistance)
	return c
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}

// Eye returns the camera position.
func (c *OrbitCamera) Eye() mgl32.Vec3 {
	sp, cp := math.Sincos(float64(c.pitch))
	sy, cy := math.Sincos(float64(c.yaw))
	d := float64(c.distance)
	return c.Target.Add(mgl32.Vec3{
		float32(d * cp * sy),
		float32(d * sp),
		float32(d * cp * cy),
	})
}

func (c *OrbitCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, mgl32.Vec3{0, 1, 0})
}

// Projection returns a perspective projection for Vulkan clip space, whose
// Y axis points down.
func (c *OrbitCamera) Projection(aspect float32) mgl32.Mat4 {
	p := mgl32.Perspective(c.FovY, aspect, c.Near, c.Far)
	p[5] *= -1
	return p
}

func (c *OrbitCamera) Version() uint64 {
	return c.version
}

func (c *OrbitCamera) Distance() float32 { return c.distance }

// Orbit turns the camera by yaw and pitch radians.
func (c *OrbitCamera) Orbit(yaw, pitch float32) {
	if yaw == 0 && pitch == 0 {
		return
	}
	c.yaw = float32(math.Mod(float64(c.yaw+yaw), 2*math.Pi))
	c.pitch = clamp(c.pitch+pitch, -maxPitch, maxPitch)
	c.version++
}

// Zoom moves the camera toward the target by a factor per scroll step.
// Positive steps zoom in.
func (c *OrbitCamera) Zoom(steps float32) {
	if steps == 0 {
		return
	}
	d := clamp(c.distance*float32(math.Pow(0.9, float64(steps))), minDistance, maxDistance)
	if d == c.distance {
		return
	}
	c.distance = d
	c.version++
}

// billboard returns the rotation that turns a quad in the XY plane to face
// the camera.
func (c *OrbitCamera) billboard() mgl32.Mat4 {
	view := c.View()
	return view.Mat3().Transpose().Mat4()
}
