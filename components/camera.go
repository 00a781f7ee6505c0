package components

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PitchLimit keeps the camera from flipping over the vertical.
var PitchLimit = mgl32.DegToRad(89)

// Camera is a first-person camera. Yaw turns around the world Y axis and
// pitch around the camera's X axis, both in radians.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
}

func (c Camera) Rotation() mgl32.Quat {
	yaw := mgl32.QuatRotate(c.Yaw, mgl32.Vec3{0, 1, 0})
	pitch := mgl32.QuatRotate(c.Pitch, mgl32.Vec3{1, 0, 0})
	return yaw.Mul(pitch).Normalize()
}

// View is the inverse of the camera's world transform.
func (c Camera) View() mgl32.Mat4 {
	world := mgl32.Translate3D(c.Position[0], c.Position[1], c.Position[2]).Mul4(c.Rotation().Mat4())
	return world.Inv()
}

func (c Camera) Forward() mgl32.Vec3 {
	v := c.View()
	return mgl32.Vec3{-v[2], -v[6], -v[10]}
}

func (c Camera) Backward() mgl32.Vec3 {
	v := c.View()
	return mgl32.Vec3{v[2], v[6], v[10]}
}

func (c Camera) Left() mgl32.Vec3 {
	v := c.View()
	return mgl32.Vec3{-v[0], -v[4], -v[8]}
}

func (c Camera) Right() mgl32.Vec3 {
	v := c.View()
	return mgl32.Vec3{v[0], v[4], v[8]}
}

func (c *Camera) YawBy(radians float32) {
	c.Yaw = float32(math.Remainder(float64(c.Yaw+radians), 2*math.Pi))
}

func (c *Camera) PitchBy(radians float32) {
	c.Pitch = mgl32.Clamp(c.Pitch+radians, -PitchLimit, PitchLimit)
}

// Perspective builds a right-handed projection with clip depth in [-1, 1].
func Perspective(fovDegrees, aspect, near, far float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(fovDegrees), aspect, near, far)
}
