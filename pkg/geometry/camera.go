package geometry

import "math"

// Camera is an orbit camera looking at Target from Distance away.
// Yaw turns around the vertical axis, Pitch tilts up and down (radians).
type Camera struct {
	Target   Vector3D
	Distance float64
	Yaw      float64
	Pitch    float64
	// Focal is the projection scale in pixels at one unit of depth.
	Focal float64
	// Near is the minimum depth in front of the camera that is drawn.
	Near float64
}

// MaxPitch keeps the camera from flipping over the poles.
const MaxPitch = math.Pi/2 - 0.05

// Orbit changes yaw and pitch, clamping pitch to ±MaxPitch.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 2*math.Pi)
	c.Pitch = math.Max(-MaxPitch, math.Min(MaxPitch, c.Pitch+dPitch))
}

// Zoom multiplies the distance by factor, never going below minDistance.
func (c *Camera) Zoom(factor, minDistance float64) {
	c.Distance = math.Max(minDistance, c.Distance*factor)
}

// View returns p in camera space: x right, y up, z the depth in front of the camera.
func (c *Camera) View(p Vector3D) Vector3D {
	v := p.Sub(c.Target).RotateY(-c.Yaw).RotateX(-c.Pitch)
	v.Z += c.Distance
	return v
}

// Project maps p to screen coordinates around the center (cx, cy).
// ok is false when p is behind the near plane.
func (c *Camera) Project(p Vector3D, cx, cy float64) (x, y, depth float64, ok bool) {
	v := c.View(p)
	if v.Z < c.Near || v.Z <= 0 {
		return 0, 0, v.Z, false
	}
	scale := c.Focal / v.Z
	return cx + v.X*scale, cy - v.Y*scale, v.Z, true
}
