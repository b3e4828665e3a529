package talker

import (
	"math"
	"time"
)

const (
	WorldFrame = "world"
	TalkFrame  = "talk"
)

// Vector3 is a translation in meters.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is a rotation in (x, y, z, w) order.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// QuaternionFromRPY builds a rotation from fixed-axis roll, pitch and yaw angles in radians.
func QuaternionFromRPY(roll, pitch, yaw float64) Quaternion {
	sr, cr := math.Sincos(roll / 2)
	sp, cp := math.Sincos(pitch / 2)
	sy, cy := math.Sincos(yaw / 2)

	return Quaternion{
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
		W: cr*cp*cy + sr*sp*sy,
	}.Normalize()
}

func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize returns q scaled to unit length. The zero quaternion maps to identity.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n == 0 {
		return Quaternion{W: 1}
	}

	return Quaternion{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// TransformSnapshot relates ChildFrame to ParentFrame at Stamp.
type TransformSnapshot struct {
	ParentFrame string     `json:"parent_frame"`
	ChildFrame  string     `json:"child_frame"`
	Stamp       time.Time  `json:"stamp"`
	Translation Vector3    `json:"translation"`
	Rotation    Quaternion `json:"rotation"`
}

var (
	talkTranslation = Vector3{X: 0, Y: 2, Z: 0}
	talkRotation    = QuaternionFromRPY(0, 0, 1)
)

// NewTalkTransform returns the constant world -> talk pose stamped at now.
func NewTalkTransform(now time.Time) TransformSnapshot {
	return TransformSnapshot{
		ParentFrame: WorldFrame,
		ChildFrame:  TalkFrame,
		Stamp:       now,
		Translation: talkTranslation,
		Rotation:    talkRotation,
	}
}
