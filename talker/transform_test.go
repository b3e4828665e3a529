package talker_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flux-agi/talker_go/talker"
)

func TestNewTalkTransform(t *testing.T) {
	t.Parallel()

	now := time.Date(2019, 11, 4, 12, 0, 0, 0, time.UTC)
	snapshot := talker.NewTalkTransform(now)

	assert.Equal(t, "world", snapshot.ParentFrame)
	assert.Equal(t, "talk", snapshot.ChildFrame)
	assert.Equal(t, now, snapshot.Stamp)
	assert.Equal(t, talker.Vector3{X: 0, Y: 2, Z: 0}, snapshot.Translation)

	assert.InDelta(t, 1.0, snapshot.Rotation.Norm(), 1e-12)
	assert.InDelta(t, 0.0, snapshot.Rotation.X, 1e-12)
	assert.InDelta(t, 0.0, snapshot.Rotation.Y, 1e-12)
	assert.InDelta(t, math.Sin(0.5), snapshot.Rotation.Z, 1e-12)
	assert.InDelta(t, math.Cos(0.5), snapshot.Rotation.W, 1e-12)
}

func TestQuaternionFromRPY_IsUnit(t *testing.T) {
	t.Parallel()

	for _, angles := range [][3]float64{
		{0, 0, 0},
		{0, 0, 1},
		{0, 1, 0},
		{1, 0, 0},
		{0.3, -1.2, 2.9},
		{math.Pi, math.Pi / 2, -math.Pi},
	} {
		q := talker.QuaternionFromRPY(angles[0], angles[1], angles[2])
		assert.InDelta(t, 1.0, q.Norm(), 1e-12, "angles %v", angles)
	}
}

func TestQuaternion_Normalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, talker.Quaternion{W: 1}, talker.Quaternion{}.Normalize())

	q := talker.Quaternion{X: 0, Y: 0, Z: 3, W: 4}.Normalize()
	assert.InDelta(t, 0.6, q.Z, 1e-12)
	assert.InDelta(t, 0.8, q.W, 1e-12)
}
