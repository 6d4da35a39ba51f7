package world

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	messages []message.Message
}

func (s *captureSink) Enqueue(msg message.Message) {
	s.messages = append(s.messages, msg)
}

func testModel(label string, ids ...uint64) descriptor.ModelDescriptor {
	transforms := make(map[uint64]common.Transform, len(ids))
	for _, id := range ids {
		transforms[id] = common.IdentityTransform()
	}
	return descriptor.ModelDescriptor{Label: label, Transforms: transforms}
}

func TestSpawnModelRejectsDuplicateLabel(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(SpawnModel(testModel("cube", 0)))
	w.ApplyChanges(SpawnModel(testModel("cube", 1)))

	m, ok := w.Model("cube")
	require.True(t, ok)
	_, hasOriginal := m.Transforms[0]
	assert.True(t, hasOriginal, "second spawn must not replace the first")

	entries := w.DrainChangeList()
	require.Len(t, entries, 1)
	assert.Equal(t, OpAdded, entries[0].Op)
	assert.Equal(t, KindModel, entries[0].Kind)
}

func TestSpawnModelRequiresInstances(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(SpawnModel(descriptor.ModelDescriptor{Label: "empty"}))

	_, ok := w.Model("empty")
	assert.False(t, ok)
	assert.Empty(t, w.DrainChangeList())
}

func TestRemoveTransformsKeepsAtLeastOneInstance(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(SpawnModel(testModel("cube", 0, 1)))
	w.DrainChangeList()

	w.ApplyChanges(RemoveTransforms("cube", 0, 1))
	m, ok := w.Model("cube")
	require.True(t, ok)
	assert.Len(t, m.Transforms, 2, "removal leaving zero instances is rejected")
	assert.Empty(t, w.DrainChangeList())

	w.ApplyChanges(RemoveTransforms("cube", 1))
	m, _ = w.Model("cube")
	assert.Len(t, m.Transforms, 1)
	assert.Len(t, w.DrainChangeList(), 1)
}

func TestRemoveTransformsIgnoresDuplicateAndUnknownIDs(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(SpawnModel(testModel("cube", 0, 1)))
	w.DrainChangeList()

	// The batch names more ids than the model holds, but only one distinct
	// existing id: the removal must still go through.
	w.ApplyChanges(RemoveTransforms("cube", 1, 1, 99))
	m, ok := w.Model("cube")
	require.True(t, ok)
	assert.Len(t, m.Transforms, 1)
	_, has := m.Transforms[0]
	assert.True(t, has)
	assert.Len(t, w.DrainChangeList(), 1)
}

func TestAddTransformsRejectsUsedIDs(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(SpawnModel(testModel("cube", 0)))
	moved := common.IdentityTransform()
	moved.Position = [3]float32{9, 9, 9}
	w.ApplyChanges(AddTransforms("cube", map[uint64]common.Transform{
		0: moved,
		1: common.IdentityTransform(),
	}))

	m, _ := w.Model("cube")
	require.Len(t, m.Transforms, 2)
	assert.Equal(t, float32(0), m.Transforms[0].Position[0], "existing id must keep its transform")
}

func TestApplyTransformsOffsetsPositions(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(SpawnModel(testModel("cube", 0)))
	w.ApplyChanges(ApplyTransforms("cube", map[uint64][3]float32{0: {1, 2, 3}}))
	w.ApplyChanges(ApplyTransforms("cube", map[uint64][3]float32{0: {1, 0, 0}}))

	m, _ := w.Model("cube")
	assert.Equal(t, [3]float32{2, 2, 3}, m.Transforms[0].Position)
}

func TestResolveCameraChangeOffsetViewAligned(t *testing.T) {
	desc := descriptor.DefaultCamera(1)
	delta := [3]float32{1, 0, 0}
	got := ResolveCameraChange(desc, CameraChange{
		Mode:     ModeOffsetViewAligned,
		Position: &delta,
	})

	// Yaw π faces −X in the yaw frame, so a forward step of one moves −X.
	assert.InDelta(t, -1, got.Position[0], 1e-6)
	assert.InDelta(t, 0, got.Position[1], 1e-6)
	assert.InDelta(t, 0, got.Position[2], 1e-6)
}

func TestResolveCameraChangeOffsetViewAlignedWithY(t *testing.T) {
	desc := descriptor.DefaultCamera(1)
	desc.Pitch = float32(math.Pi / 4)
	delta := [3]float32{1, 0, 0}
	got := ResolveCameraChange(desc, CameraChange{
		Mode:     ModeOffsetViewAlignedWithY,
		Position: &delta,
	})

	half := float32(math.Sqrt2 / 2)
	assert.InDelta(t, -half, got.Position[0], 1e-6)
	assert.InDelta(t, half, got.Position[1], 1e-6)
	assert.InDelta(t, 0, got.Position[2], 1e-6)
}

func TestResolveCameraChangeClampsPitch(t *testing.T) {
	desc := descriptor.DefaultCamera(1)
	pitch := float32(2)
	got := ResolveCameraChange(desc, CameraChange{Mode: ModeOverwrite, Pitch: &pitch})
	assert.Equal(t, descriptor.SafeFracPi2, got.Pitch)

	step := float32(-3)
	got = ResolveCameraChange(desc, CameraChange{Mode: ModeOffset, Pitch: &step})
	assert.Equal(t, -descriptor.SafeFracPi2, got.Pitch)
}

func TestUpdateCameraRejectsUnknownTarget(t *testing.T) {
	w := New(1, nil)
	yaw := float32(1)
	w.ApplyChanges(UpdateCamera(CameraChange{Target: "ghost", Mode: ModeOverwrite, Yaw: &yaw}))
	assert.Empty(t, w.DrainChangeList())
}

func TestEnsureActiveCameraRespawnsDefault(t *testing.T) {
	w := New(2, nil)
	w.EnsureActiveCamera()

	cam, ok := w.ActiveCamera()
	require.True(t, ok)
	assert.Equal(t, descriptor.DefaultCameraLabel, cam.Label)
	assert.Equal(t, [3]float32{0, 0, 0}, cam.Position)
	assert.InDelta(t, math.Pi, float64(cam.Yaw), 1e-6)
	assert.Equal(t, float32(0), cam.Pitch)
	assert.Equal(t, float32(2), cam.Aspect)

	// Despawning the active camera leaves the world without one until the
	// next ensure.
	w.ApplyChanges(DespawnCamera(descriptor.DefaultCameraLabel))
	_, ok = w.ActiveCamera()
	assert.False(t, ok)

	w.EnsureActiveCamera()
	cam, ok = w.ActiveCamera()
	require.True(t, ok)
	assert.Equal(t, descriptor.DefaultCameraLabel, cam.Label)
}

func TestSpawnCameraAndMakeActiveSwitches(t *testing.T) {
	w := New(1, nil)
	w.EnsureActiveCamera()

	chase := descriptor.DefaultCamera(1)
	chase.Label = "Chase"
	chase.Position = [3]float32{0, 5, 10}
	w.ApplyChanges(SpawnCameraAndMakeActive(chase))

	cam, ok := w.ActiveCamera()
	require.True(t, ok)
	assert.Equal(t, "Chase", cam.Label)
}

func TestLightsSortedByLabel(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(
		SpawnLight(descriptor.LightDescriptor{Label: "zenith", Intensity: 1}),
		SpawnLight(descriptor.LightDescriptor{Label: "accent", Intensity: 2}),
		SpawnLight(descriptor.LightDescriptor{Label: "fill", Intensity: 3}),
	)

	lights := w.Lights()
	require.Len(t, lights, 3)
	assert.Equal(t, "accent", lights[0].Label)
	assert.Equal(t, "fill", lights[1].Label)
	assert.Equal(t, "zenith", lights[2].Label)
}

func TestUpdateLightRequiresExisting(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(UpdateLight(descriptor.LightDescriptor{Label: "sun", Intensity: 4}))
	assert.Empty(t, w.Lights())

	w.ApplyChanges(SpawnLight(descriptor.LightDescriptor{Label: "sun", Intensity: 1}))
	w.ApplyChanges(UpdateLight(descriptor.LightDescriptor{Label: "sun", Intensity: 4}))
	lights := w.Lights()
	require.Len(t, lights, 1)
	assert.Equal(t, float32(4), lights[0].Intensity)
}

func TestSkyboxChangeRequiresEnvironment(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(SetEnvironmentSkybox(descriptor.SkyboxDiffuse, 0))
	assert.Empty(t, w.DrainChangeList())

	w.ApplyChanges(SetEnvironment(descriptor.EnvironmentFromFile("sky.hdr", 512)))
	w.ApplyChanges(SetEnvironmentSkybox(descriptor.SkyboxSpecular, 2))

	env, ok := w.Environment()
	require.True(t, ok)
	assert.Equal(t, descriptor.SkyboxSpecular, env.Skybox)
	assert.Equal(t, uint32(2), env.SkyboxMip)
}

func TestCleanWorldEmitsOneClearPerKind(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(SpawnModel(testModel("cube", 0)))
	w.ApplyChanges(SpawnLight(descriptor.LightDescriptor{Label: "sun"}))
	w.EnsureActiveCamera()
	w.DrainChangeList()

	w.ApplyChanges(CleanWorld())

	assert.Empty(t, w.ModelLabels())
	assert.Empty(t, w.Lights())
	_, ok := w.ActiveCamera()
	assert.False(t, ok)

	entries := w.DrainChangeList()
	require.Len(t, entries, 4)
	kinds := make(map[EntityKind]int)
	for _, e := range entries {
		assert.Equal(t, OpClear, e.Op)
		kinds[e.Kind]++
	}
	assert.Equal(t, map[EntityKind]int{
		KindModel: 1, KindCamera: 1, KindLight: 1, KindEnvironment: 1,
	}, kinds)
}

func TestDrainChangeListTakesAll(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(SpawnModel(testModel("cube", 0)))

	first := w.DrainChangeList()
	assert.Len(t, first, 1)
	assert.Empty(t, w.DrainChangeList())
}

func TestSendMessageRoutesToSink(t *testing.T) {
	sink := &captureSink{}
	w := New(1, sink)
	msg := message.New("ping", "pong", map[string]message.Variant{"count": message.Int(7)})
	w.ApplyChanges(SendMessage(msg))

	require.Len(t, sink.messages, 1)
	assert.Equal(t, "pong", sink.messages[0].To)
	// Messages never reach the renderer change list.
	assert.Empty(t, w.DrainChangeList())
}

func TestAppChangesDrainSeparately(t *testing.T) {
	w := New(1, nil)
	w.ApplyChanges(App(AppChange{Kind: AppCursorGrab, Enabled: true}))
	w.ApplyChanges(App(AppChange{Kind: AppExit}))

	assert.Empty(t, w.DrainChangeList())
	apps := w.DrainAppChanges()
	require.Len(t, apps, 2)
	assert.Equal(t, AppCursorGrab, apps[0].Kind)
	assert.True(t, apps[0].Enabled)
	assert.Equal(t, AppExit, apps[1].Kind)
	assert.Empty(t, w.DrainAppChanges())
}

func TestSetAspectPropagatesToCameras(t *testing.T) {
	w := New(1, nil)
	w.EnsureActiveCamera()
	w.DrainChangeList()

	w.SetAspect(1.5)
	cam, ok := w.ActiveCamera()
	require.True(t, ok)
	assert.Equal(t, float32(1.5), cam.Aspect)
	assert.Len(t, w.DrainChangeList(), 1)
}

func TestPhysicsLabelsSorted(t *testing.T) {
	w := New(1, nil)
	w.RegisterPhysics("b")
	w.RegisterPhysics("a")
	w.RegisterPhysics("c")
	w.RemovePhysics("b")
	assert.Equal(t, []string{"a", "c"}, w.PhysicsLabels())
}
