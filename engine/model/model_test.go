package model

import (
	"testing"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeshRejectsEmptyGeometry(t *testing.T) {
	_, err := NewMesh(nil, nil, descriptor.MeshDescriptor{})
	require.Error(t, err)
}

func TestUpdateInstancesRejectsEmptySet(t *testing.T) {
	m := &model{}
	desc := descriptor.ModelDescriptor{Label: "empty"}
	err := m.UpdateInstances(nil, desc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no instances")
}

func TestInstanceStrideMatchesPackedBytes(t *testing.T) {
	desc := descriptor.NewModel("cube", descriptor.MeshDescriptor{})
	desc.Transforms[7] = common.IdentityTransform()
	desc.Transforms[3] = common.IdentityTransform()

	data := desc.InstanceBytes()
	assert.Len(t, data, 3*InstanceStride)
}
