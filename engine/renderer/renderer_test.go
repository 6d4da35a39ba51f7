package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/renderer/material"
	"github.com/stretchr/testify/assert"
)

func TestPipelineDescriptorForMapsKinds(t *testing.T) {
	pbr := pipelineDescriptorFor(descriptor.DefaultPBRMaterial())
	assert.Equal(t, material.PBRPipelineDescriptor().Hash(), pbr.Hash())

	sky := pipelineDescriptorFor(descriptor.SkyboxMaterial(descriptor.CubeTextureDescriptor{}))
	assert.Equal(t, material.SkyboxPipelineDescriptor().Hash(), sky.Hash())

	custom := descriptor.MaterialDescriptor{
		Kind: descriptor.MaterialCustom,
		Custom: &descriptor.CustomMaterialDescriptor{
			Pipeline: material.SkyboxPipelineDescriptor(),
		},
	}
	assert.Equal(t, material.SkyboxPipelineDescriptor().Hash(), pipelineDescriptorFor(custom).Hash())
}

func TestModelMaterialHashTracksMaterialSwaps(t *testing.T) {
	base := descriptor.ModelDescriptor{
		Label:     "cube",
		Materials: []descriptor.MaterialDescriptor{descriptor.DefaultPBRMaterial()},
	}
	swapped := base
	tinted := descriptor.DefaultPBRMaterial()
	tinted.PBR.AlbedoFactor = [4]float32{1, 0, 0, 1}
	swapped.Materials = []descriptor.MaterialDescriptor{tinted}

	assert.Equal(t, modelMaterialHash(base), modelMaterialHash(base))
	assert.NotEqual(t, modelMaterialHash(base), modelMaterialHash(swapped))
	assert.NotEqual(t, modelMaterialHash(base), modelMaterialHash(descriptor.ModelDescriptor{}))
}
