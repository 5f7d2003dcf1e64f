package renderer

import (
	"github.com/vkngwrapper/minimal_render/render/resource"
)

// EncoderFactory creates the encoder a RenderContext lends to nodes.
type EncoderFactory func() (resource.CommandEncoder, error)

// RenderContext lends a command encoder to render graph nodes for the duration
// of one graph run. The encoder is created on first use, so a frame in which
// no node records anything never touches the GPU.
type RenderContext struct {
	factory EncoderFactory
	encoder resource.CommandEncoder
}

func NewRenderContext(factory EncoderFactory) *RenderContext {
	return &RenderContext{factory: factory}
}

func (rc *RenderContext) CommandEncoder() (resource.CommandEncoder, error) {
	if rc.encoder != nil {
		return rc.encoder, nil
	}
	encoder, err := rc.factory()
	if err != nil {
		return nil, err
	}
	rc.encoder = encoder
	return encoder, nil
}

// Finish returns the encoder nodes recorded into, or nil when none asked for
// one. The context must not be used afterwards.
func (rc *RenderContext) Finish() resource.CommandEncoder {
	encoder := rc.encoder
	rc.encoder = nil
	rc.factory = nil
	return encoder
}
