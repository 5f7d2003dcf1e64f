// Package resource defines the GPU-facing values nodes use to describe work:
// texture views, colors and render pass descriptions.
package resource

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

var (
	ErrPassOpen       = errors.New("a render pass is already open on this encoder")
	ErrPassEnded      = errors.New("render pass already ended")
	ErrNoAttachments  = errors.New("render pass has no color attachments")
	ErrNilTextureView = errors.New("color attachment has no texture view")
)

// TextureView is an image view a render pass can target.
type TextureView struct {
	Image  core1_0.Image
	View   core1_0.ImageView
	Format core1_0.Format
	Width  int
	Height int
	// SRGB is set when the format encodes linear values to sRGB on store.
	SRGB bool
}

type LoadOpKind int

const (
	LoadOpLoad LoadOpKind = iota
	LoadOpClear
)

// LoadOp says what happens to an attachment when a pass begins.
type LoadOp struct {
	Kind  LoadOpKind
	Color Color
}

func Clear(c Color) LoadOp {
	return LoadOp{Kind: LoadOpClear, Color: c}
}

func Load() LoadOp {
	return LoadOp{Kind: LoadOpLoad}
}

func (op LoadOp) String() string {
	if op.Kind == LoadOpClear {
		return fmt.Sprintf("Clear(%g, %g, %g, %g)", op.Color.R, op.Color.G, op.Color.B, op.Color.A)
	}
	return "Load"
}

type StoreOp int

const (
	StoreOpStore StoreOp = iota
	StoreOpDiscard
)

type Operations struct {
	Load  LoadOp
	Store StoreOp
}

type RenderPassColorAttachment struct {
	View          *TextureView
	ResolveTarget *TextureView
	Ops           Operations
}

type RenderPassDescriptor struct {
	Label            string
	ColorAttachments []RenderPassColorAttachment
}

// Validate checks what every encoder requires of a descriptor.
func (d RenderPassDescriptor) Validate() error {
	if len(d.ColorAttachments) == 0 {
		return errors.Wrapf(ErrNoAttachments, "pass %q", d.Label)
	}
	for i, attachment := range d.ColorAttachments {
		if attachment.View == nil {
			return errors.Wrapf(ErrNilTextureView, "pass %q attachment %d", d.Label, i)
		}
	}
	return nil
}

// CommandEncoder records GPU work for a frame. At most one render pass may be
// open at a time.
type CommandEncoder interface {
	BeginRenderPass(desc RenderPassDescriptor) (RenderPass, error)
}

// RenderPass is an open pass. Recording ends with End.
type RenderPass interface {
	End() error
}
