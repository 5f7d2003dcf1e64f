package resource

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestDescriptorValidate(t *testing.T) {
	if err := (RenderPassDescriptor{Label: "x"}).Validate(); !errors.Is(err, ErrNoAttachments) {
		t.Errorf("empty descriptor: err = %v", err)
	}

	desc := RenderPassDescriptor{ColorAttachments: []RenderPassColorAttachment{{}}}
	if err := desc.Validate(); !errors.Is(err, ErrNilTextureView) {
		t.Errorf("nil view: err = %v", err)
	}

	desc.ColorAttachments[0].View = &TextureView{}
	if err := desc.Validate(); err != nil {
		t.Errorf("valid descriptor: err = %v", err)
	}
}

func TestLoadOpString(t *testing.T) {
	if got := Clear(LinearRGBA(0.1, 0.2, 0.3, 1)).String(); got != "Clear(0.1, 0.2, 0.3, 1)" {
		t.Errorf("String = %q", got)
	}
	if got := Load().String(); got != "Load" {
		t.Errorf("String = %q", got)
	}
}
