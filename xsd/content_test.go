package xsd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func elemParticle(local string, min, max int) *Particle {
	return &Particle{
		Kind:      ParticleElement,
		MinOccurs: min,
		MaxOccurs: max,
		Element:   &ElementDecl{Name: QName{Local: local}},
	}
}

func TestContentStateSequence(t *testing.T) {
	root := &Particle{
		Kind:      ParticleSequence,
		MinOccurs: 1,
		MaxOccurs: 1,
		Children: []*Particle{
			elemParticle("a", 1, 1),
			elemParticle("b", 0, 1),
			elemParticle("c", 1, Unbounded),
		},
	}

	cs := NewContentState(root, "")
	assert.True(t, cs.Advance("", "a"))
	assert.True(t, cs.Advance("", "c"))
	assert.True(t, cs.Advance("", "c"))
	assert.True(t, cs.Accepting())

	cs2 := NewContentState(root, "")
	assert.False(t, cs2.Advance("", "b"))
}

func TestContentStateSequenceRejectsMissingMandatory(t *testing.T) {
	root := &Particle{
		Kind:      ParticleSequence,
		MinOccurs: 1,
		MaxOccurs: 1,
		Children: []*Particle{
			elemParticle("a", 1, 1),
			elemParticle("b", 1, 1),
		},
	}
	cs := NewContentState(root, "")
	assert.True(t, cs.Advance("", "a"))
	assert.False(t, cs.Accepting())
}

func TestContentStateChoice(t *testing.T) {
	root := &Particle{
		Kind:      ParticleChoice,
		MinOccurs: 1,
		MaxOccurs: 1,
		Children: []*Particle{
			elemParticle("a", 1, 1),
			elemParticle("b", 1, 1),
		},
	}
	cs := NewContentState(root, "")
	assert.True(t, cs.Advance("", "b"))
	assert.True(t, cs.Accepting())
	assert.False(t, cs.Advance("", "a"))
}

func TestContentStateAllRejectsRepeat(t *testing.T) {
	root := &Particle{
		Kind: ParticleAll,
		Children: []*Particle{
			elemParticle("a", 1, 1),
			elemParticle("b", 0, 1),
		},
	}
	cs := NewContentState(root, "")
	assert.True(t, cs.Advance("", "b"))
	assert.True(t, cs.Advance("", "a"))
	assert.True(t, cs.Accepting())
	assert.False(t, cs.Advance("", "a"))
}

func TestContentStateAllSatisfiedWhenMandatorySeen(t *testing.T) {
	root := &Particle{
		Kind: ParticleAll,
		Children: []*Particle{
			elemParticle("a", 1, 1),
			elemParticle("b", 0, 1),
		},
	}
	cs := NewContentState(root, "")
	assert.True(t, cs.Advance("", "a"))
	assert.True(t, cs.Accepting())
}

func TestContentStateAny(t *testing.T) {
	root := &Particle{
		Kind:         ParticleAny,
		MinOccurs:    0,
		MaxOccurs:    Unbounded,
		AnyNamespace: "##other",
	}
	cs := NewContentState(root, "urn:target")
	assert.True(t, cs.Accepting())
	assert.True(t, cs.Advance("urn:external", "whatever"))
	assert.False(t, cs.Advance("urn:target", "whatever"))
}

func TestContentStateEmptyContentRejectsAnyChild(t *testing.T) {
	cs := NewContentState(nil, "")
	assert.True(t, cs.Accepting())
	assert.False(t, cs.Advance("", "a"))
}
