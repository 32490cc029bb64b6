package voiceregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRefreshAndList(t *testing.T) {
	r := New(nil)
	r.Refresh([]Voice{
		{Name: "zhixiaobai", Clone: false},
		{Name: "clone_default", Clone: true, CosyVoice3: true},
	})
	assert.Len(t, r.List(), 2)
}

func TestRegistryIsCloneVoice(t *testing.T) {
	r := New(nil)
	r.Refresh([]Voice{
		{Name: "zhixiaobai", Clone: false},
		{Name: "clone_default", Clone: true, CosyVoice3: true},
	})
	assert.False(t, r.IsCloneVoice("zhixiaobai"))
	assert.True(t, r.IsCloneVoice("clone_default"))
	assert.False(t, r.IsCloneVoice("unknown"))
}

func TestRegistryCosyVoice3Compatible(t *testing.T) {
	r := New(nil)
	r.Refresh([]Voice{{Name: "clone_default", Clone: true, CosyVoice3: true}})
	assert.True(t, r.CosyVoice3Compatible("clone_default"))
}

func TestRegistryInfoUnknownVoice(t *testing.T) {
	r := New(nil)
	_, ok := r.Info("nope")
	assert.False(t, ok)
}

func TestRegistryRefreshReplacesWholesale(t *testing.T) {
	r := New(nil)
	r.Refresh([]Voice{{Name: "a"}, {Name: "b"}})
	require.Len(t, r.List(), 2)
	r.Refresh([]Voice{{Name: "c"}})
	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, "c", list[0].Name)
}
