package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robert-malhotra/h5grove/hdf5"
)

func TestTreeHelpers(t *testing.T) {
	assert.Equal(t, 0, depth("/"))
	assert.Equal(t, 1, depth("/entry"))
	assert.Equal(t, 2, depth("/entry/image"))

	assert.Equal(t, "/", displayName("/"))
	assert.Equal(t, "image", displayName("/entry/image"))

	assert.Equal(t, "?", linkTarget(nil))
	assert.Equal(t, "/missing", linkTarget(&hdf5.Link{Type: hdf5.SoftLink, Target: "/missing"}))
	assert.Equal(t, "other.h5:/data", linkTarget(&hdf5.Link{Type: hdf5.ExternalLink, Target: "/data", File: "other.h5"}))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "json", orDefault("", "json"))
	assert.Equal(t, "npy", orDefault("npy", "json"))
}
