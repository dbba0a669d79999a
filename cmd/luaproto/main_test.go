package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindUserConfig(t *testing.T) {
	t.Setenv("LUAPROTO_CONFIG", "env.toml")
	assert.Equal(t, "a.yaml", findUserConfig([]string{"generate", "--config=a.yaml"}))
	assert.Equal(t, "b.json", findUserConfig([]string{"--config", "b.json", "dump"}))
	assert.Equal(t, "env.toml", findUserConfig([]string{"dump", "--config"}))
}
