package config

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSecretRedactsInString(t *testing.T) {
	s := Secret("super-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, `"[REDACTED]"`, fmt.Sprintf("%#v", s))
}

func TestSecretEmptyStaysEmpty(t *testing.T) {
	var s Secret
	assert.Equal(t, "", s.String())
}

func TestSecretValueReturnsRawString(t *testing.T) {
	s := Secret("super-secret")
	assert.Equal(t, "super-secret", s.Value())
}

func TestSecretRedactsInJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Key Secret `json:"key"`
	}{Key: "super-secret"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"[REDACTED]"}`, string(out))
}

func TestSecretRedactsInYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		Key Secret `yaml:"key"`
	}{Key: "super-secret"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "[REDACTED]")
	assert.NotContains(t, string(out), "super-secret")
}
