package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDefaults(t *testing.T) {
	cases := map[string]string{
		"/":                "/vps-setup.sh",
		"":                 "/vps-setup.sh",
		"/vps":             "/vps-setup.sh",
		"/local":           "/local-setup.sh",
		"/update-skill.sh": "/update-skill.sh",
		"/unknown-file.sh": "/unknown-file.sh",
		"/vps/":            "/vps/",
	}
	for in, want := range cases {
		assert.Equal(t, want, Resolve(in), in)
	}
}

func TestResolveIsPure(t *testing.T) {
	rt := DefaultRoutes()
	for i := 0; i < 3; i++ {
		assert.Equal(t, "/vps-setup.sh", rt.Resolve("/vps"))
	}
}

func TestCustomTable(t *testing.T) {
	rt := RouteTable{"/local": "/setup.sh"}
	assert.Equal(t, "/setup.sh", rt.Resolve("/local"))
	assert.Equal(t, "/vps", rt.Resolve("/vps"))
	assert.True(t, rt.Known("/local"))
	assert.False(t, rt.Known("/vps"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultRoutes().Validate())
	assert.Error(t, RouteTable{"vps": "/vps-setup.sh"}.Validate())
	assert.Error(t, RouteTable{"/vps": "vps-setup.sh"}.Validate())
}

func TestPaths(t *testing.T) {
	assert.Equal(t, []string{"/", "/local", "/vps"}, DefaultRoutes().Paths())
}

func TestMergeOverDefaults(t *testing.T) {
	merged := DefaultRoutes().Merge(map[string]string{
		"/local":  "/setup.sh",
		"/update": "/update-skill.sh",
		"/vps":    "",
	})

	assert.Equal(t, RouteTable{
		"/":       "/vps-setup.sh",
		"/local":  "/setup.sh",
		"/update": "/update-skill.sh",
	}, merged)
	assert.Equal(t, "/vps", merged.Resolve("/vps"))
	assert.Equal(t, "/local-setup.sh", DefaultRoutes()["/local"])
}
