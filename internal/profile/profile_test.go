package profile

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/sizefit/internal/search"
	"github.com/stretchr/testify/require"
)

func TestBuiltinProfilesValid(t *testing.T) {
	s := Builtin()
	require.Equal(t, []string{"avif", "default", "precise", "robust", "webp"}, s.Names())
	for _, name := range s.Names() {
		require.NoError(t, s.Get(name).Validate(), name)
	}
}

func TestGet_FallsBackToDefault(t *testing.T) {
	p := Builtin().Get("no-such-profile")
	require.Equal(t, "no-such-profile", p.Name)
	require.Equal(t, "jpeg", p.Codec)
	require.Equal(t, search.DefaultEpsilon, p.Epsilon)
}

func TestSearchConfig(t *testing.T) {
	cfg, err := Builtin().Get("robust").SearchConfig(300000)
	require.NoError(t, err)
	require.Equal(t, search.BisectThenScan, cfg.Strategy)
	require.Equal(t, 6000, cfg.Tolerance)

	cfg, err = Builtin().Get("default").SearchConfig(300000)
	require.NoError(t, err)
	require.Equal(t, search.Bisect, cfg.Strategy)
	require.Zero(t, cfg.Tolerance)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#fff")
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, c)

	c, err = ParseColor("#102030")
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}, c)

	c, err = ParseColor("none")
	require.NoError(t, err)
	require.Nil(t, c)

	_, err = ParseColor("#12")
	require.Error(t, err)
	_, err = ParseColor("#zzzzzz")
	require.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	base := Builtin().Get("default")
	for name, mutate := range map[string]func(p *Profile){
		"codec":     func(p *Profile) { p.Codec = "" },
		"epsilon":   func(p *Profile) { p.Epsilon = 0 },
		"tiny eps":  func(p *Profile) { p.Epsilon = 1e-17 },
		"tiny scan": func(p *Profile) { p.ScanStep = 1e-12 },
		"strategy":  func(p *Profile) { p.Strategy = "random" },
		"tolerance": func(p *Profile) { p.ToleranceRatio = 2 },
		"scan":      func(p *Profile) { p.ScanStep = -1 },
		"color":     func(p *Profile) { p.Background = "blue" },
	} {
		p := base
		mutate(&p)
		require.Error(t, p.Validate(), name)
	}
}

func TestParse_LayersOverBuiltins(t *testing.T) {
	s, err := Parse([]byte(`
default_profile: small
profiles:
  small:
    base: robust
    tolerance_ratio: 0.01
  precise:
    epsilon: 0.004
  custom:
    background: "#ffffff"
`))
	require.NoError(t, err)
	require.Equal(t, "small", s.Default)

	small := s.Get("")
	require.Equal(t, "small", small.Name)
	require.Equal(t, string(search.BisectThenScan), small.Strategy, "inherited from base")
	require.Equal(t, 0.01, small.ToleranceRatio)

	require.Equal(t, 0.004, s.Get("precise").Epsilon)

	custom := s.Get("custom")
	require.Equal(t, "jpeg", custom.Codec, "unknown names start from default")
	require.Equal(t, "#ffffff", custom.Background)

	require.True(t, s.Has("webp"))
	require.Contains(t, s.Names(), "custom")
}

func TestParse_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"syntax":       "profiles: [",
		"unknown base": "profiles:\n  x:\n    base: nope\n",
		"invalid":      "profiles:\n  x:\n    epsilon: 3\n",
		"tiny epsilon": "profiles:\n  x:\n    epsilon: 1e-20\n",
		"default":      "default_profile: ghost\n",
	} {
		_, err := Parse([]byte(doc))
		require.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  mine:\n    codec: webp\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "webp", s.Get("mine").Codec)
	require.Equal(t, DefaultName, s.Default)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
