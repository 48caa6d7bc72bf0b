package ports

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/buildopts/internal/config"
	"github.com/dshills/buildopts/internal/config/schema"
)

func noEnv(string) (string, bool) { return "", false }

func newStore(t *testing.T) *config.Store {
	t.Helper()
	s, err := config.New(nil, config.WithEnv(noEnv))
	require.NoError(t, err)
	require.NoError(t, Declare(s))
	return s
}

func TestAll_Builtin(t *testing.T) {
	names := make([]string, 0, len(All()))
	for _, p := range All() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"boost_headers", "bullet", "bzip2", "libjpeg",
		"ogg", "sdl2_gfx", "sdl2_net", "sqlite3",
	}, names)

	// The returned slice is a copy.
	all := All()
	all[0] = nil
	assert.NotNil(t, All()[0])
}

func TestGet(t *testing.T) {
	p, err := Get("bzip2")
	require.NoError(t, err)
	assert.Equal(t, "bzip2 (USE_BZIP2=1; BSD license)", p.Show())

	_, err = Get("zlib")
	assert.ErrorIs(t, err, ErrUnknownPort)
}

func TestDeclare_RegistersCompileTimeSettings(t *testing.T) {
	s := newStore(t)

	for _, name := range []string{"USE_BOOST_HEADERS", "USE_BULLET", "USE_SQLITE3", "USE_SDL_GFX"} {
		assert.True(t, s.IsCompileTime(name), name)
	}

	v, err := s.Get("USE_BZIP2")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = s.Get("USE_SDL_NET")
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	// Declaring twice keeps the current values.
	require.NoError(t, s.Set("USE_OGG", 1))
	require.NoError(t, Declare(s))
	v, err = s.Get("USE_OGG")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestResolve_NothingSelected(t *testing.T) {
	s := newStore(t)

	res, err := Resolve(s)
	require.NoError(t, err)
	assert.Empty(t, res.Needed)
	assert.Empty(t, res.Assignments)
}

func TestResolve_SDLAddonsForceSDL2(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Set("USE_SDL_GFX", 2))
	require.NoError(t, s.Set("USE_BZIP2", 1))

	res, err := Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"bzip2", "sdl2_gfx"}, res.Names())

	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "USE_SDL", res.Assignments[0].Name)
	assert.Equal(t, 2, res.Assignments[0].Value)
	assert.Equal(t, "port:sdl2_gfx", res.Assignments[0].Source)

	v, err := s.Get("USE_SDL")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestResolve_SDLAddonNeedsVersionTwo(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Set("USE_SDL_NET", 1))

	res, err := Resolve(s)
	require.NoError(t, err)
	assert.Empty(t, res.Needed)

	v, err := s.Get("USE_SDL")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestResolve_WithoutDeclare(t *testing.T) {
	s, err := config.New(nil, config.WithEnv(noEnv))
	require.NoError(t, err)

	_, err = Resolve(s)
	assert.ErrorIs(t, err, config.ErrUnknownSetting)
}

func TestResolve_ForcedSettingSelectsAnotherPort(t *testing.T) {
	data := []byte(`
ports:
  - name: base
    library: base
    settings:
      - {name: USE_BASE, default: 0}
    needed: {setting: USE_BASE, value: 3}
  - name: addon
    library: addon
    settings:
      - {name: USE_ADDON, default: false}
    needed: {setting: USE_ADDON, value: 1}
    sets:
      - {name: USE_BASE, value: 3}
`)
	ports, err := Parse(data)
	require.NoError(t, err)

	s, err := config.New(nil, config.WithEnv(noEnv))
	require.NoError(t, err)
	require.NoError(t, Declare(s, ports...))
	require.NoError(t, s.Set("USE_ADDON", 1))

	res, err := Resolve(s, ports...)
	require.NoError(t, err)
	assert.Equal(t, []string{"addon", "base"}, res.Names())
}

func TestLibName_Variant(t *testing.T) {
	s := newStore(t)
	p, err := Get("sqlite3")
	require.NoError(t, err)

	name, err := p.LibName(s)
	require.NoError(t, err)
	assert.Equal(t, "libsqlite3.a", name)

	require.NoError(t, s.Set("USE_PTHREADS", 1))
	name, err = p.LibName(s)
	require.NoError(t, err)
	assert.Equal(t, "libsqlite3-mt.a", name)

	bz, err := Get("bzip2")
	require.NoError(t, err)
	name, err = bz.LibName(s)
	require.NoError(t, err)
	assert.Equal(t, "libbz2.a", name)
}

func TestLibName_VariantSettingDenied(t *testing.T) {
	s := newStore(t)
	p, err := Get("sqlite3")
	require.NoError(t, err)

	s.LimitSettings([]string{"USE_SQLITE3"})
	_, err = p.LibName(s)
	assert.ErrorIs(t, err, config.ErrAccessDenied)
	assert.Contains(t, err.Error(), "port sqlite3")
}

func TestCompileArgs(t *testing.T) {
	bullet, err := Get("bullet")
	require.NoError(t, err)
	assert.Equal(t, []string{"-I/cache/include/bullet"}, bullet.CompileArgs("/cache/include"))

	boost, err := Get("boost_headers")
	require.NoError(t, err)
	assert.Equal(t, []string{"-DBOOST_ALL_NO_LIB"}, boost.CompileArgs("/x"))

	ogg, err := Get("ogg")
	require.NoError(t, err)
	assert.Nil(t, ogg.CompileArgs("/x"))
}

func TestPortValidate(t *testing.T) {
	valid := func() Port {
		return Port{
			Name:     "zlib",
			Library:  "z",
			Settings: []schema.Definition{{Name: "USE_ZLIB", Default: false}},
			When:     Condition{Setting: "USE_ZLIB", Value: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Port)
		want   error
	}{
		{"valid", func(*Port) {}, nil},
		{"missing name", func(p *Port) { p.Name = "" }, ErrMissingName},
		{"uppercase name", func(p *Port) { p.Name = "Zlib" }, ErrInvalidName},
		{"bad dependency", func(p *Port) { p.Deps = []string{"SDL2"} }, ErrInvalidName},
		{"missing library", func(p *Port) { p.Library = "" }, ErrMissingLibrary},
		{"lowercase setting", func(p *Port) { p.Settings[0].Name = "use_zlib" }, ErrInvalidSetting},
		{"float default", func(p *Port) { p.Settings[0].Default = 1.5 }, ErrInvalidSetting},
		{"undeclared condition", func(p *Port) { p.When.Setting = "USE_OTHER" }, ErrInvalidNeeded},
		{"missing condition value", func(p *Port) { p.When.Value = nil }, ErrInvalidNeeded},
		{"forced without value", func(p *Port) { p.Sets = []Requirement{{Name: "USE_SDL"}} }, ErrInvalidSetting},
		{"variant without suffix", func(p *Port) { p.Variant = &Variant{Setting: "USE_PTHREADS"} }, ErrInvalidSetting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := p.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("ports: [{name: a, library: a, unknown: 1}]"))
	assert.Error(t, err)

	dup := []byte(`
ports:
  - {name: a, library: a, settings: [{name: USE_A, default: 0}], needed: {setting: USE_A, value: 1}}
  - {name: a, library: a, settings: [{name: USE_A, default: 0}], needed: {setting: USE_A, value: 1}}
`)
	_, err = Parse(dup)
	assert.ErrorIs(t, err, ErrDuplicatePort)

	ports, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, ports)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ports.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ports:
  - {name: zlib, library: z, settings: [{name: USE_ZLIB, default: false}], needed: {setting: USE_ZLIB, value: 1}}
`), 0o644))

	ports, err := Load(path)
	require.NoError(t, err)
	require.Len(t, ports, 1)
	assert.Equal(t, "zlib", ports[0].Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
