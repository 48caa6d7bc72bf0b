package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/buildopts/internal/config"
	"github.com/dshills/buildopts/internal/diagnostics"
)

type result struct {
	out    string
	errOut string
	err    error
}

// execute runs the root command with a private environment and an empty
// CLI config file.
func execute(t *testing.T, env map[string]string, args ...string) result {
	t.Helper()
	color.NoColor = true

	var out, errOut bytes.Buffer
	c := newCLI(&out, &errOut)
	c.environ = func() []string {
		var kv []string
		for k, v := range env {
			kv = append(kv, k+"="+v)
		}
		return kv
	}
	c.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	if _, ok := env["config"]; !ok {
		c.configFile = writeFile(t, "cli.yaml", "log-format: console\n")
	} else {
		c.configFile = env["config"]
	}

	root := c.newRootCommand()
	root.SetArgs(args)
	err := root.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGet_Default(t *testing.T) {
	r := execute(t, nil, "get", "INITIAL_MEMORY", "MALLOC")
	require.NoError(t, r.err)
	assert.Equal(t, "INITIAL_MEMORY=16777216\nMALLOC=dlmalloc\n", r.out)
}

func TestGet_ArgumentOverride(t *testing.T) {
	r := execute(t, nil, "get", "-s", "INITIAL_MEMORY=32MB", "--source", "INITIAL_MEMORY", "TOTAL_STACK")
	require.NoError(t, r.err)
	assert.Equal(t, "INITIAL_MEMORY=33554432\t(arguments)\nTOTAL_STACK=5242880\t(default)\n", r.out)
}

func TestGet_SourceThroughRenameAlias(t *testing.T) {
	r := execute(t, nil, "-s", "TOTAL_MEMORY=32MB", "get", "--source", "INITIAL_MEMORY", "TOTAL_MEMORY")
	require.NoError(t, r.err)
	assert.Equal(t, "INITIAL_MEMORY=33554432\t(arguments)\nTOTAL_MEMORY=33554432\t(arguments)\n", r.out)

	// A later layer writing the modern name wins over an earlier alias write.
	file := writeFile(t, "opts.json", `{"TOTAL_MEMORY": "64MB"}`)
	r = execute(t, nil, "--settings-file", file, "-s", "INITIAL_MEMORY=32MB", "get", "--source", "INITIAL_MEMORY")
	require.NoError(t, r.err)
	assert.Equal(t, "INITIAL_MEMORY=33554432\t(arguments)\n", r.out)
}

func TestGet_LegacyRenameWarns(t *testing.T) {
	r := execute(t, nil, "get", "-s", "TOTAL_MEMORY=64MB", "INITIAL_MEMORY")
	require.NoError(t, r.err)
	assert.Equal(t, "INITIAL_MEMORY=67108864\n", r.out)
	assert.Contains(t, r.errOut,
		"warning: use of legacy setting: TOTAL_MEMORY (setting renamed to INITIAL_MEMORY) [-Wlegacy-settings]")
}

func TestCheck_NoWarn(t *testing.T) {
	r := execute(t, nil, "check", "--no-warn", "-s", "TOTAL_MEMORY=64MB")
	require.NoError(t, r.err)
	assert.Empty(t, r.errOut)
	assert.Contains(t, r.out, "legacy warnings: 0")
}

func TestCheck_Werror(t *testing.T) {
	r := execute(t, nil, "check", "--werror", "-s", "TOTAL_MEMORY=64MB")
	require.Error(t, r.err)
	assert.ErrorIs(t, r.err, diagnostics.ErrWarningAsError)
	assert.Contains(t, r.errOut, "error: use of legacy setting: TOTAL_MEMORY")
}

func TestCheck_StrictFlag(t *testing.T) {
	r := execute(t, nil, "check", "--strict", "-s", "TOTAL_MEMORY=1")
	assert.ErrorIs(t, r.err, config.ErrStrictMode)
}

func TestCheck_StrictEnv(t *testing.T) {
	r := execute(t, map[string]string{"BUILDOPTS_STRICT": "1"}, "get", "TOTAL_MEMORY")
	assert.ErrorIs(t, r.err, config.ErrUnknownSetting)

	r = execute(t, map[string]string{"BUILDOPTS_STRICT": "1"}, "check")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "strict mode: on")
}

func TestCheck_UnknownSetting(t *testing.T) {
	r := execute(t, nil, "check", "-s", "INITAL_MEMORY=1")
	require.Error(t, r.err)
	assert.ErrorIs(t, r.err, config.ErrUnknownSetting)

	var buf bytes.Buffer
	printError(&buf, r.err)
	msg := buf.String()
	assert.Contains(t, msg, "attempt to set a non-existent setting: 'INITAL_MEMORY'")
	assert.Contains(t, msg, "did you mean one of INITIAL_MEMORY")
	assert.Contains(t, msg, "perhaps a typo in -sX=Y notation?")
}

func TestCheck_BooleanString(t *testing.T) {
	r := execute(t, nil, "check", "-s", "EXIT_RUNTIME=true")
	assert.ErrorIs(t, r.err, config.ErrBooleanString)
}

func TestCheck_Report(t *testing.T) {
	r := execute(t, nil, "check", "-s", "USE_BZIP2=1")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "configuration ok")
	assert.Contains(t, r.out, "overrides: 1 from 1 layer(s) (arguments)")
	assert.Contains(t, r.out, "changed settings: 1")
	assert.Contains(t, r.out, "strict mode: off")
	assert.Contains(t, r.out, "ports: bzip2")
}

func TestLayers_Precedence(t *testing.T) {
	file := writeFile(t, "opts.json", `{"ASSERTIONS": 2, "MALLOC": "emmalloc", "EXIT_RUNTIME": 1}`)
	env := map[string]string{"BUILDOPTS_SETTING_MALLOC": "none"}

	r := execute(t, env, "get", "--source", "--settings-file", file, "-s", "ASSERTIONS=0",
		"ASSERTIONS", "MALLOC", "EXIT_RUNTIME")
	require.NoError(t, r.err)
	assert.Equal(t,
		"ASSERTIONS=0\t(arguments)\nMALLOC=none\t(environment)\nEXIT_RUNTIME=1\t(file:"+file+")\n",
		r.out)
}

func TestSettingsFile_ErrorNamesFile(t *testing.T) {
	file := writeFile(t, "opts.yaml", "INITIAL_MEMORY: lots\n")
	r := execute(t, nil, "check", "--settings-file", file)
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), file)
}

func TestList_Changed(t *testing.T) {
	file := writeFile(t, "opts.toml", "ASSERTIONS = 2\nMALLOC = \"emmalloc\"\n")
	r := execute(t, nil, "list", "--changed", "--settings-file", file)
	require.NoError(t, r.err)
	assert.Equal(t, "ASSERTIONS=2\nMALLOC=emmalloc\n", r.out)
}

func TestList_HidesInternalAndLegacy(t *testing.T) {
	r := execute(t, nil, "list")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "ASSERTIONS=1\n")
	assert.NotContains(t, r.out, "TOTAL_MEMORY=")
	assert.NotContains(t, r.out, "WASM_OBJECT_FILES=")

	r = execute(t, nil, "list", "--internal", "--legacy")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "TOTAL_MEMORY=16777216\n")
	assert.Contains(t, r.out, "WASM_OBJECT_FILES=1\n")
}

// fieldsOf returns the whitespace-separated fields of the line for name.
func fieldsOf(t *testing.T, out, name string) []string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, name+"=") {
			return strings.Fields(line)
		}
	}
	require.FailNow(t, "no line for "+name, out)
	return nil
}

func TestList_Long(t *testing.T) {
	r := execute(t, nil, "list", "--long", "--legacy")
	require.NoError(t, r.err)

	assert.Equal(t, []string{"INITIAL_MEMORY=16777216", "int", "mem-size"}, fieldsOf(t, r.out, "INITIAL_MEMORY"))
	assert.Equal(t, []string{"MEMORY64=0", "int", "compile-time"}, fieldsOf(t, r.out, "MEMORY64"))
	assert.Equal(t, []string{"MALLOC=dlmalloc", "str"}, fieldsOf(t, r.out, "MALLOC"))
	assert.Equal(t, []string{"TOTAL_MEMORY=16777216", "legacy", "renamed", "to", "INITIAL_MEMORY"},
		fieldsOf(t, r.out, "TOTAL_MEMORY"))
	assert.Equal(t, strings.Fields("PGO=0 legacy one of 0: pgo is no longer supported"), fieldsOf(t, r.out, "PGO"))

	bzip2 := fieldsOf(t, r.out, "USE_BZIP2")
	require.Len(t, bzip2, 3)
	assert.Equal(t, "compile-time,port:bzip2", bzip2[2])
}

func TestDump_JSON(t *testing.T) {
	r := execute(t, nil, "dump", "--changed", "-s", "ASSERTIONS=2", "-s", "EXPORTED_FUNCTIONS=[_main,_foo]")
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"ASSERTIONS": 2, "EXPORTED_FUNCTIONS": ["_main", "_foo"]}`, r.out)
	assert.Less(t, strings.Index(r.out, "ASSERTIONS"), strings.Index(r.out, "EXPORTED_FUNCTIONS"))
}

func TestDump_JSONFull(t *testing.T) {
	r := execute(t, nil, "dump")
	require.NoError(t, r.err)
	assert.Equal(t, int64(16777216), gjson.Get(r.out, "INITIAL_MEMORY").Int())
	assert.True(t, gjson.Get(r.out, "INVOKE_RUN").Bool())
	assert.False(t, gjson.Get(r.out, "TOTAL_MEMORY").Exists())
	assert.False(t, gjson.Get(r.out, "WASM_OBJECT_FILES").Exists())
}

func TestDump_YAML(t *testing.T) {
	r := execute(t, nil, "dump", "--format", "yaml", "--changed", "-s", "MALLOC=emmalloc")
	require.NoError(t, r.err)

	var m map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(r.out), &m))
	assert.Equal(t, map[string]any{"MALLOC": "emmalloc"}, m)
}

func TestDump_TOML(t *testing.T) {
	r := execute(t, nil, "dump", "-f", "toml", "--changed", "-s", "ASSERTIONS=2")
	require.NoError(t, r.err)

	var m map[string]any
	require.NoError(t, toml.Unmarshal([]byte(r.out), &m))
	assert.EqualValues(t, 2, m["ASSERTIONS"])
}

func TestDump_Errors(t *testing.T) {
	r := execute(t, nil, "dump", "--format", "xml")
	assert.ErrorContains(t, r.err, "unsupported format")

	r = execute(t, nil, "dump", "--color", "sometimes")
	assert.ErrorContains(t, r.err, "invalid --color")
}

func TestPorts(t *testing.T) {
	r := execute(t, nil, "ports", "--needed",
		"-s", "USE_SDL_GFX=2", "-s", "USE_SQLITE3=1", "-s", "USE_PTHREADS=1")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "sdl2_gfx")
	assert.Contains(t, r.out, "libSDL2_gfx.a")
	assert.Contains(t, r.out, "libsqlite3-mt.a")
	assert.NotContains(t, r.out, "bzip2")

	r = execute(t, nil, "get", "--source", "-s", "USE_SDL_NET=2", "USE_SDL")
	require.NoError(t, r.err)
	assert.Equal(t, "USE_SDL=2\t(ports)\n", r.out)
}

func TestPorts_CompileArgs(t *testing.T) {
	r := execute(t, nil, "ports", "--needed", "--include-dir", "/cache/include", "-s", "USE_BULLET=1")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "args: -I/cache/include/bullet")
}

func TestLimit(t *testing.T) {
	r := execute(t, nil, "get", "--limit", "ASSERTIONS", "ASSERTIONS")
	require.NoError(t, r.err)

	r = execute(t, nil, "get", "--limit", "ASSERTIONS", "MALLOC")
	assert.ErrorIs(t, r.err, config.ErrAccessDenied)

	r = execute(t, nil, "check", "--limit", "MALLOC", "--limit", "ASSERTIONS")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "allow-list: ASSERTIONS, MALLOC\n")

	r = execute(t, nil, "check")
	require.NoError(t, r.err)
	assert.NotContains(t, r.out, "allow-list:")
}

func TestCLIConfigFile(t *testing.T) {
	cfg := writeFile(t, "cli.yaml", "werror: true\nsetting:\n  - ASSERTIONS=2\n")

	r := execute(t, map[string]string{"config": cfg}, "get", "ASSERTIONS")
	require.NoError(t, r.err)
	assert.Equal(t, "ASSERTIONS=2\n", r.out)

	r = execute(t, map[string]string{"config": cfg}, "check", "-s", "TOTAL_MEMORY=1")
	assert.ErrorIs(t, r.err, diagnostics.ErrWarningAsError)
}

func TestSchemaFlag(t *testing.T) {
	sch := writeFile(t, "schema.yaml", `settings:
  OPT_A: false
  STRICT: 0
legacy:
  - [OLD_A, OPT_A]
`)
	r := execute(t, nil, "--schema", sch, "get", "-s", "OLD_A=1", "OPT_A")
	require.NoError(t, r.err)
	assert.Equal(t, "OPT_A=1\n", r.out)

	r = execute(t, nil, "--schema", sch, "get", "ASSERTIONS")
	assert.ErrorIs(t, r.err, config.ErrUnknownSetting)

	r = execute(t, nil, "--schema", filepath.Join(t.TempDir(), "missing.yaml"), "check")
	assert.Error(t, r.err)
}

func TestCheck_WatchNeedsSettingsFile(t *testing.T) {
	r := execute(t, nil, "check", "--watch")
	assert.EqualError(t, r.err, "--watch needs at least one --settings-file")
}

// syncBuffer is a bytes.Buffer safe for one writer and one polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCheck_WatchRechecksOnChange(t *testing.T) {
	color.NoColor = true
	file := writeFile(t, "opts.json", `{"ASSERTIONS": 2}`)

	var out, errOut syncBuffer
	c := newCLI(&out, &errOut)
	c.environ = func() []string { return nil }
	c.lookupEnv = func(string) (string, bool) { return "", false }
	opts := options{settingsFiles: []string{file}, logLevel: "error", logFormat: "console"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.watchCheck(ctx, opts, 10*time.Millisecond) }()

	// Keep rewriting until an event arrives, since the first write may land
	// before the watch is registered.
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(errOut.String(), "error:") && time.Now().Before(deadline) {
		require.NoError(t, os.WriteFile(file, []byte(`{"INITIAL_MEMORY": "lots"}`), 0o644))
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	require.NoError(t, <-done)

	assert.Contains(t, out.String(), "configuration ok")
	assert.Contains(t, out.String(), "watching: "+file+"\n")
	assert.Contains(t, out.String(), file+" changed")
	assert.Contains(t, errOut.String(), "buildopts: error:")
}

func TestCheck_WatchStopsWithContext(t *testing.T) {
	color.NoColor = true
	file := writeFile(t, "opts.json", `{}`)

	var out, errOut bytes.Buffer
	c := newCLI(&out, &errOut)
	c.environ = func() []string { return nil }
	c.lookupEnv = func(string) (string, bool) { return "", false }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.watchCheck(ctx, options{settingsFiles: []string{file}, logLevel: "error", logFormat: "console"}, 0)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "configuration ok")
	assert.Empty(t, errOut.String())
}

func TestRun_ExitCodes(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BUILDOPTS_STRICT", "0")
	color.NoColor = true

	var out, errOut bytes.Buffer
	assert.Equal(t, 0, run([]string{"get", "ASSERTIONS"}, &out, &errOut))
	assert.Equal(t, "ASSERTIONS=1\n", out.String())

	out.Reset()
	assert.Equal(t, 1, run([]string{"get", "NOPE"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "buildopts: error: no such setting: 'NOPE'")
}

func TestUseColor(t *testing.T) {
	on, err := useColor("auto", true)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = useColor("auto", false)
	require.NoError(t, err)
	assert.False(t, on)

	on, err = useColor("always", false)
	require.NoError(t, err)
	assert.True(t, on)
}
