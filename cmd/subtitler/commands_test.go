package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSegments(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "segments.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestGenerateCommandFromList(t *testing.T) {
	path := writeSegments(t, []models.Segment{
		{Start: 0, End: 1.5, Text: "Xin chào"},
		{Start: 1.5, End: 3, Text: "Tạm biệt"},
	})

	out, err := execute(t, "generate", "--segments", path, "--preset", "tiktok_clean", "--width", "1280", "--height", "720")
	require.NoError(t, err)

	assert.Contains(t, out, "[Script Info]")
	assert.Contains(t, out, "PlayResX: 1280")
	assert.Contains(t, out, "PlayResY: 720")
	assert.Contains(t, out, "Dialogue: 0,0:00:00.00,0:00:01.50,Default,,0,0,0,,Xin chào")
}

func TestGenerateCommandFromAlignResponse(t *testing.T) {
	path := writeSegments(t, models.AlignResponse{
		Segments: []models.Segment{{Start: 0, End: 2, Text: "Hello"}},
		Duration: 2,
		Language: "eng",
	})
	outPath := filepath.Join(t.TempDir(), "out.ass")

	out, err := execute(t, "generate", "--segments", path, "--out", outPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "PlayResY: 1080")
	assert.Contains(t, string(data), "Hello")
}

func TestGenerateCommandRejectsInvalidSegments(t *testing.T) {
	path := writeSegments(t, []models.Segment{{Start: 2, End: 1, Text: "backwards"}})

	_, err := execute(t, "generate", "--segments", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment 0")
}

func TestGenerateCommandRequiresSegments(t *testing.T) {
	_, err := execute(t, "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--segments")
}

func TestGenerateCommandRejectsBadResolution(t *testing.T) {
	path := writeSegments(t, []models.Segment{{Start: 0, End: 1, Text: "a"}})
	_, err := execute(t, "generate", "--segments", path, "--height", "0")
	require.Error(t, err)
}

func TestStylesCommandTable(t *testing.T) {
	out, err := execute(t, "styles")
	require.NoError(t, err)

	assert.Contains(t, out, "PRESET")
	assert.Contains(t, out, "tiktok_clean")
	assert.Contains(t, out, "yes")
}

func TestStylesCommandJSON(t *testing.T) {
	out, err := execute(t, "styles", "--json")
	require.NoError(t, err)

	var list models.StyleList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, "tiktok_clean", list.Default)
	assert.Contains(t, list.Presets, "minimal")
}

func TestAlignCommandFallsBackWithoutAligner(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.wav")
	require.NoError(t, os.WriteFile(audio, []byte("not really audio"), 0o644))

	out, err := execute(t, "align",
		"--audio", audio,
		"--text", "Hello there. This is a short script.",
		"--lang", "eng",
		"--python", filepath.Join(dir, "missing-python"),
		"--ffprobe", filepath.Join(dir, "missing-ffprobe"),
	)
	require.NoError(t, err)

	var segments []models.Segment
	require.NoError(t, json.Unmarshal([]byte(out), &segments))
	require.NotEmpty(t, segments)
	assert.Equal(t, 0.0, segments[0].Start)
	assert.True(t, strings.HasPrefix(segments[0].Text, "Hello"))
	assert.NoError(t, models.ValidateSegments(segments))
}

func TestAlignCommandRequiresScript(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "audio.wav")
	require.NoError(t, os.WriteFile(audio, []byte("x"), 0o644))

	_, err := execute(t, "align", "--audio", audio)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script is required")
}

func TestAlignCommandMissingAudio(t *testing.T) {
	_, err := execute(t, "align", "--audio", filepath.Join(t.TempDir(), "nope.wav"), "--text", "hi")
	require.Error(t, err)
}

func TestPurgeCacheCommand(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("align:abc", "{}"))
	require.NoError(t, mr.Set("render:job:1", "{}"))

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := fmt.Sprintf("redis:\n  host: %q\n  port: %d\n", mr.Host(), mr.Server().Addr().Port)
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	out, err := execute(t, "--config", configPath, "purge-cache")
	require.NoError(t, err)

	assert.Contains(t, out, "purged")
	assert.Equal(t, []string{"render:job:1"}, mr.Keys())
}

func TestPurgeCacheCommandUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port := mr.Server().Addr().Port
	mr.Close()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf("redis:\n  host: 127.0.0.1\n  port: %d\n", port)), 0o644))

	_, err := execute(t, "--config", configPath, "purge-cache")
	assert.Error(t, err)
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "only")
	assert.Empty(t, renderTable(nil, nil, nil))
}
