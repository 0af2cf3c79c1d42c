package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/alignment"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/fetch"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/media"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

type fakeDownloader struct {
	dir   string
	calls int
	err   error
}

func (d *fakeDownloader) Download(ctx context.Context, url string) (string, error) {
	d.calls++
	if d.err != nil {
		return "", d.err
	}
	path := filepath.Join(d.dir, "source_input.mp4")
	return path, os.WriteFile(path, []byte("video"), 0o644)
}

type MockMedia struct {
	mock.Mock
}

func (m *MockMedia) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockMedia) ProbeResolution(ctx context.Context, path string) (models.Resolution, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(models.Resolution), args.Error(1)
}

func (m *MockMedia) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	args := m.Called(ctx, videoPath)
	return args.String(0), args.Error(1)
}

func (m *MockMedia) BurnSubtitles(ctx context.Context, opts media.BurnSubtitleOptions) (string, error) {
	args := m.Called(ctx, opts)
	return args.String(0), args.Error(1)
}

type MockAligner struct {
	mock.Mock
}

func (m *MockAligner) AlignWithResult(ctx context.Context, audioPath, scriptText, language string) (*alignment.Result, error) {
	args := m.Called(ctx, audioPath, scriptText, language)
	result, _ := args.Get(0).(*alignment.Result)
	return result, args.Error(1)
}

type memoryCache struct {
	entries map[string]*models.AlignResponse
	sets    int
}

func (c *memoryCache) key(req models.AlignRequest) string {
	return req.VideoURL + "|" + req.ScriptText + "|" + req.Language
}

func (c *memoryCache) GetAlignment(ctx context.Context, req models.AlignRequest) (*models.AlignResponse, error) {
	return c.entries[c.key(req)], nil
}

func (c *memoryCache) SetAlignment(ctx context.Context, req models.AlignRequest, resp *models.AlignResponse) error {
	c.sets++
	c.entries[c.key(req)] = resp
	return nil
}

type fixture struct {
	svc        *Service
	dir        string
	downloader *fakeDownloader
	media      *MockMedia
	aligner    *MockAligner
}

func newFixture(t *testing.T, cache AlignmentCache) *fixture {
	dir := t.TempDir()
	f := &fixture{
		dir:        dir,
		downloader: &fakeDownloader{dir: dir},
		media:      new(MockMedia),
		aligner:    new(MockAligner),
	}
	f.svc = New(f.downloader, f.media, f.aligner, nil, cache, Options{MaxVideoDuration: 60, TempDir: dir}, nil)
	return f
}

func (f *fixture) expectAudio() string {
	audio := filepath.Join(f.dir, "source_input.wav")
	f.media.On("ExtractAudio", mock.Anything, filepath.Join(f.dir, "source_input.mp4")).
		Run(func(mock.Arguments) { os.WriteFile(audio, []byte("wav"), 0o644) }).
		Return(audio, nil)
	return audio
}

func (f *fixture) remaining(t *testing.T) []string {
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func alignRequest() models.AlignRequest {
	return models.AlignRequest{
		VideoURL:   "https://cdn.example.com/clip.mp4",
		ScriptText: "Hello world. This is a test. Another sentence!",
		Language:   "eng",
	}
}

func TestAlignSuccess(t *testing.T) {
	cache := &memoryCache{entries: map[string]*models.AlignResponse{}}
	f := newFixture(t, cache)

	f.media.On("ProbeDuration", mock.Anything, mock.Anything).Return(9.0, nil)
	audio := f.expectAudio()
	segments := []models.Segment{
		{Start: 0, End: 4.5, Text: "Hello world. This is a"},
		{Start: 4.5, End: 9, Text: "test. Another sentence!"},
	}
	f.aligner.On("AlignWithResult", mock.Anything, audio, alignRequest().ScriptText, "eng").
		Return(&alignment.Result{Segments: segments, Strategy: alignment.StrategyPrecise, Language: "eng", Chunks: 2}, nil)

	resp, err := f.svc.Align(context.Background(), alignRequest())
	require.NoError(t, err)
	assert.Equal(t, segments, resp.Segments)
	assert.Equal(t, 9.0, resp.Duration)
	assert.Equal(t, "eng", resp.Language)
	assert.Empty(t, f.remaining(t))
	assert.Equal(t, 1, cache.sets)

	again, err := f.svc.Align(context.Background(), alignRequest())
	require.NoError(t, err)
	assert.Equal(t, resp, again)
	assert.Equal(t, 1, f.downloader.calls)

	f.media.AssertExpectations(t)
	f.aligner.AssertExpectations(t)
}

func TestAlignDefaultsLanguage(t *testing.T) {
	f := newFixture(t, nil)
	req := alignRequest()
	req.Language = ""

	f.media.On("ProbeDuration", mock.Anything, mock.Anything).Return(3.0, nil)
	f.expectAudio()
	f.aligner.On("AlignWithResult", mock.Anything, mock.Anything, mock.Anything, models.DefaultLanguage).
		Return(&alignment.Result{Segments: []models.Segment{{Start: 0, End: 3, Text: "x"}}, Strategy: alignment.StrategyFallback}, nil)

	resp, err := f.svc.Align(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLanguage, resp.Language)
}

func TestAlignVideoTooLong(t *testing.T) {
	f := newFixture(t, nil)
	f.media.On("ProbeDuration", mock.Anything, mock.Anything).Return(75.5, nil)

	_, err := f.svc.Align(context.Background(), alignRequest())
	require.ErrorIs(t, err, ErrVideoTooLong)

	failure := Classify(err)
	assert.Equal(t, ClassBadInput, failure.Class)
	assert.Equal(t, http.StatusRequestEntityTooLarge, failure.Status)
	assert.Equal(t, "Video too long (75.5s). Maximum is 60s.", failure.Message)

	assert.Empty(t, f.remaining(t))
	f.media.AssertNotCalled(t, "ExtractAudio", mock.Anything, mock.Anything)
}

func TestAlignScriptWithoutWords(t *testing.T) {
	f := newFixture(t, nil)
	f.media.On("ProbeDuration", mock.Anything, mock.Anything).Return(5.0, nil)
	f.expectAudio()
	f.aligner.On("AlignWithResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &alignment.AlignmentError{Reason: "no sentences found in script text"})

	req := alignRequest()
	req.ScriptText = "   "
	_, err := f.svc.Align(context.Background(), req)
	require.Error(t, err)
	assert.True(t, alignment.IsAlignmentError(err))
	assert.Equal(t, ClassBadInput, Classify(err).Class)
	assert.Empty(t, f.remaining(t))
}

func TestAlignEmptyResult(t *testing.T) {
	f := newFixture(t, nil)
	f.media.On("ProbeDuration", mock.Anything, mock.Anything).Return(5.0, nil)
	f.expectAudio()
	f.aligner.On("AlignWithResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&alignment.Result{Strategy: alignment.StrategyPrecise}, nil)

	_, err := f.svc.Align(context.Background(), alignRequest())
	require.ErrorIs(t, err, ErrNoSegments)

	failure := Classify(err)
	assert.Equal(t, ClassBadInput, failure.Class)
	assert.Equal(t, http.StatusBadRequest, failure.Status)
	assert.Empty(t, f.remaining(t))
}

func TestAlignDownloadFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.downloader.err = &fetch.DownloadError{URL: "u", Err: errors.New("404")}

	_, err := f.svc.Align(context.Background(), alignRequest())
	failure := Classify(err)
	assert.Equal(t, ClassProcessing, failure.Class)
	assert.Equal(t, http.StatusBadRequest, failure.Status)
}

func TestAlignInvalidRequest(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Align(context.Background(), models.AlignRequest{VideoURL: "not a url", ScriptText: "x"})
	failure := Classify(err)
	assert.Equal(t, ClassBadInput, failure.Class)
	assert.Equal(t, 0, f.downloader.calls)
}

func renderRequest() models.RenderRequest {
	return models.RenderRequest{
		VideoURL: "https://cdn.example.com/clip.mp4",
		Segments: []models.Segment{
			{Start: 0, End: 1.5, Text: "first line\nsecond"},
			{Start: 1.5, End: 3, Text: "{\\b1}bold{\\b0}"},
		},
		StylePreset: "tiktok_bold",
	}
}

func TestRenderSuccess(t *testing.T) {
	f := newFixture(t, nil)
	f.media.On("ProbeDuration", mock.Anything, mock.Anything).Return(3.0, nil)
	f.media.On("ProbeResolution", mock.Anything, mock.Anything).Return(models.Resolution1080p, nil)
	f.media.On("BurnSubtitles", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			opts := args.Get(1).(media.BurnSubtitleOptions)
			os.WriteFile(opts.OutputPath, []byte("mp4"), 0o644)
		}).
		Return("", nil)

	result, err := f.svc.Render(context.Background(), renderRequest())
	require.NoError(t, err)
	assert.Equal(t, models.Resolution1080p, result.Resolution)
	assert.FileExists(t, result.OutputPath)
	assert.Equal(t, filepath.Join(f.dir, "source_input.ass"), result.SubtitlePath)

	doc, err := os.ReadFile(result.SubtitlePath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "PlayResX: 1920")
	assert.Contains(t, string(doc), `first line\Nsecond`)
	assert.Contains(t, string(doc), `{\b1}bold{\b0}`)
	assert.Equal(t, 2, strings.Count(string(doc), "Dialogue: "))

	result.Cleanup(nil)
	assert.Empty(t, f.remaining(t))
}

func TestRenderFailureCleansUp(t *testing.T) {
	f := newFixture(t, nil)
	f.media.On("ProbeDuration", mock.Anything, mock.Anything).Return(3.0, nil)
	f.media.On("ProbeResolution", mock.Anything, mock.Anything).Return(models.Resolution720p, nil)
	f.media.On("BurnSubtitles", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			opts := args.Get(1).(media.BurnSubtitleOptions)
			os.WriteFile(opts.OutputPath, []byte("partial"), 0o644)
		}).
		Return("", &media.RenderError{Err: errors.New("ffmpeg exited 1")})

	result, err := f.svc.Render(context.Background(), renderRequest())
	assert.Nil(t, result)

	failure := Classify(err)
	assert.Equal(t, ClassProcessing, failure.Class)
	assert.Equal(t, http.StatusBadRequest, failure.Status)
	assert.Empty(t, f.remaining(t))
}

func TestRenderRejectsEmptySegments(t *testing.T) {
	f := newFixture(t, nil)

	req := renderRequest()
	req.Segments = nil
	_, err := f.svc.Render(context.Background(), req)
	assert.Equal(t, ClassBadInput, Classify(err).Class)
	assert.Equal(t, 0, f.downloader.calls)
}

func TestStyles(t *testing.T) {
	f := newFixture(t, nil)
	styles := f.svc.Styles()
	assert.Equal(t, "tiktok_clean", styles.Default)
	assert.ElementsMatch(t, []string{"tiktok_clean", "tiktok_bold", "minimal"}, styles.Presets)
}

func TestClassifyUnknown(t *testing.T) {
	failure := Classify(errors.New("disk on fire"))
	assert.Equal(t, ClassProcessing, failure.Class)
	assert.Equal(t, http.StatusInternalServerError, failure.Status)
	assert.NotContains(t, failure.Message, "disk")
}

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "/tmp/a_input.ass", replaceExt("/tmp/a_input.mp4", ".ass"))
	assert.Equal(t, "/tmp/v.1/file.ass", replaceExt("/tmp/v.1/file", ".ass"))
}
