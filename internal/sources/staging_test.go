package sources_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/docsource-server/internal/converter"
	"github.com/stacklok/docsource-server/internal/sources"
)

func TestEncodeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		encoded  string
	}{
		{filename: "test.txt", encoded: "dGVzdC50eHQ%3D"},
		{filename: "a", encoded: "YQ%3D%3D"},
		{filename: "ñ.pdf", encoded: "w7EucGRm"},
		{filename: "??>", encoded: "Pz8-"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.encoded, sources.EncodeFilename(tt.filename))
			decoded, err := sources.DecodeFilename(tt.encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.filename, decoded)
		})
	}
}

func TestDecodeFilenameInvalid(t *testing.T) {
	t.Parallel()

	for _, encoded := range []string{"%zz", "not base64!", "_w%3D%3D"} {
		_, err := sources.DecodeFilename(encoded)
		require.ErrorIs(t, err, sources.ErrInvalidEncodedFilename, encoded)
	}
}

type stagingFixture struct {
	env     *testEnv
	dir     string
	backend *sources.StagingFolderBackend
}

func newStagingFixture(t *testing.T, data map[string]any) *stagingFixture {
	t.Helper()

	dir := t.TempDir()
	values := map[string]any{"folder_path": dir, "preview_width": 640}
	for k, v := range data {
		values[k] = v
	}

	env := newTestEnv(t)
	src := newSource(t, 7, sources.PathStagingFolder, values)
	return &stagingFixture{env: env, dir: dir, backend: sources.NewStagingFolderBackend(src, env.Env)}
}

func (f *stagingFixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0600))
}

func TestStagingFolderGetFiles(t *testing.T) {
	t.Parallel()

	f := newStagingFixture(t, nil)
	f.write(t, "b.png", "b")
	f.write(t, "a.pdf", "a")
	require.NoError(t, os.Mkdir(filepath.Join(f.dir, "subdir"), 0700))

	files, err := f.backend.GetFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.pdf", files[0].Filename)
	assert.Equal(t, "b.png", files[1].Filename)
	assert.Equal(t, "7"+sources.EncodeFilename("a.pdf"), files[0].CacheFilename())
	assert.Equal(t, filepath.Join(f.dir, "a.pdf"), files[0].FullPath())

	created, err := files[0].DateTimeCreated()
	require.NoError(t, err)
	_, err = time.Parse("Mon Jan _2 15:04:05 2006", created)
	require.NoError(t, err)

	view, err := f.backend.GetViewContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No staging files available", view["no_results_title"])
	assert.Len(t, view["object_list"], 2)
}

func TestStagingFolderGetFilesMissingFolder(t *testing.T) {
	t.Parallel()

	f := newStagingFixture(t, map[string]any{"folder_path": "/nonexistent/staging"})
	_, err := f.backend.GetFiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable get list of staging files: ")
}

func TestStagingFolderGetFile(t *testing.T) {
	t.Parallel()

	f := newStagingFixture(t, nil)
	f.write(t, "scan.png", "png")

	file, err := f.backend.GetFile(sources.EncodeFilename("scan.png"))
	require.NoError(t, err)
	assert.Equal(t, "scan.png", file.Filename)

	_, err = f.backend.GetFile(sources.EncodeFilename("missing.png"))
	require.ErrorIs(t, err, sources.ErrStagingFileNotFound)

	_, err = f.backend.GetFile(sources.EncodeFilename("../etc/passwd"))
	require.ErrorIs(t, err, sources.ErrInvalidEncodedFilename)

	_, err = f.backend.GetFile("%%%")
	require.ErrorIs(t, err, sources.ErrInvalidEncodedFilename)
}

func TestStagingFileGenerateImage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newStagingFixture(t, map[string]any{"preview_height": 480})
	f.write(t, "scan.png", "raw image")

	file, err := f.backend.GetFile(sources.EncodeFilename("scan.png"))
	require.NoError(t, err)

	rotate := converter.Rotate{Degrees: 90}
	f.env.converter.EXPECT().
		Convert(gomock.Any(), rotate, converter.Resize{Width: 640, Height: 480}).
		Return([]byte("png bytes"), nil).
		Times(1)

	opts := sources.ImageOptions{Transformations: []converter.Transformation{rotate}}
	key, err := file.GenerateImage(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, file.CacheFilename(), key)

	// Served from the cache the second time.
	data, err := file.Image(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))
}

func TestStagingFileGenerateImageExplicitSize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newStagingFixture(t, nil)
	f.write(t, "scan.png", "raw image")

	file, err := f.backend.GetFile(sources.EncodeFilename("scan.png"))
	require.NoError(t, err)

	f.env.converter.EXPECT().
		Convert(gomock.Any(), converter.Resize{Width: 640}, converter.Resize{Width: 100, Height: 50}).
		Return([]byte("small"), nil)

	key, err := file.GenerateImage(ctx, sources.ImageOptions{Width: 100, Height: 50})
	require.NoError(t, err)
	assert.Equal(t, file.CacheFilename()+"-100x50", key)

	exists, err := f.env.Cache.Exists(ctx, file.CacheFilename())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStagingFileGenerateImageError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newStagingFixture(t, nil)
	f.write(t, "notes.txt", "plain text")

	file, err := f.backend.GetFile(sources.EncodeFilename("notes.txt"))
	require.NoError(t, err)

	f.env.converter.EXPECT().Convert(gomock.Any(), gomock.Any()).Return(nil, converter.ErrUnsupportedFormat)

	_, err = file.GenerateImage(ctx, sources.ImageOptions{})
	require.ErrorIs(t, err, converter.ErrUnsupportedFormat)

	exists, err := f.env.Cache.Exists(ctx, file.CacheFilename())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStagingFileGenerateImageTimeout(t *testing.T) {
	t.Parallel()

	f := newStagingFixture(t, nil)
	f.env.ImageTimeout = 20 * time.Millisecond
	f.write(t, "slow.png", "raw image")

	file, err := f.backend.GetFile(sources.EncodeFilename("slow.png"))
	require.NoError(t, err)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	f.env.converter.EXPECT().Convert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, _ ...converter.Transformation) ([]byte, error) {
			<-release
			return nil, errors.New("cancelled")
		}).AnyTimes()

	_, err = file.GenerateImage(context.Background(), sources.ImageOptions{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStagingFileDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newStagingFixture(t, nil)
	f.write(t, "scan.png", "raw image")

	file, err := f.backend.GetFile(sources.EncodeFilename("scan.png"))
	require.NoError(t, err)

	f.env.converter.EXPECT().Convert(gomock.Any(), gomock.Any()).Return([]byte("png"), nil)
	f.env.converter.EXPECT().Convert(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("png"), nil)
	_, err = file.GenerateImage(ctx, sources.ImageOptions{})
	require.NoError(t, err)
	_, err = file.GenerateImage(ctx, sources.ImageOptions{Width: 10})
	require.NoError(t, err)

	require.NoError(t, file.Delete(ctx))

	keys, err := f.env.Cache.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.NoFileExists(t, file.FullPath())
}

func TestStagingFolderUpload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		data              map[string]any
		expand            bool
		wantExpand        bool
		wantFileRemaining bool
	}{
		{
			name:              "keeps_file",
			data:              map[string]any{},
			expand:            true,
			wantFileRemaining: true,
		},
		{
			name:       "deletes_after_upload_and_asks",
			data:       map[string]any{"delete_after_upload": true, "uncompress": "ask"},
			expand:     true,
			wantExpand: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			f := newStagingFixture(t, tt.data)
			f.write(t, "invoice.pdf", "%PDF-1.4")

			tasks, err := f.backend.Upload(ctx, &sources.UploadRequest{
				DocumentTypeID: 3,
				UserID:         "alice",
				Expand:         tt.expand,
				StagingFile:    sources.EncodeFilename("invoice.pdf"),
			})
			require.NoError(t, err)
			require.Len(t, tasks, 1)

			task := f.env.recorder.all()[0]
			assert.Equal(t, int64(7), task.SourceID)
			assert.Equal(t, int64(3), task.DocumentTypeID)
			assert.Equal(t, "alice", task.UserID)
			assert.Equal(t, "eng", task.Language)
			assert.Equal(t, tt.wantExpand, task.Expand)
			assert.NotNil(t, task.CallbackKwargs)

			shared, err := f.env.SharedUploads.Get(ctx, task.SharedUploadedFileID)
			require.NoError(t, err)
			assert.Equal(t, "invoice.pdf", shared.Filename)

			if tt.wantFileRemaining {
				assert.FileExists(t, filepath.Join(f.dir, "invoice.pdf"))
			} else {
				assert.NoFileExists(t, filepath.Join(f.dir, "invoice.pdf"))
			}
		})
	}
}

func TestStagingFolderUploadRequiresFile(t *testing.T) {
	t.Parallel()

	f := newStagingFixture(t, nil)
	_, err := f.backend.Upload(context.Background(), &sources.UploadRequest{})

	var ve *sources.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "staging_file_id")
}
