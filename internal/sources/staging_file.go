package sources

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/stacklok/docsource-server/internal/converter"
	"github.com/stacklok/docsource-server/internal/logger"
	"github.com/stacklok/docsource-server/internal/storage"
)

// ctimeLayout matches the output of C ctime without the trailing newline
const ctimeLayout = "Mon Jan _2 15:04:05 2006"

var (
	imageGroup   singleflight.Group
	cacheVariant = regexp.MustCompile(`^-\d+x\d+$`)
)

// StagingFile is a file sitting in a staging folder
type StagingFile struct {
	folder          *StagingFolderBackend
	Filename        string `json:"filename"`
	EncodedFilename string `json:"encoded_filename"`
}

// EncodeFilename returns the URL safe form of a staging filename
func EncodeFilename(filename string) string {
	return url.QueryEscape(base64.URLEncoding.EncodeToString([]byte(filename)))
}

// DecodeFilename reverses EncodeFilename
func DecodeFilename(encoded string) (string, error) {
	unquoted, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncodedFilename, err)
	}
	raw, err := base64.URLEncoding.DecodeString(unquoted)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncodedFilename, err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidEncodedFilename)
	}
	return string(raw), nil
}

func newStagingFile(folder *StagingFolderBackend, filename string) (*StagingFile, error) {
	if filename == "" || !filepath.IsLocal(filename) || filepath.Base(filename) != filename {
		return nil, fmt.Errorf("%w: %q is outside the staging folder", ErrInvalidEncodedFilename, filename)
	}
	return &StagingFile{folder: folder, Filename: filename, EncodedFilename: EncodeFilename(filename)}, nil
}

func (f *StagingFile) String() string {
	return f.Filename
}

// CacheFilename is the key of the preview in the cache storage
func (f *StagingFile) CacheFilename() string {
	return fmt.Sprintf("%d%s", f.folder.source.ID, f.EncodedFilename)
}

// FullPath is the location of the file on disk
func (f *StagingFile) FullPath() string {
	return filepath.Join(f.folder.FolderPath(), f.Filename)
}

// DateTimeCreated returns the file change time formatted like ctime
func (f *StagingFile) DateTimeCreated() (string, error) {
	info, err := os.Stat(f.FullPath())
	if err != nil {
		return "", err
	}
	return changeTime(info).Format(ctimeLayout), nil
}

// Open opens the file for upload
func (f *StagingFile) Open() (io.ReadCloser, error) {
	return os.Open(f.FullPath())
}

// ImageOptions selects the preview to generate
type ImageOptions struct {
	// Width and Height request an explicit size, zero keeps the source default
	Width  int
	Height int
	// Transformations are applied before the preview resize
	Transformations []converter.Transformation
}

func (o ImageOptions) explicitSize() bool {
	return o.Width > 0 || o.Height > 0
}

func (f *StagingFile) cacheKey(opts ImageOptions) string {
	if opts.explicitSize() {
		return fmt.Sprintf("%s-%dx%d", f.CacheFilename(), opts.Width, opts.Height)
	}
	return f.CacheFilename()
}

func (f *StagingFile) transformations(opts ImageOptions) []converter.Transformation {
	list := append([]converter.Transformation{}, opts.Transformations...)

	width := int(f.folder.data.Int(fieldPreviewWidth))
	height := int(f.folder.data.Int(fieldPreviewHeight))
	if width > 0 {
		list = append(list, converter.Resize{Width: width, Height: height})
	}
	if opts.explicitSize() {
		list = append(list, converter.Resize{Width: opts.Width, Height: opts.Height})
	}
	return list
}

// GenerateImage renders the preview into the cache storage if needed and
// returns its cache filename
func (f *StagingFile) GenerateImage(ctx context.Context, opts ImageOptions) (string, error) {
	env := f.folder.env
	key := f.cacheKey(opts)

	if timeout := env.ImageTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	exists, err := env.Cache.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check staging file cache: %w", err)
	}
	if exists {
		logger.Debugf("Staging file cache file %q found", key)
		env.Metrics.RecordImageCache(ctx, f.folder.source.ID, true)
		return key, nil
	}
	logger.Debugf("Staging file cache file %q not found", key)
	env.Metrics.RecordImageCache(ctx, f.folder.source.ID, false)

	// The render is shared by concurrent callers and outlives any one of them.
	renderCtx := context.WithoutCancel(ctx)
	ch := imageGroup.DoChan(key, func() (any, error) {
		return nil, f.renderImage(renderCtx, key, f.transformations(opts))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return key, nil
	case <-ctx.Done():
		return "", fmt.Errorf("staging file image generation: %w", ctx.Err())
	}
}

func (f *StagingFile) renderImage(ctx context.Context, key string, transformations []converter.Transformation) error {
	env := f.folder.env

	err := func() error {
		file, err := os.Open(f.FullPath())
		if err != nil {
			return err
		}
		defer file.Close()

		png, err := env.Converter.Convert(file, transformations...)
		if err != nil {
			return err
		}
		_, err = env.Cache.Save(ctx, key, bytes.NewReader(png), &storage.SaveOptions{ContentType: "image/png"})
		return err
	}()
	if err != nil {
		logger.Errorf("Error creating staging file cache %q; %v", key, err)
		if delErr := env.Cache.Delete(ctx, key); delErr != nil {
			logger.Warnf("Failed to remove staging file cache %q: %v", key, delErr)
		}
		return err
	}
	return nil
}

// Image returns the preview bytes, generating them when needed
func (f *StagingFile) Image(ctx context.Context, opts ImageOptions) ([]byte, error) {
	key, err := f.GenerateImage(ctx, opts)
	if err != nil {
		return nil, err
	}
	return f.folder.env.Cache.ReadAll(ctx, key)
}

// Delete removes the cached previews and then the file
func (f *StagingFile) Delete(ctx context.Context) error {
	cache := f.folder.env.Cache
	base := f.CacheFilename()

	keys, err := cache.List(ctx, base)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if key != base && !cacheVariant.MatchString(strings.TrimPrefix(key, base)) {
			continue
		}
		if err := cache.Delete(ctx, key); err != nil {
			return err
		}
	}
	if err := cache.Delete(ctx, base); err != nil {
		return err
	}
	return os.Remove(f.FullPath())
}

func changeTimeFallback(info os.FileInfo) time.Time {
	return info.ModTime()
}
