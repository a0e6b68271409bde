package media

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
)

// Folder groups uploaded objects by purpose
type Folder string

const (
	FolderVideos     Folder = "videos"
	FolderThumbnails Folder = "thumbnails"
	FolderAvatars    Folder = "avatars"
	FolderCovers     Folder = "covers"
)

// ErrNoFile is returned when Upload is called without a local path
var ErrNoFile = errors.New("no local file to upload")

// Asset is an object stored by the delegate
type Asset struct {
	URL      string  `json:"url"`
	PublicID string  `json:"publicId"`
	Duration float64 `json:"duration,omitempty"`
}

// ObjectStore is the object storage the delegate writes to
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName, filePath string) (int64, error)
	DownloadFile(ctx context.Context, objectName, filePath string) error
	Delete(ctx context.Context, objectName string) error
	PublicURL(objectName string) string
	KeyFromURL(rawURL string) (string, error)
}

// Prober reads media metadata and extracts frames
type Prober interface {
	ProbeDuration(ctx context.Context, inputPath string) (float64, error)
	ExtractFrame(ctx context.Context, inputPath, outputPath string, timeSeconds float64) error
}

// Service is the media contract used by request handlers
type Service interface {
	Upload(ctx context.Context, localPath string, folder Folder) (*Asset, error)
	ExtractFrame(ctx context.Context, videoPublicID string, duration float64) (*Asset, error)
	Delete(ctx context.Context, publicID string) error
	PublicID(rawURL string) (string, error)
}

// Delegate stores media in object storage
type Delegate struct {
	store   ObjectStore
	prober  Prober
	tempDir string
	logger  *logging.Logger
	random  func() float64
}

var _ Service = (*Delegate)(nil)

// NewDelegate creates a delegate. A nil prober disables duration probing and frame extraction.
func NewDelegate(store ObjectStore, prober Prober, tempDir string, logger *logging.Logger) *Delegate {
	if logger == nil {
		logger = logging.Nop()
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Delegate{
		store:   store,
		prober:  prober,
		tempDir: tempDir,
		logger:  logger,
		random:  rand.Float64,
	}
}

// Upload moves a local file into object storage. The local file is removed
// whether or not the upload succeeds.
func (d *Delegate) Upload(ctx context.Context, localPath string, folder Folder) (*Asset, error) {
	if localPath == "" {
		return nil, ErrNoFile
	}
	defer d.removeLocal(localPath)

	key := ObjectKey(folder, localPath)
	asset := &Asset{PublicID: key}

	if folder == FolderVideos && d.prober != nil {
		duration, err := d.prober.ProbeDuration(ctx, localPath)
		if err != nil {
			d.logger.WithField("key", key).WarnWithErr("failed to probe video duration", err)
		}
		asset.Duration = duration
	}

	size, err := d.store.UploadFile(ctx, key, localPath)
	metrics.RecordMediaUpload(string(folder), metrics.Status(err), size)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", folder, err)
	}

	asset.URL = d.store.PublicURL(key)
	return asset, nil
}

// ExtractFrame grabs a frame of a stored video at a random offset and stores
// it as a thumbnail.
func (d *Delegate) ExtractFrame(ctx context.Context, videoPublicID string, duration float64) (*Asset, error) {
	if d.prober == nil {
		return nil, errors.New("frame extraction is not configured")
	}

	source, err := d.tempPath("frame-src-*" + filepath.Ext(videoPublicID))
	if err != nil {
		return nil, err
	}
	defer d.removeLocal(source)

	if err := d.store.DownloadFile(ctx, videoPublicID, source); err != nil {
		return nil, fmt.Errorf("failed to fetch video for frame: %w", err)
	}

	frame, err := d.tempPath("frame-*.jpg")
	if err != nil {
		return nil, err
	}

	if err := d.prober.ExtractFrame(ctx, source, frame, ThumbnailOffset(duration, d.random())); err != nil {
		d.removeLocal(frame)
		return nil, err
	}

	return d.Upload(ctx, frame, FolderThumbnails)
}

// Delete removes a stored object by public ID
func (d *Delegate) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	if err := d.store.Delete(ctx, publicID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", publicID, err)
	}
	return nil
}

// PublicID returns the public ID behind a stored URL
func (d *Delegate) PublicID(rawURL string) (string, error) {
	return d.store.KeyFromURL(rawURL)
}

func (d *Delegate) tempPath(pattern string) (string, error) {
	if err := os.MkdirAll(d.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	f, err := os.CreateTemp(d.tempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	f.Close()
	return name, nil
}

func (d *Delegate) removeLocal(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.WithField("path", path).WarnWithErr("failed to remove temp file", err)
	}
}

// ObjectKey builds the storage key for a local file: <folder>/<uuid><ext>
func ObjectKey(folder Folder, localPath string) string {
	return string(folder) + "/" + uuid.New().String() + strings.ToLower(filepath.Ext(localPath))
}

// ThumbnailOffset picks a frame offset within the middle 80% of the video.
// r must be in [0, 1).
func ThumbnailOffset(duration, r float64) float64 {
	if duration <= 0 {
		return 0
	}
	if r < 0 {
		r = 0
	}
	if r >= 1 {
		r = 0.999
	}
	return duration*0.1 + r*duration*0.8
}

// PublicIDs resolves the public IDs of the given URLs. Empty values and URLs
// outside the bucket are skipped.
func PublicIDs(svc Service, urls ...string) []string {
	var ids []string
	for _, u := range urls {
		if u == "" {
			continue
		}
		id, err := svc.PublicID(u)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
