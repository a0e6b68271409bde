package testsupport

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/therealutkarshpriyadarshi/vidtube/internal/media"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

// FakeMediaBaseURL prefixes every URL the fake media service hands out
const FakeMediaBaseURL = "http://media.test/vidtube/"

// FakeMedia is an in-memory media.Service
type FakeMedia struct {
	mu sync.Mutex

	Objects map[string]bool
	Deleted []string

	// UploadErr and DeleteErr make the corresponding calls fail when set
	UploadErr error
	DeleteErr error
	Duration  float64

	n int
}

var _ media.Service = (*FakeMedia)(nil)

// NewFakeMedia creates a fake reporting the given duration for videos
func NewFakeMedia(duration float64) *FakeMedia {
	return &FakeMedia{Objects: map[string]bool{}, Duration: duration}
}

func (f *FakeMedia) Upload(ctx context.Context, localPath string, folder media.Folder) (*media.Asset, error) {
	if localPath == "" {
		return nil, media.ErrNoFile
	}
	defer os.Remove(localPath)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.UploadErr != nil {
		return nil, f.UploadErr
	}
	key := media.ObjectKey(folder, localPath)
	f.Objects[key] = true
	f.n++

	asset := &media.Asset{URL: FakeMediaBaseURL + key, PublicID: key}
	if folder == media.FolderVideos {
		asset.Duration = f.Duration
	}
	return asset, nil
}

func (f *FakeMedia) ExtractFrame(ctx context.Context, videoPublicID string, duration float64) (*media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.UploadErr != nil {
		return nil, f.UploadErr
	}
	if !f.Objects[videoPublicID] {
		return nil, errors.New("source video not stored")
	}
	key := media.ObjectKey(media.FolderThumbnails, "frame.jpg")
	f.Objects[key] = true
	return &media.Asset{URL: FakeMediaBaseURL + key, PublicID: key}, nil
}

func (f *FakeMedia) Delete(ctx context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.Objects, publicID)
	f.Deleted = append(f.Deleted, publicID)
	return nil
}

func (f *FakeMedia) PublicID(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, FakeMediaBaseURL) {
		return "", errors.New("foreign url")
	}
	return strings.TrimPrefix(rawURL, FakeMediaBaseURL), nil
}

// Stored reports how many objects are currently stored
func (f *FakeMedia) Stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Objects)
}

// RecordingPublisher collects published cleanup tasks
type RecordingPublisher struct {
	mu    sync.Mutex
	Tasks []*models.CleanupTask
	Err   error
}

func (p *RecordingPublisher) Publish(ctx context.Context, task *models.CleanupTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Tasks = append(p.Tasks, task)
	return nil
}
