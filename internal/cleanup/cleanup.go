// Package cleanup finishes video deletions whose media or record removal
// failed inside the request that started them.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

// LockTTL bounds how long one worker may hold a video's cleanup lock
const LockTTL = 2 * time.Minute

// ErrLocked is returned when another worker is reconciling the same video
var ErrLocked = errors.New("cleanup already in progress")

// VideoDeleter removes a video record with its dependents
type VideoDeleter interface {
	DeleteVideoCascade(ctx context.Context, id string) error
}

// MediaDeleter removes stored objects
type MediaDeleter interface {
	Delete(ctx context.Context, publicID string) error
}

// Locker serializes work on one resource across workers
type Locker interface {
	AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, resource string) error
}

// Publisher hands cleanup tasks to the worker
type Publisher interface {
	Publish(ctx context.Context, task *models.CleanupTask) error
}

// NewTask builds a task for a video and the media objects that still need removing
func NewTask(videoID string, publicIDs []string, reason string) *models.CleanupTask {
	return &models.CleanupTask{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		PublicIDs: publicIDs,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}

// Reconciler retries the parts of a video deletion that did not complete
type Reconciler struct {
	videos VideoDeleter
	media  MediaDeleter
	locker Locker
	logger *logging.Logger
}

// NewReconciler creates a reconciler. A nil locker disables locking.
func NewReconciler(videos VideoDeleter, media MediaDeleter, locker Locker, logger *logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Reconciler{
		videos: videos,
		media:  media,
		locker: locker,
		logger: logger,
	}
}

// Reconcile deletes the task's media objects, then the video record. A video
// that is already gone counts as reconciled.
func (r *Reconciler) Reconcile(ctx context.Context, task *models.CleanupTask) (err error) {
	defer func() {
		metrics.RecordCleanupTask(outcome(err))
	}()

	if task.VideoID != "" && r.locker != nil {
		resource := "cleanup:" + task.VideoID
		acquired, lockErr := r.locker.AcquireLock(ctx, resource, LockTTL)
		if lockErr != nil {
			return fmt.Errorf("failed to acquire cleanup lock: %w", lockErr)
		}
		if !acquired {
			return ErrLocked
		}
		defer func() {
			if relErr := r.locker.ReleaseLock(context.WithoutCancel(ctx), resource); relErr != nil {
				r.logger.WithVideoID(task.VideoID).WarnWithErr("failed to release cleanup lock", relErr)
			}
		}()
	}

	var errs []error
	for _, id := range task.PublicIDs {
		if delErr := r.media.Delete(ctx, id); delErr != nil {
			errs = append(errs, delErr)
		}
	}
	if len(errs) > 0 {
		// Keep the record so the task can be retried against the same URLs
		return errors.Join(errs...)
	}

	if task.VideoID == "" {
		return nil
	}
	if delErr := r.videos.DeleteVideoCascade(ctx, task.VideoID); delErr != nil {
		if errors.Is(delErr, database.ErrNotFound) {
			r.logger.WithVideoID(task.VideoID).Debug("video already removed")
			return nil
		}
		return fmt.Errorf("failed to delete video %s: %w", task.VideoID, delErr)
	}

	r.logger.WithVideoID(task.VideoID).WithTaskID(task.ID).Info("video deletion reconciled")
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "reconciled"
	case errors.Is(err, ErrLocked):
		return "locked"
	default:
		return "failed"
	}
}
