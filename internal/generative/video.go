package generative

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/angelmondragon/bazary-backend/internal/messages"
	"github.com/angelmondragon/bazary-backend/pkg/dataurl"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/gemini"
)

// VideoInput seeds a video job with the product photo.
type VideoInput struct {
	Image       Image
	Prompt      string
	Title       string
	AspectRatio enums.AspectRatio
}

// VideoProgress is reported on every polling tick.
type VideoProgress struct {
	Attempt int
	Done    bool
}

// ProgressFunc receives polling ticks. It runs on the task goroutine and must not block.
type ProgressFunc func(VideoProgress)

// VideoTask is a cancellable handle on a submitted long-running video job.
type VideoTask struct {
	operation string
	cancel    context.CancelFunc
	done      chan struct{}

	mu     sync.Mutex
	result string
	err    error
}

// Operation returns the provider's job name.
func (t *VideoTask) Operation() string {
	return t.operation
}

// Cancel stops the polling loop. It is safe to call more than once and after completion.
func (t *VideoTask) Cancel() {
	t.cancel()
}

// Done is closed once the task has finished, failed or been cancelled.
func (t *VideoTask) Done() <-chan struct{} {
	return t.done
}

// Result returns the video data reference once Done is closed. Before that it returns "" and nil.
// Provider failures leave "" with a nil error; the error is set only when the task was cancelled.
func (t *VideoTask) Result() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// Wait blocks until the task finishes or ctx ends. Ending ctx does not cancel the task.
func (t *VideoTask) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// NewVideoTask returns a pending task for operation and the context its worker must watch. The
// context outlives parent's cancellation and ends on Cancel.
func NewVideoTask(parent context.Context, operation string) (*VideoTask, context.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	return &VideoTask{operation: operation, cancel: cancel, done: make(chan struct{})}, ctx
}

// Finish records the outcome and closes Done. Only the worker that owns the task calls it, once.
func (t *VideoTask) Finish(result string, err error) {
	t.mu.Lock()
	t.result, t.err = result, err
	t.mu.Unlock()
	close(t.done)
}

// StartVideo submits the job and returns immediately. The polling loop outlives ctx and stops only
// on completion, failure or Cancel. A rejected submission returns an already finished task with an
// empty result.
func (g *gateway) StartVideo(ctx context.Context, input VideoInput, progress ProgressFunc) (*VideoTask, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	if !g.cfg.VideoEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeNotImplemented, messages.Text(enums.DefaultLanguage, messages.VideoDisabled))
	}
	if len(input.Image.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}

	mimeType := input.Image.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	req := gemini.VideoRequest{
		Prompt:      videoPrompt(input),
		Image:       &genai.Image{MIMEType: mimeType, ImageBytes: input.Image.Data},
		AspectRatio: input.AspectRatio.ForVideo().String(),
	}

	var op *genai.GenerateVideosOperation
	err := g.observe(opVideo, func() error {
		var callErr error
		op, callErr = g.client.StartVideo(ctx, g.cfg.VideoModel, req)
		return callErr
	})
	if err != nil {
		g.bestEffort(ctx, opVideo, err)
		task, _ := NewVideoTask(ctx, "")
		task.Finish("", nil)
		task.cancel()
		return task, nil
	}

	task, taskCtx := NewVideoTask(ctx, op.Name)
	go g.poll(taskCtx, task, op, progress)
	return task, nil
}

func videoPrompt(input VideoInput) string {
	if prompt := strings.TrimSpace(input.Prompt); prompt != "" {
		return prompt
	}
	return fmt.Sprintf("Cinematic commercial reel for %q: slow camera orbit around the product, soft azure lighting, clean high-end lifestyle set.", strings.TrimSpace(input.Title))
}

// poll drives the operation to completion. Provider failures end the task with "" and a nil error;
// only cancellation is reported as an error.
func (g *gateway) poll(ctx context.Context, task *VideoTask, op *genai.GenerateVideosOperation, progress ProgressFunc) {
	defer task.cancel()
	ctx = g.logg.WithField(ctx, "operation_name", task.operation)

	timer := time.NewTimer(g.cfg.VideoPollInterval)
	defer timer.Stop()

	for attempt := 1; !op.Done; attempt++ {
		select {
		case <-ctx.Done():
			task.Finish("", ctx.Err())
			return
		case <-timer.C:
		}

		next, err := g.client.GetOperation(ctx, op)
		if err != nil {
			if ctx.Err() != nil {
				task.Finish("", ctx.Err())
				return
			}
			g.bestEffort(ctx, opVideo, err)
			task.Finish("", nil)
			return
		}
		op = next
		if progress != nil {
			progress(VideoProgress{Attempt: attempt, Done: op.Done})
		}
		timer.Reset(g.cfg.VideoPollInterval)
	}

	if err := gemini.OperationFailure(op); err != nil {
		g.bestEffort(ctx, opVideo, err)
		task.Finish("", nil)
		return
	}
	video := gemini.GeneratedVideo(op)
	if video == nil {
		g.bestEffort(ctx, opVideo, fmt.Errorf("video operation finished without output"))
		task.Finish("", nil)
		return
	}

	var ref string
	err := g.observe(opDownload, func() error {
		data, contentType, callErr := g.client.Download(ctx, video)
		if callErr != nil {
			return callErr
		}
		if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
			contentType = "video/mp4"
		}
		ref = dataurl.Encode(contentType, data)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			task.Finish("", ctx.Err())
			return
		}
		g.bestEffort(ctx, opDownload, err)
		task.Finish("", nil)
		return
	}
	g.logg.Info(ctx, "generative.video.ready")
	task.Finish(ref, nil)
}
