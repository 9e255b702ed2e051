package drafts

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/bazary-backend/internal/generative"
	"github.com/angelmondragon/bazary-backend/internal/messages"
	"github.com/angelmondragon/bazary-backend/pkg/dataurl"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/models"
)

// actionRun is the state captured when an action is accepted.
type actionRun struct {
	batchID string
	draftID string
	action  Action
	draft   models.Draft
	lang    enums.Language
	ctx     context.Context
}

// EnhanceImage replaces the draft's photo with a studio-style variant in the background.
func (c *Controller) EnhanceImage(ctx context.Context, draftID string) error {
	run, err := c.begin(ctx, draftID, ActionEnhance, messages.StatusEnhancing)
	if err != nil {
		return err
	}
	c.spawn(run, func() {
		img, err := draftImage(run.draft)
		if err != nil {
			c.fail(run, err)
			return
		}
		ref, err := c.gateway.Enhance(run.ctx, generative.EnhanceInput{
			Image:          img,
			Title:          run.draft.Title,
			Category:       run.draft.Category,
			TargetAudience: run.draft.TargetAudience,
			AspectRatio:    run.draft.AspectRatio,
		})
		if err != nil {
			c.fail(run, err)
			return
		}
		if ref == "" {
			c.fail(run, nil)
			return
		}
		c.complete(run, func(d *models.Draft) { d.ImageURL = ref })
	})
	return nil
}

// SynthesizeVoice attaches a spoken pitch built from the voice script, or the title when it is blank.
func (c *Controller) SynthesizeVoice(ctx context.Context, draftID string) error {
	run, err := c.begin(ctx, draftID, ActionVoice, messages.StatusSynthesizingVoice)
	if err != nil {
		return err
	}
	c.spawn(run, func() {
		text := strings.TrimSpace(run.draft.VoiceScript)
		if text == "" {
			text = run.draft.Title
		}
		ref, err := c.gateway.Voice(run.ctx, text)
		if err != nil {
			c.fail(run, err)
			return
		}
		if ref == "" {
			c.fail(run, nil)
			return
		}
		c.complete(run, func(d *models.Draft) { d.AudioURL = ref })
	})
	return nil
}

// SynthesizeVideo submits a video job and polls it in the background. Discard cancels the polling.
func (c *Controller) SynthesizeVideo(ctx context.Context, draftID string) error {
	if !c.gateway.VideoEnabled() {
		return pkgerrors.New(pkgerrors.CodeNotImplemented, messages.Text(enums.DefaultLanguage, messages.VideoDisabled))
	}
	run, err := c.begin(ctx, draftID, ActionVideo, messages.StatusGeneratingVideo)
	if err != nil {
		return err
	}
	c.spawn(run, func() {
		img, err := draftImage(run.draft)
		if err != nil {
			c.fail(run, err)
			return
		}
		task, err := c.gateway.StartVideo(run.ctx, generative.VideoInput{
			Image:       img,
			Title:       run.draft.Title,
			AspectRatio: run.draft.AspectRatio,
		}, func(p generative.VideoProgress) {
			c.broker.Publish(StatusEvent{
				BatchID: run.batchID,
				DraftID: run.draftID,
				Action:  ActionVideo,
				Stage:   StageReview,
				State:   EventProgress,
				Message: messages.Text(run.lang, messages.StatusGeneratingVideo),
				Attempt: p.Attempt,
				At:      c.now(),
			})
		})
		if err != nil {
			c.fail(run, err)
			return
		}
		if !c.track(run, task) {
			task.Cancel()
			return
		}

		<-task.Done()
		ref, err := task.Result()
		if err != nil || ref == "" {
			c.fail(run, err)
			return
		}
		c.complete(run, func(d *models.Draft) { d.VideoURL = ref })
	})
	return nil
}

// begin claims the per-draft slot. A second action on the same draft is a conflict.
func (c *Controller) begin(ctx context.Context, draftID string, action Action, status messages.Key) (actionRun, error) {
	if !c.gateway.Configured() {
		return actionRun{}, pkgerrors.New(pkgerrors.CodeConfiguration, messages.Text(enums.DefaultLanguage, messages.MissingAIKey))
	}
	lang := c.catalog.Language()

	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.reviewDraftLocked(draftID)
	if err != nil {
		return actionRun{}, err
	}
	if running, busy := c.batch.inflight[draftID]; busy {
		return actionRun{}, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("draft is busy with %s", running)).
			WithDetails(map[string]any{"busy": running})
	}
	message := messages.Text(lang, status)
	c.batch.inflight[draftID] = action
	c.batch.status[draftID] = message

	runCtx := c.logg.WithBatchID(c.logg.Carry(c.baseCtx, ctx), c.batch.id)
	runCtx = c.logg.WithDraftID(runCtx, draftID)
	runCtx = c.logg.WithOperation(runCtx, string(action))

	run := actionRun{
		batchID: c.batch.id,
		draftID: draftID,
		action:  action,
		draft:   c.batch.drafts[idx].Clone(),
		lang:    lang,
		ctx:     runCtx,
	}
	c.broker.Publish(StatusEvent{
		BatchID: run.batchID, DraftID: draftID, Action: action, Stage: StageReview,
		State: EventStarted, Message: message, At: c.now(),
	})
	return run, nil
}

func (c *Controller) spawn(run actionRun, fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// track registers a video task so Discard can cancel it. It reports false when the batch is gone.
func (c *Controller) track(run actionRun, task *generative.VideoTask) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(run) {
		return false
	}
	c.batch.tasks[run.draftID] = task
	return true
}

// currentLocked guards against late results landing on a discarded batch or a removed draft.
func (c *Controller) currentLocked(run actionRun) bool {
	return c.batch.id == run.batchID && c.batch.stage == StageReview && c.batch.indexOf(run.draftID) >= 0
}

func (c *Controller) release(run actionRun) {
	if c.batch.id != run.batchID {
		return
	}
	delete(c.batch.inflight, run.draftID)
	delete(c.batch.status, run.draftID)
	delete(c.batch.tasks, run.draftID)
}

// complete applies the result to the draft as it is now, so edits made meanwhile are kept.
func (c *Controller) complete(run actionRun, apply func(*models.Draft)) {
	c.mu.Lock()
	applied := false
	if c.currentLocked(run) {
		idx := c.batch.indexOf(run.draftID)
		draft := c.batch.drafts[idx].Clone()
		apply(&draft)
		c.batch.drafts[idx] = draft
		applied = true
	}
	c.release(run)
	c.mu.Unlock()

	if !applied {
		c.logg.Warn(run.ctx, "drafts.action.stale_result_dropped")
		return
	}
	c.logg.Info(run.ctx, "drafts.action.succeeded")
	c.broker.Publish(StatusEvent{
		BatchID: run.batchID, DraftID: run.draftID, Action: run.action, Stage: StageReview,
		State: EventSucceeded, Message: messages.Text(run.lang, messages.StatusReady), At: c.now(),
	})
}

// fail leaves the draft untouched. A nil err means the provider produced nothing.
func (c *Controller) fail(run actionRun, err error) {
	c.mu.Lock()
	stale := !c.currentLocked(run)
	c.release(run)
	c.mu.Unlock()

	if err != nil && !stale {
		c.logg.Error(run.ctx, "drafts.action.failed", err)
	} else if !stale {
		c.logg.Warn(run.ctx, "drafts.action.empty_result")
	}
	if stale {
		return
	}
	message := messages.Text(run.lang, messages.StatusFailed)
	if typed := pkgerrors.As(err); typed != nil && pkgerrors.MetadataFor(typed.Code()).ExposeMessage {
		message = typed.Message()
	}
	c.broker.Publish(StatusEvent{
		BatchID: run.batchID, DraftID: run.draftID, Action: run.action, Stage: StageReview,
		State: EventFailed, Message: message, At: c.now(),
	})
}

func draftImage(d models.Draft) (generative.Image, error) {
	mediaType, data, err := dataurl.DecodeImage(d.ImageURL)
	if err != nil {
		return generative.Image{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "draft image is not readable")
	}
	return generative.Image{MimeType: mediaType, Data: data}, nil
}
