// Package drafts runs the photo-to-listing flow: capture, analyze, review and commit.
package drafts

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/bazary-backend/internal/generative"
	"github.com/angelmondragon/bazary-backend/internal/messages"
	"github.com/angelmondragon/bazary-backend/pkg/dataurl"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/imaging"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
	"github.com/angelmondragon/bazary-backend/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Stage is the position of the current batch in the flow.
type Stage string

const (
	StageCapture Stage = "capture"
	StageAnalyze Stage = "analyze"
	StageReview  Stage = "review"
)

// Action is an enhancement-class operation on one draft. At most one runs per draft.
type Action string

const (
	ActionEnhance Action = "enhance"
	ActionVideo   Action = "video"
	ActionVoice   Action = "voice"
)

const defaultMaxFiles = 10

type catalogWriter interface {
	AddProducts(ctx context.Context, products []models.Product) error
	Language() enums.Language
}

// Options carry the media and commit settings.
type Options struct {
	MaxFiles        int
	MaxEdge         int
	Quality         int
	DefaultCurrency string
}

// Upload is one raw photo as received from the operator.
type Upload struct {
	Name string
	Data []byte
}

// DraftPatch carries operator edits; nil fields are left unchanged.
type DraftPatch struct {
	Title           *string
	Category        *enums.ProductCategory
	TargetAudience  *enums.TargetAudience
	Price           *decimal.Decimal
	Description     *string
	BlueOceanAdvice *string
	VoiceScript     *string
	AspectRatio     *enums.AspectRatio
}

// DraftView is a draft plus the action currently running on it.
type DraftView struct {
	models.Draft
	Busy   Action `json:"busy,omitempty"`
	Status string `json:"status,omitempty"`
}

// Batch is a snapshot of the flow.
type Batch struct {
	ID     string      `json:"batchId"`
	Stage  Stage       `json:"stage"`
	Drafts []DraftView `json:"drafts"`
	Error  string      `json:"error,omitempty"`
}

type batch struct {
	id       string
	stage    Stage
	drafts   []models.Draft
	inflight map[string]Action
	status   map[string]string
	tasks    map[string]*generative.VideoTask
	lastErr  string
}

func newBatch() *batch {
	return &batch{
		stage:    StageCapture,
		drafts:   []models.Draft{},
		inflight: map[string]Action{},
		status:   map[string]string{},
		tasks:    map[string]*generative.VideoTask{},
	}
}

func (b *batch) indexOf(draftID string) int {
	for i, d := range b.drafts {
		if d.ID == draftID {
			return i
		}
	}
	return -1
}

// Controller owns the single operator's draft batch.
type Controller struct {
	gateway generative.Gateway
	catalog catalogWriter
	broker  *StatusBroker
	logg    *logger.Logger
	opts    Options

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu    sync.Mutex
	batch *batch

	now   func() time.Time
	newID func() string
}

func NewController(gateway generative.Gateway, catalog catalogWriter, broker *StatusBroker, logg *logger.Logger, opts Options) (*Controller, error) {
	if gateway == nil {
		return nil, fmt.Errorf("generative gateway required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog writer required")
	}
	if broker == nil {
		broker = NewStatusBroker()
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = defaultMaxFiles
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = models.DefaultCurrency
	}
	baseCtx, stop := context.WithCancel(context.Background())
	return &Controller{
		gateway: gateway,
		catalog: catalog,
		broker:  broker,
		logg:    logg,
		opts:    opts,
		baseCtx: baseCtx,
		stop:    stop,
		batch:   newBatch(),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}, nil
}

// Broker exposes the status stream.
func (c *Controller) Broker() *StatusBroker {
	return c.broker
}

// Snapshot returns a copy of the current batch.
func (c *Controller) Snapshot() Batch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Batch {
	b := c.batch
	out := Batch{ID: b.id, Stage: b.stage, Drafts: make([]DraftView, 0, len(b.drafts)), Error: b.lastErr}
	for _, d := range b.drafts {
		out.Drafts = append(out.Drafts, DraftView{Draft: d.Clone(), Busy: b.inflight[d.ID], Status: b.status[d.ID]})
	}
	return out
}

// Analyze downscales the uploads, sends them as one batch and moves to review. Any failure returns
// the flow to capture with no drafts.
func (c *Controller) Analyze(ctx context.Context, uploads []Upload) (Batch, error) {
	if len(uploads) == 0 {
		return Batch{}, pkgerrors.New(pkgerrors.CodeValidation, "select at least one photo")
	}
	if !c.gateway.Configured() {
		return Batch{}, pkgerrors.New(pkgerrors.CodeConfiguration, messages.Text(enums.DefaultLanguage, messages.MissingAIKey))
	}
	if len(uploads) > c.opts.MaxFiles {
		uploads = uploads[:c.opts.MaxFiles]
	}
	lang := c.catalog.Language()

	c.mu.Lock()
	if c.batch.stage != StageCapture {
		stage := c.batch.stage
		c.mu.Unlock()
		return Batch{}, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("a batch is already in %s", stage))
	}
	batchID := c.newID()
	c.batch = newBatch()
	c.batch.id = batchID
	c.batch.stage = StageAnalyze
	c.mu.Unlock()

	ctx = c.logg.WithBatchID(ctx, batchID)
	c.publishStage(batchID, StageAnalyze, messages.Text(lang, messages.StatusOptimizing))

	images, err := c.downscaleAll(ctx, uploads)
	if err != nil {
		return Batch{}, c.failAnalyze(ctx, batchID, err)
	}

	c.publishStage(batchID, StageAnalyze, messages.Text(lang, messages.StatusAnalyzing))
	results, err := c.gateway.Analyze(ctx, generative.AnalyzeInput{Images: images, Language: lang})
	if err == nil && len(results) == 0 {
		err = pkgerrors.New(pkgerrors.CodeDependency, messages.Text(lang, messages.AnalyzeFailed))
	}
	if err != nil {
		return Batch{}, c.failAnalyze(ctx, batchID, err)
	}

	createdAt := c.now().UnixMilli()
	drafts := make([]models.Draft, 0, len(results))
	for i, result := range results {
		source := images[0]
		if i < len(images) {
			source = images[i]
		}
		drafts = append(drafts, models.Draft{
			ID:              c.newID(),
			Title:           result.Title,
			Category:        result.Category,
			TargetAudience:  result.TargetAudience,
			Price:           result.Price,
			Currency:        c.opts.DefaultCurrency,
			Description:     result.Description,
			ImageURL:        dataurl.Encode(source.MimeType, source.Data),
			BlueOceanAdvice: result.BlueOceanAdvice,
			ScarcityScore:   result.ScarcityScore,
			VoiceScript:     result.VoiceScript,
			Stage:           enums.ProductStatusDraft,
			AspectRatio:     enums.AspectRatioSquare,
			CreatedAt:       createdAt,
		})
	}

	c.mu.Lock()
	if c.batch.id != batchID || c.batch.stage != StageAnalyze {
		c.mu.Unlock()
		return Batch{}, pkgerrors.New(pkgerrors.CodeConflict, "batch was discarded during analysis")
	}
	c.batch.drafts = drafts
	c.batch.stage = StageReview
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.logg.Info(c.logg.WithField(ctx, "drafts", len(drafts)), "drafts.analyze.completed")
	c.publishStage(batchID, StageReview, messages.Text(lang, messages.StatusReady))
	return snapshot, nil
}

func (c *Controller) downscaleAll(ctx context.Context, uploads []Upload) ([]generative.Image, error) {
	images := make([]generative.Image, len(uploads))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, upload := range uploads {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			if len(upload.Data) == 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file %d is empty", i+1))
			}
			out, err := imaging.Downscale(upload.Data, imaging.Options{MaxEdge: c.opts.MaxEdge, Quality: c.opts.Quality})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeUnsupportedMedia, err, fmt.Sprintf("file %d could not be read as an image", i+1))
			}
			images[i] = generative.Image{MimeType: "image/jpeg", Data: out}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func (c *Controller) failAnalyze(ctx context.Context, batchID string, err error) error {
	c.logg.Error(ctx, "drafts.analyze.failed", err)

	c.mu.Lock()
	if c.batch.id == batchID {
		c.batch = newBatch()
		c.batch.lastErr = publicText(err)
	}
	c.mu.Unlock()

	c.publishStage(batchID, StageCapture, publicText(err))
	return err
}

// Edit applies operator changes to one draft. Edits are allowed while an action is running.
func (c *Controller) Edit(_ context.Context, draftID string, patch DraftPatch) (models.Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.reviewDraftLocked(draftID)
	if err != nil {
		return models.Draft{}, err
	}
	draft := c.batch.drafts[idx].Clone()
	if err := applyPatch(&draft, patch); err != nil {
		return models.Draft{}, err
	}
	c.batch.drafts[idx] = draft
	return draft.Clone(), nil
}

func applyPatch(d *models.Draft, patch DraftPatch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		d.Title = title
	}
	if patch.Category != nil {
		if !patch.Category.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
		}
		d.Category = *patch.Category
	}
	if patch.TargetAudience != nil {
		if *patch.TargetAudience != "" && !patch.TargetAudience.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid target audience")
		}
		d.TargetAudience = *patch.TargetAudience
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		d.Price = *patch.Price
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.BlueOceanAdvice != nil {
		d.BlueOceanAdvice = *patch.BlueOceanAdvice
	}
	if patch.VoiceScript != nil {
		d.VoiceScript = *patch.VoiceScript
	}
	if patch.AspectRatio != nil {
		if !patch.AspectRatio.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid aspect ratio")
		}
		d.AspectRatio = *patch.AspectRatio
	}
	return nil
}

func (c *Controller) reviewDraftLocked(draftID string) (int, error) {
	if c.batch.stage != StageReview {
		return -1, pkgerrors.New(pkgerrors.CodeConflict, "no batch is in review")
	}
	idx := c.batch.indexOf(draftID)
	if idx < 0 {
		return -1, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
	}
	return idx, nil
}

// Discard abandons the batch, stopping any video polling, and returns to capture.
func (c *Controller) Discard(ctx context.Context) {
	c.mu.Lock()
	old := c.batch
	c.batch = newBatch()
	c.mu.Unlock()

	for _, task := range old.tasks {
		task.Cancel()
	}
	if old.id != "" {
		c.logg.Info(c.logg.WithBatchID(ctx, old.id), "drafts.batch.discarded")
		c.publishStage(old.id, StageCapture, "")
	}
}

// Commit promotes every draft to a published product, prepends them to the catalog and resets.
func (c *Controller) Commit(ctx context.Context) ([]models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.batch
	if b.stage != StageReview || len(b.drafts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "no drafts to commit")
	}
	if len(b.inflight) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "wait for running draft actions to finish").
			WithDetails(map[string]any{"busy": len(b.inflight)})
	}

	createdAt := c.now().UnixMilli()
	products := make([]models.Product, 0, len(b.drafts))
	for _, d := range b.drafts {
		products = append(products, d.ToProduct(c.opts.DefaultCurrency, createdAt))
	}
	if err := c.catalog.AddProducts(ctx, products); err != nil {
		return nil, err
	}

	c.logg.Info(c.logg.WithFields(c.logg.WithBatchID(ctx, b.id), map[string]any{"products": len(products)}), "drafts.batch.committed")
	c.batch = newBatch()
	c.publishStage(b.id, StageCapture, "")
	return models.CloneProducts(products), nil
}

// Shutdown cancels pending work and waits for background actions to return.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.Discard(ctx)
	c.stop()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) publishStage(batchID string, stage Stage, message string) {
	c.broker.Publish(StatusEvent{BatchID: batchID, Stage: stage, State: EventStage, Message: message, At: c.now()})
}

func publicText(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}
