package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/dripvault/internal/common"
	"github.com/dmitrijs2005/dripvault/internal/cryptox"
	"github.com/dmitrijs2005/dripvault/internal/logging"
	"github.com/dmitrijs2005/dripvault/internal/vault/blobs"
	"github.com/dmitrijs2005/dripvault/internal/vault/models"
	"github.com/dmitrijs2005/dripvault/internal/vault/sources"
	"github.com/dmitrijs2005/dripvault/internal/vault/store"
	"github.com/google/uuid"
)

const (
	blobSuffix  = ".enc"
	thumbSuffix = ".thumb"
)

// State is the session state of an Engine.
type State int

const (
	StateLocked State = iota
	StateUnlocked
)

func (s State) String() string {
	if s == StateUnlocked {
		return "unlocked"
	}
	return "locked"
}

// Thumbnailer produces a small preview for an imported source. Returning
// nil data means no thumbnail.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, src sources.Source) ([]byte, error)
}

// ThumbnailerFunc adapts a function to Thumbnailer.
type ThumbnailerFunc func(ctx context.Context, src sources.Source) ([]byte, error)

func (f ThumbnailerFunc) Thumbnail(ctx context.Context, src sources.Source) ([]byte, error) {
	return f(ctx, src)
}

// Status summarizes the vault and today's progress.
type Status struct {
	Total          int
	CycleLen       int
	Pointer        int
	Offered        int
	ViewedToday    int
	RemainingToday int
}

// Engine is the vault orchestrator. It starts Locked; every operation
// except Unlock, Lock, State and Close requires a successful Unlock and
// fails with common.ErrNotUnlocked otherwise. Operations are serialized.
type Engine struct {
	mu sync.Mutex

	store *store.Store
	blobs blobs.Store

	keys       KeyManager
	iterations int
	scheduler  *Scheduler
	schedOpts  []SchedulerOption

	log     logging.Logger
	now     func() time.Time
	newID   func() string
	tempDir string
	thumbs  Thumbnailer

	state      State
	blobKey    []byte
	catalogKey []byte
}

// Option customizes an Engine.
type Option func(*Engine)

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

func WithThumbnailer(t Thumbnailer) Option {
	return func(e *Engine) { e.thumbs = t }
}

// WithTempDir sets where DecryptToTemp writes and imports spool ciphertext.
func WithTempDir(dir string) Option {
	return func(e *Engine) { e.tempDir = dir }
}

func WithKDFIterations(n int) Option {
	return func(e *Engine) { e.iterations = n }
}

func WithKeyManager(km KeyManager) Option {
	return func(e *Engine) { e.keys = km }
}

// WithSchedulerOptions configures the engine's Scheduler.
func WithSchedulerOptions(opts ...SchedulerOption) Option {
	return func(e *Engine) { e.schedOpts = append(e.schedOpts, opts...) }
}

// New builds a Locked engine over an opened store and blob storage.
func New(st *store.Store, bs blobs.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      st,
		blobs:      bs,
		iterations: cryptox.DefaultIterations,
		log:        logging.Nop(),
		now:        time.Now,
		newID:      uuid.NewString,
		tempDir:    os.TempDir(),
	}
	for _, o := range opts {
		o(e)
	}

	e.log = e.log.With("component", "engine")
	if e.keys == nil {
		e.keys = NewKeyManager(st.Metadata, e.iterations)
	}
	e.scheduler = NewScheduler(append([]SchedulerOption{WithSchedulerLogger(e.log)}, e.schedOpts...)...)
	return e
}

// State reports whether the session key is held.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Unlock verifies password and keeps the derived sub-keys for the session.
// A fresh vault adopts password as its password.
func (e *Engine) Unlock(ctx context.Context, password []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	master, err := e.keys.Unlock(ctx, password)
	if err != nil {
		e.log.Warn(ctx, "unlock failed", "error", err)
		return err
	}
	defer common.WipeByteArray(master)

	blobKey, err := cryptox.DeriveSubKey(master, cryptox.SubKeyBlob)
	if err != nil {
		return err
	}
	catalogKey, err := cryptox.DeriveSubKey(master, cryptox.SubKeyCatalog)
	if err != nil {
		common.WipeByteArray(blobKey)
		return err
	}

	e.wipeKeys()
	e.blobKey, e.catalogKey = blobKey, catalogKey
	e.state = StateUnlocked

	e.log.Info(ctx, "vault unlocked")
	return nil
}

// Lock wipes the session keys.
func (e *Engine) Lock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.wipeKeys()
	e.state = StateLocked
}

// Close locks the engine and closes the store.
func (e *Engine) Close() error {
	e.Lock()
	return e.store.Close()
}

func (e *Engine) wipeKeys() {
	common.WipeByteArray(e.blobKey)
	common.WipeByteArray(e.catalogKey)
	e.blobKey, e.catalogKey = nil, nil
}

func (e *Engine) requireUnlocked() error {
	if e.state != StateUnlocked {
		return common.ErrNotUnlocked
	}
	return nil
}

// Import encrypts and stores every source and returns how many succeeded.
// A failing source is logged and skipped. Cancellation stops the loop
// between items; items imported so far are kept and scheduled, and the
// context error is returned with the count.
func (e *Engine) Import(ctx context.Context, srcs []sources.Source) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlocked(); err != nil {
		return 0, err
	}

	imported := 0
	var stopErr error
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}

		id, err := e.importOne(ctx, src)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				stopErr = ctxErr
				break
			}
			e.log.Warn(ctx, "import failed, skipping", "source", src.Name(), "error", err)
			continue
		}

		imported++
		e.log.Debug(ctx, "imported", "id", id, "source", src.Name())
	}

	if imported > 0 {
		rctx := context.WithoutCancel(ctx)
		known, err := e.store.Media.ListIDs(rctx)
		if err != nil {
			return imported, storageErr(err)
		}
		if err := e.scheduler.Reconcile(rctx, e.store.Cycle, e.now(), known); err != nil {
			return imported, err
		}
	}

	e.log.Info(ctx, "import finished", "imported", imported, "requested", len(srcs))
	return imported, stopErr
}

func (e *Engine) importOne(ctx context.Context, src sources.Source) (string, error) {
	rc, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	spool, err := os.CreateTemp(e.tempDir, "dripvault-import-*")
	if err != nil {
		return "", storageErr(err)
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	nonce, size, err := cryptox.EncryptStream(spool, &ctxReader{ctx: ctx, r: rc}, e.blobKey)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return "", storageErr(err)
	}

	id := e.newID()
	rec := &models.MediaRecord{
		ID:           id,
		OriginalName: src.Name(),
		MimeType:     src.MimeType(),
		SizeBytes:    size,
		ImportedAt:   e.now(),
		BlobRef:      id + blobSuffix,
		Nonce:        nonce,
	}

	if _, err := e.blobs.Put(ctx, rec.BlobRef, spool); err != nil {
		return "", storageErr(err)
	}

	row, err := e.seal(rec)
	if err != nil {
		_ = e.blobs.Delete(context.WithoutCancel(ctx), rec.BlobRef)
		return "", err
	}
	if err := e.store.Media.Insert(ctx, row); err != nil {
		_ = e.blobs.Delete(context.WithoutCancel(ctx), rec.BlobRef)
		return "", storageErr(err)
	}

	if e.thumbs != nil {
		if err := e.storeThumbnail(ctx, src, id); err != nil {
			e.log.Warn(ctx, "thumbnail failed", "id", id, "error", err)
		}
	}
	return id, nil
}

// storeThumbnail seals the thumbnail as nonce || stream and records its ref.
func (e *Engine) storeThumbnail(ctx context.Context, src sources.Source, id string) error {
	data, err := e.thumbs.Thumbnail(ctx, src)
	if err != nil || len(data) == 0 {
		return err
	}

	var sealed bytes.Buffer
	nonce, _, err := cryptox.EncryptStream(&sealed, bytes.NewReader(data), e.blobKey)
	if err != nil {
		return err
	}

	ref := id + thumbSuffix
	payload := append(nonce, sealed.Bytes()...)
	if _, err := e.blobs.Put(ctx, ref, bytes.NewReader(payload)); err != nil {
		return storageErr(err)
	}
	if err := e.store.Media.UpdateThumbRef(ctx, id, ref); err != nil {
		_ = e.blobs.Delete(context.WithoutCancel(ctx), ref)
		return storageErr(err)
	}
	return nil
}

// Today resolves the current day window.
func (e *Engine) Today(ctx context.Context) (*models.Day, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlocked(); err != nil {
		return nil, err
	}

	today, err := e.resolveToday(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.store.Media.GetByIDs(ctx, today.IDs)
	if err != nil {
		return nil, storageErr(err)
	}

	records := make([]models.MediaRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := e.unseal(row)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	return &models.Day{Records: records, DailyIndex: min(today.DailyIndex, len(records))}, nil
}

func (e *Engine) resolveToday(ctx context.Context) (*Today, error) {
	known, err := e.store.Media.ListIDs(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return e.scheduler.ResolveToday(ctx, e.store.Cycle, e.now(), known)
}

// MarkViewed stamps the record's viewed time and advances today's count.
func (e *Engine) MarkViewed(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlocked(); err != nil {
		return err
	}

	now := e.now()
	err := e.store.WithTx(ctx, func(ctx context.Context, tx *store.Store) error {
		if _, err := tx.Media.GetByID(ctx, id); err != nil {
			return err
		}
		if err := tx.Media.UpdateViewedAt(ctx, id, now); err != nil {
			return err
		}
		known, err := tx.Media.ListIDs(ctx)
		if err != nil {
			return err
		}
		counted, err := e.scheduler.MarkViewed(ctx, tx.Cycle, now, id, known)
		if err != nil {
			return err
		}
		e.log.Debug(ctx, "marked viewed", "id", id, "counted", counted)
		return nil
	})
	return storageErr(err)
}

// Delete removes the record and drops the ID from the schedule in one
// transaction, then removes the blob and the thumbnail. A failed blob
// removal is logged and does not fail the delete.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlocked(); err != nil {
		return err
	}

	row, err := e.store.Media.GetByID(ctx, id)
	if err != nil {
		return storageErr(err)
	}

	err = e.store.WithTx(ctx, func(ctx context.Context, tx *store.Store) error {
		if err := tx.Media.DeleteByID(ctx, id); err != nil {
			return err
		}
		return e.scheduler.Remove(ctx, tx.Cycle, id)
	})
	if err != nil {
		return storageErr(err)
	}

	// The record is gone; a blob left behind is unreachable, not corrupt.
	bctx := context.WithoutCancel(ctx)
	for _, ref := range []string{row.BlobRef, row.ThumbRef} {
		if ref == "" {
			continue
		}
		if err := e.blobs.Delete(bctx, ref); err != nil {
			e.log.Warn(ctx, "blob delete failed", "id", id, "ref", ref, "error", err)
		}
	}

	e.log.Info(ctx, "media deleted", "id", id)
	return nil
}

// Get returns one record.
func (e *Engine) Get(ctx context.Context, id string) (*models.MediaRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlocked(); err != nil {
		return nil, err
	}

	row, err := e.store.Media.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	return e.unseal(row)
}

// Count returns the number of imported items.
func (e *Engine) Count(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlocked(); err != nil {
		return 0, err
	}

	n, err := e.store.Media.Count(ctx)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

// Status reports totals and today's progress, applying a pending rollover.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlocked(); err != nil {
		return nil, err
	}

	total, err := e.store.Media.Count(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	today, err := e.resolveToday(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		Total:          total,
		CycleLen:       today.CycleLen,
		Pointer:        today.Pointer,
		Offered:        len(today.IDs),
		ViewedToday:    today.DailyIndex,
		RemainingToday: len(today.IDs) - today.DailyIndex,
	}, nil
}

// DecryptToTemp writes the plaintext of rec to a new file in the temp dir
// and returns its path. The caller owns the file. On any failure, including
// cancellation or an authentication failure, the partial file is removed.
func (e *Engine) DecryptToTemp(ctx context.Context, rec *models.MediaRecord) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlocked(); err != nil {
		return "", err
	}

	rc, err := e.blobs.Open(ctx, rec.BlobRef)
	if err != nil {
		return "", storageErr(err)
	}
	defer rc.Close()

	f, err := os.CreateTemp(e.tempDir, "dripvault-*"+safeExt(rec.OriginalName))
	if err != nil {
		return "", storageErr(err)
	}
	path := f.Name()

	_, err = cryptox.DecryptStream(f, &ctxReader{ctx: ctx, r: rc}, e.blobKey, rec.Nonce)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = storageErr(cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// Thumbnail writes the decrypted thumbnail of id to w. Output written
// before an authentication failure must be discarded by the caller.
func (e *Engine) Thumbnail(ctx context.Context, id string, w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireUnlocked(); err != nil {
		return err
	}

	row, err := e.store.Media.GetByID(ctx, id)
	if err != nil {
		return storageErr(err)
	}
	if row.ThumbRef == "" {
		return fmt.Errorf("thumbnail of %s: %w", id, common.ErrorNotFound)
	}

	rc, err := e.blobs.Open(ctx, row.ThumbRef)
	if err != nil {
		return storageErr(err)
	}
	defer rc.Close()

	nonce := make([]byte, cryptox.NonceSize)
	if _, err := io.ReadFull(rc, nonce); err != nil {
		return fmt.Errorf("%w: thumbnail header", common.ErrAuthFailed)
	}
	_, err = cryptox.DecryptStream(w, rc, e.blobKey, nonce)
	return err
}

func (e *Engine) seal(rec *models.MediaRecord) (*models.MediaRow, error) {
	meta, metaNonce, err := cryptox.EncryptEntry(rec.Meta(), e.catalogKey)
	if err != nil {
		return nil, fmt.Errorf("seal record: %w", err)
	}
	return &models.MediaRow{
		ID:         rec.ID,
		ImportedAt: rec.ImportedAt,
		BlobRef:    rec.BlobRef,
		Nonce:      rec.Nonce,
		ThumbRef:   rec.ThumbRef,
		ViewedAt:   rec.ViewedAt,
		Meta:       meta,
		MetaNonce:  metaNonce,
	}, nil
}

func (e *Engine) unseal(row *models.MediaRow) (*models.MediaRecord, error) {
	var meta models.MediaMeta
	if err := cryptox.DecryptEntry(row.Meta, row.MetaNonce, e.catalogKey, &meta); err != nil {
		return nil, fmt.Errorf("record %s: %w", row.ID, err)
	}
	return &models.MediaRecord{
		ID:           row.ID,
		OriginalName: meta.OriginalName,
		MimeType:     meta.MimeType,
		SizeBytes:    meta.SizeBytes,
		ImportedAt:   row.ImportedAt,
		BlobRef:      row.BlobRef,
		Nonce:        row.Nonce,
		ThumbRef:     row.ThumbRef,
		ViewedAt:     row.ViewedAt,
	}, nil
}

// storageErr tags err as a storage failure unless it already carries a
// more specific kind.
func storageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrStorage),
		errors.Is(err, common.ErrAuthFailed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrStorage, err)
}

// safeExt keeps a short alphanumeric extension so viewers can recognize
// the decrypted file.
func safeExt(name string) string {
	ext := filepath.Ext(name)
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return strings.ToLower(ext)
}

// ctxReader fails reads once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
