package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bilyfoster/librelog-backend/internal/audio/audiotest"
	"github.com/bilyfoster/librelog-backend/internal/data/repos"
	"github.com/bilyfoster/librelog-backend/internal/data/repos/testutil"
	types "github.com/bilyfoster/librelog-backend/internal/domain/traffic"
	"github.com/bilyfoster/librelog-backend/internal/platform/audiostore"
	"github.com/bilyfoster/librelog-backend/internal/platform/dbctx"
	"github.com/bilyfoster/librelog-backend/internal/platform/faults"
	"github.com/bilyfoster/librelog-backend/internal/services"
)

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []services.Event
}

func (n *recordingNotifier) Publish(ctx context.Context, event services.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) byType(eventType string) []services.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []services.Event
	for _, e := range n.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	db       *gorm.DB
	dbc      dbctx.Context
	store    *audiostore.MemoryStore
	notifier *recordingNotifier

	copyRepo repos.CopyRepo
	cutRepo  repos.CutRepo
	verRepo  repos.CutVersionRepo
	qcRepo   repos.QCResultRepo

	checksum services.ChecksumService
	cut      services.CutService
	version  services.VersionService
	qc       services.QCService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	store := audiostore.NewMemoryStore()
	notifier := &recordingNotifier{}

	h := &harness{
		db:       db,
		dbc:      dbctx.Context{Ctx: context.Background(), Tx: tx},
		store:    store,
		notifier: notifier,
		copyRepo: repos.NewCopyRepo(db, log),
		cutRepo:  repos.NewCutRepo(db, log),
		verRepo:  repos.NewCutVersionRepo(db, log),
		qcRepo:   repos.NewQCResultRepo(db, log),
	}
	h.checksum = services.NewChecksumService(log, store)
	h.qc = services.NewQCService(db, log, store, h.qcRepo, notifier, services.DefaultQCPolicy())
	h.cut = services.NewCutService(db, log, h.copyRepo, h.cutRepo, h.verRepo, h.qcRepo, h.checksum, notifier, nil)
	h.version = services.NewVersionService(db, log, h.cutRepo, h.verRepo, h.checksum, nil)
	return h
}

// putWAV synthesizes a clean half-second tone under ref and returns ref.
func (h *harness) putWAV(ref string) string {
	h.store.Put(ref, audiotest.PCM16(8000, 1, audiotest.Tone(8000, 0.5, 440, 0.5)))
	return ref
}

func (h *harness) seedCopy(t *testing.T, title string) *types.Copy {
	t.Helper()
	return testutil.SeedCopy(t, h.dbc.Ctx, h.dbc.Tx, title)
}

func (h *harness) copyCutCount(t *testing.T, id uuid.UUID) int {
	t.Helper()
	cp, err := h.copyRepo.GetByID(h.dbc.Ctx, h.dbc.Tx, id)
	if err != nil || cp == nil {
		t.Fatalf("reload copy: %v, %v", cp, err)
	}
	return cp.CutCount
}

func TestCreateCut(t *testing.T) {
	h := newHarness(t)
	cp := h.seedCopy(t, "Oil Change Special")

	cut, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{
		CopyID:       cp.ID,
		CutLabel:     "A",
		CutName:      "thirty second donut",
		AudioFileRef: h.putWAV("audio/a.wav"),
		Actor:        "traffic@station",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cut.Version != 1 {
		t.Fatalf("new cut version: got %d, want 1", cut.Version)
	}
	if cut.RotationWeight != 1.0 {
		t.Fatalf("default weight: got %v, want 1.0", cut.RotationWeight)
	}
	if !cut.Active {
		t.Fatal("new cut must be active")
	}

	sum, err := h.checksum.Compute(h.dbc.Ctx, "audio/a.wav")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if cut.ContentChecksum != sum {
		t.Fatal("stored checksum must match payload digest")
	}

	if got := h.copyCutCount(t, cp.ID); got != 1 {
		t.Fatalf("cut_count after create: got %d, want 1", got)
	}
}

func TestCreateCutValidation(t *testing.T) {
	h := newHarness(t)
	cp := h.seedCopy(t, "Weekend Sale")
	ref := h.putWAV("audio/a.wav")

	_, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{CopyID: cp.ID, CutLabel: "  "})
	if !faults.IsInvalid(err) {
		t.Fatalf("blank label: got %v, want invalid-argument", err)
	}

	weight := -0.5
	_, err = h.cut.CreateCut(h.dbc, services.CreateCutInput{
		CopyID: cp.ID, CutLabel: "A", AudioFileRef: ref, RotationWeight: &weight,
	})
	if !faults.IsInvalid(err) {
		t.Fatalf("negative weight: got %v, want invalid-argument", err)
	}

	_, err = h.cut.CreateCut(h.dbc, services.CreateCutInput{
		CopyID: uuid.New(), CutLabel: "A", AudioFileRef: ref,
	})
	if !faults.IsNotFound(err) {
		t.Fatalf("missing copy: got %v, want not-found", err)
	}

	// Nothing of the failed attempts may count against the copy.
	if got := h.copyCutCount(t, cp.ID); got != 0 {
		t.Fatalf("cut_count after rejected creates: got %d, want 0", got)
	}
}

func TestCreateCutDuplicateLabel(t *testing.T) {
	h := newHarness(t)
	cp := h.seedCopy(t, "Brake Check")
	ref := h.putWAV("audio/a.wav")

	if _, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{CopyID: cp.ID, CutLabel: "A", AudioFileRef: ref}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{CopyID: cp.ID, CutLabel: "A", AudioFileRef: ref})
	if !faults.IsDuplicate(err) {
		t.Fatalf("duplicate label: got %v, want duplicate-key", err)
	}
	if got := h.copyCutCount(t, cp.ID); got != 1 {
		t.Fatalf("cut_count after duplicate: got %d, want 1", got)
	}

	// The same label under another copy is fine.
	other := h.seedCopy(t, "Brake Check B")
	if _, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{CopyID: other.ID, CutLabel: "A", AudioFileRef: ref}); err != nil {
		t.Fatalf("same label, other copy: %v", err)
	}
}

func TestUpdateCutPartial(t *testing.T) {
	h := newHarness(t)
	cp := h.seedCopy(t, "Loaner Cars")
	created, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{
		CopyID: cp.ID, CutLabel: "A", CutName: "before", AudioFileRef: h.putWAV("audio/a.wav"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "after"
	weight := 2.5
	updated, err := h.cut.UpdateCut(h.dbc, created.ID, services.UpdateCutInput{
		CutName:             &name,
		RotationWeight:      &weight,
		DaypartRestrictions: []string{"morning"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CutName != "after" || updated.RotationWeight != 2.5 {
		t.Fatalf("updated fields: name=%q weight=%v", updated.CutName, updated.RotationWeight)
	}
	if got := types.DecodeIDList(updated.DaypartRestrictions); len(got) != 1 || got[0] != "morning" {
		t.Fatalf("dayparts: %v", got)
	}
	// Untouched fields survive.
	if updated.AudioFileRef != created.AudioFileRef || updated.CutLabel != "A" {
		t.Fatal("partial update touched unrelated fields")
	}

	badWeight := -1.0
	if _, err := h.cut.UpdateCut(h.dbc, created.ID, services.UpdateCutInput{RotationWeight: &badWeight}); !faults.IsInvalid(err) {
		t.Fatalf("negative weight update: got %v", err)
	}
	if _, err := h.cut.UpdateCut(h.dbc, uuid.New(), services.UpdateCutInput{CutName: &name}); !faults.IsNotFound(err) {
		t.Fatalf("missing cut update: got %v", err)
	}
}

func TestUpdateCutExpiry(t *testing.T) {
	h := newHarness(t)
	cp := h.seedCopy(t, "Year End")
	created, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{
		CopyID: cp.ID, CutLabel: "A", AudioFileRef: h.putWAV("audio/a.wav"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	at := time.Now().Add(72 * time.Hour).UTC()
	updated, err := h.cut.UpdateCut(h.dbc, created.ID, services.UpdateCutInput{ExpiresAt: &at})
	if err != nil {
		t.Fatalf("set expiry: %v", err)
	}
	if updated.ExpiresAt == nil {
		t.Fatal("expiry not set")
	}

	updated, err = h.cut.UpdateCut(h.dbc, created.ID, services.UpdateCutInput{ClearExpiry: true})
	if err != nil {
		t.Fatalf("clear expiry: %v", err)
	}
	if updated.ExpiresAt != nil {
		t.Fatalf("expiry not cleared: %v", updated.ExpiresAt)
	}
}

func TestDeleteCutCascades(t *testing.T) {
	h := newHarness(t)
	cp := h.seedCopy(t, "Trade In")
	created, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{
		CopyID: cp.ID, CutLabel: "A", AudioFileRef: h.putWAV("audio/a.wav"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := h.version.SnapshotAndAdvance(h.dbc, created.ID, "", "tweak", "producer"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, err := h.qc.Analyze(h.dbc, created.AudioFileRef, &created.ID, nil); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if err := h.cut.DeleteCut(h.dbc, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := h.cut.GetCut(h.dbc, created.ID); !faults.IsNotFound(err) {
		t.Fatalf("get after delete: got %v, want not-found", err)
	}
	if count, _ := h.verRepo.CountByCutID(h.dbc.Ctx, h.dbc.Tx, created.ID); count != 0 {
		t.Fatalf("version rows after delete: %d", count)
	}
	if rows, _ := h.qcRepo.GetByCutID(h.dbc.Ctx, h.dbc.Tx, created.ID); len(rows) != 0 {
		t.Fatalf("qc rows after delete: %d", len(rows))
	}
	if got := h.copyCutCount(t, cp.ID); got != 0 {
		t.Fatalf("cut_count after delete: got %d, want 0", got)
	}

	if err := h.cut.DeleteCut(h.dbc, created.ID); !faults.IsNotFound(err) {
		t.Fatalf("double delete: got %v, want not-found", err)
	}
}

func TestNotifyExpiring(t *testing.T) {
	h := newHarness(t)
	cp := h.seedCopy(t, "Labor Day")
	ref := h.putWAV("audio/a.wav")

	soon := time.Now().Add(48 * time.Hour).UTC()
	far := time.Now().Add(60 * 24 * time.Hour).UTC()
	if _, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{CopyID: cp.ID, CutLabel: "A", AudioFileRef: ref, ExpiresAt: &soon}); err != nil {
		t.Fatalf("create A: %v", err)
	}
	if _, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{CopyID: cp.ID, CutLabel: "B", AudioFileRef: ref, ExpiresAt: &far}); err != nil {
		t.Fatalf("create B: %v", err)
	}
	if _, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{CopyID: cp.ID, CutLabel: "C", AudioFileRef: ref}); err != nil {
		t.Fatalf("create C: %v", err)
	}

	published, err := h.cut.NotifyExpiring(h.dbc, 7)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if published != 1 {
		t.Fatalf("published: got %d, want 1", published)
	}
	events := h.notifier.byType(services.EventCutExpiring)
	if len(events) != 1 || events[0].CopyID != cp.ID.String() {
		t.Fatalf("expiry events: %v", events)
	}

	if _, err := h.cut.ListExpiringWithin(h.dbc, -1); !faults.IsInvalid(err) {
		t.Fatalf("negative window: got %v", err)
	}
}

func TestListByCopy(t *testing.T) {
	h := newHarness(t)
	cp := h.seedCopy(t, "Showroom")
	ref := h.putWAV("audio/a.wav")

	for _, label := range []string{"B", "A"} {
		if _, err := h.cut.CreateCut(h.dbc, services.CreateCutInput{CopyID: cp.ID, CutLabel: label, AudioFileRef: ref}); err != nil {
			t.Fatalf("create %s: %v", label, err)
		}
	}
	inactive := false
	cuts, err := h.cut.ListByCopy(h.dbc, cp.ID, false)
	if err != nil || len(cuts) != 2 {
		t.Fatalf("list: %d cuts, %v", len(cuts), err)
	}
	if cuts[0].CutLabel != "A" || cuts[1].CutLabel != "B" {
		t.Fatalf("label order: %s, %s", cuts[0].CutLabel, cuts[1].CutLabel)
	}

	if _, err := h.cut.UpdateCut(h.dbc, cuts[0].ID, services.UpdateCutInput{Active: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	active, err := h.cut.ListByCopy(h.dbc, cp.ID, true)
	if err != nil || len(active) != 1 || active[0].CutLabel != "B" {
		t.Fatalf("active list: %v, %v", active, err)
	}
}
