package services

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bilyfoster/librelog-backend/internal/audio"
	"github.com/bilyfoster/librelog-backend/internal/data/repos"
	types "github.com/bilyfoster/librelog-backend/internal/domain/traffic"
	"github.com/bilyfoster/librelog-backend/internal/platform/audiostore"
	"github.com/bilyfoster/librelog-backend/internal/platform/dbctx"
	"github.com/bilyfoster/librelog-backend/internal/platform/faults"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
	"github.com/bilyfoster/librelog-backend/internal/platform/tracing"
)

type QCService interface {
	// Analyze runs every sub-check it can against the payload and persists
	// the result unconditionally. Sub-check failures degrade metrics to null
	// and land in the findings lists; they never abort the run.
	Analyze(dbc dbctx.Context, ref string, cutID, versionID *uuid.UUID) (*types.QCResult, error)

	// Override annotates a result with a human decision. The original
	// metrics and verdict are never recomputed.
	Override(dbc dbctx.Context, resultID uuid.UUID, actor, reason string) (*types.QCResult, error)

	ListResults(dbc dbctx.Context, cutID uuid.UUID) ([]*types.QCResult, error)
	LatestResult(dbc dbctx.Context, cutID uuid.UUID) (*types.QCResult, error)
}

type qcService struct {
	db       *gorm.DB
	log      *logger.Logger
	store    audiostore.Store
	qcRepo   repos.QCResultRepo
	notifier Notifier
	policy   QCPolicy
}

func NewQCService(
	db *gorm.DB,
	baseLog *logger.Logger,
	store audiostore.Store,
	qcRepo repos.QCResultRepo,
	notifier Notifier,
	policy QCPolicy,
) QCService {
	return &qcService{
		db:       db,
		log:      baseLog.With("service", "QCService"),
		store:    store,
		qcRepo:   qcRepo,
		notifier: notifier,
		policy:   policy,
	}
}

// findings accumulates ordered human-readable observations across sub-checks.
type findings struct {
	warnings []string
	errors   []string
}

func (f *findings) warnf(format string, args ...interface{}) {
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}

func (f *findings) errorf(format string, args ...interface{}) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func (qs *qcService) Analyze(dbc dbctx.Context, ref string, cutID, versionID *uuid.UUID) (*types.QCResult, error) {
	ctx, span := tracing.Tracer().Start(dbc.Ctx, "qc.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("audio_file_ref", ref))
	dbc.Ctx = ctx

	result := &types.QCResult{
		ID:           uuid.New(),
		CutID:        cutID,
		VersionID:    versionID,
		AudioFileRef: ref,
	}
	var f findings

	clip := qs.loadClip(dbc, ref, result, &f)
	if clip != nil {
		qs.extractMetadata(clip, result)
		qs.analyzeLevels(clip, result, &f)
		qs.checkCorruption(dbc, ref, clip, result, &f)
	}

	result.VolumeThresholdPassed = qs.volumeFloorPassed(result, &f)
	result.QCPassed = len(f.errors) == 0 && result.VolumeThresholdPassed

	result.QCWarnings = encodeFindings(f.warnings)
	result.QCErrors = encodeFindings(f.errors)

	// Persist no matter how badly the pipeline went.
	if _, err := qs.qcRepo.Create(dbc.Ctx, dbc.Tx, []*types.QCResult{result}); err != nil {
		return nil, err
	}

	qs.log.Info("qc analysis persisted",
		"qc_result_id", result.ID,
		"audio_file_ref", ref,
		"qc_passed", result.QCPassed,
		"error_count", len(f.errors),
		"warning_count", len(f.warnings),
	)

	if !result.QCPassed && qs.notifier != nil {
		event := Event{
			Type: EventQCFailed,
			Detail: map[string]interface{}{
				"qc_result_id":   result.ID.String(),
				"audio_file_ref": ref,
				"errors":         f.errors,
			},
		}
		if cutID != nil {
			event.CutID = cutID.String()
		}
		if err := qs.notifier.Publish(dbc.Ctx, event); err != nil {
			qs.log.Warn("qc failure event publish failed", "qc_result_id", result.ID, "error", err)
		}
	}
	return result, nil
}

// loadClip handles format validation and decode. A nil return means nothing
// further can be read; the caller still persists the result.
func (qs *qcService) loadClip(dbc dbctx.Context, ref string, result *types.QCResult, f *findings) *audio.Clip {
	ext := filepath.Ext(ref)
	if !qs.policy.supportsExtension(ext) {
		f.errorf("unsupported audio format %q", ext)
		result.FormatValid = false
		return nil
	}

	reader, err := qs.store.Reader(dbc.Ctx, ref)
	if err != nil {
		f.errorf("audio payload unreadable: %v", err)
		result.FormatValid = false
		return nil
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		f.errorf("audio payload read failed: %v", err)
		result.FormatValid = false
		return nil
	}

	clip, err := audio.DecodeWAVBytes(raw)
	if err != nil {
		f.errorf("audio container unreadable: %v", err)
		result.FormatValid = false
		return nil
	}
	result.FormatValid = true
	return clip
}

func (qs *qcService) extractMetadata(clip *audio.Clip, result *types.QCResult) {
	duration := clip.DurationSeconds()
	sampleRate := clip.SampleRate
	channels := clip.Channels
	bitrate := clip.ByteRate * 8

	result.DurationSeconds = &duration
	result.SampleRateHz = &sampleRate
	result.ChannelCount = &channels
	if bitrate > 0 {
		result.BitrateBps = &bitrate
	}
}

func (qs *qcService) analyzeLevels(clip *audio.Clip, result *types.QCResult, f *findings) {
	levels := audio.AnalyzeLevels(clip, qs.policy.thresholds())

	result.PeakDB = &levels.PeakDB
	result.RMSDB = &levels.RMSDB
	result.LoudnessLUFS = &levels.LoudnessLUFS
	result.HeadSilenceSeconds = &levels.HeadSilenceSeconds
	result.TailSilenceSeconds = &levels.TailSilenceSeconds
	result.ClipSampleCount = &levels.ClipSampleCount

	if levels.HeadSilenceSeconds > qs.policy.SilenceFlagSeconds ||
		levels.TailSilenceSeconds > qs.policy.SilenceFlagSeconds {
		result.SilenceDetected = true
		f.warnf("silence detected: head %.2fs, tail %.2fs", levels.HeadSilenceSeconds, levels.TailSilenceSeconds)
	}

	if levels.ClipSampleCount > 0 {
		result.ClippingDetected = true
		f.errorf("clipping detected: %d samples at or above %.2f of full scale", levels.ClipSampleCount, qs.policy.ClipAmplitude)
	}
}

// checkCorruption re-reads the payload after the initial decode; any
// discrepancy marks the file corrupted.
func (qs *qcService) checkCorruption(dbc dbctx.Context, ref string, clip *audio.Clip, result *types.QCResult, f *findings) {
	if clip.Truncated {
		result.FileCorrupted = true
		f.errorf("audio data chunk truncated")
		return
	}

	reader, err := qs.store.Reader(dbc.Ctx, ref)
	if err != nil {
		result.FileCorrupted = true
		f.errorf("audio payload re-read failed: %v", err)
		return
	}
	defer reader.Close()

	reclip, err := audio.DecodeWAV(reader)
	if err != nil || reclip.FrameCount() != clip.FrameCount() {
		result.FileCorrupted = true
		f.errorf("audio stream did not survive re-read")
	}
}

func (qs *qcService) volumeFloorPassed(result *types.QCResult, f *findings) bool {
	if result.PeakDB == nil || result.RMSDB == nil {
		return false
	}
	lowest := *result.PeakDB
	if *result.RMSDB < lowest {
		lowest = *result.RMSDB
	}
	if lowest < qs.policy.MinVolumeDB {
		f.warnf("volume below floor: %.1f dB < %.1f dB", lowest, qs.policy.MinVolumeDB)
		return false
	}
	return true
}

func encodeFindings(list []string) datatypes.JSON {
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}

// DecodeFindings reads a findings column back into a slice for assertions
// and API mapping.
func DecodeFindings(js datatypes.JSON) []string {
	if len(js) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(js, &out); err != nil {
		return nil
	}
	return out
}

func (qs *qcService) Override(dbc dbctx.Context, resultID uuid.UUID, actor, reason string) (*types.QCResult, error) {
	var out *types.QCResult

	run := func(tx *gorm.DB) error {
		result, err := qs.qcRepo.GetByID(dbc.Ctx, tx, resultID)
		if err != nil {
			return err
		}
		if result == nil {
			return faults.NotFound("qc_result_not_found", fmt.Errorf("qc result %s does not exist", resultID))
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"overridden":         true,
			"overridden_by":      actor,
			"override_reason":    reason,
			"override_timestamp": now,
		}
		if err := qs.qcRepo.UpdateFields(dbc.Ctx, tx, resultID, updates); err != nil {
			return err
		}
		out, err = qs.qcRepo.GetByID(dbc.Ctx, tx, resultID)
		return err
	}

	var err error
	if dbc.Tx != nil {
		err = run(dbc.Tx)
	} else {
		err = qs.db.WithContext(dbc.Ctx).Transaction(run)
	}
	if err != nil {
		return nil, err
	}

	qs.log.Info("qc result overridden",
		"qc_result_id", resultID,
		"overridden_by", actor,
	)
	return out, nil
}

func (qs *qcService) ListResults(dbc dbctx.Context, cutID uuid.UUID) ([]*types.QCResult, error) {
	return qs.qcRepo.GetByCutID(dbc.Ctx, dbc.Tx, cutID)
}

func (qs *qcService) LatestResult(dbc dbctx.Context, cutID uuid.UUID) (*types.QCResult, error) {
	results, err := qs.qcRepo.GetByCutID(dbc.Ctx, dbc.Tx, cutID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
