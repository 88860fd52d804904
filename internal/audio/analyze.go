package audio

import "math"

// Thresholds configure the level analysis. Zero value is not usable; start
// from DefaultThresholds.
type Thresholds struct {
	SilenceDB     float64 // head/tail silence floor, dBFS
	MinVolumeDB   float64 // volume floor for min(peak, rms), dBFS
	ClipAmplitude float64 // fraction of full scale counted as clipped
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SilenceDB:     -40,
		MinVolumeDB:   -30,
		ClipAmplitude: 0.99,
	}
}

// Levels holds the computed per-clip metrics.
type Levels struct {
	PeakDB             float64
	RMSDB              float64
	LoudnessLUFS       float64
	HeadSilenceSeconds float64
	TailSilenceSeconds float64
	ClipSampleCount    int
}

const silenceFloorDB = -120

// AnalyzeLevels runs the full-sample pass: peak, RMS, an approximate
// ungated loudness figure, head/tail silence runs, and clipped-sample count.
func AnalyzeLevels(clip *Clip, th Thresholds) Levels {
	var lv Levels
	if clip == nil || len(clip.Samples) == 0 {
		lv.PeakDB = silenceFloorDB
		lv.RMSDB = silenceFloorDB
		lv.LoudnessLUFS = silenceFloorDB
		return lv
	}

	var (
		peak      float64
		sumSquare float64
	)
	for _, s := range clip.Samples {
		a := math.Abs(s)
		if a > peak {
			peak = a
		}
		sumSquare += s * s
		if a >= th.ClipAmplitude {
			lv.ClipSampleCount++
		}
	}
	meanSquare := sumSquare / float64(len(clip.Samples))

	lv.PeakDB = amplitudeToDB(peak)
	lv.RMSDB = powerToDB(meanSquare)
	// BS.1770-shaped ungated loudness, without the K-weighting filter.
	lv.LoudnessLUFS = -0.691 + powerToDB(meanSquare)

	head, tail := silenceRuns(clip, th.SilenceDB)
	lv.HeadSilenceSeconds = head
	lv.TailSilenceSeconds = tail
	return lv
}

// silenceRuns measures leading and trailing runs of frames whose every
// channel sits below the silence floor. An all-silent clip reports its full
// duration at the head and zero tail.
func silenceRuns(clip *Clip, floorDB float64) (head, tail float64) {
	frames := clip.FrameCount()
	if frames == 0 || clip.SampleRate == 0 {
		return 0, 0
	}
	floorAmp := dbToAmplitude(floorDB)

	firstLoud := -1
	for f := 0; f < frames; f++ {
		if frameLoud(clip, f, floorAmp) {
			firstLoud = f
			break
		}
	}
	if firstLoud == -1 {
		return float64(frames) / float64(clip.SampleRate), 0
	}

	lastLoud := firstLoud
	for f := frames - 1; f >= firstLoud; f-- {
		if frameLoud(clip, f, floorAmp) {
			lastLoud = f
			break
		}
	}

	head = float64(firstLoud) / float64(clip.SampleRate)
	tail = float64(frames-1-lastLoud) / float64(clip.SampleRate)
	return head, tail
}

func frameLoud(clip *Clip, frame int, floorAmp float64) bool {
	base := frame * clip.Channels
	for ch := 0; ch < clip.Channels; ch++ {
		if math.Abs(clip.Samples[base+ch]) >= floorAmp {
			return true
		}
	}
	return false
}

func amplitudeToDB(amp float64) float64 {
	if amp <= 0 {
		return silenceFloorDB
	}
	db := 20 * math.Log10(amp)
	if db < silenceFloorDB {
		return silenceFloorDB
	}
	return db
}

func powerToDB(power float64) float64 {
	if power <= 0 {
		return silenceFloorDB
	}
	db := 10 * math.Log10(power)
	if db < silenceFloorDB {
		return silenceFloorDB
	}
	return db
}

func dbToAmplitude(db float64) float64 {
	return math.Pow(10, db/20)
}
