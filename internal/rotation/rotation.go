package rotation

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	types "github.com/bilyfoster/librelog-backend/internal/domain/traffic"
	"github.com/bilyfoster/librelog-backend/internal/platform/faults"
)

// Mode is the closed set of rotation policies.
type Mode int

const (
	ModeSequential Mode = iota
	ModeRandom
	ModeWeighted
	// ModeEven routes to the sequential walk. The distinction is kept at the
	// type level so a true least-recently-aired policy can land here without
	// touching callers.
	ModeEven
)

func (m Mode) String() string {
	switch m {
	case ModeSequential:
		return "SEQUENTIAL"
	case ModeRandom:
		return "RANDOM"
	case ModeWeighted:
		return "WEIGHTED"
	case ModeEven:
		return "EVEN"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode rejects unknown policies at the boundary instead of deep in the
// selector.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SEQUENTIAL":
		return ModeSequential, nil
	case "RANDOM":
		return ModeRandom, nil
	case "WEIGHTED":
		return ModeWeighted, nil
	case "EVEN":
		return ModeEven, nil
	default:
		return 0, faults.Invalid("unknown_rotation_mode", fmt.Errorf("unknown rotation mode %q", s))
	}
}

// Options narrow the eligible pool and carry the sequential cursor.
type Options struct {
	DaypartID        string
	ProgramID        string
	PreviousCutLabel string

	// Now anchors expiry checks; zero means time.Now().
	Now time.Time
}

// Selector picks the next cut to air. It never mutates the pool or any
// persisted state.
type Selector struct {
	rng *rand.Rand
}

// NewSelector takes the random source so weighted and random selection are
// deterministic under test. A nil source gets a time-seeded one.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rng: rng}
}

// Select applies the eligibility filter, then the mode policy. An empty
// eligible pool returns nil: a legitimate no-asset-to-air state, not an error.
func (s *Selector) Select(pool []*types.Cut, mode Mode, opts Options) *types.Cut {
	eligible := filterEligible(pool, opts)
	if len(eligible) == 0 {
		return nil
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].CutLabel < eligible[j].CutLabel
	})

	switch mode {
	case ModeSequential, ModeEven:
		return s.selectSequential(eligible, opts.PreviousCutLabel)
	case ModeRandom:
		return eligible[s.rng.Intn(len(eligible))]
	case ModeWeighted:
		return s.selectWeighted(eligible)
	default:
		return s.selectSequential(eligible, opts.PreviousCutLabel)
	}
}

// Eligible reports whether a single cut may air under the given options.
func Eligible(cut *types.Cut, opts Options) bool {
	if cut == nil || !cut.Active {
		return false
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	if cut.ExpiresAt != nil && !cut.ExpiresAt.After(now) {
		return false
	}
	if !setPermits(types.DecodeIDList(cut.DaypartRestrictions), opts.DaypartID) {
		return false
	}
	if !setPermits(types.DecodeIDList(cut.ProgramAssociations), opts.ProgramID) {
		return false
	}
	return true
}

// setPermits treats an empty set as unrestricted.
func setPermits(set []string, id string) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

func filterEligible(pool []*types.Cut, opts Options) []*types.Cut {
	out := make([]*types.Cut, 0, len(pool))
	for _, cut := range pool {
		if Eligible(cut, opts) {
			out = append(out, cut)
		}
	}
	return out
}

// selectSequential walks the label-ordered pool. A previous cut at the end,
// or one no longer in the pool, wraps to the start.
func (s *Selector) selectSequential(eligible []*types.Cut, previous string) *types.Cut {
	if previous != "" {
		for i, cut := range eligible {
			if cut.CutLabel == previous && i < len(eligible)-1 {
				return eligible[i+1]
			}
		}
	}
	return eligible[0]
}

// selectWeighted draws proportionally to rotation_weight; an all-zero pool
// falls back to a uniform draw.
func (s *Selector) selectWeighted(eligible []*types.Cut) *types.Cut {
	var total float64
	for _, cut := range eligible {
		if cut.RotationWeight > 0 {
			total += cut.RotationWeight
		}
	}
	if total <= 0 {
		return eligible[s.rng.Intn(len(eligible))]
	}

	target := s.rng.Float64() * total
	var acc float64
	for _, cut := range eligible {
		if cut.RotationWeight <= 0 {
			continue
		}
		acc += cut.RotationWeight
		if target < acc {
			return cut
		}
	}
	return eligible[len(eligible)-1]
}
