package detect

// Range is a half-open interval [Min, Max) used for uniform draws.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// TimingProfile drives how a simulated model behaves.
type TimingProfile struct {
	ProcessingTime Range `json:"processing_time_ms"`
	// DetectionCount is sampled then truncated, so Max itself is never produced.
	DetectionCount Range `json:"detection_count"`
	Confidence     Range `json:"confidence"`
}

// MaxDetections is the largest count the profile can yield after truncation.
func (p TimingProfile) MaxDetections() int {
	n := int(p.DetectionCount.Max)
	if float64(n) == p.DetectionCount.Max {
		n--
	}
	return n
}

// MinDetections is the smallest count the profile can yield.
func (p TimingProfile) MinDetections() int {
	return int(p.DetectionCount.Min)
}

var profiles = map[string]TimingProfile{
	"fast-yolo": {
		ProcessingTime: Range{300, 700},
		DetectionCount: Range{0, 3},
		Confidence:     Range{0.65, 0.85},
	},
	"accurate-yolo": {
		ProcessingTime: Range{800, 1200},
		DetectionCount: Range{1, 3},
		Confidence:     Range{0.75, 0.92},
	},
	"transformer": {
		ProcessingTime: Range{1500, 2500},
		DetectionCount: Range{1, 4},
		Confidence:     Range{0.85, 0.98},
	},
	"tiny-lpr": {
		ProcessingTime: Range{200, 500},
		DetectionCount: Range{0, 2},
		Confidence:     Range{0.55, 0.75},
	},
}

// DefaultProfile applies to model ids missing from the table.
var DefaultProfile = TimingProfile{
	ProcessingTime: Range{800, 1200},
	DetectionCount: Range{1, 3},
	Confidence:     Range{0.75, 0.92},
}

// Box placement ranges, shared by every model.
var (
	BoxX      = Range{0.1, 0.7}
	BoxY      = Range{0.4, 0.8}
	BoxWidth  = Range{0.15, 0.3}
	BoxHeight = Range{0.05, 0.1}
)

// ProfileFor returns the timing profile for modelID, falling back to DefaultProfile.
func ProfileFor(modelID string) TimingProfile {
	if p, ok := profiles[modelID]; ok {
		return p
	}
	return DefaultProfile
}
