package fraud

// SignalKind names an independent fraud indicator.
type SignalKind string

const (
	SignalDuplicatePhoto  SignalKind = "duplicate_photo"
	SignalMetadata        SignalKind = "metadata_irregularity"
	SignalSuspiciousTerm  SignalKind = "suspicious_term"
	SignalClaimMismatch   SignalKind = "claim_number_mismatch"
	SignalNarrativeFlag   SignalKind = "narrative_self_flag"
	SignalUnreadableImage SignalKind = "unreadable_image"
)

// Signal is one fired indicator. Informational signals carry weight 0.
type Signal struct {
	Kind        SignalKind `json:"kind"`
	Weight      int        `json:"weight"`
	Description string     `json:"description"`
}

// Risk is the coarse label derived from the fraud score.
type Risk string

const (
	RiskLow      Risk = "Low"
	RiskModerate Risk = "Moderate"
	RiskHigh     Risk = "High"
)

// Weights are the fixed points each signal contributes.
type Weights struct {
	DuplicatePhoto         int `yaml:"duplicate_photo"`
	MetadataIrregularity   int `yaml:"metadata_irregularity"`
	SuspiciousTermSingle   int `yaml:"suspicious_term_single"`
	SuspiciousTermMultiple int `yaml:"suspicious_term_multiple"`
	ClaimNumberConflict    int `yaml:"claim_number_conflict"`
	ClaimReferenceMismatch int `yaml:"claim_reference_mismatch"`
	NarrativeFlagSingle    int `yaml:"narrative_flag_single"`
	NarrativeFlagMultiple  int `yaml:"narrative_flag_multiple"`
}

// Config is the tunable part of the scorer. DefaultConfig is the canonical set.
type Config struct {
	Weights Weights
	// SuspiciousTerms are matched on word boundaries; a trailing "*" makes
	// the entry a stem ("fraud*" matches "fraudulent").
	SuspiciousTerms []string
	// NarrativeHedges use the same syntax and are ignored when negated.
	NarrativeHedges []string
	// CaptureYearWindow is how many years before the current one a photo
	// may have been taken.
	CaptureYearWindow int
	// MetadataMinImages is how many irregular images fire the metadata signal.
	MetadataMinImages int
	ModerateThreshold int
	HighThreshold     int
}

func DefaultWeights() Weights {
	return Weights{
		DuplicatePhoto:         40,
		MetadataIrregularity:   30,
		SuspiciousTermSingle:   15,
		SuspiciousTermMultiple: 30,
		ClaimNumberConflict:    20,
		ClaimReferenceMismatch: 25,
		NarrativeFlagSingle:    10,
		NarrativeFlagMultiple:  20,
	}
}

func DefaultConfig() Config {
	return Config{
		Weights: DefaultWeights(),
		SuspiciousTerms: []string{
			"fraud*", "fake*", "altered", "manipulated", "forged",
			"suspicious", "photoshop*", "edited", "tampered",
		},
		NarrativeHedges: []string{
			"duplicat*", "suspicious", "inconsistent", "inconsistenc*",
			"tamper*", "altered", "manipulat*", "fraudulent", "mismatch*",
		},
		CaptureYearWindow: 5,
		MetadataMinImages: 2,
		ModerateThreshold: 40,
		HighThreshold:     70,
	}
}

// RiskFor maps a clamped score to its label.
func (c Config) RiskFor(score int) Risk {
	switch {
	case score >= c.HighThreshold:
		return RiskHigh
	case score >= c.ModerateThreshold:
		return RiskModerate
	default:
		return RiskLow
	}
}
