// Package level measures and corrects the loudness of waveforms.
package level

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	epsilon = 1e-10

	// ClipThreshold is the peak EnsureLevel never exceeds.
	ClipThreshold = 0.98

	// ReferenceClipThreshold is the peak NormalizeToReference and
	// NormalizeRMS never exceed.
	ReferenceClipThreshold = 0.99

	// PeakHeadroom is the fraction of the reference peak NormalizeToReference
	// targets when matching peaks.
	PeakHeadroom = 0.95

	// NeedsBoostDB is how much quieter than the reference a candidate may
	// be before it is considered too quiet.
	NeedsBoostDB = -0.5
)

func rms(x []float64) float64 {
	if len(x) == 0 {
		return math.Sqrt(epsilon)
	}
	return math.Sqrt(floats.Dot(x, x)/float64(len(x)) + epsilon)
}

func peak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x)))
}

func toDB(v float64) float64 {
	return 20 * math.Log10(v)
}

// FromDB converts decibels to a linear amplitude factor.
func FromDB(db float64) float64 {
	return math.Pow(10, db/20)
}

// Loudness is the RMS level in dB.
func Loudness(x []float64) float64 {
	return toDB(rms(x))
}

// PeakDB is the peak level in dB.
func PeakDB(x []float64) float64 {
	return toDB(peak(x) + epsilon)
}

type Level struct {
	RMS        float64 `json:"rms"`
	Peak       float64 `json:"peak"`
	LoudnessDB float64 `json:"loudness_db"`
	PeakDB     float64 `json:"peak_db"`
	HeadroomDB float64 `json:"headroom_db"`
}

func Analyze(x []float64) Level {
	r := rms(x)
	p := peak(x) + epsilon
	return Level{
		RMS:        r,
		Peak:       p,
		LoudnessDB: toDB(r),
		PeakDB:     toDB(p),
		HeadroomDB: toDB(p) - toDB(r),
	}
}

type Comparison struct {
	ReferenceDB  float64 `json:"reference_db"`
	CandidateDB  float64 `json:"candidate_db"`
	DifferenceDB float64 `json:"difference_db"`
	NeedsBoost   bool    `json:"needs_boost"`
}

func Compare(reference, candidate []float64) Comparison {
	ref := Loudness(reference)
	cand := Loudness(candidate)
	return Comparison{
		ReferenceDB:  ref,
		CandidateDB:  cand,
		DifferenceDB: cand - ref,
		NeedsBoost:   cand-ref < NeedsBoostDB,
	}
}

// EnsureLevel makes candidate at least as loud as reference plus minGainDB,
// boosting by no more than maxBoostDB and never attenuating, and then
// rescales it down if its peak would exceed ClipThreshold.
//
// It returns a new slice and the boost that was applied before the clip
// protection, in dB.
func EnsureLevel(
	reference []float64,
	candidate []float64,
	minGainDB float64,
	maxBoostDB float64,
) ([]float64, float64) {
	required := Loudness(reference) + minGainDB - Loudness(candidate)
	applied := math.Max(0, math.Min(required, maxBoostDB))

	result := make([]float64, len(candidate))
	floats.ScaleTo(result, FromDB(applied), candidate)
	limitPeak(result, ClipThreshold)
	return result, applied
}

// NormalizeToReference matches the RMS of candidate to the one of
// reference (with preservePeak) or its peak to PeakHeadroom of the
// reference peak (without).
func NormalizeToReference(reference, candidate []float64, preservePeak bool) []float64 {
	result := make([]float64, len(candidate))
	copy(result, candidate)
	if !preservePeak {
		floats.Scale(PeakHeadroom*(peak(reference)+epsilon)/(peak(candidate)+epsilon), result)
		return result
	}

	candRMS := rms(candidate)
	if candRMS <= math.Sqrt(epsilon)*(1+1e-9) {
		return result
	}
	floats.Scale(rms(reference)/candRMS, result)
	limitPeak(result, ReferenceClipThreshold)
	return result
}

// NormalizeRMS scales x to the given RMS level in dB.
func NormalizeRMS(x []float64, targetDB float64) []float64 {
	result := make([]float64, len(x))
	copy(result, x)
	if peak(x) == 0 {
		return result
	}
	floats.Scale(FromDB(targetDB-Loudness(x)), result)
	limitPeak(result, ReferenceClipThreshold)
	return result
}

func limitPeak(x []float64, threshold float64) {
	p := peak(x)
	if p > threshold {
		floats.Scale(threshold/p, x)
	}
}

type Status string

const (
	StatusGood = Status("GOOD")
	StatusLow  = Status("LOW")
)

type Improvement struct {
	LoudnessDB float64 `json:"loudness_db"`
	PeakDB     float64 `json:"peak_db"`
	Status     Status  `json:"status"`
}

type LoudnessReport struct {
	Original    Level       `json:"original"`
	Enhanced    Level       `json:"enhanced"`
	Improvement Improvement `json:"improvement"`
}

func Report(reference, candidate []float64) LoudnessReport {
	orig := Analyze(reference)
	enh := Analyze(candidate)
	status := StatusLow
	if enh.LoudnessDB >= orig.LoudnessDB+NeedsBoostDB {
		status = StatusGood
	}
	return LoudnessReport{
		Original: orig,
		Enhanced: enh,
		Improvement: Improvement{
			LoudnessDB: enh.LoudnessDB - orig.LoudnessDB,
			PeakDB:     enh.PeakDB - orig.PeakDB,
			Status:     status,
		},
	}
}
