package scan

import "github.com/tunetrace/tunetrace/pkg/models"

// Pattern is the closed set of 5-probe sign sequences that mark a valid
// trigger. Signs read from the comparison's FrameStartTime: N negative,
// P positive.
type Pattern int

const (
	NoMatch Pattern = iota
	PatternNPNNN
	PatternNPPPP
	PatternPPPPN
)

func (p Pattern) String() string {
	switch p {
	case PatternNPNNN:
		return "N P N N N"
	case PatternNPPPP:
		return "N P P P P"
	case PatternPPPPN:
		return "P P P P N"
	default:
		return "no match"
	}
}

// Vote is the voter's verdict: the recognized pattern and the index of
// the canonical hit inside the group.
type Vote struct {
	Pattern Pattern
	Index   int
}

func negative(fcr *models.Comparison) bool { return fcr.FrameStartTime < 0 }
func positive(fcr *models.Comparison) bool { return fcr.FrameStartTime > 0 }

// frameStartTimeEqual is exact scalar equality. No epsilon: the comparer
// emits bit-identical values for windows anchored on the same frame.
func frameStartTimeEqual(a, b *models.Comparison) bool {
	return a.FrameStartTime == b.FrameStartTime
}

// Classify applies the 5-neighbor voting rules to a complete group:
//
//	N P N N N => index 1 is the trigger, if a, c, d, e agree on FrameStartTime
//	N P P P P => index 0 is the trigger, if b, c, d, e agree
//	P P P P N => index 4 is the trigger, if a, b, c, d agree
//
// Anything else is NoMatch.
func Classify(fcrs []*models.Comparison) Vote {
	if len(fcrs) != groupSize {
		return Vote{Pattern: NoMatch}
	}
	fca, fcb, fcc, fcd, fce := fcrs[0], fcrs[1], fcrs[2], fcrs[3], fcrs[4]

	if negative(fca) && positive(fcb) {
		if negative(fcc) {
			// N P N
			if frameStartTimeEqual(fca, fcc) &&
				frameStartTimeEqual(fcc, fcd) &&
				frameStartTimeEqual(fcd, fce) {
				return Vote{Pattern: PatternNPNNN, Index: 1}
			}
		} else if positive(fcc) &&
			frameStartTimeEqual(fcc, fcb) &&
			frameStartTimeEqual(fcc, fcd) &&
			frameStartTimeEqual(fcd, fce) {
			return Vote{Pattern: PatternNPPPP, Index: 0}
		}
	} else if positive(fca) && negative(fce) {
		if frameStartTimeEqual(fca, fcb) &&
			frameStartTimeEqual(fcb, fcc) &&
			frameStartTimeEqual(fcc, fcd) {
			return Vote{Pattern: PatternPPPPN, Index: 4}
		}
	}
	return Vote{Pattern: NoMatch}
}
