package matching

import (
	"strings"

	"ledger-reconciler/internal/models"
)

// Weight ladder for the confidence score, in hundredths so canonical rung
// sums land on exact float values. The maxima sum to 100.
const (
	exactAmountWeight     = 40
	toleranceAmountWeight = 30

	exactDateWeight     = 30
	adjacentDateWeight  = 25
	toleranceDateWeight = 20

	referenceMatchWeight   = 20
	referencePartialWeight = 10

	descriptionWeight = 10

	// Description overlap below this floor contributes nothing; a single
	// shared word in otherwise unrelated text is noise, not a signal.
	minDescriptionSimilarity = 0.1
)

// Reasons recorded on scored candidates.
const (
	ReasonExactAmount     = "Exact amount match"
	ReasonAmountTolerance = "Amount within tolerance"
	ReasonExactDate       = "Exact date match"
	ReasonAdjacentDate    = "Date within 1 day"
	ReasonDateTolerance   = "Date within tolerance"
	ReasonReferenceMatch  = "Reference number match"
	ReasonReferenceOnly   = "Reference number on one side only"
	ReasonDescription     = "Similar description"
)

// Score computes the confidence for a pair that already passed the
// tolerance filter. It is pure: the same two transactions always produce
// the same confidence and reason list.
func Score(bank models.BankTransaction, ledger models.LedgerTransaction) models.MatchCandidate {
	points := 0
	var reasons []string

	amountDiff := bank.Amount.Sub(ledger.Amount).Abs()
	if amountDiff.IsZero() {
		points += exactAmountWeight
		reasons = append(reasons, ReasonExactAmount)
	} else {
		points += toleranceAmountWeight
		reasons = append(reasons, ReasonAmountTolerance)
	}

	days := dateDiffDays(bank.Date, ledger.Date)
	switch {
	case days == 0:
		points += exactDateWeight
		reasons = append(reasons, ReasonExactDate)
	case days == 1:
		points += adjacentDateWeight
		reasons = append(reasons, ReasonAdjacentDate)
	default:
		points += toleranceDateWeight
		reasons = append(reasons, ReasonDateTolerance)
	}

	switch {
	case bank.ReferenceNumber != "" && ledger.ReferenceNumber != "":
		if bank.ReferenceNumber == ledger.ReferenceNumber {
			points += referenceMatchWeight
			reasons = append(reasons, ReasonReferenceMatch)
		}
	case bank.ReferenceNumber != "" || ledger.ReferenceNumber != "":
		points += referencePartialWeight
		reasons = append(reasons, ReasonReferenceOnly)
	}

	sim := descriptionSimilarity(bank.Description, ledger.Description)
	if sim >= minDescriptionSimilarity {
		reasons = append(reasons, ReasonDescription)
	} else {
		sim = 0
	}

	confidence := (float64(points) + sim*descriptionWeight) / 100
	if confidence > 1.0 {
		confidence = 1.0
	}

	candidate := models.MatchCandidate{
		BankTransactionID:   bank.ID,
		LedgerTransactionID: ledger.ID,
		Confidence:          confidence,
		Reasons:             reasons,
		DateDifference:      days,
	}
	if !amountDiff.IsZero() {
		candidate.AmountDifference = &amountDiff
	}
	return candidate
}

// descriptionSimilarity returns 1.0 for identical normalized strings, 0.8
// when one contains the other, otherwise the Jaccard overlap of their
// whitespace-split word sets. Empty strings score 0.
func descriptionSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	aWords := wordSet(a)
	bWords := wordSet(b)
	intersection := 0
	for w := range aWords {
		if bWords[w] {
			intersection++
		}
	}
	union := len(aWords) + len(bWords) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
