package nlp

import "context"

// Candidate is the unvalidated command proposed by the language model.
// Missing fields are zero valued.
type Candidate struct {
	Action     string  `json:"action"`
	Amount     float64 `json:"amount"`
	Recipient  string  `json:"recipient"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

type ICommandExtractor interface {
	Extract(ctx context.Context, text string) (*Candidate, error)
}
