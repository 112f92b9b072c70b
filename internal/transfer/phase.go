// Package transfer drives a single voice-initiated token transfer from
// recording through on-chain confirmation. The whole flow is one tagged
// Phase; every flag a UI needs is derived from it.
package transfer

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseTranscribing
	PhaseParsing
	PhaseConfirming
	PhaseExecuting
	PhasePending
	PhaseConfirmed
	PhaseFailed
)

var phaseNames = [...]string{
	PhaseIdle:         "idle",
	PhaseRecording:    "recording",
	PhaseTranscribing: "transcribing",
	PhaseParsing:      "parsing",
	PhaseConfirming:   "confirming",
	PhaseExecuting:    "executing",
	PhasePending:      "pending",
	PhaseConfirmed:    "confirmed",
	PhaseFailed:       "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
