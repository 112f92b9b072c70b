package nlp

import "fmt"

const commandSystemPrompt = `You extract cryptocurrency transfer instructions from transcribed speech.

Rules:
- "action" is "transfer" when the user wants to send, pay, give or transfer tokens. Otherwise use "unknown".
- "amount" is a JSON number in token units. Convert spelled-out quantities to digits ("fifty" -> 50, "one and a half" -> 1.5). Use 0 when no amount is given.
- "recipient" is the destination exactly as spoken or written, for example a 0x address or an ENS name. Do not invent, shorten or re-case addresses. Use "" when no recipient is given.
- "confidence" is an integer from 0 to 100 describing how sure you are that the fields reflect the user's intent.
- "reasoning" is one short sentence explaining the interpretation.

Respond with a single JSON object and nothing else:
{"action": "transfer", "amount": 50, "recipient": "0x...", "confidence": 95, "reasoning": "..."}`

func commandPrompt(text string) string {
	return fmt.Sprintf("Voice command: %q", text)
}
