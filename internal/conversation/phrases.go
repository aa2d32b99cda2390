package conversation

import "strings"

// DefaultExitPhrases end the conversation when heard anywhere in the user's
// words, case-insensitively.
var DefaultExitPhrases = []string{"exit", "quit", "stop", "goodbye", "bye"}

// DefaultFallbackPhrases are spoken when the reply pipeline fails.
var DefaultFallbackPhrases = []string{
	"Sorry, I didn't catch that. Could you say it again?",
	"I'm having trouble thinking right now. Please try once more.",
	"Hmm, something went wrong on my end. Let's try again.",
	"I missed that one. Mind repeating it?",
}

// IsExit reports whether the text contains any of the exit phrases.
func IsExit(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Fallback rotates through a fixed phrase list so consecutive failures do
// not repeat the same apology.
type Fallback struct {
	phrases []string
}

func NewFallback(phrases []string) *Fallback {
	if len(phrases) == 0 {
		phrases = DefaultFallbackPhrases
	}
	return &Fallback{phrases: phrases}
}

// Pick selects the phrase for the given exchange count. Callers pass the
// memory length before recording the fallback exchange, which is what
// advances the rotation between failures.
func (f *Fallback) Pick(exchangeCount int) string {
	return f.phrases[exchangeCount%len(f.phrases)]
}
