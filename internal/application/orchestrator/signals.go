package orchestrator

import "strings"

// Confirmation phrases are a deliberate whitelist: matching on arbitrary
// affirmative language causes false-positive commits from unrelated replies.
var confirmPhrases = map[string]bool{
	"yes": true, "y": true, "yep": true, "yeah": true, "yup": true,
	"confirm": true, "confirmed": true, "do it": true, "go ahead": true,
	"yes please": true, "sounds good": true, "correct": true, "save it": true,
	"log it": true,
}

var cancelPhrases = map[string]bool{
	"no": true, "n": true, "nope": true, "cancel": true, "don't": true,
	"dont": true, "no thanks": true, "nevermind": true, "never mind": true,
	"stop": true, "discard": true, "forget it": true,
}

var pleasantries = map[string]bool{
	"thanks": true, "thank you": true, "thx": true, "ty": true,
	"ok": true, "okay": true, "cool": true, "great": true, "nice": true,
	"bye": true, "goodbye": true, "good night": true, "see you": true,
	"that's all": true,
}

func normalizePhrase(message string) string {
	return strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(message), ".!?")))
}

// matchesConfirm recognizes whitelisted phrases and the UI button payload
// for this specific proposal.
func matchesConfirm(message, proposalID string) bool {
	if strings.TrimSpace(message) == "confirm:"+proposalID {
		return true
	}
	return confirmPhrases[normalizePhrase(message)]
}

// matchesCancel recognizes whitelisted phrases and the cancel button payload.
func matchesCancel(message, proposalID string) bool {
	if strings.TrimSpace(message) == "cancel:"+proposalID {
		return true
	}
	return cancelPhrases[normalizePhrase(message)]
}

func isPleasantry(message string) bool {
	return pleasantries[normalizePhrase(message)]
}
