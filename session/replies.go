// Canned fallback replies for provider failures.
//
// When the model cannot answer, the console still says something in the
// assistant's voice. Replies rotate randomly within each category so
// repeated failures do not sound scripted.

package session

import (
	"math/rand"

	"github.com/praxisapocalyptica/jamie/llm"
)

var securityReplies = []string{
	"I'm sorry, I cannot respond to that query due to safety policies.",
	"That question falls outside of what I'm allowed to discuss for safety reasons.",
	"I'm afraid I can't help with that due to security restrictions.",
}

var unavailableReplies = []string{
	"Sorry, I'm not able to think clearly now. Can you repeat what you said please?",
	"I'm a little foggy at the moment, mind asking again?",
	"My thoughts seem a bit scattered. Could you try repeating that?",
}

var confusedReplies = []string{
	"Sorry, I did not understand. Can you please come again?",
	"Hmm, I didn't quite catch that. Could you say it another way?",
	"I'm a bit confused, can you clarify what you mean?",
}

var unexpectedReplies = []string{
	"Sorry, I'm having a bit of trouble right now. Could you try that again?",
	"Hmm, I ran into a bit of difficulty. Can you try asking me again?",
	"Looks like I hit a snag on my end. Apologies, could you repeat that?",
}

// ConfusedReply is the fallback when the user's request parsed but made
// no sense to the capability layer.
func ConfusedReply() string {
	return pick(confusedReplies)
}

// FallbackReply maps a provider failure to a spoken apology.
func FallbackReply(err error) string {
	switch llm.Kind(err) {
	case llm.KindBlocked:
		return pick(securityReplies)
	case llm.KindRateLimited, llm.KindTransient:
		return pick(unavailableReplies)
	case llm.KindMalformed:
		return pick(confusedReplies)
	default:
		return pick(unexpectedReplies)
	}
}

func pick(replies []string) string {
	return replies[rand.Intn(len(replies))]
}
