package npc

import "strings"

const (
	DispositionHostile     = "hostile"
	DispositionDistrustful = "distrustful"
	DispositionNeutral     = "neutral"
	DispositionFriendly    = "friendly"
	DispositionLoyal       = "loyal"
)

// dispositionLadder orders dispositions from worst to best. Strong hits
// on relationship moves climb it one step.
var dispositionLadder = []string{
	DispositionHostile,
	DispositionDistrustful,
	DispositionNeutral,
	DispositionFriendly,
	DispositionLoyal,
}

// dispositionSynonyms maps the free-text stances the narrator invents
// onto the five canonical values. Unknown values become neutral.
var dispositionSynonyms = map[string]string{
	"hostile":      DispositionHostile,
	"aggressive":   DispositionHostile,
	"violent":      DispositionHostile,
	"murderous":    DispositionHostile,
	"vengeful":     DispositionHostile,
	"hateful":      DispositionHostile,
	"menacing":     DispositionHostile,
	"threatening":  DispositionHostile,
	"antagonistic": DispositionHostile,
	"furious":      DispositionHostile,
	"enraged":      DispositionHostile,

	"distrustful":  DispositionDistrustful,
	"suspicious":   DispositionDistrustful,
	"wary":         DispositionDistrustful,
	"guarded":      DispositionDistrustful,
	"distant":      DispositionDistrustful,
	"cold":         DispositionDistrustful,
	"skeptical":    DispositionDistrustful,
	"cautious":     DispositionDistrustful,
	"untrusting":   DispositionDistrustful,
	"resentful":    DispositionDistrustful,
	"bitter":       DispositionDistrustful,
	"fearful":      DispositionDistrustful,
	"afraid":       DispositionDistrustful,
	"nervous":      DispositionDistrustful,
	"uneasy":       DispositionDistrustful,
	"reluctant":    DispositionDistrustful,
	"defensive":    DispositionDistrustful,
	"aloof":        DispositionDistrustful,
	"mistrustful":  DispositionDistrustful,
	"apprehensive": DispositionDistrustful,

	"neutral":      DispositionNeutral,
	"indifferent":  DispositionNeutral,
	"unknown":      DispositionNeutral,
	"ambivalent":   DispositionNeutral,
	"curious":      DispositionNeutral,
	"mysterious":   DispositionNeutral,
	"professional": DispositionNeutral,
	"formal":       DispositionNeutral,
	"businesslike": DispositionNeutral,
	"reserved":     DispositionNeutral,
	"observant":    DispositionNeutral,
	"calculating":  DispositionNeutral,
	"pragmatic":    DispositionNeutral,
	"conflicted":   DispositionNeutral,
	"uncertain":    DispositionNeutral,
	"intrigued":    DispositionNeutral,

	"friendly":     DispositionFriendly,
	"warm":         DispositionFriendly,
	"kind":         DispositionFriendly,
	"welcoming":    DispositionFriendly,
	"helpful":      DispositionFriendly,
	"supportive":   DispositionFriendly,
	"sympathetic":  DispositionFriendly,
	"amiable":      DispositionFriendly,
	"cordial":      DispositionFriendly,
	"cheerful":     DispositionFriendly,
	"grateful":     DispositionFriendly,
	"appreciative": DispositionFriendly,
	"respectful":   DispositionFriendly,
	"admiring":     DispositionFriendly,
	"trusting":     DispositionFriendly,
	"open":         DispositionFriendly,
	"playful":      DispositionFriendly,
	"affectionate": DispositionFriendly,
	"protective":   DispositionFriendly,

	"loyal":    DispositionLoyal,
	"devoted":  DispositionLoyal,
	"faithful": DispositionLoyal,
	"allied":   DispositionLoyal,
	"bonded":   DispositionLoyal,
	"sworn":    DispositionLoyal,
	"loving":   DispositionLoyal,
	"devout":   DispositionLoyal,
}

// NormalizeDisposition maps any narrator-supplied stance to one of the
// five canonical dispositions.
func NormalizeDisposition(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := dispositionSynonyms[key]; ok {
		return canonical
	}
	// Multi-word stances like "coldly formal" resolve by their first
	// recognized word.
	for _, w := range strings.Fields(key) {
		if canonical, ok := dispositionSynonyms[w]; ok {
			return canonical
		}
	}
	return DispositionNeutral
}

// AdvanceDisposition moves one step up the ladder toward loyal.
func AdvanceDisposition(current string) string {
	cur := NormalizeDisposition(current)
	for i, d := range dispositionLadder {
		if d == cur && i < len(dispositionLadder)-1 {
			return dispositionLadder[i+1]
		}
	}
	return cur
}
