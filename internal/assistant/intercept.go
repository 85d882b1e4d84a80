package assistant

import "strings"

// Rule names reported for intercepted turns
const (
	RuleMyNameIs  = "my_name_is"
	RuleWhatsName = "whats_my_name"
	RuleCallMe    = "call_me"
)

const (
	prefixMyNameIs = "my name is "
	prefixCallMe   = "call me "
)

// Intercept answers the name-memory phrases without consulting the model.
// Rules are checked in order against the lowercased, trimmed utterance; the
// name itself keeps the user's original casing.
func Intercept(uc *UserContext, utterance string) (response, rule string, matched bool) {
	original := strings.TrimSpace(utterance)
	lowered := strings.ToLower(original)

	switch {
	case hasPrefixFold(original, prefixMyNameIs):
		name := strings.TrimSpace(original[len(prefixMyNameIs):])
		uc.SetName(name)
		return "Thanks, I'll call you " + name + " from now on.", RuleMyNameIs, true

	case lowered == "what is my name?" || lowered == "what's my name":
		return uc.Name(), RuleWhatsName, true

	case hasPrefixFold(original, prefixCallMe):
		name := strings.TrimSpace(original[len(prefixCallMe):])
		uc.SetName(name)
		return "Alright, " + name + " it is.", RuleCallMe, true
	}

	return "", "", false
}

// hasPrefixFold compares byte for byte so the remainder can be sliced from
// the original input at the prefix length
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
