package service

import (
	"regexp"
	"strings"
)

type ScriptAction string

const (
	// ScriptNone leaves the turn to the knowledge and model paths.
	ScriptNone ScriptAction = "none"
	// ScriptOffer asks whether the user wants the script.
	ScriptOffer ScriptAction = "offer"
	// ScriptDeliver returns the script text.
	ScriptDeliver ScriptAction = "deliver"
	// ScriptUnavailable means a code was mentioned that has no script.
	ScriptUnavailable ScriptAction = "unavailable"
)

var scriptRequestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bautomation\s+scripts?\b`),
	regexp.MustCompile(`(?i)\b(?:give|provide|show|send|share)\b.*\bscripts?\b`),
	regexp.MustCompile(`(?i)\bscripts?\b`),
}

var affirmatives = map[string]struct{}{
	"yes": {}, "y": {}, "yeah": {}, "yep": {}, "sure": {}, "ok": {}, "okay": {}, "go ahead": {},
}

// IsScriptRequest reports an explicit ask for a script.
func IsScriptRequest(message string) bool {
	for _, re := range scriptRequestPatterns {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// IsAffirmative reports a short confirmation such as "yes" or "go ahead".
func IsAffirmative(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.TrimRight(normalized, ".!,; ")
	normalized = strings.Join(strings.Fields(normalized), " ")
	_, ok := affirmatives[normalized]
	return ok
}

// ScriptResolution is the script decision for one turn.
type ScriptResolution struct {
	Action      ScriptAction
	Code        string // scenario code the decision is about, in script key form
	Template    ScriptTemplate
	Mentioned   bool // the current message names a scenario code
	WantsScript bool
	Explicit    bool // wording asked for a script, as opposed to a bare "yes"
}

// ScriptResolver decides between offering, delivering, or skipping a script.
type ScriptResolver struct {
	catalog *ScriptCatalog
}

func NewScriptResolver(catalog *ScriptCatalog) *ScriptResolver {
	return &ScriptResolver{catalog: catalog}
}

// Resolve evaluates one turn. messageCodes come from the current message,
// historyCodes from earlier turns, and pending is the script key offered last turn.
func (r *ScriptResolver) Resolve(message string, messageCodes, historyCodes []ScenarioCode, pending string) ScriptResolution {
	explicit := IsScriptRequest(message)
	confirm := IsAffirmative(message)

	res := ScriptResolution{
		Action:      ScriptNone,
		Mentioned:   len(messageCodes) > 0,
		WantsScript: explicit || confirm,
		Explicit:    explicit,
	}

	switch {
	case res.Mentioned:
		res.Code = r.pickCode(messageCodes)
	case pending != "" && res.WantsScript:
		res.Code = NormalizeScriptKey(pending)
	case explicit && len(historyCodes) > 0:
		res.Code = r.pickCode(historyCodes)
	}

	if res.Code == "" {
		return res
	}

	tmpl, ok := r.catalog.Lookup(res.Code)
	switch {
	case ok && res.WantsScript:
		res.Action = ScriptDeliver
		res.Template = tmpl
		res.Code = tmpl.Key
	case ok && res.Mentioned:
		res.Action = ScriptOffer
		res.Template = tmpl
		res.Code = tmpl.Key
	case res.Mentioned:
		res.Action = ScriptUnavailable
	}
	return res
}

// pickCode prefers the last code that has a script, else the last code.
func (r *ScriptResolver) pickCode(codes []ScenarioCode) string {
	for i := len(codes) - 1; i >= 0; i-- {
		if _, ok := r.catalog.Lookup(codes[i].Raw); ok {
			return codes[i].ScriptKey()
		}
	}
	return codes[len(codes)-1].ScriptKey()
}

// OfferPrompt is appended to the reply when a script is offered.
func OfferPrompt(key string) string {
	return "I have an automation script for " + key + ". Would you like me to provide it?"
}
