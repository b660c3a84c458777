package guard

import "regexp"

// Category groups signatures by the intent they catch.
type Category string

const (
	CategoryInstructionOverride Category = "instruction_override"
	CategoryRoleHijack          Category = "role_hijack"
	CategoryPromptExtraction    Category = "prompt_extraction"
	CategoryDelimiterMarker     Category = "delimiter_marker"
	CategoryJailbreakToken      Category = "jailbreak_token"
	CategorySocialEngineering   Category = "social_engineering"
	CategoryObfuscation         Category = "obfuscation"
)

// Signature is one case-insensitive adversarial pattern.
type Signature struct {
	Category Category
	Pattern  *regexp.Regexp
}

func sig(category Category, pattern string) Signature {
	return Signature{Category: category, Pattern: regexp.MustCompile(`(?i)` + pattern)}
}

// DefaultSignatures returns the ordered signature set. Any match is adversarial.
func DefaultSignatures() []Signature {
	return []Signature{
		sig(CategoryInstructionOverride, `ignore\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|prompts|rules|directions)`),
		sig(CategoryInstructionOverride, `disregard\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|prompts|rules|directions)`),
		sig(CategoryInstructionOverride, `forget\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|prompts|rules|directions)`),
		sig(CategoryInstructionOverride, `override\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|prompts|rules)`),
		sig(CategoryInstructionOverride, `do\s+not\s+follow\s+(the\s+)?(previous|prior|above|system)\s+(instructions|prompts|rules)`),

		sig(CategoryRoleHijack, `you\s+are\s+now\s+(a|an)\s+`),
		sig(CategoryRoleHijack, `pretend\s+(to\s+be|you\s+are|you're)\s+`),
		sig(CategoryRoleHijack, `act\s+as\s+(if\s+you\s+(were|are)\s+)?(a|an)?`),
		sig(CategoryRoleHijack, `roleplay\s+as\s+`),
		sig(CategoryRoleHijack, `assume\s+the\s+role\s+of`),
		sig(CategoryRoleHijack, `switch\s+to\s+.+\s+mode`),
		sig(CategoryRoleHijack, `enter\s+.+\s+mode`),
		sig(CategoryRoleHijack, `new\s+persona`),
		sig(CategoryRoleHijack, `from\s+now\s+on\s+you\s+(are|will)`),

		sig(CategoryPromptExtraction, `(show|tell|reveal|display|print|output|repeat|give)\s+(me\s+)?(your|the)\s+(system\s+)?(prompt|instructions|rules|guidelines|configuration)`),
		sig(CategoryPromptExtraction, `what\s+(are|is)\s+your\s+(system\s+)?(prompt|instructions|rules)`),
		sig(CategoryPromptExtraction, `(initial|original|starting)\s+(prompt|instructions)`),

		sig(CategoryDelimiterMarker, `\[(system|admin|override|developer|sudo|root)\]`),
		sig(CategoryDelimiterMarker, `<<<.+>>>`),
		sig(CategoryDelimiterMarker, `\{\{.+\}\}`),
		sig(CategoryDelimiterMarker, `<!--.*-->`),
		sig(CategoryDelimiterMarker, `<\|.*\|>`),

		sig(CategoryJailbreakToken, `\bdan\b`),
		sig(CategoryJailbreakToken, `developer\s+mode`),
		sig(CategoryJailbreakToken, `jailbreak`),
		sig(CategoryJailbreakToken, `bypass\s+(restrictions|filters|safety)`),
		sig(CategoryJailbreakToken, `no\s+restrictions`),
		sig(CategoryJailbreakToken, `unrestricted\s+mode`),
		sig(CategoryJailbreakToken, `without\s+(any\s+)?limitations`),

		sig(CategorySocialEngineering, `for\s+(educational|research|testing)\s+purposes`),
		sig(CategorySocialEngineering, `this\s+is\s+(just\s+)?(a\s+)?test`),
		sig(CategorySocialEngineering, `hypothetically`),
		sig(CategorySocialEngineering, `my\s+(grandmother|grandma|mom|dad)\s+(used\s+to|would)\s+(tell|read|say)`),
	}
}
