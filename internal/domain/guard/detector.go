package guard

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	DefaultMaxLength = 2000

	// obfuscation heuristic: long messages dominated by symbols
	specialCharRatioLimit = 0.3
	specialCharMinLength  = 50
)

// Reason says why Validate rejected a message.
type Reason string

const (
	ReasonEmpty       Reason = "empty"
	ReasonTooShort    Reason = "too_short"
	ReasonTooLong     Reason = "too_long"
	ReasonAdversarial Reason = "adversarial"
)

// IsAdversarial reports whether the rejection counts as an attack.
// Length rejections never do.
func (r Reason) IsAdversarial() bool {
	return r == ReasonAdversarial
}

const (
	MessageEmpty         = "Message cannot be empty."
	MessageTooShort      = "Message is too short."
	MessageRejected      = "Your message couldn't be processed. Please rephrase your question about pet care."
	MessageTooLongFormat = "Message exceeds maximum length of %d characters."
)

// ValidationResult is either Accepted(sanitized text) or Rejected(reason).
type ValidationResult struct {
	accepted bool
	text     string
	reason   Reason
	message  string
}

// Accepted builds an accepting result.
func Accepted(sanitized string) ValidationResult {
	return ValidationResult{accepted: true, text: sanitized}
}

// Rejected builds a rejecting result with its user-facing message.
func Rejected(reason Reason, message string) ValidationResult {
	return ValidationResult{reason: reason, message: message}
}

func (r ValidationResult) IsAccepted() bool { return r.accepted }

// Text is the sanitized message; empty when rejected.
func (r ValidationResult) Text() string { return r.text }

// Reason is empty when accepted.
func (r ValidationResult) Reason() Reason { return r.reason }

// Message is the user-facing rejection text; it never names the signature.
func (r ValidationResult) Message() string { return r.message }

// Finding describes which rule classified a message. Log it, never return it.
type Finding struct {
	Category  Category
	Signature int
	Ratio     float64
}

// Detector classifies chat input as adversarial or benign.
type Detector struct {
	sanitizer  *Sanitizer
	signatures []Signature
	maxLength  int
	log        zerolog.Logger
}

// NewDetector wires the detector with the default signature set.
func NewDetector(sanitizer *Sanitizer, maxLength int, log zerolog.Logger) *Detector {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Detector{
		sanitizer:  sanitizer,
		signatures: DefaultSignatures(),
		maxLength:  maxLength,
		log:        log.With().Str("component", "injection-detector").Logger(),
	}
}

// Classify reports whether text is adversarial.
func (d *Detector) Classify(text string) bool {
	_, adversarial := d.Inspect(text)
	return adversarial
}

// Inspect is Classify plus the rule that fired.
func (d *Detector) Inspect(text string) (Finding, bool) {
	if text == "" {
		return Finding{}, false
	}

	for i, signature := range d.signatures {
		if signature.Pattern.MatchString(text) {
			return Finding{Category: signature.Category, Signature: i}, true
		}
	}

	total, special := 0, 0
	for _, r := range text {
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	ratio := float64(special) / float64(total)
	if total > specialCharMinLength && ratio > specialCharRatioLimit {
		return Finding{Category: CategoryObfuscation, Signature: -1, Ratio: ratio}, true
	}

	return Finding{}, false
}

// Validate sanitizes raw and applies the length and pattern policies.
func (d *Detector) Validate(raw string) ValidationResult {
	result, _ := d.ValidateWithFinding(raw)
	return result
}

// ValidateWithFinding is Validate plus the finding for adversarial rejections.
func (d *Detector) ValidateWithFinding(raw string) (ValidationResult, Finding) {
	if isBlank(raw) {
		return Rejected(ReasonEmpty, MessageEmpty), Finding{}
	}

	sanitized := d.sanitizer.Clean(raw)
	length := utf8.RuneCountInString(sanitized)
	if length == 0 {
		return Rejected(ReasonTooShort, MessageTooShort), Finding{}
	}
	if length > d.maxLength {
		return Rejected(ReasonTooLong, fmt.Sprintf(MessageTooLongFormat, d.maxLength)), Finding{}
	}

	if finding, adversarial := d.Inspect(sanitized); adversarial {
		d.log.Warn().
			Str("category", string(finding.Category)).
			Int("signature", finding.Signature).
			Float64("special_ratio", finding.Ratio).
			Msg("prompt injection attempt detected")
		return Rejected(ReasonAdversarial, MessageRejected), finding
	}

	return Accepted(sanitized), Finding{}
}

// MaxLength returns the configured character limit.
func (d *Detector) MaxLength() int {
	return d.maxLength
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
