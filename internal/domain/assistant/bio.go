package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/domain/guard"
	"pawsitive-haven/assistant-api/internal/domain/ratelimit"
)

const (
	bioWriterPrompt = "You are a creative writer helping animal shelters write compelling pet bios."

	MessageBioFailed       = "Failed to generate bio"
	MessageBioMissingField = "Pet name and species are required."

	maxBioFieldLength = 200
)

// BioRequest describes a pet awaiting adoption.
type BioRequest struct {
	Name        string
	Species     string
	Breed       string
	Age         *int
	Sex         string
	Personality string
}

// BioResult is the outcome of GeneratePetBio.
type BioResult struct {
	Success      bool
	Bio          string
	ErrorMessage string
	Kind         ErrorKind
	RetryAfter   time.Duration
}

// BioGenerator writes short adoption bios through the completion port. It
// shares the chat quota and injection screening.
type BioGenerator struct {
	completer ChatCompleter
	sanitizer *guard.Sanitizer
	detector  *guard.Detector
	limiter   RateGate
	filter    *OutputFilter
	timeout   time.Duration
	log       zerolog.Logger
}

func NewBioGenerator(completer ChatCompleter, sanitizer *guard.Sanitizer, detector *guard.Detector, limiter RateGate, filter *OutputFilter, timeout time.Duration, log zerolog.Logger) *BioGenerator {
	if filter == nil {
		filter = NewOutputFilter()
	}
	return &BioGenerator{
		completer: completer,
		sanitizer: sanitizer,
		detector:  detector,
		limiter:   limiter,
		filter:    filter,
		timeout:   timeout,
		log:       log.With().Str("component", "bio-generator").Logger(),
	}
}

// GeneratePetBio returns a 2-3 sentence bio for the pet.
func (g *BioGenerator) GeneratePetBio(ctx context.Context, userID string, req BioRequest) BioResult {
	decision := g.limiter.Check(ctx, userID)
	if !decision.Allowed() {
		kind := KindRateLimited
		if decision.Outcome == ratelimit.OutcomeBanned {
			kind = KindBanned
		}
		return BioResult{Kind: kind, ErrorMessage: decision.Message, RetryAfter: decision.RetryAfter}
	}

	pet := g.clean(req)
	if pet.Name == "" || pet.Species == "" {
		return BioResult{Kind: KindValidationLength, ErrorMessage: MessageBioMissingField}
	}
	for _, field := range []string{pet.Name, pet.Species, pet.Breed, pet.Sex, pet.Personality} {
		if len([]rune(field)) > maxBioFieldLength {
			return BioResult{Kind: KindValidationLength, ErrorMessage: fmt.Sprintf(guard.MessageTooLongFormat, maxBioFieldLength)}
		}
	}
	// Only the free-text traits are screened; names like "Dan" are ordinary.
	if finding, adversarial := g.detector.Inspect(pet.Personality); adversarial {
		g.log.Warn().Str("user_id", userID).Str("category", string(finding.Category)).Msg("adversarial pet bio input")
		g.limiter.RecordViolation(ctx, userID)
		return BioResult{Kind: KindValidationAdversarial, ErrorMessage: guard.MessageRejected}
	}

	g.limiter.RecordRequest(ctx, userID)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	reply, err := g.completer.CompleteChat(ctx, []ChatMessage{
		{Role: RoleSystem, Content: bioWriterPrompt},
		{Role: RoleUser, Content: BioPrompt(pet)},
	})
	if err != nil {
		kind, _ := classify(external("bio completion", err))
		g.log.Error().Err(err).Str("user_id", userID).Msg("bio generation failed")
		return BioResult{Kind: kind, ErrorMessage: MessageBioFailed}
	}

	bio, leaked := g.filter.Filter(reply)
	if leaked || bio == "" {
		return BioResult{Kind: KindExternalFailure, ErrorMessage: MessageBioFailed}
	}
	return BioResult{Success: true, Bio: bio}
}

func (g *BioGenerator) clean(req BioRequest) BioRequest {
	return BioRequest{
		Name:        g.sanitizer.Clean(req.Name),
		Species:     g.sanitizer.Clean(req.Species),
		Breed:       g.sanitizer.Clean(req.Breed),
		Age:         req.Age,
		Sex:         g.sanitizer.Clean(req.Sex),
		Personality: g.sanitizer.Clean(req.Personality),
	}
}

// BioPrompt renders the user message of a bio request.
func BioPrompt(pet BioRequest) string {
	breed := pet.Breed
	if breed == "" {
		breed = "Mixed"
	}
	age := "Unknown"
	if pet.Age != nil {
		age = fmt.Sprintf("%d", *pet.Age)
	}
	sex := pet.Sex
	if sex == "" {
		sex = "Unknown"
	}

	var b strings.Builder
	b.WriteString("Write a short, heartwarming bio (2-3 sentences) for a pet available for adoption:\n")
	fmt.Fprintf(&b, "- Name: %s\n", pet.Name)
	fmt.Fprintf(&b, "- Species: %s\n", pet.Species)
	fmt.Fprintf(&b, "- Breed: %s\n", breed)
	fmt.Fprintf(&b, "- Age: %s years\n", age)
	fmt.Fprintf(&b, "- Sex: %s\n", sex)
	if pet.Personality != "" {
		fmt.Fprintf(&b, "- Personality traits: %s\n", pet.Personality)
	}
	b.WriteString("\nMake it engaging and help potential adopters connect with this pet. Focus on their personality and what makes them special.")
	return b.String()
}
