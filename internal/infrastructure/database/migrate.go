package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"pawsitive-haven/assistant-api/internal/infrastructure/database/entities"
)

var schemaRegistry []any

// RegisterSchemaForAutoMigrate adds models to the AutoMigrate set.
func RegisterSchemaForAutoMigrate(models ...any) {
	schemaRegistry = append(schemaRegistry, models...)
}

func init() {
	RegisterSchemaForAutoMigrate(
		&entities.Conversation{},
		&entities.ConversationMessage{},
		&entities.Faq{},
		&entities.Escalation{},
	)
}

// AutoMigrate applies schema changes and seeds the FAQ catalogue when empty.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(schemaRegistry...); err != nil {
		return err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&entities.Faq{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Debug().Int64("rows", count).Msg("faq table already seeded")
		return nil
	}

	seed := DefaultFAQs()
	if err := db.WithContext(ctx).Create(&seed).Error; err != nil {
		return err
	}
	log.Info().Int("rows", len(seed)).Msg("seeded default faqs")
	return nil
}

// DefaultFAQs is the initial catalogue.
func DefaultFAQs() []entities.Faq {
	qa := [][2]string{
		{"How do I adopt a pet?", "Browse available pets, submit an adoption application from the pet's page, and our team will contact you to schedule a meet-and-greet and home check."},
		{"What is the adoption fee?", "Fees vary by species and age and cover vaccinations, microchipping and spay or neuter surgery. The fee is listed on each pet's profile."},
		{"How long does the adoption process take?", "Most applications are reviewed within 3 to 5 business days. Approved adopters can usually bring their pet home within two weeks."},
		{"Can I foster instead of adopting?", "Yes. Fill out the foster application and complete a short orientation. We provide food, supplies and veterinary care for fostered pets."},
		{"What supplies do I need for a new pet?", "Plan for food and water bowls, age-appropriate food, a collar with ID tag, a leash or carrier, bedding, toys and a litter box for cats."},
		{"Are the pets vaccinated?", "All pets receive age-appropriate vaccinations and a health check before adoption. Records are shared with adopters."},
		{"Can I return a pet if it does not work out?", "Please contact us first. We will help with behaviour or fit concerns, and if needed we always take our pets back."},
		{"How can I volunteer?", "Sign up through the volunteer page. Roles include dog walking, cat socialising, event help and transport."},
		{"What should I do in a pet emergency?", "Contact your nearest emergency veterinarian immediately. For poison concerns call the ASPCA Animal Poison Control Center at (888) 426-4435."},
		{"Do you accept surrendered pets?", "We accept surrenders as space allows. Contact staff to discuss the pet's needs and schedule an intake appointment."},
	}

	faqs := make([]entities.Faq, 0, len(qa))
	for i, pair := range qa {
		faqs = append(faqs, entities.Faq{
			Question:     pair[0],
			Answer:       pair[1],
			DisplayOrder: i + 1,
			IsActive:     true,
		})
	}
	return faqs
}
