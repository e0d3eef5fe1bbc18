package engage

import (
	"context"
	"fmt"

	"chorus/internal/auth"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Persona is one synthetic actor. The catalog is a static table: defined
// here, seeded once at process start, never mutated at runtime.
type Persona struct {
	Email       string
	DisplayName string
	Style       string
}

var Catalog = []Persona{
	{"mika@personas.chorus.internal", "Mika", "upbeat, short sentences, loves exclamation points"},
	{"arlo@personas.chorus.internal", "Arlo", "dry wit, understated, never uses emoji"},
	{"june@personas.chorus.internal", "June", "warm and encouraging, asks gentle follow-up questions"},
	{"theo@personas.chorus.internal", "Theo", "curious generalist, relates everything to a fun fact"},
	{"sage@personas.chorus.internal", "Sage", "laid back, lowercase only, minimal punctuation"},
	{"remy@personas.chorus.internal", "Remy", "enthusiastic foodie energy, vivid adjectives"},
	{"noor@personas.chorus.internal", "Noor", "thoughtful, reflective, one-sentence replies"},
	{"kit@personas.chorus.internal", "Kit", "playful teaser, friendly banter, never mean"},
}

// SeedPersonas upserts the catalog as synthetic users. Safe to run on every
// start.
func SeedPersonas(ctx context.Context, db *gorm.DB) error {
	for _, p := range Catalog {
		u := auth.User{
			Email:        p.Email,
			PasswordHash: "!", // personas never log in
			DisplayName:  p.DisplayName,
			Role:         auth.RoleSynthetic,
			IsSynthetic:  true,
		}
		if err := db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoNothing: true,
			}).
			Create(&u).Error; err != nil {
			return fmt.Errorf("seed persona %s: %w", p.DisplayName, err)
		}
	}
	return nil
}

// StyleFor returns the writing style for a persona by display name, empty if
// unknown (e.g. a group-scoped actor created by an operator).
func StyleFor(displayName string) string {
	for _, p := range Catalog {
		if p.DisplayName == displayName {
			return p.Style
		}
	}
	return ""
}
