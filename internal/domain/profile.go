package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
)

var (
	ErrProfileNotFound = errors.New("user profile not found")
)

// Restriction tokens applied to every plan mutation.
const (
	RestrictionNoJumping      = "no_jumping"
	RestrictionBodyweightOnly = "bodyweight_only"
)

// Equipment values the coach understands. Anything else is passed to the LLM as-is.
const (
	EquipmentBodyweightOnly = "Bodyweight Only"
	EquipmentFullGym        = "Full Gym"
)

// UserProfile holds the onboarding answers used for program generation.
type UserProfile struct {
	UserID       string                      `json:"user_id" gorm:"primaryKey"`
	Gender       string                      `json:"gender"`
	Age          int                         `json:"age"`
	Goal         string                      `json:"goal"`
	Experience   string                      `json:"experience"`
	DaysPerWeek  int                         `json:"days_per_week"`
	Equipment    string                      `json:"equipment"`
	Style        string                      `json:"style"`
	Restrictions datatypes.JSONSlice[string] `json:"restrictions"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// ValidateForGeneration checks every field program generation needs.
func (p *UserProfile) ValidateForGeneration() error {
	switch {
	case strings.TrimSpace(p.Gender) == "":
		return &ValidationError{Field: "gender", Message: "is required"}
	case p.Age <= 0:
		return &ValidationError{Field: "age", Message: "is required"}
	case strings.TrimSpace(p.Goal) == "":
		return &ValidationError{Field: "goal", Message: "is required"}
	case strings.TrimSpace(p.Experience) == "":
		return &ValidationError{Field: "experience", Message: "is required"}
	case p.DaysPerWeek < 1 || p.DaysPerWeek > 7:
		return &ValidationError{Field: "days_per_week", Message: "must be between 1 and 7"}
	case strings.TrimSpace(p.Equipment) == "":
		return &ValidationError{Field: "equipment", Message: "is required"}
	case strings.TrimSpace(p.Style) == "":
		return &ValidationError{Field: "style", Message: "is required"}
	}
	return nil
}

// HasRestriction reports whether the token is in the standing restriction set.
func (p *UserProfile) HasRestriction(token string) bool {
	for _, r := range p.Restrictions {
		if r == token {
			return true
		}
	}
	return false
}

// AddRestriction merges token into the restriction set and reports whether it was new.
func (p *UserProfile) AddRestriction(token string) bool {
	if token == "" || p.HasRestriction(token) {
		return false
	}
	p.Restrictions = append(p.Restrictions, token)
	return true
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*UserProfile, error)
	Upsert(ctx context.Context, profile *UserProfile) error
}
