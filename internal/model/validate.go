package model

import (
	"errors"
	"fmt"
	"html"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxNotesLength is the longest accepted entry note, in characters.
const MaxNotesLength = 200

// SubstanceInput is the user-supplied part of a new substance.
type SubstanceInput struct {
	Name             string   `json:"name" validate:"required,max=100"`
	AdvertisedMass   float64  `json:"advertisedMass" validate:"gt=0"`
	GrossInitialMass *float64 `json:"grossInitialMass" validate:"omitempty,gt=0"`
	GrossFinalMass   *float64 `json:"grossFinalMass" validate:"omitempty,gte=0"`
}

// EntryInput is the user-supplied part of a new entry.
type EntryInput struct {
	SubstanceID string  `json:"substanceId" validate:"required"`
	Person      string  `json:"person" validate:"required,max=100"`
	Delta       float64 `json:"delta" validate:"gte=0"`
	Notes       string  `json:"notes" validate:"max=200"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and converts the first failure into a
// ValidationError.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validating input: %w", err)
	}
	fe := fieldErrs[0]
	return invalid(fe.Field(), describeTag(fe))
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must not be negative"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsValidMass reports whether v is a usable mass reading: finite and not
// negative.
func IsValidMass(v float64) bool {
	return isFinite(v) && v >= 0
}

// ParseMass parses user text into a mass, rejecting anything that is not a
// finite non-negative number.
func ParseMass(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !IsValidMass(v) {
		return 0, invalid(field, "must be a non-negative number")
	}
	return v, nil
}

// CheckSubstanceInput trims the name and applies the input rules shared by
// creating and editing a substance.
func CheckSubstanceInput(in SubstanceInput) (SubstanceInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if !isFinite(in.AdvertisedMass) {
		return SubstanceInput{}, invalid("advertisedMass", "must be a finite number")
	}
	if err := validateStruct(in); err != nil {
		return SubstanceInput{}, err
	}
	return in, nil
}

// NewSubstance validates in and builds an active substance.
func NewSubstance(in SubstanceInput, id, createdAt string) (Substance, error) {
	in, err := CheckSubstanceInput(in)
	if err != nil {
		return Substance{}, err
	}
	s := Substance{
		ID:               id,
		Name:             in.Name,
		AdvertisedMass:   in.AdvertisedMass,
		GrossInitialMass: cloneFloat(in.GrossInitialMass),
		GrossFinalMass:   cloneFloat(in.GrossFinalMass),
		Active:           true,
		CreatedAt:        createdAt,
	}
	if err := s.Validate(); err != nil {
		return Substance{}, err
	}
	return s, nil
}

// Validate checks the substance invariants.
func (s Substance) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if !isFinite(s.AdvertisedMass) || s.AdvertisedMass <= 0 {
		return invalid("advertisedMass", "must be a positive number")
	}
	if s.GrossInitialMass != nil {
		if g := *s.GrossInitialMass; !isFinite(g) || g <= 0 {
			return invalid("grossInitialMass", "must be a positive number")
		}
	}
	if s.GrossFinalMass != nil {
		return CheckFinalMass(s, *s.GrossFinalMass)
	}
	return nil
}

// CheckFinalMass validates a gross final mass against the substance's
// reference mass.
func CheckFinalMass(s Substance, finalMass float64) error {
	if !IsValidMass(finalMass) {
		return invalid("grossFinalMass", "must not be negative")
	}
	if ref := s.ReferenceMass(); finalMass > ref {
		return invalid("grossFinalMass", fmt.Sprintf("cannot exceed %sg (initial mass)",
			strconv.FormatFloat(ref, 'f', -1, 64)))
	}
	return nil
}

// NewEntry validates in and builds an entry. The delta is rounded to two
// decimals and notes are trimmed and HTML-escaped.
func NewEntry(in EntryInput, id, timestamp string) (Entry, error) {
	in.SubstanceID = strings.TrimSpace(in.SubstanceID)
	in.Person = strings.TrimSpace(in.Person)
	in.Notes = strings.TrimSpace(in.Notes)
	if !isFinite(in.Delta) {
		return Entry{}, invalid("delta", "must be a number")
	}
	if err := validateStruct(in); err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:          id,
		SubstanceID: in.SubstanceID,
		Person:      in.Person,
		Delta:       RoundMass(in.Delta),
		Timestamp:   timestamp,
		Notes:       html.EscapeString(in.Notes),
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Validate checks the entry invariants.
func (e Entry) Validate() error {
	if e.SubstanceID == "" {
		return invalid("substanceId", "must not be empty")
	}
	if strings.TrimSpace(e.Person) == "" {
		return invalid("person", "must not be empty")
	}
	if !IsValidMass(e.Delta) {
		return invalid("delta", "must be a non-negative number")
	}
	return nil
}
