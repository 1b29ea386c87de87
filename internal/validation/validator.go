package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/models"
)

var (
	// Any bracketed label followed by a parenthesised target is treated as a hyperlink
	hyperlinkCandidate = regexp.MustCompile(`\[.*?\]\(.*?\)`)
	hyperlinkValid     = regexp.MustCompile(`\[[^\]]+\]\(https?://[^\s)]+\)`)
	emailRegex         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Validator checks input payloads and domain-specific formats
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the custom rules registered
func NewValidator() *Validator {
	v := validator.New()

	// Report json field names so messages match the request payload
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("hyperlinks", func(fl validator.FieldLevel) bool {
		return ValidHyperlinks(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates a tagged input struct, returning an apperrors Validation error
// for the first failing field
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Internal("validation failed", err)
	}
	fe := fieldErrs[0]
	return apperrors.Validation(fe.Field(), messageFor(fe))
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "cannot be empty"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("cannot have more than %s entries", fe.Param())
		}
		return fmt.Sprintf("cannot be more than %s characters", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("requires at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "email":
		return "invalid email format"
	case "hyperlinks":
		return "invalid hyperlink format"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// ValidHyperlinks reports whether every [label](target) in text has a non-empty
// label and an http(s) target without whitespace
func ValidHyperlinks(text string) bool {
	for _, link := range hyperlinkCandidate.FindAllString(text, -1) {
		if !hyperlinkValid.MatchString(link) {
			return false
		}
	}
	return true
}

// NormalizeTagName lowercases and trims a raw tag name and checks its format
func NormalizeTagName(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return "", apperrors.Validation("tags", "tag name cannot be empty")
	}
	if utf8.RuneCountInString(name) > models.MaxTagNameLength {
		return "", apperrors.Validation("tags", fmt.Sprintf("tag %q cannot be more than %d characters", name, models.MaxTagNameLength))
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return "", apperrors.Validation("tags", fmt.Sprintf("tag %q cannot contain whitespace", name))
	}
	return name, nil
}

// NormalizeTagNames normalizes every name, drops duplicates keeping first
// occurrence order, and enforces the per-question limit
func NormalizeTagNames(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		name, err := NormalizeTagName(r)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) > models.MaxTagsPerQuestion {
		return nil, apperrors.Validation("tags", fmt.Sprintf("cannot have more than %d tags", models.MaxTagsPerQuestion))
	}
	return names, nil
}

// ValidateRegistration applies the account rules beyond field presence
func ValidateRegistration(in *models.RegisterInput) error {
	if !emailRegex.MatchString(in.Email) {
		return apperrors.Validation("email", "invalid email format")
	}
	password := strings.ToLower(in.Password)
	local := strings.ToLower(strings.SplitN(in.Email, "@", 2)[0])
	if strings.Contains(password, strings.ToLower(in.Username)) || strings.Contains(password, local) {
		return apperrors.Validation("password", "password should not contain username or email")
	}
	return nil
}
