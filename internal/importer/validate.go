package importer

// validate.go is the type-directed validation strategy table for template
// fields. Each field type maps to one validation function; adding a type
// means adding a table entry.

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/caseport/caseport/internal/store"
)

// ErrorKind classifies a field validation failure.
type ErrorKind string

const (
	KindMissingRequired     ErrorKind = "missing_required"
	KindTypeCoercionFailure ErrorKind = "type_coercion_failure"
	KindRangeViolation      ErrorKind = "range_violation"
	KindUnknownOption       ErrorKind = "unknown_option"
	KindMalformedURL        ErrorKind = "malformed_url"
)

// FieldError is a single field validation failure.
type FieldError struct {
	Kind    ErrorKind
	Message string
}

func (e *FieldError) Error() string { return e.Message }

type validateFunc func(raw string, def store.TemplateField) (any, *FieldError)

// validators maps each field type to its validation strategy.
var validators = map[store.FieldType]validateFunc{
	store.FieldText:        validateText,
	store.FieldLongText:    validateLongText,
	store.FieldInteger:     validateInteger,
	store.FieldNumber:      validateNumber,
	store.FieldCheckbox:    validateCheckbox,
	store.FieldDropdown:    validateDropdown,
	store.FieldMultiSelect: validateMultiSelect,
	store.FieldLink:        validateLink,
	store.FieldSteps:       validateSteps,
}

// ValidateField validates and coerces one raw cell against a template field
// definition. Empty input on a required field yields MissingRequired; empty
// input on an optional field yields a nil value with no error.
func ValidateField(raw string, def store.TemplateField) (any, *FieldError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if def.Required {
			return nil, &FieldError{Kind: KindMissingRequired, Message: "required field is empty"}
		}
		return nil, nil
	}

	fn, ok := validators[def.Type]
	if !ok {
		fn = validateText
	}
	return fn(raw, def)
}

func validateText(raw string, _ store.TemplateField) (any, *FieldError) {
	return raw, nil
}

func validateLongText(raw string, _ store.TemplateField) (any, *FieldError) {
	return store.TextDoc(raw), nil
}

func validateInteger(raw string, def store.TemplateField) (any, *FieldError) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &FieldError{Kind: KindTypeCoercionFailure, Message: fmt.Sprintf("%q is not an integer", raw)}
	}
	if fe := checkRange(float64(n), def); fe != nil {
		return nil, fe
	}
	return n, nil
}

func validateNumber(raw string, def store.TemplateField) (any, *FieldError) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &FieldError{Kind: KindTypeCoercionFailure, Message: fmt.Sprintf("%q is not a number", raw)}
	}
	if fe := checkRange(f, def); fe != nil {
		return nil, fe
	}
	return f, nil
}

func checkRange(v float64, def store.TemplateField) *FieldError {
	if def.Min != nil && v < *def.Min {
		return &FieldError{Kind: KindRangeViolation, Message: fmt.Sprintf("%v is below the minimum of %v", v, *def.Min)}
	}
	if def.Max != nil && v > *def.Max {
		return &FieldError{Kind: KindRangeViolation, Message: fmt.Sprintf("%v is above the maximum of %v", v, *def.Max)}
	}
	return nil
}

func validateCheckbox(raw string, _ store.TemplateField) (any, *FieldError) {
	// Unrecognized tokens mean false; there is no false-token validation.
	return looseBool(raw), nil
}

func validateDropdown(raw string, def store.TemplateField) (any, *FieldError) {
	for _, opt := range def.Options {
		if strings.EqualFold(opt.Name, raw) {
			return opt.ID, nil
		}
	}
	return nil, unknownOption(raw, def)
}

func validateMultiSelect(raw string, def store.TemplateField) (any, *FieldError) {
	tokens := splitList(raw)
	ids := make([]string, 0, len(tokens))
	for _, token := range tokens {
		v, fe := validateDropdown(token, def)
		if fe != nil {
			// One unresolved token aborts the whole field.
			return nil, fe
		}
		ids = append(ids, v.(string))
	}
	return ids, nil
}

func unknownOption(raw string, def store.TemplateField) *FieldError {
	names := make([]string, len(def.Options))
	for i, opt := range def.Options {
		names[i] = opt.Name
	}
	return &FieldError{
		Kind:    KindUnknownOption,
		Message: fmt.Sprintf("unknown option %q (valid options: %s)", raw, strings.Join(names, ", ")),
	}
}

func validateLink(raw string, _ store.TemplateField) (any, *FieldError) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, &FieldError{Kind: KindMalformedURL, Message: fmt.Sprintf("%q is not an absolute URL", raw)}
	}
	return raw, nil
}

// ordinalPrefix matches a leading step number like "1. " or "12) ".
var ordinalPrefix = regexp.MustCompile(`^\d+[.)]\s*`)

func validateSteps(raw string, _ store.TemplateField) (any, *FieldError) {
	return ParseSteps(raw), nil
}

// ParseSteps splits a steps cell into ordered step inputs. Each line may
// carry an ordinal prefix ("1. ") and a pipe separating step text from the
// expected result.
func ParseSteps(raw string) []StepInput {
	var steps []StepInput
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		line = ordinalPrefix.ReplaceAllString(line, "")

		text := line
		var expected *store.RichDoc
		if i := strings.Index(line, "|"); i >= 0 {
			text = strings.TrimSpace(line[:i])
			if rest := strings.TrimSpace(line[i+1:]); rest != "" {
				doc := store.TextDoc(rest)
				expected = &doc
			}
		}

		steps = append(steps, StepInput{
			Order:    len(steps),
			Step:     store.TextDoc(text),
			Expected: expected,
		})
	}
	return steps
}
