// Package adapters turns provider JSON into domain records. Every adapter
// is composed over an upstream.Fetcher; none of them retry or cache on
// their own.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tbourn/civics-backend/internal/upstream"
)

// ErrNotFound is returned when a provider answered but the requested
// entity is absent or lacks its required identifying fields.
var ErrNotFound = errors.New("not found")

// ErrShape reports a payload missing a field marked required.
var ErrShape = errors.New("required field missing")

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkShape validates v against its `validate` tags. Failures on optional
// fields are logged and ignored; the caller proceeds with zero values. Only
// a failed `required` rule produces an error (wrapping ErrShape).
func checkShape(ctx context.Context, source string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	var missing []string
	lenient := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Namespace())
			continue
		}
		lenient = append(lenient, fe.Namespace()+":"+fe.Tag())
	}
	if len(lenient) > 0 {
		zerolog.Ctx(ctx).Warn().
			Str("source", source).
			Strs("fields", lenient).
			Msg("schema mismatch, using defaults")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: %w: %s", source, ErrShape, strings.Join(missing, ", "))
	}
	return nil
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt decodes a JSON number or a numeric string. Non-numeric strings
// decode to zero instead of failing the whole payload.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		if fl, ferr := strconv.ParseFloat(string(s), 64); ferr == nil {
			n = int(fl)
		}
	}
	*f = flexInt(n)
	return nil
}

// missingKey builds the configuration error for an absent API key.
func missingKey(provider, env string) error {
	return &upstream.ConfigurationError{Provider: provider, Setting: env}
}
