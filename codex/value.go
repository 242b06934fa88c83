package codex

import (
	"encoding/json"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/lorekeep/lorekeep/errors"
)

// shortTextMaxLen caps short-text values; long-text is unbounded.
const shortTextMaxLen = 255

// dateLayouts are the accepted date formats, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// validateValue checks a raw value against a template's declared type.
// The empty string always passes: it means "unset", which even required
// fields hold until the author fills them in.
//
// Entity references need a storage lookup and are validated separately in
// the write path.
func validateValue(t ValueType, options []string, raw string) error {
	if raw == "" {
		return nil
	}

	switch t {
	case TypeShortText:
		if utf8.RuneCountInString(raw) > shortTextMaxLen {
			return errors.NewInvalidValuef("short-text value exceeds %d characters", shortTextMaxLen)
		}

	case TypeNumber:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return errors.NewInvalidValuef("number template rejects %q", raw)
		}

	case TypeBoolean:
		if raw != "true" && raw != "false" {
			return errors.NewInvalidValuef("boolean template rejects %q", raw)
		}

	case TypeDate:
		if !parseableDate(raw) {
			return errors.NewInvalidValuef("date template rejects %q", raw)
		}

	case TypeSingleSelect:
		for _, opt := range options {
			if raw == opt {
				return nil
			}
		}
		return errors.NewInvalidValuef("single-select template rejects %q: not a configured option", raw)

	case TypeTable:
		if !json.Valid([]byte(raw)) {
			return errors.NewInvalidValuef("table template rejects %q: not valid JSON", raw)
		}

	case TypeLongText, TypeImage, TypeMapRef, TypeTimelineRef, TypeEntityRef:
		// free text here; entity references get an existence check in the
		// write path where storage is available

	default:
		return errors.AssertionFailedf("unknown value type %q", t)
	}

	return nil
}

func parseableDate(raw string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}

// marshalOptions encodes single-select options for storage.
func marshalOptions(options []string) (string, error) {
	if len(options) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(options)
	if err != nil {
		return "", errors.Wrap(err, "marshal template options")
	}
	return string(data), nil
}

// unmarshalOptions decodes stored single-select options.
func unmarshalOptions(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil, errors.Wrap(err, "unmarshal template options")
	}
	return options, nil
}
