package codex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorekeep/lorekeep/errors"
)

func TestValidateValue(t *testing.T) {
	cases := []struct {
		name    string
		typ     ValueType
		options []string
		raw     string
		ok      bool
	}{
		{"empty always passes", TypeNumber, nil, "", true},
		{"empty select passes", TypeSingleSelect, []string{"Elfo"}, "", true},
		{"short text", TypeShortText, nil, "arco largo", true},
		{"short text at cap", TypeShortText, nil, strings.Repeat("a", 255), true},
		{"short text over cap", TypeShortText, nil, strings.Repeat("a", 256), false},
		{"long text unbounded", TypeLongText, nil, strings.Repeat("a", 10000), true},
		{"number integer", TypeNumber, nil, "42", true},
		{"number float", TypeNumber, nil, "-3.5", true},
		{"number garbage", TypeNumber, nil, "mucho", false},
		{"boolean true", TypeBoolean, nil, "true", true},
		{"boolean false", TypeBoolean, nil, "false", true},
		{"boolean yes", TypeBoolean, nil, "yes", false},
		{"date rfc3339", TypeDate, nil, "2026-08-30T12:00:00Z", true},
		{"date plain", TypeDate, nil, "2026-08-30", true},
		{"date garbage", TypeDate, nil, "ayer", false},
		{"select in options", TypeSingleSelect, []string{"Elfo", "Humano"}, "Elfo", true},
		{"select not in options", TypeSingleSelect, []string{"Elfo", "Humano"}, "Enano", false},
		{"table json", TypeTable, nil, `[["a","b"],["1","2"]]`, true},
		{"table not json", TypeTable, nil, "a,b", false},
		{"image free text", TypeImage, nil, "portraits/aria.png", true},
		{"map ref free text", TypeMapRef, nil, "mapa-3", true},
		{"timeline ref free text", TypeTimelineRef, nil, "era-antigua-2", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateValue(tc.typ, tc.options, tc.raw)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsInvalidAttributeValue(err), "got %v", err)
			}
		})
	}
}

func TestOptionsRoundTrip(t *testing.T) {
	raw, err := marshalOptions([]string{"Elfo", "Humano"})
	assert.NoError(t, err)
	assert.Equal(t, `["Elfo","Humano"]`, raw)

	options, err := unmarshalOptions(raw)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Elfo", "Humano"}, options)

	empty, err := unmarshalOptions("[]")
	assert.NoError(t, err)
	assert.Nil(t, empty)
}
