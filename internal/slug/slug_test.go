package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		id   int64
		want string
	}{
		{"simple", "Aria", 7, "aria-7"},
		{"same name different id", "Aria", 12, "aria-12"},
		{"spaces collapse", "The  Lost   City", 3, "the-lost-city-3"},
		{"punctuation stripped", "K'thar, the Undying!", 9, "kthar-the-undying-9"},
		{"accented letters kept", "Mundo Árido", 2, "mundo-árido-2"},
		{"leading and trailing space", "  Heroes  ", 4, "heroes-4"},
		{"only punctuation", "!!!", 5, "untitled-5"},
		{"empty name", "", 1, "untitled-1"},
		{"digits", "Chapter 12", 8, "chapter-12-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in, tt.id))
		})
	}
}

func TestMakeDeterministic(t *testing.T) {
	// Healing legacy rows and creating new ones must agree
	assert.Equal(t, Make("Personajes", 1), Make("Personajes", 1))
}
