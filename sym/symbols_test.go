package sym

import (
	"testing"
	"unicode/utf8"
)

func TestCommandToSymbolAndBackAreBidirectional(t *testing.T) {
	for cmd, symbol := range CommandToSymbol {
		got, ok := SymbolToCommand[symbol]
		if !ok {
			t.Errorf("SymbolToCommand has no entry for %q (command %q)", symbol, cmd)
			continue
		}
		if got != cmd {
			t.Errorf("bidirectional mismatch: CommandToSymbol[%q] = %q, but SymbolToCommand[%q] = %q", cmd, symbol, symbol, got)
		}
	}
	if len(CommandToSymbol) != len(SymbolToCommand) {
		t.Errorf("map size mismatch: %d commands, %d symbols", len(CommandToSymbol), len(SymbolToCommand))
	}
}

func TestSymbolsAreValidUnicode(t *testing.T) {
	for cmd, symbol := range CommandToSymbol {
		if !utf8.ValidString(symbol) {
			t.Errorf("symbol for command %q is not valid UTF-8", cmd)
		}
		if utf8.RuneCountInString(symbol) == 0 {
			t.Errorf("symbol for command %q is empty", cmd)
		}
	}
}
