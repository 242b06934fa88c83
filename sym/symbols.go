// Package sym defines the canonical symbols used across the lorekeep CLI.
// These symbols are stable across CLI output and documentation.
package sym

// Primary command symbols.
const (
	World  = "◍" // a world — one isolated store
	Folder = "▤" // folder tree
	Entity = "✦" // content entity
	Graph  = "⋈" // relation overlay
	Heal   = "⊕" // schema healing
	AM     = "≡" // am — configuration and system settings
	DB     = "⊔" // database/storage layer
)

// CommandToSymbol maps a CLI command name to its glyph.
var CommandToSymbol = map[string]string{
	"worlds": World,
	"folder": Folder,
	"entity": Entity,
	"graph":  Graph,
	"heal":   Heal,
	"am":     AM,
}

// SymbolToCommand is the reverse lookup of CommandToSymbol.
var SymbolToCommand = func() map[string]string {
	m := make(map[string]string, len(CommandToSymbol))
	for cmd, symbol := range CommandToSymbol {
		m[symbol] = cmd
	}
	return m
}()
