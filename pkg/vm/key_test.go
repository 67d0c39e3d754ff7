package vm

import (
	"testing"
)

func TestPropertyKey_Normalization(t *testing.T) {
	tests := []struct {
		name  string
		key   PropertyKey
		kind  KeyKind
		label string
	}{
		{"zero", NewStringKey("0"), KeyKindIndex, "0"},
		{"plain index", NewStringKey("42"), KeyKindIndex, "42"},
		{"max index", NewStringKey("4294967294"), KeyKindIndex, "4294967294"},
		{"past max index", NewStringKey("4294967295"), KeyKindString, "4294967295"},
		{"leading zero", NewStringKey("01"), KeyKindString, "01"},
		{"negative", NewStringKey("-1"), KeyKindString, "-1"},
		{"empty", NewStringKey(""), KeyKindString, ""},
		{"index key past max", NewIndexKey(4294967295), KeyKindString, "4294967295"},
		{"name", NewStringKey("length"), KeyKindString, "length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key.Kind() != tt.kind {
				t.Errorf("expected kind %d, got %d", tt.kind, tt.key.Kind())
			}
			if tt.key.String() != tt.label {
				t.Errorf("expected %q, got %q", tt.label, tt.key.String())
			}
		})
	}

	if NewStringKey("7") != NewIndexKey(7) {
		t.Error("index strings and index keys must be the same key")
	}
}

func TestPropertyKey_Symbols(t *testing.T) {
	a := NewSymbolWithDescription("same")
	b := NewSymbolWithDescription("same")
	if NewSymbolKey(a) == NewSymbolKey(b) {
		t.Error("symbol keys compare by identity")
	}
	if NewSymbolKey(a) == NewStringKey("Symbol(same)") {
		t.Error("symbol keys never equal string keys")
	}
	if NewSymbolKey(a).Name() != "" {
		t.Error("symbol keys have no string name")
	}
	if v := NewSymbolKey(a).ToValue(); !v.IsSymbol() || v.AsSymbol() != a {
		t.Error("ToValue should return the symbol")
	}
	if v := NewIndexKey(3).ToValue(); !v.IsString() || v.AsString() != "3" {
		t.Error("index keys convert to strings")
	}

	if got := NewSymbolKey(a).functionName(); got != "[same]" {
		t.Errorf("expected [same], got %q", got)
	}
	if got := NewSymbolKey(NewAnonymousSymbol()).functionName(); got != "" {
		t.Errorf("anonymous symbol should give an empty name, got %q", got)
	}
}

func TestSymbolRegistry(t *testing.T) {
	vm := NewVM()
	app := vm.SymbolFor("app")
	if vm.SymbolFor("app") != app {
		t.Error("SymbolFor must return the registered symbol")
	}
	if key, ok := vm.KeyForSymbol(app); !ok || key != "app" {
		t.Errorf("expected registry key app, got %q (%v)", key, ok)
	}
	if _, ok := vm.KeyForSymbol(NewSymbolWithDescription("app")); ok {
		t.Error("unregistered symbol with the same description must not have a key")
	}
	if _, ok := vm.KeyForSymbol(SymbolIterator); ok {
		t.Error("well-known symbols are not in the registry")
	}

	// the registry is shared by every realm of a VM, but not across VMs
	second := vm.NewRealm()
	o := second.NewObject()
	o.Set(NewSymbolKey(vm.SymbolFor("app")), True, true)
	if !o.HasOwnProperty(NewSymbolKey(app)) {
		t.Error("registered symbol should be the same key in every realm")
	}
	if NewVM().SymbolFor("app") == app {
		t.Error("separate VMs keep separate registries")
	}
}
