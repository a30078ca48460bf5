package event

import "testing"

func TestFilters(t *testing.T) {
	env := Envelope{
		Topic:   "A",
		Payload: 42,
		Metadata: Metadata{
			Source:        "plugin.git",
			CorrelationID: "req-1",
		},
	}

	tests := []struct {
		name   string
		filter FilterFunc
		want   bool
	}{
		{"source match", FilterBySource("plugin.git"), true},
		{"source miss", FilterBySource("core"), false},
		{"prefix match", FilterBySourcePrefix("plugin."), true},
		{"prefix miss", FilterBySourcePrefix("lsp."), false},
		{"sources match", FilterBySources("core", "plugin.git"), true},
		{"sources miss", FilterBySources("core"), false},
		{"exclude", FilterExcludeSource("plugin.git"), false},
		{"exclude other", FilterExcludeSource("core"), true},
		{"correlation", FilterByCorrelation("req-1"), true},
		{"correlation miss", FilterByCorrelation("req-2"), false},
		{"payload", FilterPayload(func(v int) bool { return v == 42 }), true},
		{"payload wrong type", FilterPayload(func(string) bool { return true }), false},
		{"and", FilterAnd(FilterBySource("plugin.git"), FilterByCorrelation("req-1")), true},
		{"and miss", FilterAnd(FilterBySource("plugin.git"), FilterByCorrelation("x")), false},
		{"empty and", FilterAnd(), true},
		{"or", FilterOr(FilterBySource("core"), FilterByCorrelation("req-1")), true},
		{"empty or", FilterOr(), false},
		{"not", FilterNot(FilterBySource("core")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter(env); got != tt.want {
				t.Errorf("filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterBySourcePrefix_EmptySource(t *testing.T) {
	if FilterBySourcePrefix("")(Envelope{}) {
		t.Error("empty source should not match any prefix")
	}
}
