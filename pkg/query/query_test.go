package query

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

var schema = entry.MustSchema(
	entry.SchemaField{Name: "id", Type: entry.TypeInteger},
	entry.SchemaField{Name: "ok", Type: entry.TypeBoolean},
)

func sample() []entry.LogEntry {
	return []entry.LogEntry{
		{
			Kind:       entry.KindStructured,
			Level:      "Info",
			Message:    "start",
			KeyValues:  entry.KeyValues{{Name: "id", Value: entry.IntValue(7)}},
			Provenance: &entry.Provenance{Module: "Bank", File: "bank.jl", Line: 1},
		},
		{Kind: entry.KindSingle, Level: "Warn", Message: "disk low"},
		{
			Kind:      entry.KindStructured,
			Level:     "Info",
			Message:   "end",
			KeyValues: entry.KeyValues{{Name: "id", Value: entry.IntValue(8)}, {Name: "ok", Value: entry.BoolValue(true)}},
		},
	}
}

func messages(entries []entry.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestFindMatching(t *testing.T) {
	entries := sample()

	tests := []struct {
		name string
		c    Constraints
		want []string
	}{
		{"empty matches all", Constraints{}, []string{"start", "disk low", "end"}},
		{"nil matches all", nil, []string{"start", "disk low", "end"}},
		{"level", Constraints{"level": entry.TextValue("Info")}, []string{"start", "end"}},
		{"key value", Constraints{"id": entry.IntValue(8)}, []string{"end"}},
		{"provenance", Constraints{"module": entry.TextValue("Bank"), "line": entry.IntValue(1)}, []string{"start"}},
		{"all must hold", Constraints{"level": entry.TextValue("Info"), "id": entry.IntValue(9)}, []string{}},
		{"type must agree", Constraints{"id": entry.TextValue("7")}, []string{}},
		{"missing field never matches", Constraints{"ok": entry.BoolValue(false)}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messages(FindMatching(entries, tt.c)))
		})
	}
}

func TestRefine(t *testing.T) {
	entries := sample()

	assert.Equal(t, []string{"start", "disk low", "end"}, messages(Refine(entries, nil)))
	assert.Equal(t, []string{"start", "end"}, messages(Refine(entries, []string{"id"})))
	assert.Equal(t, []string{"end"}, messages(Refine(entries, []string{"id", "ok"})))
	assert.Equal(t, []string{"start"}, messages(Refine(entries, []string{"module"})))
	assert.Empty(t, Refine(entries, []string{"nope"}))
}

func TestFindMatching_DoesNotMutateInput(t *testing.T) {
	entries := sample()
	got := FindMatching(entries, Constraints{"level": entry.TextValue("Warn")})
	require.Len(t, got, 1)

	got[0].Message = "changed"
	assert.Equal(t, "disk low", entries[1].Message)
}

func TestFindMatching_Concurrent(t *testing.T) {
	entries := sample()
	c := Constraints{"level": entry.TextValue("Info")}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, FindMatching(entries, c), 2)
			assert.Len(t, Refine(entries, []string{"id"}), 2)
		}()
	}
	wg.Wait()
}

func TestParseConstraints(t *testing.T) {
	c, err := ParseConstraints([]string{"id=7", "level=Info", "ok= true", "user=bob"}, schema)
	require.NoError(t, err)

	assert.True(t, c["id"].Equal(entry.IntValue(7)))
	assert.True(t, c["level"].Equal(entry.TextValue("Info")))
	assert.True(t, c["ok"].Equal(entry.BoolValue(true)))
	assert.True(t, c["user"].Equal(entry.TextValue("bob")))
	assert.Equal(t, []string{"id", "level", "ok", "user"}, c.Names())
}

func TestParseConstraints_Errors(t *testing.T) {
	_, err := ParseConstraints([]string{"id"}, schema)
	assert.ErrorContains(t, err, "want name=value")

	_, err = ParseConstraints([]string{"id=seven"}, schema)
	assert.ErrorContains(t, err, "constraint id")

	_, err = ParseConstraints([]string{"=x"}, schema)
	assert.Error(t, err)
}
