package extract

import (
	"strconv"

	"github.com/yndnr/starledger/internal/core/domain"
	"github.com/yndnr/starledger/pkg/savefmt"
)

// parseID parses a mapping key as an entity ID.
func parseID(key string) (int64, bool) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// idOf reads a reference field. Absent, non-numeric and sentinel values
// all read as domain.NoID.
func idOf(v savefmt.Value) int64 {
	n, ok := v.AsInt()
	if !ok || domain.IsNullID(n) {
		return domain.NoID
	}
	return n
}

func intOf(v savefmt.Value, def int) int {
	if n, ok := v.AsInt(); ok {
		return int(n)
	}
	return def
}

func floatOf(v savefmt.Value) float64 {
	f, _ := v.AsFloat()
	return f
}

// stringOf returns the text of a scalar. Bare words that coerced to
// numbers are rendered back.
func stringOf(v savefmt.Value, def string) string {
	if !v.IsScalar() {
		return def
	}
	return v.Text()
}

func boolOf(v savefmt.Value) bool {
	b, _ := v.AsBool()
	return b
}

// stringList reads a list of scalars, accepting a single scalar or a
// folded repeated key as well as a block.
func stringList(v savefmt.Value) []string {
	var out []string
	for _, item := range v.Elements() {
		if item.IsScalar() {
			out = append(out, item.Text())
		}
	}
	return out
}

// idList reads a list of IDs in the same shapes as stringList.
func idList(v savefmt.Value) []int64 {
	var out []int64
	for _, item := range v.Elements() {
		if id := idOf(item); id != domain.NoID {
			out = append(out, id)
		}
	}
	return out
}

func dateOf(v savefmt.Value) (domain.GameDate, bool) {
	s, ok := v.AsString()
	if !ok {
		return 0, false
	}
	d, err := domain.ParseGameDate(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

// isDeletedSlot reports whether an entity slot holds the engine's "none"
// placeholder for a removed entity.
func isDeletedSlot(v savefmt.Value) bool {
	s, ok := v.AsString()
	return ok && s == "none"
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
