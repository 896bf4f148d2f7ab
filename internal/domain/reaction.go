package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ReactionKind enumerates the six reaction buttons the site offers.
type ReactionKind string

const (
	ReactionQuatsch  ReactionKind = "quatsch"
	ReactionUnnoetig ReactionKind = "unnoetig"
	ReactionGenau    ReactionKind = "genau"
	ReactionLoveIt   ReactionKind = "love_it"
	ReactionSmart    ReactionKind = "smart"
	ReactionSoNicht  ReactionKind = "so_nicht"
)

// Reactions holds the vote tally per reaction kind for one comment.
type Reactions struct {
	Quatsch  int `db:"reactions_quatsch"`
	Unnoetig int `db:"reactions_unnoetig"`
	Genau    int `db:"reactions_genau"`
	LoveIt   int `db:"reactions_love_it"`
	Smart    int `db:"reactions_smart"`
	SoNicht  int `db:"reactions_so_nicht"`
}

// Set stores count under kind, reporting false for an unknown kind.
func (r *Reactions) Set(kind ReactionKind, count int) bool {
	switch kind {
	case ReactionQuatsch:
		r.Quatsch = count
	case ReactionUnnoetig:
		r.Unnoetig = count
	case ReactionGenau:
		r.Genau = count
	case ReactionLoveIt:
		r.LoveIt = count
	case ReactionSmart:
		r.Smart = count
	case ReactionSoNicht:
		r.SoNicht = count
	default:
		return false
	}
	return true
}

// kindAliases maps normalized label names to reaction kinds. The site
// renders "Unnötig" with an umlaut while the stored counter key uses the
// transliterated form, so both spellings are accepted.
var kindAliases = map[string]ReactionKind{
	"quatsch":  ReactionQuatsch,
	"unnoetig": ReactionUnnoetig,
	"unnötig":  ReactionUnnoetig,
	"genau":    ReactionGenau,
	"love_it":  ReactionLoveIt,
	"smart":    ReactionSmart,
	"so_nicht": ReactionSoNicht,
}

// ParseReactionLabel parses a reaction indicator title of the form
// "<Name>: (<count>)". The name is lower-cased with spaces replaced by
// underscores before it is matched against the known kinds. Labels that do
// not parse or name an unknown kind yield an error; callers record these
// as anomalies instead of inventing new counters.
func ParseReactionLabel(label string) (ReactionKind, int, error) {
	name, rest, ok := strings.Cut(label, ":")
	if !ok {
		return "", 0, fmt.Errorf("reaction label %q: missing separator", label)
	}

	open := strings.Index(rest, "(")
	close := strings.Index(rest, ")")
	if open < 0 || close < open {
		return "", 0, fmt.Errorf("reaction label %q: missing count", label)
	}
	count, err := strconv.Atoi(strings.TrimSpace(rest[open+1 : close]))
	if err != nil {
		return "", 0, fmt.Errorf("reaction label %q: parse count: %w", label, err)
	}
	if count < 0 {
		return "", 0, fmt.Errorf("reaction label %q: negative count", label)
	}

	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	kind, ok := kindAliases[key]
	if !ok {
		return "", 0, fmt.Errorf("reaction label %q: unknown kind %q", label, key)
	}
	return kind, count, nil
}
