// Package dedup merges researcher records that describe the same person,
// using normalized names and institutions plus fuzzy name matching.
package dedup

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/helixir/researcher-discovery-service/internal/domain"
)

// Key returns the identity key of a researcher: normalized name and
// normalized institution joined by "|".
func Key(r domain.Researcher) string {
	return NormalizeName(r.Name) + "|" + NormalizeInstitution(r.Institution)
}

// Merge collapses researchers sharing an identity key into one record,
// keeping first-seen order. Later duplicates only fill fields left empty by
// earlier ones and extend the list fields.
//
// A record without an institution is folded into an earlier record with the
// same name when that name maps to exactly one institution.
func Merge(researchers []domain.Researcher) []domain.Researcher {
	out := make([]domain.Researcher, 0, len(researchers))
	index := make(map[string]int, len(researchers))
	byName := make(map[string][]int)

	for _, r := range researchers {
		name := NormalizeName(r.Name)
		if name == "" {
			continue
		}
		key := Key(r)

		if i, ok := index[key]; ok {
			out[i].FillFrom(r)
			continue
		}
		if NormalizeInstitution(r.Institution) == "" {
			if idx := byName[name]; len(idx) == 1 {
				out[idx[0]].FillFrom(r)
				continue
			}
		} else if i, ok := index[name+"|"]; ok {
			// An earlier record without institution adopts this one's.
			out[i].FillFrom(r)
			delete(index, name+"|")
			index[key] = i
			continue
		}

		out = append(out, r)
		index[key] = len(out) - 1
		byName[name] = append(byName[name], len(out)-1)
	}

	return out
}

// NormalizeName reduces an author name to lowercase letters separated by
// single spaces. "Last, First" is reordered, diacritics are folded and any
// other character inside a token is dropped, so "O'Brien" becomes "obrien".
func NormalizeName(name string) string {
	name = strings.ToLower(foldDiacritics(name))
	if last, first, ok := strings.Cut(name, ","); ok {
		name = first + " " + last
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, name)
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeInstitution lowercases an institution name and reduces it to
// letters, digits and single spaces. A leading "the" is dropped.
func NormalizeInstitution(institution string) string {
	institution = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, strings.ToLower(foldDiacritics(institution)))
	return strings.TrimPrefix(strings.Join(strings.Fields(institution), " "), "the ")
}

// NameSimilarity scores two author names between 0 and 1 after
// normalization. Family names are compared first; a mismatch scores 0.
//
//	given names equal                        1.0
//	one given name is the other's initial    0.9
//	a given name is missing                  0.7
//	given names differ                       0.3
func NameSimilarity(a, b string) float64 {
	return nameSimilarity(NormalizeName(a), NormalizeName(b))
}

// SamePerson reports whether two names very likely refer to the same person.
func SamePerson(a, b string) bool {
	return NameSimilarity(a, b) >= 0.9
}

func nameSimilarity(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 || ta[len(ta)-1] != tb[len(tb)-1] {
		return 0
	}

	givenA, givenB := ta[:len(ta)-1], tb[:len(tb)-1]
	switch {
	case len(givenA) == 0 || len(givenB) == 0:
		return 0.7
	case slices.Equal(givenA, givenB):
		return 1
	case initialOf(givenA[0], givenB[0]) || initialOf(givenB[0], givenA[0]):
		return 0.9
	default:
		return 0.3
	}
}

// initialOf reports whether short is a single letter that starts long.
func initialOf(short, long string) bool {
	_, size := utf8.DecodeRuneInString(short)
	return size > 0 && size == len(short) && len(long) > size && strings.HasPrefix(long, short)
}

// foldDiacritics maps "José Müller" to "Jose Muller". A fresh transformer is
// built per call because transform chains keep state.
func foldDiacritics(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		return s
	}
	return folded
}
