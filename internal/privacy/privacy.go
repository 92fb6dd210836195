// Package privacy implements the per-viewer field projection applied to
// profile data. Every profile kind has a fixed whitelist of field names the
// owner may hide; projection nulls hidden fields for non-owners and leaves
// the owner's own view untouched.
package privacy

import "fmt"

// Fields is a serialized profile record: field name -> value.
type Fields map[string]any

// PersonaWhitelist is the set of persona fields eligible for the privacy
// check. Field names match the JSON wire format.
var PersonaWhitelist = []string{
	"nome", "cognome", "email",
	"sesso", "data_nascita", "eta",
	"telefono", "situazione_sentimentale",
	"profile_image",
}

// PersonaAlwaysPublic lists persona fields that stay visible no matter what
// the owner put in the hidden list.
var PersonaAlwaysPublic = []string{"nome", "cognome"}

// LocaleWhitelist is the set of venue fields eligible for the privacy check.
// Venues have no always-public carve-out.
var LocaleWhitelist = []string{
	"nome_locale", "indirizzo", "telefono_contatto",
	"profile_image", "longitudine", "latitudine", "email",
}

// LocaleAlwaysPublic is empty: every venue field is privacy-controllable.
var LocaleAlwaysPublic = []string{}

func contains(set []string, name string) bool {
	for _, s := range set {
		if s == name {
			return true
		}
	}
	return false
}

// Project returns the viewer-specific view of a serialized record.
//
// The owner sees every field unfiltered. For any other viewer, fields in
// alwaysPublic keep their value, fields in hidden are replaced with nil, and
// everything else passes through. Fields outside the whitelist universe are
// expected to be excluded before serialization; Project never adds or
// removes keys.
func Project(fields Fields, alwaysPublic, hidden []string, ownerAccountID, viewerAccountID uint) Fields {
	if viewerAccountID != 0 && viewerAccountID == ownerAccountID {
		return fields
	}

	out := make(Fields, len(fields))
	for name, value := range fields {
		switch {
		case contains(alwaysPublic, name):
			out[name] = value
		case contains(hidden, name):
			out[name] = nil
		default:
			out[name] = value
		}
	}
	return out
}

// HideableFields returns the fields an owner may put in their hidden list:
// the whitelist minus the always-public names.
func HideableFields(whitelist, alwaysPublic []string) []string {
	out := make([]string, 0, len(whitelist))
	for _, f := range whitelist {
		if !contains(alwaysPublic, f) {
			out = append(out, f)
		}
	}
	return out
}

// SanitizeHidden validates a requested hidden-field list against the
// whitelist and strips always-public names regardless of caller input, so
// the always-public invariant cannot be bypassed through the privacy
// endpoint. Unknown field names are rejected.
func SanitizeHidden(requested, whitelist, alwaysPublic []string) ([]string, error) {
	out := make([]string, 0, len(requested))
	for _, f := range requested {
		if contains(alwaysPublic, f) {
			continue
		}
		if !contains(whitelist, f) {
			return nil, fmt.Errorf("campo non valido: %q", f)
		}
		if !contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}
