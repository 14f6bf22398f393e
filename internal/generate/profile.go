package generate

import (
	"sort"
	"strings"

	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

// Profile selects which data-quality problems are injected into generated data
type Profile struct {
	Name                 string
	BadAmount            bool
	MissingCustomer      bool
	MissingPayment       bool
	OrphanEvent          bool
	DuplicateEventID     bool
	CancelledThenShipped bool
}

var profiles = map[string]Profile{
	"clean": {Name: "clean"},
	"messy": {
		Name:                 "messy",
		BadAmount:            true,
		MissingCustomer:      true,
		MissingPayment:       true,
		OrphanEvent:          true,
		DuplicateEventID:     true,
		CancelledThenShipped: true,
	},
}

// LookupProfile returns the named profile
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, errors.ValidationError("generate.profile", name,
			"unknown data quality profile (available: "+strings.Join(ProfileNames(), ", ")+")")
	}
	return p, nil
}

// ProfileNames lists the available profiles
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
