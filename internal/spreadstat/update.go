package spreadstat

import "fmt"

// ConfigFragment is the part of the strategy configuration this handler
// owns. The host merges it into the live configuration.
type ConfigFragment struct {
	MinTargetProfitPercent float64 `json:"minTargetProfitPercent"`
}

// Update is the result of handling one spread stat: either a ConfigFragment
// or no update at all, in which case the live configuration must be left
// untouched.
type Update struct {
	fragment *ConfigFragment
}

// NoUpdate returns the empty Update.
func NoUpdate() Update {
	return Update{}
}

// NewUpdate wraps f.
func NewUpdate(f ConfigFragment) Update {
	return Update{fragment: &f}
}

// Fragment returns the configuration fragment and whether there is one.
func (u Update) Fragment() (ConfigFragment, bool) {
	if u.fragment == nil {
		return ConfigFragment{}, false
	}
	return *u.fragment, true
}

func (u Update) String() string {
	if u.fragment == nil {
		return "no update"
	}
	return fmt.Sprintf("minTargetProfitPercent=%v", u.fragment.MinTargetProfitPercent)
}
