package outcomes

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Messages returns the human readable problems with an outcome set, in display
// order. An empty result means the set can be used to create a market.
func Messages(set []Outcome) []string {
	var msgs []string

	if len(set) < 2 {
		msgs = append(msgs, "Please add at least two outcomes")
	}

	seen := make(map[string]bool, len(set))
	for i, o := range set {
		name := strings.TrimSpace(o.Name)
		if name == "" {
			msgs = append(msgs, fmt.Sprintf("Outcome %d needs a name", i+1))
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			msgs = append(msgs, fmt.Sprintf("Outcome name %q is repeated", name))
		}
		seen[key] = true
	}

	if len(set) > 0 && !totalIsHundred(total(set)) {
		msgs = append(msgs, fmt.Sprintf("The sum of all probabilities must be equal to 100%% (currently %s%%)", FormatTotal(total(set))))
	}

	return msgs
}

// FormatTotal renders a probability total with two decimals.
func FormatTotal(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// totalIsHundred compares at display precision so 3 x 33.333... is accepted.
func totalIsHundred(v float64) bool {
	return decimal.NewFromFloat(v).Round(2).Equal(decimal.NewFromInt(100))
}
