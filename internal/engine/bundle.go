package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Component is one pre-installed sub-component declared by a shipment description.
type Component struct {
	Item         string
	QtyPerParent decimal.Decimal
}

var (
	includingPattern = regexp.MustCompile(`(?i)\bincluding\b`)
	tokenPattern     = regexp.MustCompile(`(?i)^\s*(\d+)\s*x\s*(.+?)\s*$`)
	separatorFolder  = strings.NewReplacer("\u00a0", " ", "\u3000", " ", "\uff0c", ",")
)

// ParseDescription splits "PARENT, including 2x COMP-A, COMP-B" into the parent
// label and its components. Text without "including" yields no components.
func ParseDescription(description string) (string, []Component) {
	text := strings.TrimSpace(separatorFolder.Replace(description))
	if text == "" {
		return "", nil
	}

	loc := includingPattern.FindStringIndex(text)
	head := text
	if loc != nil {
		head = text[:loc[0]]
	}
	parent := strings.TrimSpace(strings.SplitN(head, ",", 2)[0])
	if loc == nil {
		return parent, nil
	}

	var components []Component
	for _, token := range strings.Split(text[loc[1]:], ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		components = append(components, ParseComponentToken(token))
	}
	return parent, components
}

// ParseComponentToken reads "<n>x<item>"; a token without a multiplier counts once.
func ParseComponentToken(token string) Component {
	token = strings.TrimSpace(token)
	if m := tokenPattern.FindStringSubmatch(token); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return Component{Item: strings.TrimSpace(m[2]), QtyPerParent: decimal.NewFromInt(n)}
		}
	}
	return Component{Item: token, QtyPerParent: decimal.NewFromInt(1)}
}
