package dispatch

import "strings"

// ClientKind tells browsers apart from command-line fetchers.
type ClientKind int

const (
	Interactive ClientKind = iota
	Automated
)

func (k ClientKind) String() string {
	if k == Automated {
		return "automated"
	}
	return "interactive"
}

// DefaultCLIAgents are the user-agent tokens of command-line fetchers.
var DefaultCLIAgents = []string{"curl", "wget", "httpie"}

// Classifier matches user agents case-insensitively against a token list.
type Classifier struct {
	tokens []string
}

// NewClassifier lowercases tokens and drops blanks. An empty list falls back
// to DefaultCLIAgents.
func NewClassifier(tokens []string) *Classifier {
	var clean []string
	for _, t := range tokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		clean = append(clean, DefaultCLIAgents...)
	}
	return &Classifier{tokens: clean}
}

// Tokens returns a copy of the configured tokens.
func (c *Classifier) Tokens() []string {
	return append([]string(nil), c.tokens...)
}

func (c *Classifier) Classify(userAgent string) ClientKind {
	ua := strings.ToLower(userAgent)
	for _, t := range c.tokens {
		if strings.Contains(ua, t) {
			return Automated
		}
	}
	return Interactive
}

var defaultClassifier = NewClassifier(nil)

// ClassifyClient classifies with DefaultCLIAgents.
func ClassifyClient(userAgent string) ClientKind {
	return defaultClassifier.Classify(userAgent)
}
