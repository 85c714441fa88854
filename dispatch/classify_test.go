package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyClient(t *testing.T) {
	cases := []struct {
		ua   string
		want ClientKind
	}{
		{"curl/8.4.0", Automated},
		{"CURL/7.0", Automated},
		{"Wget/1.21.4", Automated},
		{"HTTPie/3.2.2", Automated},
		{"python-httpie-fork", Automated},
		{"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36", Interactive},
		{"Go-http-client/1.1", Interactive},
		{"", Interactive},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyClient(tc.ua), tc.ua)
	}
}

func TestNewClassifierTokens(t *testing.T) {
	c := NewClassifier([]string{" Fetch ", "", "ARIA2"})
	assert.Equal(t, []string{"fetch", "aria2"}, c.Tokens())
	assert.Equal(t, Automated, c.Classify("aria2/1.37"))
	assert.Equal(t, Interactive, c.Classify("curl/8.4.0"))

	assert.Equal(t, DefaultCLIAgents, NewClassifier(nil).Tokens())
	assert.Equal(t, DefaultCLIAgents, NewClassifier([]string{"  "}).Tokens())
}

func TestClientKindString(t *testing.T) {
	assert.Equal(t, "interactive", Interactive.String())
	assert.Equal(t, "automated", Automated.String())
}
