package flashd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPageContainsCodeAndMessage(t *testing.T) {
	body := errorPage(404, "Not Found!")
	assert.Contains(t, body, "404")
	assert.Contains(t, body, "Not Found!")
	assert.Contains(t, body, serverToken)
}
