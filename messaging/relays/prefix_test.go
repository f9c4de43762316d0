package relays

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrefix(t *testing.T) {
	assert.Equal(t, PrefixAuthRequired, ParsePrefix("auth-required: we only serve authenticated users"))
	assert.Equal(t, PrefixRateLimited, ParsePrefix("rate-limited: slow down"))
	assert.Equal(t, PrefixDuplicate, ParsePrefix("duplicate: already have this event"))
	assert.Equal(t, "", ParsePrefix("no colon here"))
	assert.Equal(t, "", ParsePrefix("unknown-prefix: whatever"))
	assert.Equal(t, "", ParsePrefix(""))
}
