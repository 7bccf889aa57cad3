package helpers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldErrors(t *testing.T) {
	t.Parallel()

	assert.NoError(t, FoldErrors(nil))
	assert.NoError(t, FoldErrors([]error{nil, nil}))
	e1 := fmt.Errorf("uplink.base_url is empty")
	assert.Equal(t, e1, FoldErrors([]error{nil, e1}))
	e2 := fmt.Errorf("uplink.client_id is empty")
	assert.EqualError(t, FoldErrors([]error{e1, nil, e2}), "uplink.base_url is empty\nuplink.client_id is empty")
}
