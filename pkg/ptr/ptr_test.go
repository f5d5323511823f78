package ptr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

func TestDeref(t *testing.T) {
	assert.Equal(t, "p1", ptr.Deref(ptr.New("p1")))
	assert.Equal(t, "", ptr.Deref[string](nil))
}
