package correlationid_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

func TestContextRoundTrip(t *testing.T) {
	t.Run("Should return false for empty context", func(t *testing.T) {
		_, ok := correlationid.FromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("Should return stored id", func(t *testing.T) {
		ctx := correlationid.NewContext(context.Background(), "abc")
		id, ok := correlationid.FromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "abc", id)
	})

	t.Run("Should ignore empty id", func(t *testing.T) {
		ctx := correlationid.NewContext(context.Background(), "")
		_, ok := correlationid.FromContext(ctx)
		assert.False(t, ok)
	})
}
