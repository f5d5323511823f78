package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadProductRows(t *testing.T) {
	t.Run("Should parse decimals and keep unknown columns as attributes", func(t *testing.T) {
		rows, err := readProductRows(strings.NewReader("productId,price,quantity,color\np1,9.99,2.5,red\n"))

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "9.99", rows[0].price.String())
		assert.Equal(t, "2.5", rows[0].quantity.String())
		assert.Equal(t, map[string]any{"color": "red"}, rows[0].attributes)
	})

	t.Run("Should reject out of range decimals", func(t *testing.T) {
		for _, body := range []string{
			"productId,price\np1,1e400000000\n",
			"productId,quantity\np1,1e-400000000\n",
		} {
			_, err := readProductRows(strings.NewReader(body))

			assert.ErrorContains(t, err, "parse line 2")
		}
	})
}
