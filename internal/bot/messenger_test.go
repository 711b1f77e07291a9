package bot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeRows(n int) []Button {
	rows := make([]Button, n)
	for i := range rows {
		rows[i] = Button{Label: fmt.Sprintf("row %d", i), Data: fmt.Sprintf("r|%d", i)}
	}
	return rows
}

func TestPaginate(t *testing.T) {
	t.Run("short list passes through", func(t *testing.T) {
		rows := makeRows(10)
		out := paginate(rows, 0, "more|1", "más")
		assert.Len(t, out, 10)
		assert.Equal(t, "r|9", out[9].Data)
	})

	t.Run("long list gets continuation row", func(t *testing.T) {
		rows := makeRows(15)
		out := paginate(rows, 0, "more|1", "más")
		assert.Len(t, out, 10)
		assert.Equal(t, "r|8", out[8].Data)
		assert.Equal(t, "more|1", out[9].Data)
	})

	t.Run("final page holds the remainder", func(t *testing.T) {
		rows := makeRows(15)
		out := paginate(rows, 1, "more|2", "más")
		assert.Len(t, out, 6)
		assert.Equal(t, "r|9", out[0].Data)
		assert.Equal(t, "r|14", out[5].Data)
	})

	t.Run("out of range page resets", func(t *testing.T) {
		rows := makeRows(5)
		out := paginate(rows, 7, "more|8", "más")
		assert.Len(t, out, 5)
		assert.Equal(t, "r|0", out[0].Data)
	})

	t.Run("never exceeds the row limit", func(t *testing.T) {
		for n := 1; n <= 40; n++ {
			for page := 0; page < 5; page++ {
				out := paginate(makeRows(n), page, "more|x", "más")
				assert.LessOrEqual(t, len(out), MaxListRows, "n=%d page=%d", n, page)
			}
		}
	})
}
