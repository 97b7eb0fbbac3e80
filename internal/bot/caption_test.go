package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pubbot/internal/storage"
)

func fields(quantity, price, limit string) map[string]string {
	return map[string]string{
		"quantity":   quantity,
		"price":      price,
		"limit_type": limit,
	}
}

func TestRenderCaption_DefaultTemplate(t *testing.T) {
	got := RenderCaption(storage.DefaultTemplate, fields("3", "100", "PP"))
	assert.Equal(t, "数量：3\n价格：100\n限制：PP", got)
}

func TestRenderCaption_CustomTemplate(t *testing.T) {
	got := RenderCaption("Qty:{quantity} Price:{price} Limit:{limit_type}", fields("3", "100", "PP"))
	assert.Equal(t, "Qty:3 Price:100 Limit:PP", got)
}

func TestRenderCaption_UnknownPlaceholderKeptVerbatim(t *testing.T) {
	got := RenderCaption("{quantity} pcs by {seller}", fields("3", "100", "P"))
	assert.Equal(t, "3 pcs by {seller}", got)
}

func TestRenderCaption_MissingValueSubstitutesEmpty(t *testing.T) {
	got := RenderCaption("q={quantity} p={price}", map[string]string{"quantity": "7"})
	assert.Equal(t, "q=7 p=", got)
}

func TestRenderCaption_NoPlaceholderAppendsFields(t *testing.T) {
	got := RenderCaption("新品上架", fields("2", "50", "GENERAL"))
	assert.Equal(t, "新品上架\n数量：2\n价格：50\n限制：GENERAL", got)
}

func TestRenderCaption_RepeatedPlaceholder(t *testing.T) {
	got := RenderCaption("{price}/{price}", fields("1", "9", "P"))
	assert.Equal(t, "9/9", got)
}
