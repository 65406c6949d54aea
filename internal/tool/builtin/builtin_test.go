package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_ToolSet(t *testing.T) {
	tools := All(Options{})
	require.Len(t, tools, 5)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name())
		assert.NotEmpty(t, tool.Description(), tool.Name())
		assert.NotNil(t, tool.Parameters(), tool.Name())
	}

	assert.ElementsMatch(t, []string{
		"find_ticker",
		"stock_price",
		"stock_news",
		"stock_details",
		"stock_patterns",
	}, names)
}

func TestAll_DefaultEndpoints(t *testing.T) {
	tools := All(Options{})

	for _, tool := range tools {
		switch v := tool.(type) {
		case *StockPriceTool:
			assert.Equal(t, defaultQuoteBaseURL, v.baseURL)
		case *StockPatternsTool:
			assert.Equal(t, defaultChartBaseURL, v.baseURL)
			assert.Equal(t, "1y", v.historyRange)
			assert.Equal(t, 10, v.sampleInterval)
		}
	}
}
