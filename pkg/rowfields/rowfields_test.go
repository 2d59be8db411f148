package rowfields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	aliases := DefaultAliases()

	t.Run("first candidate wins", func(t *testing.T) {
		row := map[string]any{
			"client":   "Acme Corp",
			"customer": "Shadow Value",
		}

		value, found := aliases.FindField(row, FieldClient)

		assert.True(t, found)
		assert.Equal(t, "Acme Corp", value)
	})

	t.Run("falls through to later alias", func(t *testing.T) {
		row := map[string]any{
			"account": "Globex",
		}

		value, found := aliases.FindField(row, FieldClient)

		assert.True(t, found)
		assert.Equal(t, "Globex", value)
	})

	t.Run("sentinel does not stop the scan", func(t *testing.T) {
		row := map[string]any{
			"gp":           "N/A",
			"gross profit": 1250.50,
		}

		value, found := aliases.FindField(row, FieldGrossProfit)

		assert.True(t, found)
		assert.Equal(t, 1250.50, value)
	})

	t.Run("all sentinels means absent", func(t *testing.T) {
		row := map[string]any{
			"status": "-",
			"type":   "null",
		}

		_, found := aliases.FindField(row, FieldStatus)

		assert.False(t, found)
	})

	t.Run("missing columns", func(t *testing.T) {
		row := map[string]any{"unrelated": "x"}

		_, found := aliases.FindField(row, FieldEmployee)

		assert.False(t, found)
	})

	t.Run("numeric zero is a real value", func(t *testing.T) {
		row := map[string]any{"hours": 0.0}

		value, found := aliases.FindField(row, FieldHours)

		assert.True(t, found)
		assert.Equal(t, 0.0, value)
	})
}

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected bool
	}{
		{name: "empty string", value: "", expected: true},
		{name: "whitespace only", value: "   ", expected: true},
		{name: "n/a mixed case", value: "N/a", expected: true},
		{name: "dash", value: "-", expected: true},
		{name: "none", value: "none", expected: true},
		{name: "nil", value: nil, expected: true},
		{name: "real string", value: "Acme", expected: false},
		{name: "zero number", value: 0, expected: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, IsSentinel(test.value))
		})
	}
}
