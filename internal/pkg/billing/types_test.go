package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{in: `{"total": 9900}`, want: 9900},
		{in: `{"total": 9900, "paid": 9900}`, want: 9900},
		{in: `9900`, want: 9900},
		{in: `0`, want: 0},
		{in: `1500.0`, want: 1500},
	}
	for _, tt := range tests {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(tt.in), &a), tt.in)
		assert.Equal(t, tt.want, a.Total, tt.in)
	}
}

func TestAmountUnmarshal_Rejects(t *testing.T) {
	for _, in := range []string{`-1`, `{"total": -5}`, `{"paid": 10}`, `12.5`, `true`} {
		var a Amount
		assert.Error(t, json.Unmarshal([]byte(in), &a), in)
	}
}
