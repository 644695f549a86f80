package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		in             string
		unique, payload string
	}{
		{"custom_button_A", "", "custom_button_A"},
		{"\fconfirm|yes", "confirm", "yes"},
		{"\fconfirm", "confirm", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		u, p := Split(tt.in)
		assert.Equal(t, tt.unique, u, tt.in)
		assert.Equal(t, tt.payload, p, tt.in)
	}
}
