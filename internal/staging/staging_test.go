package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		sendCount  int
		hasImagery bool
		want       Decision
	}{
		{"no imagery keeps counter at zero", 0, false, Decision{Variant: VariantInitial, NewCount: 0}},
		{"no imagery never advances", 2, false, Decision{Variant: VariantInitial, NewCount: 2}},
		{"first batch with imagery", 0, true, Decision{Variant: VariantFirstReady, NewCount: 1}},
		{"second send is revision round 1", 1, true, Decision{Variant: VariantRevisionRound, NewCount: 2, Round: 1}},
		{"fifth send is revision round 4", 4, true, Decision{Variant: VariantRevisionRound, NewCount: 5, Round: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.sendCount, tt.hasImagery))
		})
	}
}
