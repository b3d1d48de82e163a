package database

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestNumericToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   pgtype.Numeric
		want float64
	}{
		{"null", pgtype.Numeric{}, 0},
		{"nan", pgtype.Numeric{NaN: true, Valid: true}, 0},
		{"integer", pgtype.Numeric{Int: big.NewInt(15), Valid: true}, 15},
		{"decimal", pgtype.Numeric{Int: big.NewInt(38), Exp: -1, Valid: true}, 3.8},
		{"negative", pgtype.Numeric{Int: big.NewInt(-125), Exp: -2, Valid: true}, -1.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := numericToFloat(tt.in); got != tt.want {
				t.Errorf("numericToFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}
