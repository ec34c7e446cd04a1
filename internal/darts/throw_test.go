package darts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
)

func TestParseThrow(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Throw
	}{
		{name: "Bare number", raw: `60`, want: Throw{Points: 60, Target: 60, Multiplier: 1}},
		{name: "Points", raw: `{"points": 140}`, want: Throw{Points: 140, Target: NoTarget, Multiplier: 1}},
		{name: "Score alias", raw: `{"score": 45}`, want: Throw{Points: 45, Target: NoTarget, Multiplier: 1}},
		{name: "Value and multiplier", raw: `{"value": 20, "multiplier": 3}`, want: Throw{Points: 60, Target: 20, Multiplier: 3}},
		{name: "Target bull", raw: `{"target": "bullseye", "multiplier": 2}`, want: Throw{Points: 50, Target: Bull, Multiplier: 2}},
		{name: "Miss", raw: `{"target": "miss"}`, want: Throw{Points: 0, Target: Miss, Multiplier: 1}},
		{name: "Whole float", raw: `{"points": 20.0}`, want: Throw{Points: 20, Target: NoTarget, Multiplier: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseThrow(json.RawMessage(tc.raw))

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseThrow_Malformed(t *testing.T) {
	for _, raw := range []string{``, `"sixty"`, `{"points": 20.5}`, `{}`, `{"value": 20, "multiplier": 5}`, `{"target": "triple"}`, `[1,2]`, `true`} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseThrow(json.RawMessage(raw))

			require.ErrorIs(t, err, apperror.ErrInvalidThrow)
		})
	}
}
