package darts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
)

// NoTarget marks a throw that only carries a point total.
const NoTarget = -1

// Throw is the canonical throw handed to an engine. Countdown reads Points,
// cricket reads Target and Multiplier.
type Throw struct {
	Points     int `json:"points,omitempty"`
	Target     int `json:"target"`
	Multiplier int `json:"multiplier"`
}

type throwFields struct {
	Points     *json.Number `json:"points"`
	Score      *json.Number `json:"score"`
	Value      any          `json:"value"`
	Target     any          `json:"target"`
	Multiplier *json.Number `json:"multiplier"`
}

// ParseThrow normalizes the throw payload shapes clients send: a bare number,
// {"points": n}, {"value": v, "multiplier": m} or {"target": t, "multiplier": m}.
func ParseThrow(raw json.RawMessage) (Throw, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Throw{}, fmt.Errorf("%w: empty payload", apperror.ErrInvalidThrow)
	}

	if raw[0] != '{' {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return Throw{}, fmt.Errorf("%w: %w", apperror.ErrInvalidThrow, err)
		}

		points, err := toInt(n)
		if err != nil {
			return Throw{}, err
		}

		return Throw{Points: points, Target: points, Multiplier: 1}, nil
	}

	var fields throwFields
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return Throw{}, fmt.Errorf("%w: %w", apperror.ErrInvalidThrow, err)
	}

	multiplier := 1
	if fields.Multiplier != nil {
		m, err := toInt(*fields.Multiplier)
		if err != nil {
			return Throw{}, err
		}
		if m < 1 || m > 3 {
			return Throw{}, fmt.Errorf("%w: multiplier %d", apperror.ErrInvalidThrow, m)
		}
		multiplier = m
	}

	face := fields.Target
	if face == nil {
		face = fields.Value
	}

	if face != nil {
		target, err := parseTarget(face)
		if err != nil {
			return Throw{}, err
		}

		return Throw{Points: target * multiplier, Target: target, Multiplier: multiplier}, nil
	}

	total := fields.Points
	if total == nil {
		total = fields.Score
	}
	if total == nil {
		return Throw{}, fmt.Errorf("%w: no points or target", apperror.ErrInvalidThrow)
	}

	points, err := toInt(*total)
	if err != nil {
		return Throw{}, err
	}

	return Throw{Points: points, Target: NoTarget, Multiplier: multiplier}, nil
}

func parseTarget(v any) (int, error) {
	switch val := v.(type) {
	case json.Number:
		return toInt(val)
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "bull", "bullseye", "b":
			return Bull, nil
		case "miss", "m":
			return Miss, nil
		}
	}

	return 0, fmt.Errorf("%w: target %v", apperror.ErrInvalidThrow, v)
}

func toInt(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}

	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q is not a whole number", apperror.ErrInvalidThrow, n.String())
	}

	return int(f), nil
}
