package model

import (
	"math"

	"hali/pkg/common"
)

// epsNum guards the OLS denominator against degenerate fits (single key,
// all-equal keys).
const epsNum = 1e-10

// LinearModel is an ordinary-least-squares fit of position against key.
type LinearModel struct {
	Slope     float64
	Intercept float64
}

func NewLinearModel() *LinearModel {
	return &LinearModel{}
}

// Train fits the model with positions 0..len(keys)-1.
func (lm *LinearModel) Train(keys []common.KeyType) {
	if len(keys) == 0 {
		lm.Slope, lm.Intercept = 0, 0
		return
	}
	n := float64(len(keys))
	var sumX, sumY, sumXY, sumXX float64
	for i, key := range keys {
		x := float64(key)
		y := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	lm.solve(n, sumX, sumY, sumXY, sumXX)
}

// TrainWithPos fits the model against caller-supplied target positions,
// index-aligned with keys.
func (lm *LinearModel) TrainWithPos(keys []common.KeyType, positions []int) {
	if len(keys) == 0 {
		lm.Slope, lm.Intercept = 0, 0
		return
	}
	n := float64(len(keys))
	var sumX, sumY, sumXY, sumXX float64
	for i, key := range keys {
		x := float64(key)
		y := float64(positions[i])
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	lm.solve(n, sumX, sumY, sumXY, sumXX)
}

func (lm *LinearModel) solve(n, sumX, sumY, sumXY, sumXX float64) {
	meanX := sumX / n
	meanY := sumY / n

	num := sumXY - n*meanX*meanY
	den := sumXX - n*meanX*meanX

	if math.Abs(den) > epsNum {
		lm.Slope = num / den
		lm.Intercept = meanY - lm.Slope*meanX
	} else {
		lm.Slope = 0
		lm.Intercept = meanY
	}
}

// Predict returns the predicted position clamped to [0, maxPos].
func (lm *LinearModel) Predict(key common.KeyType, maxPos int) int {
	pred := lm.Slope*float64(key) + lm.Intercept
	if pred < 0 {
		return 0
	}
	if pred > float64(maxPos) {
		return maxPos
	}
	return int(pred)
}
