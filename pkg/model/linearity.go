package model

import (
	"math"

	"hali/pkg/common"
)

// Linearity returns the coefficient of determination r² of the linear fit of
// position index against key value over a sorted key sequence. 1.0 means the
// keys are perfectly evenly spaced; values near 0 mean a linear model would
// mispredict badly.
func Linearity(keys []common.KeyType) float64 {
	if len(keys) < 2 {
		return 1.0
	}

	n := float64(len(keys))
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, key := range keys {
		x := float64(key)
		y := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}

	meanX := sumX / n
	meanY := sumY / n

	num := sumXY - n*meanX*meanY
	denX := sumXX - n*meanX*meanX
	denY := sumYY - n*meanY*meanY

	if denX < epsNum || denY < epsNum {
		return 0
	}

	r := num / math.Sqrt(denX*denY)
	return r * r
}
