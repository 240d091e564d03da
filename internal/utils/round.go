package utils

import "math"

// RoundHalfUp rounds x to the given number of decimal places, with halves
// rounded toward positive infinity (2.5 -> 3, -2.5 -> -2).
func RoundHalfUp(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(places))
	return math.Floor(x*p+0.5) / p
}

// Round rounds x to a whole amount, halves up.
func Round(x float64) float64 {
	return RoundHalfUp(x, 0)
}

// PercentOf returns part/whole*100 rounded to one decimal place. A zero
// whole yields 0.
func PercentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return RoundHalfUp(part/whole*100, 1)
}
