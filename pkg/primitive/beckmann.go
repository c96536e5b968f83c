package primitive

import "math"

// beckmannD evaluates the Beckmann microfacet normal distribution
// function at a local-frame half vector cosine cosThetaH, given
// roughness alpha.
func beckmannD(cosThetaH, alpha float64) float64 {
	if cosThetaH <= 0 {
		return 0
	}
	cos2 := cosThetaH * cosThetaH
	cos4 := cos2 * cos2
	tan2 := (1 - cos2) / cos2
	return math.Exp(-tan2/(alpha*alpha)) / (math.Pi * alpha * alpha * cos4)
}

// beckmannSampleTan2ThetaH draws tan^2(thetaH) for the Beckmann
// half-vector importance sampling distribution, per spec.md §4.2:
// tan^2(thetaH) = -alpha^2 * ln(1-u1).
func beckmannSampleTan2ThetaH(u1, alpha float64) float64 {
	return -alpha * alpha * math.Log(1-u1)
}

// vCavityMasking evaluates the V-cavity geometric attenuation term
// G = min(1, 2*nh*min(n.wo/|wo.h|, n.wi/|wi.h|)).
func vCavityMasking(nDotH, nDotWo, nDotWi, woDotH, wiDotH float64) float64 {
	if woDotH == 0 || wiDotH == 0 {
		return 0
	}
	termWo := nDotWo / math.Abs(woDotH)
	termWi := nDotWi / math.Abs(wiDotH)
	return math.Min(1, 2*nDotH*math.Min(termWo, termWi))
}
