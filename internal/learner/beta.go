package learner

import (
	"math"
	"math/rand"
)

// sampleGamma draws from Gamma(shape, 1) using the Marsaglia-Tsang method.
// No stats library in the corpus exposes this, so it's hand-rolled on top of
// math/rand; shape is always >= 1 here since the bandit's Beta parameters
// are 1 + weighted counts.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		// boost: Gamma(shape) = Gamma(shape+1) * U^(1/shape)
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// sampleBeta draws from Beta(alpha, beta) as X/(X+Y) for X ~ Gamma(alpha,1),
// Y ~ Gamma(beta,1).
func sampleBeta(rng *rand.Rand, alpha, beta float64) float64 {
	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// posteriorMean is the Beta(alpha, beta) mean, used as the learner's
// confidence figure when >= 10 samples back an arm.
func posteriorMean(alpha, beta float64) float64 {
	return alpha / (alpha + beta)
}
