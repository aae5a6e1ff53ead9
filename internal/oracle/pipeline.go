package oracle

// Calculate composes the filter, histogram, smoother, coarse estimator,
// intraday extractor, and fine convergence stages into the core's single
// public entry point. It is synchronous, allocates no shared state, and
// consults nothing outside w.
func Calculate(w Window) Result {
	outputs, survivedTx, diag := FilterWindow(w)

	result := Result{
		TxCount:     survivedTx,
		OutputCount: len(outputs),
		Diagnostics: diag,
	}

	amounts := make([]float64, len(outputs))
	for i, out := range outputs {
		amounts[i] = out.AmountBTC
	}
	hist := BuildHistogram(amounts)
	Smooth(&hist)

	bank := Stencils()
	coarse := EstimateCoarse(&hist, bank)
	if coarse.NoSignal {
		return result
	}

	cloud := ExtractIntraday(outputs, coarse.RoughPriceUSD)
	result.IntradayCloud = cloud

	conv := Converge(cloud, coarse.RoughPriceUSD)
	if !conv.Converged {
		return result
	}

	axRange := AxisRange(conv.DeviationPct)
	result.HasPrice = true
	result.PriceUSD = conv.PriceUSD
	result.DeviationPct = conv.DeviationPct
	result.Confidence = Confidence(conv.CandidateN, conv.DeviationPct)
	result.PriceLo = conv.PriceUSD * (1 - axRange)
	result.PriceHi = conv.PriceUSD * (1 + axRange)
	return result
}
