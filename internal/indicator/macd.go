package indicator

// MACD computes the Moving Average Convergence Divergence:
// line = EMA(fast) - EMA(slow), signal = EMA(line, signalPeriod),
// histogram = line - signal. All three outputs are aligned with the input
// and defined from the first position (EMAs are seeded with the first value).
func MACD(series []float64, fast, slow, signal int) (line, signalLine, hist []float64, err error) {
	if err := checkWindow("MACD fast", fast); err != nil {
		return nil, nil, nil, err
	}
	if err := checkWindow("MACD slow", slow); err != nil {
		return nil, nil, nil, err
	}
	if err := checkWindow("MACD signal", signal); err != nil {
		return nil, nil, nil, err
	}

	emaFast, err := EMA(series, fast)
	if err != nil {
		return nil, nil, nil, err
	}
	emaSlow, err := EMA(series, slow)
	if err != nil {
		return nil, nil, nil, err
	}

	line = make([]float64, len(series))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i]
	}

	signalLine, err = EMA(line, signal)
	if err != nil {
		return nil, nil, nil, err
	}

	hist = make([]float64, len(series))
	for i := range hist {
		hist[i] = line[i] - signalLine[i]
	}
	return line, signalLine, hist, nil
}
