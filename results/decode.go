package results

import (
	"bytes"

	"github.com/ansel1/tally/parser"
)

// Decode reads a whole statistics input: either a statistics document or a
// JSON array of individual results.
func Decode(data []byte) (Statistics, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		list, err := parser.ParseResultList(trimmed)
		if err != nil {
			return Statistics{}, err
		}
		return FromResultList(list), nil
	}

	doc, err := parser.ParseStatistics(trimmed)
	if err != nil {
		return Statistics{}, err
	}
	return FromDocument(doc), nil
}

// FromResultList folds individual results into Statistics. Time is the sum
// of the results' elapsed times.
func FromResultList(list []parser.Result) Statistics {
	var s Statistics
	for _, r := range list {
		switch r.Status {
		case parser.ResultSuccess:
			s.Success++
		case parser.ResultFailed:
			s.Failed++
		case parser.ResultSkipped:
			s.Skipped++
		}
		s.Time += r.Elapsed
	}
	s.Total = s.Success + s.Failed + s.Skipped
	return s
}
