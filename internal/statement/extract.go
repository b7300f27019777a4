package statement

import (
	"errors"
	"fmt"
)

// Document yields the text of a statement as an ordered sequence of pages,
// each page an ordered sequence of lines. Implementations wrap a document
// text extractor (see internal/extract for the PDF one); the scan itself
// never touches the binary document structure.
type Document interface {
	PageCount() int
	PageLines(page int) ([]string, error)
}

// LineFailure records one line that looked like a transaction row but could
// not be processed, with a human-readable reason.
type LineFailure struct {
	Line   string `json:"line"`
	Reason string `json:"reason"`
}

// ScanResult is the outcome of scanning one document.
type ScanResult struct {
	Candidates []Candidate
	Failures   []LineFailure
}

// Scan runs the line pipeline over a whole document: section classification,
// then per-line parsing. Section state persists across page boundaries until
// the next header is seen. Lines that fail amount normalization are recorded
// as failures and the scan continues; a page that cannot be read aborts the
// scan entirely.
func Scan(doc Document) (ScanResult, error) {
	classifier := NewSectionClassifier()
	var res ScanResult

	for page := 0; page < doc.PageCount(); page++ {
		lines, err := doc.PageLines(page)
		if err != nil {
			return ScanResult{}, fmt.Errorf("Scan: page %d: %w", page, err)
		}

		for _, line := range lines {
			section, consumed := classifier.Classify(line)
			if consumed {
				continue
			}

			cand, err := ParseLine(line, section)
			if errors.Is(err, ErrNoMatch) {
				continue
			}
			if err != nil {
				res.Failures = append(res.Failures, LineFailure{Line: line, Reason: err.Error()})
				continue
			}
			res.Candidates = append(res.Candidates, cand)
		}
	}

	return res, nil
}
