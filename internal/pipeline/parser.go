package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// cleanModelJSON removes Markdown fences the model may add despite the
// instruction, e.g. ```json ... ``` or ``` ... ```.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(s)
	}

	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}

	return strings.TrimSpace(s)
}

// decodeCandidates parses cleaned model output into candidates.
// A literal null or an empty string yields no candidates and no error.
func decodeCandidates(clean string) ([]CandidateTransfer, error) {
	if clean == "" || clean == "null" {
		return nil, nil
	}

	var parsed any
	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decodeCandidates: %w: %v", ErrMalformedModelOutput, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decodeCandidates: %w: trailing data after JSON value", ErrMalformedModelOutput)
	}

	switch v := parsed.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]CandidateTransfer, 0, len(v))
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			c, err := candidateFromMap(obj)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	case map[string]any:
		c, err := candidateFromMap(v)
		if err != nil {
			return nil, err
		}
		return []CandidateTransfer{c}, nil
	default:
		return nil, fmt.Errorf("decodeCandidates: %w: top-level value is %T", ErrMalformedModelOutput, parsed)
	}
}

// candidateFromMap re-encodes a generic object into the typed candidate,
// keeping json.Number values intact.
func candidateFromMap(obj map[string]any) (CandidateTransfer, error) {
	var c CandidateTransfer

	raw, err := json.Marshal(obj)
	if err != nil {
		return c, fmt.Errorf("candidateFromMap: %w: %v", ErrMalformedModelOutput, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("candidateFromMap: %w: %v", ErrMalformedModelOutput, err)
	}
	return c, nil
}

// hasIdentifyingField reports whether a candidate carries at least one of
// amount, recipient name or transaction number. Candidates without any of
// them are model noise.
func hasIdentifyingField(c CandidateTransfer) bool {
	for _, v := range []any{c.Amount, c.RecipientName, c.TransactionNumber} {
		if _, ok := textOf(v); ok {
			return true
		}
	}
	return false
}
