package common

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var decimalPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

// ParseJSON cleans and unmarshals an LLM response into a type T.
// Markdown fences and chatter around the outermost JSON object are ignored.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	start := strings.Index(response, "{")
	if start == -1 {
		return zero, fmt.Errorf("no JSON object found in response (missing '{')")
	}
	end := strings.LastIndex(response, "}")
	if end < start {
		return zero, fmt.Errorf("no JSON object found in response (missing '}')")
	}
	jsonStr := response[start : end+1]

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}

	return result, nil
}

// ParseScore reads a similarity score in [0,1] from an LLM response.
// A bare decimal is expected; the first number in the text is accepted otherwise.
func ParseScore(response string) (float64, error) {
	s := strings.TrimSpace(response)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		m := decimalPattern.FindString(s)
		if m == "" {
			return 0, fmt.Errorf("no score found in response %q", s)
		}
		v, err = strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse score %q: %w", m, err)
		}
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("score %v out of range [0,1]", v)
	}
	return v, nil
}

// Clamp01 limits v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
