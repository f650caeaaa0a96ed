package ratelimit

import (
	"fmt"
	"strings"
)

type Algorithm int

const (
	AlgorithmFixedWindow Algorithm = iota
	AlgorithmSlidingWindow
	AlgorithmTokenBucket
)

var algorithmNames = map[Algorithm]string{
	AlgorithmFixedWindow:   "fixed",
	AlgorithmSlidingWindow: "sliding",
	AlgorithmTokenBucket:   "token-bucket",
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// ParseAlgorithm accepts the canonical names plus a few common spellings
// ("fixed_window", "token_bucket", ...). An empty string means fixed window.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed", "fixed-window", "fixed_window":
		return AlgorithmFixedWindow, nil
	case "sliding", "sliding-window", "sliding_window":
		return AlgorithmSlidingWindow, nil
	case "token-bucket", "token_bucket", "tokenbucket", "bucket":
		return AlgorithmTokenBucket, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

func (a Algorithm) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
