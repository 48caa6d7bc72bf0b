package loader

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// ErrInvalidMemSize is returned for unparsable memory sizes.
var ErrInvalidMemSize = errors.New("invalid memory size")

// binarySuffixes maps the accepted suffixes onto their IEC spelling. Memory
// sizes always use 1024 multiples, so 64kb is 65536.
var binarySuffixes = map[string]string{
	"kb": "kib",
	"mb": "mib",
	"gb": "gib",
	"tb": "tib",
}

// ParseMemSize parses a memory size such as 65536, 64kb, 16MB or 1Gb.
func ParseMemSize(raw string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidMemSize)
	}

	if n, ok := parseInt(s); ok {
		if n < 0 {
			return 0, fmt.Errorf("%w: %s is negative", ErrInvalidMemSize, raw)
		}
		return n, nil
	}

	if len(s) < 3 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidMemSize, raw)
	}
	suffix, ok := binarySuffixes[s[len(s)-2:]]
	if !ok {
		return 0, fmt.Errorf("%w: %s: suffix must be one of KB, MB, GB, TB", ErrInvalidMemSize, raw)
	}
	number := strings.TrimSpace(s[:len(s)-2])
	if _, ok := parseInt(number); !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidMemSize, raw)
	}

	n, err := humanize.ParseBytes(number + suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidMemSize, raw, err)
	}
	if n > math.MaxInt {
		return 0, fmt.Errorf("%w: %s overflows", ErrInvalidMemSize, raw)
	}
	return int(n), nil
}
