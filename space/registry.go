package space

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/annlab/nonmetric"
	"github.com/annlab/nonmetric/core"
)

// Create instantiates a space from a spec of the form "NAME[:k=v,...]",
// e.g. "l2", "lp:p=0.5" or "bit_hamming".
//
// Known names: l1, l2, linf, lp (requires p=<float>), cosine, bit_hamming.
// The bit_hamming space requires an integer distance type.
func Create[T core.Scalar](spec string) (Space[T], error) {
	name, params, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}

	switch name {
	case "l1":
		return NewL1[T](), nil
	case "l2":
		return NewL2[T](), nil
	case "linf":
		return NewLinf[T](), nil
	case "cosine":
		return NewCosine[T](), nil
	case "lp":
		raw, ok := params["p"]
		if !ok {
			return nil, fmt.Errorf("%w: space lp requires a parameter p, e.g. lp:p=0.5", nonmetric.ErrInvalidArgument)
		}
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad lp parameter p=%q: %v", nonmetric.ErrInvalidArgument, raw, err)
		}
		s, err := NewLp[T](p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", nonmetric.ErrInvalidArgument, err)
		}
		return s, nil
	case "bit_hamming":
		var zero T
		if _, ok := any(zero).(int32); !ok {
			return nil, fmt.Errorf("%w: bit_hamming requires an integer distance type", nonmetric.ErrInvalidArgument)
		}
		return any(NewBitHamming()).(Space[T]), nil
	default:
		return nil, fmt.Errorf("%w: unknown space %q", nonmetric.ErrInvalidArgument, name)
	}
}

// parseSpec splits "name:k1=v1,k2=v2" into a name and a parameter map.
func parseSpec(spec string) (string, map[string]string, error) {
	name, rest, hasParams := strings.Cut(spec, ":")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", nil, fmt.Errorf("%w: empty space name", nonmetric.ErrInvalidArgument)
	}

	params := map[string]string{}
	if hasParams {
		for _, kv := range strings.Split(rest, ",") {
			if kv == "" {
				continue
			}
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return "", nil, fmt.Errorf("%w: bad space parameter %q, want key=value", nonmetric.ErrInvalidArgument, kv)
			}
			params[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return name, params, nil
}
