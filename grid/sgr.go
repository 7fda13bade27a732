package grid

import "log"

// applySGR folds a CSI m parameter list into prev, returning the updated
// style record. Color sub-sequences (38;5;n, 38;2;r;g;b and their 48
// background equivalents) consume the parameters they need so trailing
// parameters are still processed, e.g. `38;5;12;1` sets the foreground to
// index 12 then turns on bold.
func applySGR(prev CharacterStyles, params []int) CharacterStyles {
	if len(params) == 0 {
		prev.ResetAll()
		return prev
	}
	i := 0
	for i < len(params) {
		code := params[i]
		switch code {
		case 0:
			prev.ResetAll()
		case 1:
			prev.Bold = StyleValue{State: StyleOn}
		case 2:
			prev.Dim = StyleValue{State: StyleOn}
		case 3:
			prev.Italic = StyleValue{State: StyleOn}
		case 4:
			prev.Underline = StyleValue{State: StyleOn}
		case 5:
			prev.SlowBlink = StyleValue{State: StyleOn}
		case 6:
			prev.FastBlink = StyleValue{State: StyleOn}
		case 7:
			prev.Reverse = StyleValue{State: StyleOn}
		case 8:
			prev.Hidden = StyleValue{State: StyleOn}
		case 9:
			prev.Strike = StyleValue{State: StyleOn}
		case 22:
			prev.Bold = StyleValue{State: StyleReset}
			prev.Dim = StyleValue{State: StyleReset}
		case 23:
			prev.Italic = StyleValue{State: StyleReset}
		case 24:
			prev.Underline = StyleValue{State: StyleReset}
		case 25:
			prev.SlowBlink = StyleValue{State: StyleReset}
			prev.FastBlink = StyleValue{State: StyleReset}
		case 27:
			prev.Reverse = StyleValue{State: StyleReset}
		case 28:
			prev.Hidden = StyleValue{State: StyleReset}
		case 29:
			prev.Strike = StyleValue{State: StyleReset}
		case 39:
			prev.Foreground = StyleValue{State: StyleReset}
		case 49:
			prev.Background = StyleValue{State: StyleReset}
		case 38:
			var consumed int
			prev.Foreground, consumed = parseColorSubsequence(params[i+1:])
			i += consumed
		case 48:
			var consumed int
			prev.Background, consumed = parseColorSubsequence(params[i+1:])
			i += consumed
		default:
			if v, ok := namedForegroundFromCode(code); ok {
				prev.Foreground = v
			} else if v, ok := namedBackgroundFromCode(code); ok {
				prev.Background = v
			} else {
				log.Printf("grid: unrecognized SGR code %d, skipping", code)
			}
		}
		i++
	}
	return prev
}

// parseColorSubsequence parses the parameters following a 38/48 code:
// `5;n` (256-color indexed) or `2;r;g;b` (truecolor). It returns the
// resulting style value and how many of rest's entries it consumed, so the
// caller can advance its own index past them.
func parseColorSubsequence(rest []int) (StyleValue, int) {
	if len(rest) == 0 {
		return StyleValue{}, 0
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return StyleValue{}, 1
		}
		return StyleValue{State: StyleColor, Color: Color{Kind: ColorIndexed, Index: uint8(rest[1])}}, 2
	case 2:
		if len(rest) < 4 {
			return StyleValue{}, len(rest)
		}
		return StyleValue{State: StyleColor, Color: Color{
			Kind: ColorRGB, R: uint8(rest[1]), G: uint8(rest[2]), B: uint8(rest[3]),
		}}, 4
	default:
		log.Printf("grid: unrecognized color subsequence selector %d, skipping", rest[0])
		return StyleValue{}, 1
	}
}

func namedForegroundFromCode(code int) (StyleValue, bool) {
	for i, c := range namedForegroundCode {
		if c == code {
			return StyleValue{State: StyleColor, Color: Color{Kind: ColorNamed, Named: NamedColor(i)}}, true
		}
	}
	return StyleValue{}, false
}

func namedBackgroundFromCode(code int) (StyleValue, bool) {
	for i, c := range namedBackgroundCode {
		if c == code {
			return StyleValue{State: StyleColor, Color: Color{Kind: ColorNamed, Named: NamedColor(i)}}, true
		}
	}
	return StyleValue{}, false
}
