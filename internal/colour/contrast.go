package colour

import "math"

// MinContrast is the lowest foreground contrast accepted for an entry, the
// WCAG 2.0 AA level for large text such as title and status bar labels.
const MinContrast = 3.0

// Luminance returns the relative luminance of the colour according to WCAG
// 2.0, between 0 (darkest) and 1 (lightest).
// https://www.w3.org/TR/WCAG20/#relativeluminancedef.
func (rgb RGB) Luminance() float64 {
	return 0.2126*linear(rgb.R) + 0.7152*linear(rgb.G) + 0.0722*linear(rgb.B)
}

func linear(c uint8) float64 {
	v := float64(c) / 255.0
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatio returns the WCAG 2.0 contrast ratio of two colours, between
// 1 and 21 (black on white).
// https://www.w3.org/TR/WCAG20/#contrast-ratiodef.
func ContrastRatio(a, b RGB) float64 {
	l1, l2 := a.Luminance(), b.Luminance()
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// Contrast returns the contrast ratio of the entry's foreground against its
// primary and dark colours, whichever is lower.
func (e Entry) Contrast() (float64, error) {
	fg, err := ParseHex(e.Foreground)
	if err != nil {
		return 0, err
	}
	primary, err := ParseHex(e.Primary)
	if err != nil {
		return 0, err
	}
	dark, err := ParseHex(e.PrimaryDark)
	if err != nil {
		return 0, err
	}
	return min(ContrastRatio(fg, primary), ContrastRatio(fg, dark)), nil
}
