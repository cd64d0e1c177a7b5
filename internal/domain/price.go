package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var rupeeAmount = regexp.MustCompile(`₹\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

// Price is a catalog price kept exactly as the backend sent it: either a JSON
// number or a display label such as "₹40 / 10 उपले".
type Price struct {
	label    string
	number   float64
	isNumber bool
}

func NumberPrice(v float64) Price {
	return Price{number: v, isNumber: true}
}

func LabelPrice(label string) Price {
	return Price{label: label}
}

// Amount returns the numeric unit price. Values that match no known shape
// are worth 0.
func (p Price) Amount() float64 {
	if p.isNumber {
		if math.IsNaN(p.number) || math.IsInf(p.number, 0) {
			return 0
		}
		return p.number
	}
	return ParsePrice(p.label)
}

func (p Price) String() string {
	if p.isNumber {
		return strconv.FormatFloat(p.number, 'f', -1, 64)
	}
	return p.label
}

func (p Price) IsZero() bool {
	return !p.isNumber && p.label == ""
}

func (p Price) MarshalJSON() ([]byte, error) {
	switch {
	case p.isNumber:
		return json.Marshal(p.Amount())
	case p.label != "":
		return json.Marshal(p.label)
	default:
		return []byte("null"), nil
	}
}

func (p *Price) UnmarshalJSON(data []byte) error {
	*p = Price{}
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] == '"' {
		var label string
		if err := json.Unmarshal(raw, &label); err != nil {
			return err
		}
		p.label = label
		return nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err != nil {
		// shape drift: keep the raw text, it is worth 0
		p.label = string(raw)
		return nil
	}
	p.number, p.isNumber = number, true
	return nil
}

// ParsePrice extracts a unit price from a label. A "₹" marker followed by a
// decimal number wins; otherwise the whole label must be a number.
func ParsePrice(label string) float64 {
	if m := rupeeAmount.FindStringSubmatch(label); m != nil {
		return parseFinite(strings.ReplaceAll(m[1], ",", ""))
	}
	return parseFinite(strings.TrimSpace(label))
}

func parseFinite(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
