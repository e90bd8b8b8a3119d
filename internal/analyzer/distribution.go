package analyzer

import (
	"bytes"
	"encoding/json"
)

// CauseProbability is one entry of a root-cause distribution.
type CauseProbability struct {
	Cause       string  `json:"cause"`
	Probability float64 `json:"probability"`
}

// Distribution is a probability distribution over candidate root causes,
// ordered by descending probability. Entries with equal probability keep the
// order in which their cause first received weight.
type Distribution []CauseProbability

// Get returns the probability assigned to cause.
func (d Distribution) Get(cause string) (float64, bool) {
	for _, cp := range d {
		if cp.Cause == cause {
			return cp.Probability, true
		}
	}
	return 0, false
}

// Causes lists the causes in distribution order.
func (d Distribution) Causes() []string {
	causes := make([]string, 0, len(d))
	for _, cp := range d {
		causes = append(causes, cp.Cause)
	}
	return causes
}

// Sum adds up every probability in the distribution.
func (d Distribution) Sum() float64 {
	var total float64
	for _, cp := range d {
		total += cp.Probability
	}
	return total
}

// MarshalJSON renders the distribution as a JSON object whose keys keep the
// distribution order, e.g. {"database_load":0.5,"memory_leak":0.3}.
func (d Distribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cp := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cp.Cause)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(cp.Probability)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the object form produced by MarshalJSON and keeps the
// key order found in the input.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}

	out := Distribution{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		cause, _ := tok.(string)
		var p float64
		if err := dec.Decode(&p); err != nil {
			return err
		}
		out = append(out, CauseProbability{Cause: cause, Probability: p})
	}
	*d = out
	return nil
}
