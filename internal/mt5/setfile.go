package mt5

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// SetFile is an MT5 expert advisor parameter file. Lines are Key=Value with
// optimizer metadata appended after "||"; keys are matched case-insensitively
// and original lines are kept verbatim so a patched file round-trips.
type SetFile struct {
	Path string

	utf16 bool
	lines []string
	index map[string]int
}

// ReadSetFile loads a .set file, trying UTF-16 first (MT5's default), then
// UTF-8, then Latin-1.
func ReadSetFile(path string) (*SetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read set file: %w", err)
	}

	text, isUTF16, err := decodeSetBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode set file %s: %w", path, err)
	}

	s := &SetFile{Path: path, utf16: isUTF16, index: map[string]int{}}
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		s.lines = append(s.lines, line)

		key, _, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = normalize(key)
		if _, dup := s.index[key]; key != "" && !dup {
			s.index[key] = i
		}
	}

	return s, nil
}

func decodeSetBytes(data []byte) (text string, isUTF16 bool, err error) {
	if len(data) >= 2 && ((data[0] == 0xff && data[1] == 0xfe) || (data[0] == 0xfe && data[1] == 0xff)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			return "", false, err
		}
		return string(out), true, nil
	}

	if utf8.Valid(data) {
		return string(data), false, nil
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", false, err
	}
	return string(out), false, nil
}

// Value returns the effective value of a key: the part before the first
// "||", trimmed. Keys are case-insensitive.
func (s *SetFile) Value(key string) (string, bool) {
	i, ok := s.index[normalize(key)]
	if !ok {
		return "", false
	}

	_, raw, _ := strings.Cut(s.lines[i], "=")
	val, _, _ := strings.Cut(raw, "||")
	return strings.TrimSpace(val), true
}

func (s *SetFile) Float(key string) (float64, bool) {
	raw, ok := s.Value(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *SetFile) Int(key string) (int, bool) {
	raw, ok := s.Value(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Grid parameter accessors used by the drawdown estimator and the report
// parameter listing.

func (s *SetFile) LotSize() (float64, bool)         { return s.Float("lotsize") }
func (s *SetFile) LotSizeExponent() (float64, bool) { return s.Float("lotsizeexponent") }
func (s *SetFile) MaxLots() (float64, bool)         { return s.Float("maxlots") }
func (s *SetFile) PipStep() (float64, bool)         { return s.Float("pipstep") }
func (s *SetFile) PipStepExponent() (float64, bool) { return s.Float("pipstepexponent") }
func (s *SetFile) MaxPipStep() (float64, bool)      { return s.Float("maxpipstep") }
func (s *SetFile) LiveDelay() (int, bool)           { return s.Int("livedelay") }
func (s *SetFile) DelayTradeSequence() (int, bool)  { return s.Int("delaytradesequence") }
func (s *SetFile) StopLoss() (float64, bool)        { return s.Float("stoploss") }
func (s *SetFile) MaxOrders() (int, bool)           { return s.Int("maxorders") }

// Set replaces the value of a key, keeping the key's original casing and any
// "||" optimizer suffix intact. It reports whether the key was present.
func (s *SetFile) Set(key, value string) bool {
	i, ok := s.index[normalize(key)]
	if !ok {
		return false
	}

	orig, raw, _ := strings.Cut(s.lines[i], "=")
	_, suffix, hasSuffix := strings.Cut(raw, "||")
	line := orig + "=" + value
	if hasSuffix {
		line += "||" + suffix
	}
	s.lines[i] = line
	return true
}

// WriteToFile writes the file back out with CRLF line endings, re-encoding to
// UTF-16LE when the source was UTF-16.
func (s *SetFile) WriteToFile(path string) (err error) {
	text := strings.Join(s.lines, "\r\n")

	data := []byte(text)
	if s.utf16 {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		data, err = enc.Bytes(data)
		if err != nil {
			return fmt.Errorf("failed to encode set file: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create set file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write set file: %w", err)
	}

	return nil
}
