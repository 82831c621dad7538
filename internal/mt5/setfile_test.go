package mt5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const setFixture = "; grid EA settings\r\n" +
	"LotSize=0.01||0.01||0.01||0.1||N\r\n" +
	"LotSizeExponent=1.5||1.5||0.1||3||N\r\n" +
	"MaxLots=2||2||0.1||10||N\r\n" +
	"PipStep=25||25||5||100||Y\r\n" +
	"PipStepExponent=1.2\r\n" +
	"MaxPipStep=120\r\n" +
	"LiveDelay=2||2||1||5||N\r\n" +
	"MAGIC_NUMBER=0||777||1||7770||N\r\n" +
	"TradeComment=range_ema_adx_bb_gbpcad_1_10707||0\r\n"

func TestReadSetFile_utf16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, err := enc.Bytes([]byte(setFixture))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ea.set")
	require.NoError(t, os.WriteFile(path, raw, 0644))

	s, err := ReadSetFile(path)
	require.NoError(t, err)

	lot, ok := s.LotSize()
	require.True(t, ok)
	assert.Equal(t, 0.01, lot)

	exp, ok := s.LotSizeExponent()
	require.True(t, ok)
	assert.Equal(t, 1.5, exp)

	ld, ok := s.LiveDelay()
	require.True(t, ok)
	assert.Equal(t, 2, ld)

	// keys are case-insensitive, values cut at the first "||"
	magic, ok := s.Value("magic_number")
	require.True(t, ok)
	assert.Equal(t, "0", magic)

	_, ok = s.Value("missing")
	assert.False(t, ok)
}

func TestReadSetFile_utf8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ea.set")
	require.NoError(t, os.WriteFile(path, []byte(setFixture), 0644))

	s, err := ReadSetFile(path)
	require.NoError(t, err)

	step, ok := s.PipStep()
	require.True(t, ok)
	assert.Equal(t, 25.0, step)
}

func TestReadSetFile_latin1(t *testing.T) {
	content := "; gr\xfcn\r\nLotSize=0.02\r\n"
	path := filepath.Join(t.TempDir(), "ea.set")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := ReadSetFile(path)
	require.NoError(t, err)

	lot, ok := s.LotSize()
	require.True(t, ok)
	assert.Equal(t, 0.02, lot)
}

func TestSet_preservesSuffix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ea.set")
	require.NoError(t, os.WriteFile(path, []byte(setFixture), 0644))

	s, err := ReadSetFile(path)
	require.NoError(t, err)

	require.True(t, s.Set("magic_number", "101"))
	require.False(t, s.Set("missing", "1"))

	out := filepath.Join(t.TempDir(), "patched.set")
	require.NoError(t, s.WriteToFile(out))

	patched, err := ReadSetFile(out)
	require.NoError(t, err)

	magic, ok := patched.Value("MAGIC_NUMBER")
	require.True(t, ok)
	assert.Equal(t, "101", magic)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "MAGIC_NUMBER=101||777||1||7770||N")
}

func TestWriteToFile_keepsUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, err := enc.Bytes([]byte(setFixture))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ea.set")
	require.NoError(t, os.WriteFile(path, raw, 0644))

	s, err := ReadSetFile(path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "copy.set")
	require.NoError(t, s.WriteToFile(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, len(data) >= 2)
	assert.Equal(t, byte(0xff), data[0])
	assert.Equal(t, byte(0xfe), data[1])
}
