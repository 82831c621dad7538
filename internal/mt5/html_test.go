package mt5

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const statementFixture = `<html><body>
<table>
<tr><td>Expert:</td><td>GridEA</td></tr>
<tr><td>Symbol:</td><td>EURUSD (Euro vs US Dollar)</td></tr>
<tr><td>Period:</td><td>M15 (2023.01.01 - 2023.06.30)</td></tr>
</table>
<table>
<tr><th>Time</th><th>Deal</th><th>Symbol</th><th>Type</th><th>Direction</th><th>Volume</th><th>Price</th><th>Order</th><th>Commission</th><th>Swap</th><th>Profit</th><th>Balance</th><th>Comment</th></tr>
<tr><td>2023.01.02 00:00:00</td><td>1</td><td></td><td>balance</td><td></td><td></td><td></td><td></td><td></td><td></td><td>100 000.00</td><td>100 000.00</td><td></td></tr>
<tr><td>2023.01.03 10:00:00</td><td>2</td><td>EURUSD</td><td>buy</td><td>in</td><td>0.10</td><td>1.06650</td><td>2</td><td>-0.70</td><td>0.00</td><td>0.00</td><td>100 000.00</td><td></td></tr>
<tr><td>not a time</td><td>3</td><td>EURUSD</td><td>buy</td><td>in</td><td>0.10</td><td>1.06650</td><td>3</td><td>0.00</td><td>0.00</td><td>0.00</td><td>100 000.00</td><td></td></tr>
<tr><td>2023.01.03 15:30:00</td><td>4</td><td>EURUSD</td><td>sell</td><td>out</td><td>0.10</td><td>1.07100</td><td>4</td><td>-0.70</td><td>-0.12</td><td>45.00</td><td>100 043.48</td><td>tp</td></tr>
<tr><td colspan="13">0 00:00:00</td></tr>
</table>
</body></html>`

func writeUTF16(t *testing.T, name, content string) string {
	t.Helper()

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, err := enc.Bytes([]byte(content))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func TestReadStatement(t *testing.T) {
	path := writeUTF16(t, "GridEA_EURUSD.htm", statementFixture)

	st, err := ReadStatement(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	assert.Equal(t, "GridEA_EURUSD.htm", st.Name)
	assert.Equal(t, "EURUSD", st.Symbol)
	require.Equal(t, 3, len(st.Deals))

	bal := st.Deals[0]
	assert.Equal(t, TypeBalance, bal.Type)
	assert.Equal(t, DirNone, bal.Direction)
	assert.True(t, decimal.NewFromInt(100000).Equal(bal.Profit))

	entry := st.Deals[1]
	assert.Equal(t, time.Date(2023, 1, 3, 10, 0, 0, 0, time.UTC), entry.Time)
	assert.Equal(t, TypeBuy, entry.Type)
	assert.Equal(t, DirIn, entry.Direction)
	assert.True(t, decimal.NewFromFloat(0.1).Equal(entry.Volume))
	assert.True(t, decimal.NewFromFloat(1.0665).Equal(entry.Price))
	assert.Equal(t, "GridEA_EURUSD.htm", entry.Report)

	exit := st.Deals[2]
	assert.Equal(t, DirOut, exit.Direction)
	assert.True(t, decimal.NewFromFloat(44.18).Equal(exit.NetPnL()))
}

func TestReadStatement_utf8PassThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.htm")
	require.NoError(t, os.WriteFile(path, []byte(statementFixture), 0644))

	st, err := ReadStatement(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, 3, len(st.Deals))
}

func TestReadStatement_headerless(t *testing.T) {
	fixture := `<html><body>
<table><tr><td>Symbol:</td><td>USDJPY</td></tr></table>
<table>
<tr><td>2023.02.01 09:00:00</td><td>1</td><td>USDJPY</td><td>sell</td><td>in</td><td>0.05</td><td>131.20</td><td>1</td><td>0.00</td><td>0.00</td><td>0.00</td><td>50 000.00</td><td></td></tr>
<tr><td>2023.02.01 11:00:00</td><td>2</td><td>USDJPY</td><td>buy</td><td>out</td><td>0.05</td><td>130.90</td><td>2</td><td>0.00</td><td>0.00</td><td>11.46</td><td>50 011.46</td><td></td></tr>
</table>
</body></html>`

	path := filepath.Join(t.TempDir(), "headerless.htm")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0644))

	st, err := ReadStatement(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	assert.Equal(t, "USDJPY", st.Symbol)
	require.Equal(t, 2, len(st.Deals))
	assert.Equal(t, TypeSell, st.Deals[0].Type)
	assert.Equal(t, DirIn, st.Deals[0].Direction)
	assert.Equal(t, DirOut, st.Deals[1].Direction)
}

func TestReadStatement_missingDealsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.htm")
	require.NoError(t, os.WriteFile(path, []byte("<html><body><table></table></body></html>"), 0644))

	_, err := ReadStatement(path, slog.New(slog.DiscardHandler))
	require.Error(t, err)
}

func TestParseCellDecimal(t *testing.T) {
	tbl := []struct {
		in   string
		want float64
		fail bool
	}{
		{in: "1 234.56", want: 1234.56},
		{in: "1 234.56", want: 1234.56},
		{in: "-0.70", want: -0.7},
		{in: "", want: 0},
		{in: "12x", fail: true},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			v, err := parseCellDecimal(c.in)
			if c.fail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.NewFromFloat(c.want).Equal(v))
		})
	}
}

func TestParseDirection(t *testing.T) {
	tbl := []struct {
		in   string
		want Direction
	}{
		{in: "in", want: DirIn},
		{in: "Out", want: DirOut},
		{in: " in/out ", want: DirInOut},
		{in: "", want: DirNone},
		{in: "garbage", want: DirNone},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, c.want, ParseDirection(c.in))
		})
	}
}
