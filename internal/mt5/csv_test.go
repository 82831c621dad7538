package mt5

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTradesCSV(t *testing.T) {
	content := "Time,Deal,Symbol,Type,Direction,Volume,Price,Order,Commission,Swap,Profit,Balance,Comment,SequenceNumber,TradeNumberInSequence\n" +
		"2023.01.03 10:00:00,2,EURUSD,buy,in,0.10,1.06650,2,-0.70,0.00,0.00,100000.00,,1,1\n" +
		"2023.01.03 12:00:00,3,EURUSD,buy,in,0.15,1.06400,3,-0.70,0.00,0.00,100000.00,,1,2\n" +
		"2023.01.03 15:30:00,4,EURUSD,sell,out,0.25,1.07100,4,-1.40,0.00,145.00,100142.20,,1,\n"

	path := filepath.Join(t.TempDir(), "all_trades_GridEA_EURUSD.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rows, err := ReadTradesCSV(path)
	require.NoError(t, err)
	require.Equal(t, 3, len(rows))

	assert.Equal(t, time.Date(2023, 1, 3, 10, 0, 0, 0, time.UTC), rows[0].Time)
	assert.Equal(t, 1, rows[0].Sequence)
	assert.Equal(t, 1, rows[0].EntryIndex)
	assert.Equal(t, 2, rows[1].EntryIndex)
	assert.True(t, decimal.NewFromFloat(1.064).Equal(rows[1].Price))

	exit := rows[2]
	assert.Equal(t, DirOut, exit.Direction)
	assert.Equal(t, 1, exit.Sequence)
	assert.Equal(t, 0, exit.EntryIndex)
	assert.True(t, decimal.NewFromFloat(143.6).Equal(exit.NetPnL()))
}

func TestReadTradesCSV_badRow(t *testing.T) {
	content := "Time,Deal,Symbol,Type,Direction,Volume,Price,Order,Commission,Swap,Profit,Balance,Comment,SequenceNumber,TradeNumberInSequence\n" +
		"nope,2,EURUSD,buy,in,0.10,1.06650,2,-0.70,0.00,0.00,100000.00,,1,1\n"

	path := filepath.Join(t.TempDir(), "all_trades_bad.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := ReadTradesCSV(path)
	require.Error(t, err)
}
