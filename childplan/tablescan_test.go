package childplan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftdb/gather/rowenc"
)

func buildTable(n int) *Table {
	rows := make([]rowenc.Tuple, n)
	for i := 0; i < n; i++ {
		rows[i] = rowenc.Tuple{i}
	}
	return &Table{Rows: rows}
}

func scanAll(t *testing.T, s *TableScan) []int {
	t.Helper()
	ctx := context.Background()
	var got []int
	for {
		tuple, err := s.Next(ctx)
		require.NoError(t, err)
		if tuple == nil {
			return got
		}
		got = append(got, tuple[0].(int))
	}
}

func TestPartitionsCoverTheTableExactlyOnce(t *testing.T) {
	table := buildTable(17)
	const numPartitions = 5

	seen := make(map[int]int)
	for p := 0; p < numPartitions; p++ {
		scan := NewPartition(table, numPartitions, p)
		for _, v := range scanAll(t, scan) {
			seen[v]++
		}
	}
	for i := 0; i < 17; i++ {
		require.Equalf(t, 1, seen[i], "row %d covered %d times", i, seen[i])
	}
}

func TestFullScanReturnsEveryRowInOrder(t *testing.T) {
	table := buildTable(5)
	scan := NewFullScan(table)
	require.Equal(t, []int{0, 1, 2, 3, 4}, scanAll(t, scan))
}

func TestRescanRepeatsFromStartOfPartition(t *testing.T) {
	table := buildTable(10)
	scan := NewPartition(table, 2, 1)
	first := scanAll(t, scan)
	require.NoError(t, scan.Rescan(context.Background()))
	require.Equal(t, first, scanAll(t, scan))
}

func TestEmptyPartitionIsWellFormed(t *testing.T) {
	table := buildTable(2)
	// More partitions than rows: the tail partitions must be empty, not
	// panic or return out-of-range rows.
	scan := NewPartition(table, 5, 4)
	require.Empty(t, scanAll(t, scan))
}
