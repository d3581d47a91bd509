package selector

import (
	"errors"
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/jvlake/inspector/pkg/partition"
)

func seq(refs ...partition.DataFileRef) iter.Seq2[partition.DataFileRef, error] {
	return func(yield func(partition.DataFileRef, error) bool) {
		for _, r := range refs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func ref(p, name string) partition.DataFileRef {
	return partition.DataFileRef{Path: p + "/" + name, Name: name}
}

func TestLake_Selector_SelectLatest_PicksGreatestName(t *testing.T) {
	t.Parallel()

	res, err := SelectLatest(seq(
		ref("day=13", "20250713_RACE.parquet"),
		ref("day=20", "20250720_RACE.parquet"),
		ref("day=20", "20250720_SE.parquet"),
		ref("day=14", "20250714_RACE.parquet"),
	), "RACE")
	require.NoError(t, err)
	require.Equal(t, "20250720_RACE.parquet", res.Latest.Name)
	require.Equal(t, 4, res.Discovered)
	require.Equal(t, 3, res.Matched)
}

func TestLake_Selector_SelectLatest_IsIdempotentAndOrderIndependent(t *testing.T) {
	t.Parallel()

	refs := []partition.DataFileRef{
		ref("a", "RACE.parquet"),
		ref("b", "RACE.parquet"),
		ref("c", "20250101_RACE.parquet"),
	}
	first, err := SelectLatest(seq(refs...), "RACE")
	require.NoError(t, err)

	again, err := SelectLatest(seq(refs...), "RACE")
	require.NoError(t, err)
	require.Equal(t, first, again)

	reversed := slices.Clone(refs)
	slices.Reverse(reversed)
	other, err := SelectLatest(seq(reversed...), "RACE")
	require.NoError(t, err)
	require.Equal(t, first.Latest, other.Latest)
	require.Equal(t, "b/RACE.parquet", first.Latest.Path)
}

func TestLake_Selector_SelectLatest_NoFiles(t *testing.T) {
	t.Parallel()

	_, err := SelectLatest(seq(), "RACE")
	require.ErrorIs(t, err, ErrNoFiles)
	require.NotErrorIs(t, err, ErrNoMatchingFiles)
}

func TestLake_Selector_SelectLatest_NoMatchingFiles(t *testing.T) {
	t.Parallel()

	res, err := SelectLatest(seq(ref("d", "20250101_SE.parquet")), "RACE")
	require.ErrorIs(t, err, ErrNoMatchingFiles)
	require.NotErrorIs(t, err, ErrNoFiles)
	require.Equal(t, 1, res.Discovered)
	require.Zero(t, res.Matched)
}

func TestLake_Selector_SelectLatest_PropagatesWalkErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	files := func(yield func(partition.DataFileRef, error) bool) {
		if !yield(ref("d", "a_RACE.parquet"), nil) {
			return
		}
		yield(partition.DataFileRef{}, boom)
	}
	res, err := SelectLatest(files, "RACE")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, res.Discovered)
}
