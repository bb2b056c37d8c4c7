package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/jsontables/internal/flatten"
	"github.com/dbsmedya/jsontables/internal/jsonvalue"
	"github.com/dbsmedya/jsontables/internal/types"
)

func table(t *testing.T, doc string) *types.FlatTable {
	t.Helper()
	return flatten.FlattenValue(jsonvalue.MustDecode(doc))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2021-03-04T10:20:30Z", time.Date(2021, 3, 4, 10, 20, 30, 0, time.UTC), true},
		{"2021-03-04 10:20:30", time.Date(2021, 3, 4, 10, 20, 30, 0, time.UTC), true},
		{"2021-03-04", time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"2021/03/04", time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"hello", time.Time{}, false},
		{"12345", time.Time{}, false},
		{"", time.Time{}, false},
		{"not-a-date-1", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvert_DateColumn(t *testing.T) {
	ft := table(t, `[
		{"id":1,"hired":"2020-01-15","name":"a"},
		{"id":2,"hired":"2019-07-01","name":"b"},
		{"id":3,"name":"c"}
	]`)

	converted := Convert(ft, 0.5)
	assert.Equal(t, []string{"hired"}, converted)

	hired, _ := ft.Column("hired")
	require.True(t, hired.IsDate())
	assert.Equal(t, "2020-01-15", hired.Text(0))
	assert.True(t, hired.IsMissing(2))

	name, _ := ft.Column("name")
	assert.False(t, name.IsDate())
}

func TestConvert_BelowThreshold(t *testing.T) {
	ft := table(t, `[{"d":"2020-01-15"},{"d":"soon"},{"d":"later"},{"d":"never"}]`)

	assert.Empty(t, Convert(ft, 0.5))
	d, _ := ft.Column("d")
	assert.False(t, d.IsDate())
}

func TestConvert_AtThresholdDropsUnparsed(t *testing.T) {
	ft := table(t, `[{"d":"2020-01-15 08:30:00"},{"d":"unknown"}]`)

	assert.Equal(t, []string{"d"}, Convert(ft, 0.5))
	d, _ := ft.Column("d")
	assert.Equal(t, "2020-01-15 08:30:00", d.Text(0))
	assert.True(t, d.IsMissing(1))
	assert.Equal(t, "", d.Text(1))
}

func TestConvert_SkipsNonStringColumns(t *testing.T) {
	ft := table(t, `[{"n":20200115,"m":"2020-01-15"},{"n":"2020-01-16","m":{"x":1}}]`)

	converted := Convert(ft, 0.5)
	assert.NotContains(t, converted, "n")
	assert.Contains(t, converted, "m")
}

func TestConvert_EmptyTable(t *testing.T) {
	assert.Nil(t, Convert(types.NewFlatTable(0), 0.5))
}

func TestConvert_InvalidRatioUsesDefault(t *testing.T) {
	ft := table(t, `[{"d":"2020-01-15"},{"d":"x"},{"d":"y"}]`)
	// One of three rows parses, below the default ratio.
	assert.Empty(t, Convert(ft, 0))
}
