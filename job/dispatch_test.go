package job

import (
	"sort"
	"testing"

	"github.com/grailbio/gani/internal/ioutil"
	"github.com/stretchr/testify/assert"
)

func TestDispatchVisitsEveryIndexExactlyOnce(t *testing.T) {
	const n = 50
	sink := ioutil.NewRowSink()
	progress := ioutil.NewProgressCounter("test")

	Dispatch(n, 4, sink, progress, func(i int) []ioutil.Row {
		return []ioutil.Row{{QueryFile: "q", RefFile: string(rune('a' + i%26))}}
	})

	assert.Len(t, sink.Rows(), n)
	assert.EqualValues(t, n, progress.Count())
}

func TestDispatchSingleThread(t *testing.T) {
	sink := ioutil.NewRowSink()
	var seen []int
	Dispatch(5, 1, sink, nil, func(i int) []ioutil.Row {
		seen = append(seen, i)
		return nil
	})
	sort.Ints(seen)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)
}

func TestDispatchZeroItemsNoop(t *testing.T) {
	sink := ioutil.NewRowSink()
	Dispatch(0, 4, sink, nil, func(i int) []ioutil.Row {
		t.Fatal("fn should not be called for n=0")
		return nil
	})
	assert.Empty(t, sink.Rows())
}
