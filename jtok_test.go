package jtok

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	Start, End int
	Info       Info
}

func collect(input []byte) ([]event, int) {
	var events []event
	ret := Parse(input, 0, func(start, end int, info Info) int {
		events = append(events, event{start, end, info})
		return 1
	})
	return events, ret
}

func TestParseScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   []event
		retLen int
	}{
		{
			name:   "string",
			input:  `"hi"`,
			want:   []event{{0, 4, String | Value}},
			retLen: 4,
		},
		{
			name:  "array of numbers",
			input: `[1,2,3]`,
			want: []event{
				{0, 1, Array | Open},
				{1, 2, Number | Value},
				{3, 4, Number | Value},
				{5, 6, Number | Value},
				{6, 7, Array | Close},
			},
			retLen: 7,
		},
		{
			name:  "object with bool",
			input: `{"a":true}`,
			want: []event{
				{0, 1, Object | Open},
				{1, 4, String | Key},
				{5, 9, True | Value},
				{9, 10, Object | Close},
			},
			retLen: 10,
		},
		{
			name:  "multi-byte UTF-8 string value",
			input: `{"k":"é"}`,
			want: []event{
				{0, 1, Object | Open},
				{1, 4, String | Key},
				{5, 9, String | Value},
				{9, 10, Object | Close},
			},
			retLen: 10,
		},
		{
			name:  "plain string value",
			input: `{"k":"ok"}`,
			want: []event{
				{0, 1, Object | Open},
				{1, 4, String | Key},
				{5, 9, String | Value},
				{9, 10, Object | Close},
			},
			retLen: 10,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ret := collect([]byte(tc.input))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse(%q) events mismatch (-want +got):\n%s", tc.input, diff)
			}
			assert.Equal(t, tc.retLen, ret)
		})
	}
}

func TestParseRejectsUnpairedHighSurrogate(t *testing.T) {
	t.Parallel()
	ret := Parse([]byte(`{"k":"\uD83D"}`), 0, func(start, end int, info Info) int { return 1 })
	require.Less(t, ret, 0)
	offset, ok := OffsetOf(ret)
	require.True(t, ok)
	assert.Greater(t, offset, 5)
	assert.Less(t, offset, len(`{"k":"\uD83D"}`))
}

func TestParseRejectsLoneLowSurrogate(t *testing.T) {
	t.Parallel()
	ret := Parse([]byte(`{"k":"\uDC00"}`), 0, func(start, end int, info Info) int { return 1 })
	require.Less(t, ret, 0)
	offset, ok := OffsetOf(ret)
	require.True(t, ok)
	assert.Greater(t, offset, 5)
	assert.Less(t, offset, len(`{"k":"\uDC00"}`))
}

func TestParseObserverStop(t *testing.T) {
	t.Parallel()

	input := []byte(`{"a":1,"b":2}`)
	var events []event
	ret := Parse(input, 0, func(start, end int, info Info) int {
		events = append(events, event{start, end, info})
		if info.Is(String | Key) {
			return 0
		}
		return 1
	})
	require.Len(t, events, 2)
	assert.Equal(t, events[len(events)-1].End, ret)
}

func TestParseObserverError(t *testing.T) {
	t.Parallel()

	ret := Parse([]byte(`[1,2,3]`), 0, func(start, end int, info Info) int {
		if info.Kind() == Number {
			return -42
		}
		return 1
	})
	assert.Equal(t, -42, ret)
}

func TestParseRejectsTrailingComma(t *testing.T) {
	t.Parallel()

	for _, input := range []string{`[1,]`, `{"a":1,}`} {
		_, ret := collect([]byte(input))
		assert.Lessf(t, ret, 0, "input %q should be rejected", input)
	}
}

func TestParseRejectsBadNegative(t *testing.T) {
	t.Parallel()
	_, ret := collect([]byte(`-x`))
	assert.Less(t, ret, 0)
}

func TestParseRejectsMissingExponentDigits(t *testing.T) {
	t.Parallel()
	for _, input := range []string{`1e`, `1e+`, `1e-`} {
		_, ret := collect([]byte(input))
		assert.Lessf(t, ret, 0, "input %q should be rejected", input)
	}
}

func TestParseRejectsLeadingZeroDigit(t *testing.T) {
	t.Parallel()
	_, ret := collect([]byte(`[01]`))
	assert.Less(t, ret, 0)
}

func TestParseDepthLimit(t *testing.T) {
	t.Parallel()

	input := make([]byte, 0, 20)
	for i := 0; i < 10; i++ {
		input = append(input, '[')
	}
	for i := 0; i < 10; i++ {
		input = append(input, ']')
	}

	var opens int
	ret := ParseDepth(input, 0, func(start, end int, info Info) int {
		if info.Is(Array | Open) {
			opens++
		}
		return 1
	}, 5)
	assert.Less(t, ret, 0)
	assert.LessOrEqual(t, opens, 5)
}

func TestParseSpanContainment(t *testing.T) {
	t.Parallel()

	input := []byte(`{"a":[1,2,{"b":"c"}],"d":null,"e":false,"f":3.14e-2}`)
	events, ret := collect(input)
	require.Greater(t, ret, 0)
	for _, e := range events {
		assert.GreaterOrEqualf(t, e.Start, 0, "event %+v", e)
		assert.LessOrEqualf(t, e.Start, e.End, "event %+v", e)
		assert.LessOrEqualf(t, e.End, len(input), "event %+v", e)
	}
}

func TestParseMonotonicEmission(t *testing.T) {
	t.Parallel()

	input := []byte(`{"a":[1,2,{"b":"c"}],"d":null,"e":false,"f":3.14e-2}`)
	events, _ := collect(input)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqualf(t, events[i].Start, events[i-1].Start, "events[%d] vs events[%d]", i, i-1)
	}
}

func TestParseBracketBalance(t *testing.T) {
	t.Parallel()

	input := []byte(`[1,[2,[3],4],{"a":{"b":[]}}]`)
	events, ret := collect(input)
	require.Greater(t, ret, 0)

	var depth int
	for _, e := range events {
		switch {
		case e.Info.Is(Open):
			depth++
		case e.Info.Is(Close):
			depth--
			require.GreaterOrEqual(t, depth, 0)
		}
	}
	assert.Equal(t, 0, depth)
}

func TestParseObjectAlternation(t *testing.T) {
	t.Parallel()

	input := []byte(`{"a":1,"b":2,"c":3}`)
	events, _ := collect(input)
	require.Len(t, events, 8) // open, 3x(key,value), close
	for i := 1; i < 7; i += 2 {
		assert.Truef(t, events[i].Info.Is(String|Key), "events[%d] = %v, want key", i, events[i].Info)
		assert.Falsef(t, events[i+1].Info.Is(String|Key), "events[%d] = %v, want value", i+1, events[i+1].Info)
	}
}

func TestParseNonAllocation(t *testing.T) {
	input := []byte(`{"a":[1,2,3.5,true,false,null,"str"],"b":{"c":"d"}}`)
	observe := func(start, end int, info Info) int { return 1 }

	allocs := testing.AllocsPerRun(100, func() {
		Parse(input, 0, observe)
	})
	assert.Equal(t, float64(0), allocs)
}

func TestParseRejectsNegativeStart(t *testing.T) {
	t.Parallel()
	ret := Parse([]byte(`"hi"`), -1, func(start, end int, info Info) int { return 1 })
	require.Less(t, ret, 0)
	_, ok := OffsetOf(ret)
	assert.True(t, ok)
}

func TestOffsetOf(t *testing.T) {
	t.Parallel()
	offset, ok := OffsetOf(-1)
	require.True(t, ok)
	assert.Equal(t, 0, offset)

	_, ok = OffsetOf(5)
	assert.False(t, ok)
}

func TestInfoString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "string+key", (String | Key).String())
	assert.Equal(t, "array+open", (Array | Open).String())
	assert.Equal(t, "number+value", (Number | Value).String())
}
