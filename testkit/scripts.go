package testkit

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed scripts/*.script
var scriptFiles embed.FS

func loadScript(name string) string {
	data, err := scriptFiles.ReadFile("scripts/" + name)
	if err != nil {
		panic(fmt.Sprintf("missing stub script %s: %s", name, err))
	}
	return string(data)
}

// nestedQuery is one level of a nested iteration: a query whose records are the integers from
// From to To.
type nestedQuery struct {
	Query    string
	From, To int
}

func (q nestedQuery) values() []int {
	var ret []int
	for v := q.From; v <= q.To; v++ {
		ret = append(ret, v)
	}
	return ret
}

// nestedIterationScript writes the script for a transaction that iterates the first query and,
// for every record, runs and iterates the next one, and so on down the levels. The driver is
// expected to pull fetchSize records at a time, and only when a result has no buffered records
// left.
func nestedIterationScript(fetchSize int, levels []nestedQuery) string {
	var b strings.Builder
	b.WriteString("!: BOLT 4.4\n!: AUTO HELLO\n!: AUTO RESET\n!: AUTO GOODBYE\n\n")
	b.WriteString("C: BEGIN \"*\"\nS: SUCCESS {}\n")

	server := func(lines ...string) {
		for i, l := range lines {
			if i == 0 {
				b.WriteString("S: ")
			} else {
				b.WriteString("   ")
			}
			b.WriteString(l + "\n")
		}
	}
	pull := func() {
		fmt.Fprintf(&b, "C: PULL {\"n\": %d, \"[qid]\": \"*\"}\n", fetchSize)
	}

	qid := 0
	var iterate func(level int)
	iterate = func(level int) {
		q := levels[level]
		values := q.values()
		id := qid
		qid++
		fmt.Fprintf(&b, "C: RUN %q {} \"*\"\n", q.Query)
		pull()
		server(append([]string{fmt.Sprintf(`SUCCESS {"fields": ["x"], "qid": %d}`, id)}, batch(values, 0, fetchSize)...)...)
		for i := range values {
			if i > 0 && i%fetchSize == 0 {
				pull()
				server(batch(values, i, fetchSize)...)
			}
			if level+1 < len(levels) {
				iterate(level + 1)
			}
		}
	}
	iterate(0)

	b.WriteString("C: COMMIT\nS: SUCCESS {\"bookmark\": \"bookmark:1\"}\n")
	return b.String()
}

// batch is the answer to one PULL starting at index start: its records and the summary.
func batch(values []int, start, fetchSize int) []string {
	end := start + fetchSize
	if end > len(values) {
		end = len(values)
	}
	var lines []string
	for _, v := range values[start:end] {
		lines = append(lines, fmt.Sprintf("RECORD [%d]", v))
	}
	if end < len(values) {
		return append(lines, `SUCCESS {"has_more": true}`)
	}
	return append(lines, `SUCCESS {"type": "r"}`)
}
