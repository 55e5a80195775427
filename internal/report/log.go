package report

import (
	"regexp"
	"fmt"
	"strconv"
	"strings"
)

// Ratio is a correct/total pair read back from a log block
type Ratio struct {
	Correct int
	Total   int
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d / %d", r.Correct, r.Total)
}

// Entry summarises one block of the cumulative log
type Entry struct {
	SessionID string
	UserName  string
	Recall    Ratio
	Word      Ratio
	Dementia  Ratio
}

var (
	startLine = regexp.MustCompile(`^===== 세션 (.*) =====$`)
	ratioLine = regexp.MustCompile(`^(?:정답|점수): (-?\d+) / (-?\d+) \(`)
)

// Merge inserts block directly after the log header, so the newest block comes first.
// Content that lost its header keeps its text below a fresh header.
func Merge(existing, block string) string {
	switch {
	case existing == "":
		return LogHeader + block
	case strings.HasPrefix(existing, LogHeader):
		return LogHeader + block + existing[len(LogHeader):]
	}
	return LogHeader + block + existing
}

// ParseLog reads every block of a cumulative log, in file order
func ParseLog(log string) []Entry {

	var (
		out     []Entry
		cur     *Entry
		section string
	)

	for _, line := range strings.Split(log, "\n") {
		line = strings.TrimRight(line, "\r")

		if m := startLine.FindStringSubmatch(line); m != nil {
			cur = &Entry{SessionID: m[1]}
			section = ""
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case line == blockEnd:
			out = append(out, *cur)
			cur = nil
		case strings.HasPrefix(line, "이름: ") && section == "":
			cur.UserName = strings.TrimPrefix(line, "이름: ")
		case line == hwatuSection || line == wordSection || line == dementiaSection:
			section = line
		default:
			m := ratioLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			n, _ := strconv.Atoi(m[1])
			t, _ := strconv.Atoi(m[2])
			r := Ratio{Correct: n, Total: t}
			switch section {
			case hwatuSection:
				cur.Recall = r
			case wordSection:
				cur.Word = r
			case dementiaSection:
				cur.Dementia = r
			}
		}
	}

	return out
}
