package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMergeIntoEmptyLog(t *testing.T) {

	block := "===== 세션 s1 =====\n===== 끝 =====\n\n"

	if got, want := Merge("", block), LogHeader+block; got != want {
		t.Errorf("expected header plus one block, got:\n%q", got)
	}
}

func TestMergeOrdersNewestFirst(t *testing.T) {

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	log := ""
	n := 5

	for i := 0; i < n; i++ {
		s := &Session{
			UserName:  "Lee",
			SessionID: fmt.Sprintf("sess-%d", i),
			Hwatu:     Hwatu{RecallCorrect: i, RecallTotal: n},
			Word:      Quiz{Score: i, Total: 10},
			Dementia:  Quiz{Score: n - i, Total: n},
		}
		log = Merge(log, FormatSession(s, start.Add(time.Duration(i)*time.Minute)))
	}

	if !strings.HasPrefix(log, LogHeader) {
		t.Fatalf("expected log to start with header")
	}
	if c := strings.Count(log, LogHeader); c != 1 {
		t.Errorf("expected one header, got %d", c)
	}

	var want []Entry
	for i := n - 1; i >= 0; i-- {
		want = append(want, Entry{
			SessionID: fmt.Sprintf("sess-%d", i),
			UserName:  "Lee",
			Recall:    Ratio{Correct: i, Total: n},
			Word:      Ratio{Correct: i, Total: 10},
			Dementia:  Ratio{Correct: n - i, Total: n},
		})
	}

	if diff := cmp.Diff(want, ParseLog(log)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeWithoutHeader(t *testing.T) {

	legacy := "old notes\n"
	block := "===== 세션 s2 =====\n===== 끝 =====\n\n"

	got := Merge(legacy, block)
	if got != LogHeader+block+legacy {
		t.Errorf("expected legacy text kept below new block, got:\n%q", got)
	}
}

func TestParseLogIgnoresIncompleteBlocks(t *testing.T) {

	log := LogHeader +
		"===== 세션 cut =====\n이름: A\n\n" +
		"===== 세션 ok =====\n이름: B\n\n[단어 퀴즈]\n점수: 3 / 4 (75%)\n===== 끝 =====\n\n" +
		"stray text\n===== 끝 =====\n"

	got := ParseLog(log)
	want := []Entry{{SessionID: "ok", UserName: "B", Word: Ratio{Correct: 3, Total: 4}}}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestRatioString(t *testing.T) {
	if got := (Ratio{Correct: 2, Total: 3}).String(); got != "2 / 3" {
		t.Errorf("expected 2 / 3, got %q", got)
	}
}
