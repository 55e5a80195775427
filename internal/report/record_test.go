package report

import (
	"errors"
	"fmt"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
)

// getMsg gets test input
func getMsg(t *testing.T, p int) string {

	body, err := ioutil.ReadFile("../../test_payloads.json")
	if err != nil {
		t.Fatalf("could not read payloads: %v", err)
	}

	path := fmt.Sprintf("cases.%v", p)
	res := gjson.GetManyBytes(body, path)

	return res[0].Raw
}

func TestParseResult(t *testing.T) {

	tt := []struct {
		name    string
		input   string
		payload int
		want    *Result
		err     string
	}{
		{name: "happy", payload: 0, want: &Result{
			UserName: "Kim", Score: 2, Total: 4, Timestamp: "2024-01-01T00:00:00Z",
			Results: []QuizResult{
				{Question: "오늘은 무슨 요일인가요?", UserAnswer: "월요일", CorrectAnswer: "월요일", IsCorrect: true},
				{Question: "100에서 7을 빼면?", UserAnswer: "94", CorrectAnswer: "93"},
			},
		}},
		{name: "missing_name", payload: 1, err: "missing value in payload: userName"},
		{name: "blank_name", input: `{"userName":"   ","score":1,"total":1}`, err: "missing value in payload: userName"},
		{name: "epoch_timestamp", input: `{"userName":"Choi","score":0,"total":3,"timestamp":1704067200000}`,
			want: &Result{UserName: "Choi", Total: 3, Timestamp: "1704067200000"}},
		{name: "not_json", input: `userName=Kim`, err: "not a JSON object"},
		{name: "array", input: `[{"userName":"Kim"}]`, err: "not a JSON object"},
		{name: "empty", input: ``, err: "empty request body"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			in := tc.input
			if in == "" && tc.name != "empty" {
				in = getMsg(t, tc.payload)
			}

			got, err := ParseResult(in)
			if tc.err != "" {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got: %v", err)
				}
				if msg := err.Error(); !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSession(t *testing.T) {

	tt := []struct {
		name  string
		input int
		want  *Session
		err   string
	}{
		{name: "happy", input: 2, want: &Session{
			UserName:  "Lee",
			SessionID: "sess-20240301-01",
			StartedAt: "2024-03-01T05:10:00Z",
			EndedAt:   "2024-03-01T05:25:30Z",
			Hwatu: Hwatu{
				Picked:        []Card{{Month: 1, Name: "송학"}, {Month: 3, Name: "벚꽃"}, {Name: "난초"}},
				RecallPicked:  []Card{{Month: 1, Name: "송학"}, {Month: 3, Name: "벚꽃"}},
				RecallCorrect: 2,
				RecallTotal:   3,
			},
			Word: Quiz{Score: 1, Total: 2, Results: []QuizResult{
				{Question: "사과", UserAnswer: "apple", CorrectAnswer: "apple", IsCorrect: true},
				{Question: "바다", UserAnswer: "sky", CorrectAnswer: "sea"},
			}},
			Dementia: Quiz{Score: 1, Total: 1, Results: []QuizResult{
				{Question: "지금 계절은?", UserAnswer: "봄", CorrectAnswer: "봄", IsCorrect: true},
			}},
		}},
		{name: "missing_session", input: 3, err: "missing value in payload: sessionId"},
		{name: "minimal", input: 4, want: &Session{
			UserName: "Park", SessionID: "sess-min", StartedAt: "yesterday afternoon",
		}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			got, err := ParseSession(getMsg(t, tc.input))
			if tc.err != "" {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got: %v", err)
				}
				if msg := err.Error(); !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("session mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMode(t *testing.T) {

	for in, want := range map[string]Mode{"snapshot": Snapshot, "Cumulative": Cumulative} {
		got, err := ParseMode(in)
		if err != nil {
			t.Errorf("unexpected error for %v: %v", in, err)
		}
		if got != want {
			t.Errorf("expected %v, got %v", want, got)
		}
	}

	if _, err := ParseMode("weekly"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}
