// Package report parses quiz session payloads and renders them as plain text.
package report

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

// Mode selects how a session is rendered and stored
type Mode int

const (
	// Snapshot writes one report per session to its own file
	Snapshot Mode = iota
	// Cumulative prepends every session to one shared log file
	Cumulative
)

func (m Mode) String() string {
	switch m {
	case Snapshot:
		return "snapshot"
	case Cumulative:
		return "cumulative"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a mode name to a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "snapshot":
		return Snapshot, nil
	case "cumulative":
		return Cumulative, nil
	}
	return 0, fmt.Errorf("unknown report mode %q", s)
}

// ValidationError is returned for unreadable or incomplete payloads
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// QuizResult is a single answered question
type QuizResult struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// Result is a snapshot quiz submission
type Result struct {
	UserName string `json:"userName" validate:"required"`
	Score    int    `json:"score"`
	Total    int    `json:"total"`
	Results  []QuizResult
	// Timestamp is kept raw so unparseable values can be echoed back
	Timestamp string `json:"timestamp"`
}

// Card is a hwatu card shown or recalled during the memory game
type Card struct {
	Month int
	Name  string
}

// Label renders a card for the report
func (c Card) Label() string {
	switch {
	case c.Month > 0 && c.Name != "":
		return fmt.Sprintf("%d월 %s", c.Month, c.Name)
	case c.Month > 0:
		return fmt.Sprintf("%d월", c.Month)
	}
	return c.Name
}

// Hwatu is the card recall activity
type Hwatu struct {
	Picked        []Card
	RecallPicked  []Card
	RecallCorrect int
	RecallTotal   int
}

// Quiz is a scored question activity
type Quiz struct {
	Score   int
	Total   int
	Results []QuizResult
}

// Session is a cumulative log submission
type Session struct {
	UserName  string `json:"userName" validate:"required"`
	SessionID string `json:"sessionId" validate:"required"`
	StartedAt string
	EndedAt   string
	Hwatu     Hwatu
	Word      Quiz
	Dementia  Quiz
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// check validates required identity fields
func check(s interface{}) error {

	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Msg: fmt.Sprintf("invalid payload: %v", err)}
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Msg: fmt.Sprintf("missing value in payload: %v", strings.Join(fields, ", "))}
}

// checkBody ensures the body is a JSON object
func checkBody(input string) error {
	if strings.TrimSpace(input) == "" {
		return &ValidationError{Msg: "empty request body"}
	}
	if !gjson.Valid(input) || !gjson.Parse(input).IsObject() {
		return &ValidationError{Msg: "request body is not a JSON object"}
	}
	return nil
}

// ParseResult gets values from an inbound snapshot submission
func ParseResult(input string) (*Result, error) {

	if err := checkBody(input); err != nil {
		return nil, err
	}

	r := &Result{
		UserName:  strings.TrimSpace(gjson.Get(input, "userName").String()),
		Score:     int(gjson.Get(input, "score").Int()),
		Total:     int(gjson.Get(input, "total").Int()),
		Results:   parseResults(gjson.Get(input, "results")),
		Timestamp: parseTimestamp(gjson.Get(input, "timestamp")),
	}

	if err := check(r); err != nil {
		return nil, err
	}

	return r, nil
}

// ParseSession gets values from an inbound cumulative submission
func ParseSession(input string) (*Session, error) {

	if err := checkBody(input); err != nil {
		return nil, err
	}

	s := &Session{
		UserName:  strings.TrimSpace(gjson.Get(input, "userName").String()),
		SessionID: strings.TrimSpace(gjson.Get(input, "sessionId").String()),
		StartedAt: parseTimestamp(gjson.Get(input, "startedAt")),
		EndedAt:   parseTimestamp(gjson.Get(input, "endedAt")),
	}

	if err := check(s); err != nil {
		return nil, err
	}

	h := gjson.Get(input, "hwatu")
	s.Hwatu = Hwatu{
		Picked:        parseCards(h.Get("picked")),
		RecallPicked:  parseCards(h.Get("recallPicked")),
		RecallCorrect: int(h.Get("recallCorrect").Int()),
		RecallTotal:   int(h.Get("recallTotal").Int()),
	}
	s.Word = parseQuiz(gjson.Get(input, "word"))
	s.Dementia = parseQuiz(gjson.Get(input, "dementia"))

	return s, nil
}

func parseQuiz(g gjson.Result) Quiz {
	return Quiz{
		Score:   int(g.Get("score").Int()),
		Total:   int(g.Get("total").Int()),
		Results: parseResults(g.Get("results")),
	}
}

func parseResults(g gjson.Result) []QuizResult {
	var rs []QuizResult
	g.ForEach(func(_, value gjson.Result) bool {
		rs = append(rs, QuizResult{
			Question:      value.Get("question").String(),
			UserAnswer:    value.Get("userAnswer").String(),
			CorrectAnswer: value.Get("correctAnswer").String(),
			IsCorrect:     value.Get("isCorrect").Bool(),
		})
		return true
	})
	return rs
}

// parseCards accepts plain labels or objects carrying a month and a name
func parseCards(g gjson.Result) []Card {
	var cs []Card
	g.ForEach(func(_, value gjson.Result) bool {
		var c Card
		switch {
		case value.Type == gjson.String:
			c.Name = value.Str
		case value.Type == gjson.Number:
			c.Month = int(value.Int())
		case value.IsObject():
			c.Month = int(value.Get("month").Int())
			for _, k := range []string{"name", "label", "type"} {
				if n := value.Get(k); n.Exists() {
					c.Name = n.String()
					break
				}
			}
		}
		cs = append(cs, c)
		return true
	})
	return cs
}

// parseTimestamp keeps the raw value, numbers are epoch milliseconds
func parseTimestamp(g gjson.Result) string {
	switch g.Type {
	case gjson.String:
		return g.Str
	case gjson.Number:
		return g.Raw
	}
	return ""
}
