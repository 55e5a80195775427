package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	// embedded zone data, Lambda images do not ship /usr/share/zoneinfo
	_ "time/tzdata"
)

const (
	// LogHeader opens the cumulative log, newest block follows directly after it
	LogHeader = "치매예방 활동 기록\n========================\n최근 기록이 위에 표시됩니다.\n\n"

	// LogTitle is the knowledge document title of the cumulative log
	LogTitle = "치매예방활동기록"

	blockStart = "===== 세션 %s ====="
	blockEnd   = "===== 끝 ====="

	hwatuSection    = "[화투 기억하기]"
	wordSection     = "[단어 퀴즈]"
	dementiaSection = "[치매 예방 퀴즈]"

	none = "기록 없음"
)

var seoul = loadSeoul()

func loadSeoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Percent rounds score/total to the nearest whole percent, zero when total is not positive
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	// floor(x + 0.5) in integers
	n := 200*score + total
	d := 2 * total
	q := n / d
	if n%d != 0 && n < 0 {
		q--
	}
	return q
}

// KoreanTime renders t in Asia/Seoul the way ko-KR locales print date and time
func KoreanTime(t time.Time) string {
	t = t.In(seoul)
	half := "오전"
	if t.Hour() >= 12 {
		half = "오후"
	}
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d. %d. %d. %s %d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), half, h, t.Minute(), t.Second())
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime reads RFC 3339 style strings and epoch milliseconds
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	for _, l := range layouts {
		// zoneless layouts are read as Seoul wall time
		if t, err := time.ParseInLocation(l, raw, seoul); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders a raw timestamp, falling back to the raw value when unreadable
func FormatTime(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "-"
	}
	t, ok := ParseTime(raw)
	if !ok {
		return raw
	}
	return KoreanTime(t)
}

// FormatResult renders a snapshot report
func FormatResult(r *Result) string {

	details := make([]string, 0, len(r.Results))
	for i, q := range r.Results {
		details = append(details, fmt.Sprintf("문제 %d\n질문: %s\n선택: %s\n정답: %s\n결과: %s",
			i+1, q.Question, q.UserAnswer, q.CorrectAnswer, verdict(q.IsCorrect)))
	}

	var b strings.Builder
	b.WriteString("치매예방 퀴즈 결과\n")
	b.WriteString("========================\n")
	fmt.Fprintf(&b, "이름: %s\n", r.UserName)
	fmt.Fprintf(&b, "점수: %d / %d\n", r.Score, r.Total)
	fmt.Fprintf(&b, "정답률: %d%%\n", Percent(r.Score, r.Total))
	fmt.Fprintf(&b, "응답 시간: %s\n", FormatTime(r.Timestamp))
	b.WriteString("\n상세 결과\n")
	b.WriteString("------------------------\n")
	b.WriteString(strings.Join(details, "\n\n"))

	return strings.TrimSpace(b.String())
}

// ResultTitle is the knowledge document title of a snapshot report
func ResultTitle(userName string) string {
	return userName + "_치매예방퀴즈결과"
}

// ResultName returns a unique snapshot file path for the given write time
func ResultName(dir string, at time.Time) string {
	name := fmt.Sprintf("quiz_%d.txt", at.UnixMilli())
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// FormatSession renders one cumulative log block recorded at the given time
func FormatSession(s *Session, at time.Time) string {

	var b strings.Builder
	fmt.Fprintf(&b, blockStart+"\n", oneLine(s.SessionID))
	fmt.Fprintf(&b, "기록 시각: %s\n", KoreanTime(at))
	fmt.Fprintf(&b, "이름: %s\n", oneLine(s.UserName))
	fmt.Fprintf(&b, "시작: %s\n", oneLine(FormatTime(s.StartedAt)))
	fmt.Fprintf(&b, "종료: %s\n", oneLine(FormatTime(s.EndedAt)))

	b.WriteString("\n" + hwatuSection + "\n")
	fmt.Fprintf(&b, "선택한 카드: %s\n", cards(s.Hwatu.Picked))
	fmt.Fprintf(&b, "기억한 카드: %s\n", cards(s.Hwatu.RecallPicked))
	fmt.Fprintf(&b, "정답: %s\n", ratio(s.Hwatu.RecallCorrect, s.Hwatu.RecallTotal))

	writeQuiz(&b, wordSection, s.Word)
	writeQuiz(&b, dementiaSection, s.Dementia)

	b.WriteString(blockEnd + "\n\n")
	return b.String()
}

// SessionMessage is the commit message of a cumulative log update
func SessionMessage(s *Session) string {
	return fmt.Sprintf("Update quiz log (%s, %s)", oneLine(s.UserName), oneLine(s.SessionID))
}

// ResultMessage is the commit message of a snapshot report
func ResultMessage(r *Result) string {
	return fmt.Sprintf("Add quiz result (%s)", oneLine(r.UserName))
}

func writeQuiz(b *strings.Builder, section string, q Quiz) {
	b.WriteString("\n" + section + "\n")
	fmt.Fprintf(b, "점수: %s\n", ratio(q.Score, q.Total))
	if len(q.Results) == 0 {
		b.WriteString(none + "\n")
		return
	}
	for i, r := range q.Results {
		fmt.Fprintf(b, "%d. 질문: %s / 선택: %s / 정답: %s / 결과: %s\n",
			i+1, oneLine(r.Question), oneLine(r.UserAnswer), oneLine(r.CorrectAnswer), verdict(r.IsCorrect))
	}
}

func ratio(n, total int) string {
	return fmt.Sprintf("%d / %d (%d%%)", n, total, Percent(n, total))
}

func cards(cs []Card) string {
	if len(cs) == 0 {
		return none
	}
	ls := make([]string, 0, len(cs))
	for _, c := range cs {
		ls = append(ls, oneLine(c.Label()))
	}
	return strings.Join(ls, ", ")
}

func verdict(ok bool) string {
	if ok {
		return "정답"
	}
	return "오답"
}

// oneLine keeps user text from breaking the block layout
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
