// internal/domain/homework/verdict.go
package homework

import "fmt"

// Verdict is the reviewer's decision on a submission.
type Verdict string

const (
	VerdictApproved  Verdict = "approved"
	VerdictReviewing Verdict = "reviewing"
	VerdictRejected  Verdict = "rejected"
)

var verdictMessages = map[Verdict]string{
	VerdictApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	VerdictReviewing: "Работа взята на проверку ревьюером.",
	VerdictRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// ParseVerdict maps a raw API status onto a recognized Verdict.
func ParseVerdict(raw string) (Verdict, bool) {
	v := Verdict(raw)
	if _, ok := verdictMessages[v]; !ok {
		return "", false
	}
	return v, true
}

// Message returns the fixed human-readable text for the verdict.
func (v Verdict) Message() string {
	return verdictMessages[v]
}

// FormatMessage builds the notification text sent to the chat.
func FormatMessage(homeworkName string, v Verdict) string {
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", homeworkName, v.Message())
}
