package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/UKHomeOffice/quizsync/internal/knowledge"
	"github.com/UKHomeOffice/quizsync/internal/report"
	"github.com/UKHomeOffice/quizsync/internal/store"
)

const (
	msgSaved       = "퀴즈 결과가 GitHub에 저장되었습니다."
	msgLogged      = "활동 기록이 GitHub에 저장되었습니다."
	msgServerError = "서버 처리 중 오류 발생"
	msgStoreError  = "GitHub 저장 실패"
	msgRegisterErr = "D-ID Knowledge 등록 실패"
)

func headers() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Content-Type":                 "application/json",
	}
}

type success struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RemoteURL string `json:"remoteUrl"`
	// DocumentID is returned so the caller can persist it for the next replacement
	DocumentID string `json:"documentId,omitempty"`
}

type failure struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RemoteURL string `json:"remoteUrl,omitempty"`
}

func respond(status int, v interface{}) events.APIGatewayProxyResponse {
	b, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    headers(),
			Body:       `{"error":"` + msgServerError + `"}`,
		}
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers(), Body: string(b)}
}

func preflight() events.APIGatewayProxyResponse {
	h := headers()
	delete(h, "Content-Type")
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Headers: h}
}

func methodNotAllowed() events.APIGatewayProxyResponse {
	return respond(http.StatusMethodNotAllowed, failure{Error: "Method not allowed"})
}

func succeeded(mode report.Mode, addr, documentID string) events.APIGatewayProxyResponse {
	msg := msgSaved
	if mode == report.Cumulative {
		msg = msgLogged
	}
	return respond(http.StatusOK, success{Success: true, Message: msg, RemoteURL: addr, DocumentID: documentID})
}

// failed maps an error raised before the report was stored
func failed(err error) events.APIGatewayProxyResponse {
	var we *store.RemoteWriteError
	if errors.As(err, &we) {
		return respond(http.StatusInternalServerError, failure{Error: msgStoreError, Detail: we.Body})
	}
	return respond(http.StatusInternalServerError, failure{Error: msgServerError, Detail: err.Error()})
}

// failedAfterWrite maps an error raised once the report was stored at addr
func failedAfterWrite(err error, addr string) events.APIGatewayProxyResponse {
	var re *knowledge.RegistrationError
	if errors.As(err, &re) {
		return respond(http.StatusInternalServerError, failure{Error: msgRegisterErr, Detail: re.Body, RemoteURL: addr})
	}
	return respond(http.StatusInternalServerError, failure{Error: msgServerError, Detail: err.Error(), RemoteURL: addr})
}
