// Function cumulative starts a SQS session and hands over to package api, storing a quiz session to the shared log.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"go.uber.org/zap"

	"github.com/UKHomeOffice/quizsync/internal/api"
	"github.com/UKHomeOffice/quizsync/internal/report"
)

var sess *session.Session
var esqs *sqs.SQS
var logger *zap.Logger

func init() {
	sess = session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	esqs = sqs.New(sess, &aws.Config{Region: aws.String(os.Getenv("AWS_REGION"))})

	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		panic(err)
	}
}

func handler(ctx context.Context, req *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return api.NewHandler(report.Cumulative, esqs, logger).Handle(ctx, req)
}

func main() {
	defer logger.Sync()
	lambda.Start(handler)
}
