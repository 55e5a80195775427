// Command replay feeds a stored submission through the handler locally, e.g. to re-send a
// result that failed or to smoke test a deployment's settings.
package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/google/uuid"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/UKHomeOffice/quizsync/internal/api"
	"github.com/UKHomeOffice/quizsync/internal/config"
	"github.com/UKHomeOffice/quizsync/internal/notifier"
	"github.com/UKHomeOffice/quizsync/internal/report"
	"github.com/UKHomeOffice/quizsync/internal/store"
)

// overrides maps flags onto configuration keys
var overrides = map[string]string{
	"branch":       "github_branch",
	"log-path":     "log_path",
	"snapshot-dir": "snapshot_dir",
	"attempts":     "write_attempts",
	"document-id":  "document_id",
	"queue-url":    "queue_url",
}

func main() {

	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	mode := fs.String("mode", "cumulative", "report mode, snapshot or cumulative")
	body := fs.String("body", "-", "submission JSON file, - for stdin")
	file := fs.String("config", "", "optional YAML configuration file, read before the environment")
	summarize := fs.Bool("summarize", false, "print the cumulative log after a successful write")
	verbose := fs.Bool("verbose", false, "log upstream calls")
	fs.String("branch", "", "override GITHUB_BRANCH")
	fs.String("log-path", "", "override LOG_PATH")
	fs.String("snapshot-dir", "", "override SNAPSHOT_DIR")
	fs.Int("attempts", 0, "override WRITE_ATTEMPTS")
	fs.String("document-id", "", "override DOCUMENT_ID")
	fs.String("queue-url", "", "override QUEUE_URL")
	fs.Parse(os.Args[1:])

	if err := run(fs, *mode, *body, *file, *summarize, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fs *flag.FlagSet, modeName, bodyPath, file string, summarize, verbose bool) error {

	m, err := report.ParseMode(modeName)
	if err != nil {
		return err
	}

	in, err := readBody(bodyPath)
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if verbose {
		log, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("could not create logger: %v", err)
		}
		defer log.Sync()
	}

	loader := config.Loader{
		File: file,
		Overlay: func(k *koanf.Koanf) error {
			return k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *flag.Flag) (string, interface{}) {
				key, ok := overrides[f.Name]
				if !ok || !f.Changed {
					return "", nil
				}
				return key, posflag.FlagVal(fs, f)
			}), nil)
		},
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	var mgr notifier.Messenger
	if cfg.QueueURL != "" {
		sess, err := session.NewSessionWithOptions(session.Options{SharedConfigState: session.SharedConfigEnable})
		if err != nil {
			return fmt.Errorf("could not create AWS session: %v", err)
		}
		mgr = sqs.New(sess, &aws.Config{Region: aws.String(cfg.Region)})
	}

	req := &events.APIGatewayProxyRequest{
		HTTPMethod:     "POST",
		Body:           in,
		RequestContext: events.APIGatewayProxyRequestContext{RequestID: uuid.NewString()},
	}

	ctx := context.Background()
	res, err := api.NewHandler(m, mgr, log).WithLoader(loader.Load).Handle(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("%d %s\n", res.StatusCode, res.Body)
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("replay of %v failed (request %v)", bodyPath, req.RequestContext.RequestID)
	}

	if summarize && m == report.Cumulative {
		return printLog(ctx, cfg, log)
	}
	return nil
}

func readBody(path string) (string, error) {

	var (
		b   []byte
		err error
	)
	if path == "-" || path == "" {
		b, err = ioutil.ReadAll(os.Stdin)
	} else {
		b, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("could not read submission: %v", err)
	}
	return string(b), nil
}

// printLog reads the cumulative log back and prints one line per session, newest first
func printLog(ctx context.Context, cfg *config.Config, log *zap.Logger) error {

	files, err := store.NewContents(cfg.Store, &http.Client{Timeout: cfg.Timeout}, log)
	if err != nil {
		return err
	}

	f, err := files.Get(ctx, cfg.Store.LogPath)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("log %v not found", cfg.Store.LogPath)
	}

	for _, e := range report.ParseLog(f.Content) {
		fmt.Println(strings.Join([]string{
			e.SessionID,
			e.UserName,
			"화투 " + e.Recall.String(),
			"단어 " + e.Word.String(),
			"퀴즈 " + e.Dementia.String(),
		}, "\t"))
	}
	return nil
}
