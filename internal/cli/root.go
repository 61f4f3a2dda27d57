package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/peregrine-labs/scriptrag/internal/chunker"
	"github.com/peregrine-labs/scriptrag/internal/domain"
	answeruc "github.com/peregrine-labs/scriptrag/internal/usecase/answer"
	healthuc "github.com/peregrine-labs/scriptrag/internal/usecase/health"
	ingestuc "github.com/peregrine-labs/scriptrag/internal/usecase/ingest"
)

type retrievalService interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredResult, error)
	DefaultTopK() int
}

type ingestService interface {
	Ingest(ctx context.Context, doc domain.Document) (ingestuc.Stats, error)
	Chunk(text string, override chunker.Config) ([]domain.Chunk, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

type answerService interface {
	Answer(ctx context.Context, question string, topK int) (answeruc.Result, error)
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Services holds the wired use cases the commands run against.
type Services struct {
	Retrieval retrievalService
	Ingest    ingestService
	Answer    answerService
	Health    healthService
	Cleanup   func()
}

var (
	retrievalSvc retrievalService
	ingestSvc    ingestService
	answerSvc    answerService
	healthSvc    healthService
	cleanupFn    func()
)

// connectFn wires services on first use. Set by SetConnect; commands that
// talk to the backend call ensureServices from their RunE.
var connectFn func() (Services, error)

var rootCmd = &cobra.Command{
	Use:           "scriptctl",
	Short:         "Manage and query the scriptrag index",
	Long:          `Ingest screenplay text, run hybrid retrieval queries and generate grounded answers against a scriptrag index.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetConnect registers the lazy service constructor. Commands that need the
// backend invoke it once; version and help never connect.
func SetConnect(fn func() (Services, error)) {
	connectFn = fn
}

func ensureServices() error {
	if retrievalSvc != nil || connectFn == nil {
		return nil
	}
	svcs, err := connectFn()
	if err != nil {
		return err
	}
	configure(svcs)
	return nil
}

func configure(s Services) {
	retrievalSvc = s.Retrieval
	ingestSvc = s.Ingest
	answerSvc = s.Answer
	healthSvc = s.Health
	cleanupFn = s.Cleanup
}

// Execute runs the CLI.
func Execute() error {
	defer func() {
		if cleanupFn != nil {
			cleanupFn()
		}
	}()
	return rootCmd.Execute()
}
