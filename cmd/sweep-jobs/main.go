// Package main implements the scheduled job maintenance Lambda. An
// EventBridge schedule invokes it to fail jobs abandoned by crashed
// workers, replacing the background sweep loop the API server runs.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"goslim/infrastructure/config"
	"goslim/infrastructure/di"
	"goslim/pkg/utils"
)

// Global dependencies for Lambda performance optimization
var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	log.Println("Job sweep handler initialized")
}

// SweepResponse reports the outcome of one maintenance pass
type SweepResponse struct {
	Swept      int   `json:"swept"`
	DurationMS int64 `json:"duration_ms"`
}

// runSweep executes one maintenance pass and flushes buffered metrics
func runSweep(ctx context.Context) (*SweepResponse, error) {
	start := time.Now()

	swept, err := container.Sweeper.SweepOnce(ctx)
	if err != nil {
		return nil, err
	}

	if err := container.Metrics.Flush(ctx); err != nil {
		container.Logger.Warn("failed to flush metrics after sweep", zap.Error(err))
	}

	response := &SweepResponse{
		Swept:      swept,
		DurationMS: utils.SinceMillis(start),
	}
	container.Logger.Info("job sweep finished",
		zap.Int("swept", response.Swept),
		zap.Int64("durationMS", response.DurationMS),
	)
	return response, nil
}

// handler accepts either an EventBridge scheduled event or a direct
// invocation; both trigger the same sweep
func handler(ctx context.Context, event json.RawMessage) (*SweepResponse, error) {
	var scheduled awsevents.CloudWatchEvent
	if err := json.Unmarshal(event, &scheduled); err == nil && scheduled.DetailType != "" {
		container.Logger.Info("sweep triggered by schedule",
			zap.String("detailType", scheduled.DetailType),
			zap.String("source", scheduled.Source),
		)
	}

	return runSweep(ctx)
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		log.Println("Starting job sweep Lambda")
		lambda.Start(handler)
		return
	}

	// Local mode: run a single pass and print the result
	log.Println("Running one local sweep pass")
	response, err := runSweep(context.Background())
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	encoded, _ := json.MarshalIndent(response, "", "  ")
	log.Printf("Sweep result:\n%s", encoded)
}
