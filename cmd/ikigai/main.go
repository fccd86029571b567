// Command ikigai is a minimal terminal REPL that exercises the provider
// core end to end: read a line, send it as a single-turn streaming request
// to whichever provider the chosen model infers to, print deltas as they
// arrive, and repeat. Conversation history, scrollback rendering, and
// command handling are deliberately out of this core's scope; this is just
// enough of a caller to drive it.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mgreenly/ikigai-sub010/internal/obslog"
	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/mgreenly/ikigai-sub010/providers"
	"github.com/mgreenly/ikigai-sub010/providers/anthropic"
	"github.com/mgreenly/ikigai-sub010/providers/gemini"
	"github.com/mgreenly/ikigai-sub010/providers/openai"
)

func main() {
	_ = godotenv.Load()
	logger := obslog.New()

	modelName := os.Getenv("IKIGAI_MODEL")
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	provider, err := newProvider(modelName, logger)
	if err != nil {
		logger.Error("unsupported model", "model", modelName, "error", err)
		os.Exit(1)
	}
	defer provider.Cleanup()

	fmt.Printf("ikigai REPL — model %s. Ctrl-D to exit.\n", modelName)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		runTurn(provider, modelName, line, logger)
	}
}

func newProvider(modelName string, logger *slog.Logger) (providers.Provider, error) {
	name, ok := providers.InferProvider(modelName)
	if !ok {
		return nil, fmt.Errorf("no provider for model %q", modelName)
	}
	switch name {
	case providers.OpenAI:
		p, err := openai.New()
		if err != nil {
			return nil, err
		}
		return p.WithLogger(logger), nil
	case providers.Anthropic:
		p, err := anthropic.New()
		if err != nil {
			return nil, err
		}
		return p.WithLogger(logger), nil
	case providers.Gemini:
		p, err := gemini.New()
		if err != nil {
			return nil, err
		}
		return p.WithLogger(logger), nil
	default:
		return nil, fmt.Errorf("unhandled provider %q", name)
	}
}

func runTurn(provider providers.Provider, modelName, prompt string, logger *slog.Logger) {
	req := model.Request{
		Model: modelName,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: []model.ContentBlock{model.TextBlock(prompt)}},
		},
		MaxOutputTokens: 1024,
	}
	logger.Debug("sending request", "model", modelName, "max_output_tokens", req.MaxOutputTokens)

	start := time.Now()
	done := make(chan struct{})
	err := provider.StartStream(context.Background(), req, func(e model.StreamEvent) {
		switch e.Kind {
		case model.StreamTextDelta:
			fmt.Print(e.Delta)
		case model.StreamError:
			logger.Error("stream error", "category", e.ErrorCategory, "message", e.ErrorMessage)
		}
	}, func(resp *model.Response, err error) {
		elapsed := time.Since(start)
		if err != nil {
			logger.Error("request failed", "error", err, "elapsed", elapsed)
		} else {
			fmt.Println()
			logger.Debug("turn complete", "elapsed", elapsed, "finish_reason", resp.FinishReason)
		}
		close(done)
	})
	if err != nil {
		logger.Error("start stream failed", "error", err)
		return
	}

	driveEventLoop(provider, done)
}

// driveEventLoop is a sleep-based stand-in for a select-driven readiness
// loop: FDSet's exported descriptor would let a real event loop block
// efficiently, but a plain REPL can just poll Perform/InfoRead on the
// provider's own timeout hint.
func driveEventLoop(provider providers.Provider, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		if _, err := provider.Perform(); err != nil {
			return
		}
		provider.InfoRead()

		ms := provider.Timeout()
		if ms < 0 {
			ms = 20
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}
}
