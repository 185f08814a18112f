// Command reelctl runs batch media generation from the terminal and prints
// the composed timeline.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uniedit/reelgen/internal/app"
	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/domain/pool"
	"github.com/uniedit/reelgen/internal/domain/selection"
	"github.com/uniedit/reelgen/internal/domain/timeline"
	"github.com/uniedit/reelgen/internal/infra/config"
	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/utils/metrics"
)

var version = "dev"

func main() {
	if len(os.Args) == 2 && os.Args[1] == "version" {
		fmt.Println("reelctl", version)
		return
	}
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("load config: "+err.Error()))
		os.Exit(1)
	}

	switch os.Args[1] {
	case "providers":
		err = listProviders(cfg)
	case "generate":
		err = generate(cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: reelctl version")
	fmt.Fprintln(os.Stderr, "       reelctl providers")
	fmt.Fprintln(os.Stderr, "       reelctl generate [-provider name] [-kind image|video] [-batch n] [-audio seconds] [-prompts file]")
}

func listProviders(cfg *config.Config) error {
	registry, err := app.ProvideGeneratorRegistry(cfg, app.ProvideHTTPClient(cfg))
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render("Providers"))
	for _, name := range registry.Names() {
		fmt.Println("  " + name)
	}
	return nil
}

func generate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	provider := fs.String("provider", "", "provider name (default: the kind's default provider)")
	kind := fs.String("kind", string(model.MediaKindImage), "media kind: image or video")
	modelName := fs.String("model", "", "provider model override")
	batch := fs.Int("batch", 0, "batch size (default from config)")
	audio := fs.Float64("audio", 0, "audio length in seconds; 0 uses fallback lengths")
	promptsPath := fs.String("prompts", "-", "file with one prompt per line, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mediaKind := model.MediaKind(*kind)
	if !mediaKind.Valid() {
		return fmt.Errorf("unknown media kind %q", *kind)
	}

	prompts, err := readPromptsFrom(*promptsPath)
	if err != nil {
		return err
	}
	if len(prompts) == 0 {
		return errors.New("no prompts given")
	}

	logger, cleanup, err := app.ProvideZapLogger(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	registry, err := app.ProvideGeneratorRegistry(cfg, app.ProvideHTTPClient(cfg))
	if err != nil {
		return err
	}
	generator, err := registry.Default(mediaKind)
	if *provider != "" {
		generator, err = registry.Get(*provider)
	}
	if err != nil {
		return err
	}

	genConfig := app.ProvideGenerationConfig(cfg)
	redisClient, closeRedis := app.ProvideRedisClient(cfg, logger)
	defer closeRedis()
	limiters := app.ProvideLimiters(cfg, genConfig, redisClient, logger)

	batchSize := *batch
	if batchSize == 0 {
		batchSize = genConfig.DefaultBatchSize
	}

	requests := make([]model.GenerationRequest, 0, len(prompts))
	for _, p := range prompts {
		requests = append(requests, model.GenerationRequest{Prompt: p, Kind: mediaKind, Model: *modelName})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := generation.NewScheduler(
		generator,
		limiters.For(generator.Name()),
		metrics.New("reelctl"),
		genConfig,
		logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)),
	)
	run, err := scheduler.Run(ctx, requests, batchSize)
	if err != nil {
		return err
	}

	// First interrupt stops after the current batch, the second aborts.
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		<-sigs
		fmt.Println(infoStyle.Render("Stopping after the current batch, interrupt again to abort"))
		run.Stop()
		<-sigs
		cancel()
	}()

	fmt.Println(titleStyle.Render(fmt.Sprintf("Generating %d %ss with %s", len(requests), mediaKind, generator.Name())))

	mediaPool := pool.New()
	for ev := range run.Events() {
		if line := renderEvent(ev); line != "" {
			fmt.Println(line)
		}
		if ev.Type == generation.EventBatchCompleted {
			if set, ok := pool.FoldBatch(ev.Result, generator.Name(), time.Now()); ok {
				mediaPool = mediaPool.Append(set)
			}
		}
	}

	fmt.Println(renderSummary(run.Summary()))

	var target *float64
	if *audio > 0 {
		target = audio
	}
	studioConfig := app.ProvideStudioConfig(cfg)
	sel := selection.New().SetAll(mediaPool.Refs())
	tl := timeline.New(
		timeline.NewComposer(studioConfig.VideoDuration),
		sel.Resolve(mediaPool),
		target,
		studioConfig.FallbackDuration,
	)
	fmt.Println()
	fmt.Println(renderTimeline(tl))
	return nil
}

func readPromptsFrom(path string) ([]string, error) {
	if path == "-" {
		return readPrompts(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}
	defer f.Close()
	return readPrompts(f)
}

// readPrompts returns the non-blank lines of r. Lines starting with # are
// comments.
func readPrompts(r io.Reader) ([]string, error) {
	var prompts []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	return prompts, nil
}
