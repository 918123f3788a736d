package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/joseph-ayodele/winelabel/internal/app"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/entity"
	"github.com/joseph-ayodele/winelabel/internal/heuristic"
	"github.com/joseph-ayodele/winelabel/internal/ocr"
	"github.com/joseph-ayodele/winelabel/internal/policy"
	"github.com/joseph-ayodele/winelabel/internal/server"
)

// labeltext runs recognized label text through the pipeline. Each argument
// is one label; with no arguments, labels are read from stdin separated by
// blank lines.
func main() {
	var (
		addr     = flag.String("addr", "", "call a running winelabeld at this address instead of the local pipeline")
		local    = flag.Bool("local", false, "only run the local parser and print the escalation decision")
		language = flag.String("lang", "", "language hint for every label")
		timeout  = flag.Duration("timeout", 2*time.Minute, "overall timeout")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	cfg.Log.Format = "text"
	logger := app.NewLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)

	texts := flag.Args()
	if len(texts) == 0 {
		var err error
		if texts, err = readLabels(os.Stdin); err != nil {
			logger.Error("failed to read stdin", "error", err)
			os.Exit(2)
		}
	}
	if len(texts) == 0 {
		logger.Error("usage: labeltext [-addr host:port] [-local] [text ...]")
		os.Exit(2)
	}
	raws := make([]entity.RawRecognition, len(texts))
	for i, t := range texts {
		raws[i] = entity.RawRecognition{Index: i, Text: t, Language: *language}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var (
		out any
		err error
	)
	switch {
	case *local:
		out = parseLocal(raws)
	case *addr != "":
		out, err = callRemote(ctx, *addr, raws)
	default:
		out, err = runPipeline(ctx, cfg, logger, raws)
	}
	if err != nil {
		logger.Error("labeltext failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type localResult struct {
	Text     string                  `json:"text"`
	Record   entity.ParsedWineRecord `json:"record"`
	Escalate bool                    `json:"escalate"`
	Missing  []string                `json:"missing,omitempty"`
}

func parseLocal(raws []entity.RawRecognition) []localResult {
	parser := heuristic.NewParser()
	pol := policy.New(policy.DefaultThreshold)
	out := make([]localResult, len(raws))
	for i, raw := range raws {
		text := ocr.Normalize(raw.Text)
		rec := parser.Parse(text)
		r := localResult{Text: text, Record: rec}
		if d, ok := pol.Decide(raw, rec).(policy.Escalate); ok {
			r.Escalate = true
			r.Missing = d.Request.Missing
		}
		out[i] = r
	}
	return out
}

func runPipeline(ctx context.Context, cfg *common.Config, logger *slog.Logger, raws []entity.RawRecognition) ([]server.Result, error) {
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer a.Close(context.Background())

	outcomes, err := a.Processor.ProcessTexts(ctx, raws)
	if err != nil {
		return nil, err
	}
	return server.ResultsFromOutcomes(outcomes), nil
}

func callRemote(ctx context.Context, addr string, raws []entity.RawRecognition) ([]server.Result, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req, err := server.TextsRequest(raws)
	if err != nil {
		return nil, err
	}
	resp, err := server.NewLabelServiceClient(conn).ParseTexts(ctx, req)
	if err != nil {
		return nil, err
	}
	decoded, err := server.DecodeResponse(resp)
	if err != nil {
		return nil, err
	}
	return decoded.Results, nil
}

func readLabels(r io.Reader) ([]string, error) {
	var (
		labels []string
		cur    []string
	)
	flush := func() {
		if len(cur) > 0 {
			labels = append(labels, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return labels, sc.Err()
}
