// Command meridian recomputes, validates and reconciles document JSON files
// from the command line. Each argument is a file holding one document; files
// are processed concurrently and results are printed one JSON object per
// line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/allocation"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/document"
	"github.com/meridian-erp/meridian-erp/internal/platform/docstore"
	"github.com/meridian-erp/meridian-erp/internal/reconcile"
)

type result struct {
	File     string             `json:"file"`
	Mode     string             `json:"mode"`
	OK       bool               `json:"ok"`
	Error    string             `json:"error,omitempty"`
	Document *document.Document `json:"document,omitempty"`
}

func main() {
	mode := flag.String("mode", "recalc", "recalc, validate or reconcile")
	flag.Parse()
	files := flag.Args()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(files) == 0 {
		logger.Error("no input files")
		os.Exit(2)
	}

	var reconciler *reconcile.Service
	if *mode == "reconcile" {
		store, err := docstore.NewRedis(ctx, cfg.RedisAddr, cfg.DocStorePrefix)
		if err != nil {
			logger.Error("connect document store", slog.Any("error", err))
			os.Exit(1)
		}
		reconciler = reconcile.NewService(store, logger)
	}
	validator := allocation.NewValidator(allocation.WithQuantityTolerance(cfg.AllocationTolerance))

	enc := json.NewEncoder(os.Stdout)
	results := make([]result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			results[i] = processFile(ctx, *mode, path, validator, reconciler)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			logger.Error("encode result", slog.Any("error", err))
		}
		if !res.OK {
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func processFile(ctx context.Context, mode, path string, validator *allocation.Validator, reconciler *reconcile.Service) result {
	res := result{File: path, Mode: mode}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		res.Error = fmt.Sprintf("decode document: %v", err)
		return res
	}
	document.RecalculateDocument(&doc)

	switch mode {
	case "recalc":
		res.Document = &doc
		res.OK = true
	case "validate":
		if err := document.CheckSubmittable(&doc); err != nil {
			res.Error = err.Error()
			return res
		}
		if err := validator.ValidateDocument(&doc); err != nil {
			res.Error = err.Error()
			return res
		}
		allocation.NormalizeDocument(&doc)
		res.Document = &doc
		res.OK = true
	case "reconcile":
		updated, err := reconciler.Reconcile(ctx, &doc)
		if err != nil {
			res.Error = err.Error()
			res.Document = updated
			return res
		}
		res.Document = updated
		res.OK = true
	default:
		res.Error = fmt.Sprintf("unknown mode %q", mode)
	}
	return res
}
