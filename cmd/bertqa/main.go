package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	internal "github.com/ZanzyTHEbar/bertqa/qa"
	"github.com/ZanzyTHEbar/bertqa/qa/config"
	"github.com/ZanzyTHEbar/bertqa/qa/inference"
	"github.com/ZanzyTHEbar/bertqa/qa/pipeline"
	"github.com/ZanzyTHEbar/bertqa/qa/ports"

	"github.com/spf13/pflag"
)

func main() {
	console := ports.NewConsole(os.Stdout, os.Stderr)
	if err := run(os.Args[1:], console, os.Stdout); err != nil {
		console.Error("bertqa", err)
		os.Exit(1)
	}
}

// run parses args and answers one question. --inspect dumps go to out; all
// other messages go through ui.
func run(args []string, ui ports.Interactor, out io.Writer) error {
	flags := pflag.NewFlagSet(internal.DefaultAppName, pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to config file")
	question := flags.StringP("question", "q", "", "question to answer")
	passage := flags.StringP("context", "c", "", "context passage that holds the answer")
	contextFile := flags.String("context-file", "", "read the context passage from a file")
	sample := flags.Bool("sample", false, "answer the built-in BERT-large example")
	inspect := flags.Bool("inspect", false, "print token ids, segments and logits")
	listProviders := flags.Bool("list-providers", false, "list ONNX Runtime execution providers and exit")
	flags.String("model", "", "path to the ONNX QA model")
	flags.String("tokenizer", "", "path to vocab.txt or tokenizer.json")
	flags.String("tokenizer-kind", "wordpiece", "tokenizer: wordpiece or whitespace")
	flags.String("scorer", "onnx", "scorer: onnx or hash")
	flags.String("strategy", "argmax", "span selection: argmax or joint")
	flags.String("log-level", "info", "log level")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(*configPath, flags)
	if err != nil {
		return err
	}
	logger, err := internal.NewLogger(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return err
	}

	if *listProviders {
		providers, err := inference.ListExecutionProviders(inference.ONNXOptions{
			ExecutionProvider: cfg.ONNX.ExecutionProvider,
			DeviceID:          cfg.ONNX.DeviceID,
			SharedLibraryPath: cfg.ONNX.SharedLibraryPath,
			IntraOpThreads:    cfg.ONNX.IntraOpThreads,
		})
		if err != nil {
			return err
		}
		ui.Output(strings.Join(providers, "\n"))
		return nil
	}

	if *sample && (*question != "" || *passage != "" || *contextFile != "") {
		return errors.New("--sample cannot be combined with --question, --context or --context-file")
	}
	if *passage != "" && *contextFile != "" {
		return errors.New("use either --context or --context-file, not both")
	}
	if *sample {
		*question, *passage = pipeline.SampleQuestion, pipeline.SampleContext
	}
	if *contextFile != "" {
		b, err := os.ReadFile(*contextFile)
		if err != nil {
			return fmt.Errorf("read context file: %w", err)
		}
		*passage = string(b)
	}
	if *question == "" || *passage == "" {
		return errors.New("provide --question and --context (or --context-file), or use --sample")
	}

	p, err := pipeline.Load(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := p.Answer(ctx, *question, *passage)
	if res != nil && *inspect {
		if dumpErr := res.Dump(out); dumpErr != nil {
			ui.Warning(fmt.Sprintf("inspect: %v", dumpErr))
		}
	}
	if err != nil {
		return err
	}
	if !*inspect {
		ui.Output(fmt.Sprintf("Question: %s", *question))
		ui.Output(fmt.Sprintf("Answer: %q", res.Answer()))
	}
	return nil
}
