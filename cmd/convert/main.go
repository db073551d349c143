// Command convert exports a trained .born artifact as an ONNX graph.
//
//	convert --input model.born --output model.onnx --input-size 1 3 224 224
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pashuvision/modelport/internal/cli"
	"github.com/pashuvision/modelport/internal/config"
	"github.com/pashuvision/modelport/internal/export"
	"github.com/pashuvision/modelport/internal/pipeline"
)

func main() {
	cli.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		common  cli.Common
		input   string
		output  string
		info    string
		publish bool
		size    = cli.Shape(pipeline.DefaultInputSize)
	)
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&input, "input", "", "path to the .born artifact")
	fs.StringVar(&input, "i", "", "shorthand for --input")
	fs.StringVar(&output, "output", "model.onnx", "path of the ONNX file to write")
	fs.StringVar(&output, "o", "model.onnx", "shorthand for --output")
	fs.StringVar(&info, "info", "", "optional path of a model_info.json descriptor")
	fs.Var(&size, cli.InputSizeFlag, "placeholder input size B C H W")
	fs.BoolVar(&publish, "publish", false, "upload outputs to the artifact store")
	common.Register(fs, cfg)
	if err := cli.Parse(fs, args); err != nil {
		return err
	}
	if common.Version {
		cli.PrintVersion(stdout, "convert")
		return nil
	}
	if input == "" {
		return cli.Usagef("--input is required")
	}

	logger, err := common.Logger(stderr)
	if err != nil {
		return err
	}
	exporter, err := export.New(export.WithLogger(logger), export.WithCacheSize(cfg.CacheSize))
	if err != nil {
		return err
	}
	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithExporter(exporter)}
	if publish {
		store, err := cli.Store(cfg.Artifact)
		if err != nil {
			return err
		}
		if store != nil {
			opts = append(opts, pipeline.WithStore(store))
		}
	}
	runner, err := pipeline.New(opts...)
	if err != nil {
		return err
	}

	res, err := runner.Convert(ctx, pipeline.ConvertRequest{
		Input:     input,
		Output:    output,
		InputSize: size,
		Info:      info,
		Publish:   publish,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Model exported to %s\n", res.Output)
	if res.Info != "" {
		fmt.Fprintf(stdout, "Model info saved to %s\n", res.Info)
	}
	for _, key := range res.Published {
		fmt.Fprintf(stdout, "Published %s\n", key)
	}
	return nil
}
