// Command mock-create writes a small random-weight classifier and its
// model_info.json descriptor, for exercising the serving stack without a
// trained model.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pashuvision/modelport/internal/cli"
	"github.com/pashuvision/modelport/internal/config"
	"github.com/pashuvision/modelport/internal/pipeline"
	"github.com/pashuvision/modelport/internal/synth"
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
		output  string
		info    string
		source  string
		classes int
		seed    int64
		publish bool
		size    = cli.Shape(pipeline.DefaultInputSize)
	)
	fs := flag.NewFlagSet("mock-create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&output, "output", "./mock_breed_model.onnx", "path of the ONNX file to write")
	fs.StringVar(&output, "o", "./mock_breed_model.onnx", "shorthand for --output")
	fs.StringVar(&info, "info", "./model_info.json", "path of the model_info.json descriptor")
	fs.StringVar(&source, "source", "", "optional path of a .born artifact holding the same weights")
	fs.IntVar(&classes, "classes", pipeline.DefaultClasses, "number of output classes")
	fs.IntVar(&classes, "c", pipeline.DefaultClasses, "shorthand for --classes")
	fs.Var(&size, cli.InputSizeFlag, "input size B C H W")
	fs.Int64Var(&seed, "seed", 0, "weight seed; 0 picks a random seed")
	fs.BoolVar(&publish, "publish", false, "upload outputs to the artifact store")
	common.Register(fs, cfg)
	if err := cli.Parse(fs, args); err != nil {
		return err
	}
	if common.Version {
		cli.PrintVersion(stdout, "mock-create")
		return nil
	}
	if classes < 1 {
		return cli.Usagef("--classes must be at least 1, got %d", classes)
	}

	logger, err := common.Logger(stderr)
	if err != nil {
		return err
	}
	genOpts := []synth.Option{synth.WithLogger(logger)}
	if seed != 0 {
		genOpts = append(genOpts, synth.WithSeed(seed))
	}
	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithGenerator(synth.New(genOpts...))}
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

	res, err := runner.MockCreate(ctx, pipeline.MockRequest{
		Output:    output,
		Info:      info,
		Source:    source,
		Classes:   classes,
		InputSize: size,
		Publish:   publish,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Mock model saved to %s\n", res.Output)
	fmt.Fprintf(stdout, "Model info saved to %s\n", res.Info)
	if res.Source != "" {
		fmt.Fprintf(stdout, "Source artifact saved to %s\n", res.Source)
	}
	for _, key := range res.Published {
		fmt.Fprintf(stdout, "Published %s\n", key)
	}
	return nil
}
