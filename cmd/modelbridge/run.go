package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"modelbridge/internal/manager"
	"modelbridge/pkg/types"
)

func newRunCmd(s *settings) *cobra.Command {
	var (
		model     string
		values    string
		shape     string
		inputFile string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a model once and print the output tensor as JSON",
		Example: "  modelbridge run --model ~/models/imu.dmod --values 0.1,0.2,0.3\n" +
			"  modelbridge run --model imu.dmod --models-dir ~/models --values 1,2,3,4,5,6 --shape 2,3\n" +
			"  modelbridge run --model net.onnx --engine onnx --input sample.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			if model == "" {
				return fmt.Errorf("--model is required")
			}
			in, err := buildInput(values, shape, inputFile)
			if err != nil {
				return err
			}
			log, closer, err := s.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()
			mgr, err := s.newManager(&log)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			res, err := mgr.Run(ctx, types.RunRequest{ModelPath: model, Input: in})
			if err != nil {
				_, kind := manager.Classify(err)
				if kind != "" {
					return fmt.Errorf("%s: %w", kind, err)
				}
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&model, "model", "", "Model file path, or a file name inside --models-dir")
	f.StringVar(&values, "values", "", "Input values as CSV, e.g. 0.1,0.2,0.3")
	f.StringVar(&shape, "shape", "", "Input shape as CSV, e.g. 1,3 (default 1,<len(values)>)")
	f.StringVar(&inputFile, "input", "", "JSON file holding an input tensor {\"shape\":[...],\"values\":[...]}")
	f.DurationVar(&timeout, "timeout", 0, "Give up waiting after this long (0 waits forever)")
	return cmd
}

// buildInput assembles the input tensor from either --input or --values and
// --shape. The two sources are mutually exclusive.
func buildInput(values, shape, inputFile string) (types.Tensor, error) {
	if inputFile != "" {
		if values != "" || shape != "" {
			return types.Tensor{}, fmt.Errorf("--input cannot be combined with --values or --shape")
		}
		b, err := os.ReadFile(inputFile)
		if err != nil {
			return types.Tensor{}, fmt.Errorf("read input: %w", err)
		}
		var t types.Tensor
		if err := json.Unmarshal(b, &t); err != nil {
			return types.Tensor{}, fmt.Errorf("parse input %s: %w", inputFile, err)
		}
		return t, nil
	}
	if values == "" {
		return types.Tensor{}, fmt.Errorf("one of --values or --input is required")
	}
	vals, err := parseFloats(values)
	if err != nil {
		return types.Tensor{}, err
	}
	dims, err := parseShape(shape)
	if err != nil {
		return types.Tensor{}, err
	}
	return types.Tensor{Shape: dims, Values: vals}, nil
}
