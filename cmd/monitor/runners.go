package main

import (
	"context"
	"fmt"
	"log/slog"

	"ddfmonitor/internal/config"
	"ddfmonitor/internal/runner"
	"ddfmonitor/internal/runtime"
	"ddfmonitor/internal/store"
)

func newPipelineRunner(cfg *config.Config, logger *slog.Logger) (runner.Runner, error) {
	var rt runtime.Runtime
	switch cfg.PipelineRuntime {
	case config.RuntimeExec:
		rt = runtime.NewExecRuntime(cfg.BaseDir)
	case config.RuntimeDocker:
		dockerRT, err := runtime.NewDockerRuntime()
		if err != nil {
			return nil, fmt.Errorf("failed to create docker runtime: %w", err)
		}
		rt = dockerRT
	case config.RuntimeKubernetes:
		k8sRT, err := runtime.NewKubernetesRuntime(runtime.KubernetesConfig{
			Namespace:          cfg.KubernetesNamespace,
			ServiceAccount:     cfg.KubernetesServiceAccount,
			DefaultCPULimit:    cfg.KubernetesCPULimit,
			DefaultMemoryLimit: cfg.KubernetesMemoryLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create kubernetes runtime: %w", err)
		}
		rt = k8sRT
	default:
		return nil, fmt.Errorf("unknown pipeline runtime %q", cfg.PipelineRuntime)
	}

	logger.Info("pipeline runner ready", "runtime", cfg.PipelineRuntime, "command", cfg.PipelineCommand)
	return runner.NewCommandRunner(runner.KindPipeline, rt, cfg.PipelineImage, cfg.PipelineCommand, logger), nil
}

// newUploadRunner returns the upload runner and a function releasing its clients.
func newUploadRunner(ctx context.Context, cfg *config.Config, status store.StatusWriter, logger *slog.Logger) (runner.Runner, func(), error) {
	switch cfg.UploadRuntime {
	case config.RuntimeExec:
		rt := runtime.NewExecRuntime(cfg.BaseDir)
		logger.Info("upload runner ready", "runtime", cfg.UploadRuntime, "command", cfg.UploadCommand)
		return runner.NewCommandRunner(runner.KindUpload, rt, "", cfg.UploadCommand, logger), func() {}, nil
	case config.RuntimeGCS:
		u, err := runner.NewGCSUploader(ctx, cfg.UploadBucket, cfg.UploadPrefix, status, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("upload runner ready", "runtime", cfg.UploadRuntime, "bucket", cfg.UploadBucket, "prefix", cfg.UploadPrefix)
		return u, func() {
			if err := u.Close(); err != nil {
				logger.Warn("failed to close storage client", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown upload runtime %q", cfg.UploadRuntime)
	}
}
