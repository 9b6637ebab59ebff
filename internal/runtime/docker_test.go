package runtime

import (
	"sort"
	"testing"
)

func TestContainerSpec_MountsWorkDir(t *testing.T) {
	cfg, host := containerSpec(StartOptions{
		Name:    "pipeline-P001+01",
		Image:   "lofar/ddf:latest",
		Command: []string{"run_pipeline", "P001+01"},
		Env:     map[string]string{"DDF_FIELD_ID": "P001+01"},
		WorkDir: "/beegfs/ddf",
	})

	if cfg.Image != "lofar/ddf:latest" {
		t.Errorf("unexpected image %s", cfg.Image)
	}
	if cfg.WorkingDir != "/beegfs/ddf" {
		t.Errorf("expected working dir /beegfs/ddf, got %s", cfg.WorkingDir)
	}
	if len(host.Binds) != 1 || host.Binds[0] != "/beegfs/ddf:/beegfs/ddf" {
		t.Errorf("unexpected binds %v", host.Binds)
	}
	if len(cfg.Env) != 1 || cfg.Env[0] != "DDF_FIELD_ID=P001+01" {
		t.Errorf("unexpected env %v", cfg.Env)
	}
	if cfg.Labels["ddfmonitor/name"] != "pipeline-P001+01" {
		t.Errorf("expected name label, got %v", cfg.Labels)
	}
}

func TestContainerSpec_NoWorkDir(t *testing.T) {
	cfg, host := containerSpec(StartOptions{Image: "alpine", Command: []string{"true"}})

	if cfg.WorkingDir != "" {
		t.Errorf("expected empty working dir, got %s", cfg.WorkingDir)
	}
	if len(host.Binds) != 0 {
		t.Errorf("expected no binds, got %v", host.Binds)
	}
}

func TestMapToEnvList(t *testing.T) {
	env := mapToEnvList(map[string]string{"A": "1", "B": "two"})
	sort.Strings(env)

	if len(env) != 2 || env[0] != "A=1" || env[1] != "B=two" {
		t.Errorf("unexpected env list %v", env)
	}
}
