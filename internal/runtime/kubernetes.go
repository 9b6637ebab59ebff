package runtime

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const defaultKubernetesPollInterval = 2 * time.Second

// KubernetesConfig holds configuration for the Kubernetes runtime.
type KubernetesConfig struct {
	// Namespace where jobs will be created
	Namespace string
	// ServiceAccount for job pods (optional)
	ServiceAccount string
	// Default resource limits for jobs
	DefaultCPULimit    string
	DefaultMemoryLimit string
	// PollInterval controls how often job and pod state is checked
	PollInterval time.Duration
}

// KubernetesRuntime implements the Runtime interface using Kubernetes Jobs.
type KubernetesRuntime struct {
	clientset kubernetes.Interface
	config    KubernetesConfig
}

// KubernetesHandle represents a running Kubernetes Job.
type KubernetesHandle struct {
	clientset    kubernetes.Interface
	namespace    string
	jobName      string
	podName      string // Populated after pod starts
	pollInterval time.Duration
}

// homeDir returns the user's home directory.
func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	return os.Getenv("USERPROFILE") // Windows
}

// NewKubernetesRuntime creates a new Kubernetes-based runtime.
// Tries in-cluster configuration first, falls back to kubeconfig for local development.
func NewKubernetesRuntime(cfg KubernetesConfig) (*KubernetesRuntime, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		log.Printf("In-cluster config not available, trying kubeconfig: %v", err)
		kubeconfig := filepath.Join(homeDir(), ".kube", "config")
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build kubernetes config: %w", err)
		}
		log.Printf("Using kubeconfig: %s", kubeconfig)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	return newKubernetesRuntime(clientset, cfg), nil
}

func newKubernetesRuntime(clientset kubernetes.Interface, cfg KubernetesConfig) *KubernetesRuntime {
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	if cfg.DefaultCPULimit == "" {
		cfg.DefaultCPULimit = "500m"
	}
	if cfg.DefaultMemoryLimit == "" {
		cfg.DefaultMemoryLimit = "256Mi"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultKubernetesPollInterval
	}
	return &KubernetesRuntime{clientset: clientset, config: cfg}
}

// Start implements Runtime.Start by creating a Kubernetes Job.
func (k *KubernetesRuntime) Start(ctx context.Context, opts StartOptions) (Handle, error) {
	if opts.Image == "" {
		return nil, fmt.Errorf("image is required")
	}

	job, err := k.buildJob(opts)
	if err != nil {
		return nil, err
	}

	created, err := k.clientset.BatchV1().Jobs(k.config.Namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes job: %w", err)
	}

	log.Printf("Created Kubernetes Job %s in namespace %s for %s", created.Name, k.config.Namespace, opts.Name)

	return &KubernetesHandle{
		clientset:    k.clientset,
		namespace:    k.config.Namespace,
		jobName:      created.Name,
		pollInterval: k.config.PollInterval,
	}, nil
}

func (k *KubernetesRuntime) buildJob(opts StartOptions) (*batchv1.Job, error) {
	// Field ids are not valid object names, so name jobs by uuid.
	jobName := "ddf-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	var envVars []corev1.EnvVar
	for key, value := range opts.Env {
		envVars = append(envVars, corev1.EnvVar{Name: key, Value: value})
	}

	cpu, err := resource.ParseQuantity(k.config.DefaultCPULimit)
	if err != nil {
		return nil, fmt.Errorf("invalid cpu limit %q: %w", k.config.DefaultCPULimit, err)
	}
	mem, err := resource.ParseQuantity(k.config.DefaultMemoryLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid memory limit %q: %w", k.config.DefaultMemoryLimit, err)
	}

	c := corev1.Container{
		Name:    "job",
		Image:   opts.Image,
		Command: opts.Command,
		Env:     envVars,
		Resources: corev1.ResourceRequirements{
			Limits: corev1.ResourceList{
				corev1.ResourceCPU:    cpu,
				corev1.ResourceMemory: mem,
			},
		},
	}

	podSpec := corev1.PodSpec{
		RestartPolicy: corev1.RestartPolicyNever,
		Containers:    []corev1.Container{c},
	}

	// The base directory lives on a shared filesystem mounted on every node.
	if opts.WorkDir != "" {
		podSpec.Containers[0].WorkingDir = opts.WorkDir
		podSpec.Containers[0].VolumeMounts = []corev1.VolumeMount{{Name: "workdir", MountPath: opts.WorkDir}}
		podSpec.Volumes = []corev1.Volume{{
			Name: "workdir",
			VolumeSource: corev1.VolumeSource{
				HostPath: &corev1.HostPathVolumeSource{Path: opts.WorkDir},
			},
		}}
	}

	if k.config.ServiceAccount != "" {
		podSpec.ServiceAccountName = k.config.ServiceAccount
	}

	backoffLimit := int32(0) // the monitor never retries
	labels := map[string]string{
		"job-name":                     jobName,
		"app.kubernetes.io/managed-by": "ddfmonitor",
	}

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      jobName,
			Namespace: k.config.Namespace,
			Labels: map[string]string{
				"app.kubernetes.io/managed-by": "ddfmonitor",
			},
			Annotations: map[string]string{
				"ddfmonitor/name": opts.Name,
			},
		},
		Spec: batchv1.JobSpec{
			BackoffLimit: &backoffLimit,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec:       podSpec,
			},
		},
	}, nil
}

// Wait polls the Job status until it succeeds or fails.
func (h *KubernetesHandle) Wait(ctx context.Context) (ExitResult, error) {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		job, err := h.clientset.BatchV1().Jobs(h.namespace).Get(ctx, h.jobName, metav1.GetOptions{})
		if err != nil {
			return ExitResult{ExitCode: -1, Error: err}, err
		}

		if job.Status.Succeeded > 0 {
			return ExitResult{ExitCode: 0}, nil
		}
		if job.Status.Failed > 0 {
			return h.failedResult(ctx), nil
		}

		select {
		case <-ctx.Done():
			return ExitResult{ExitCode: -1, Error: ctx.Err()}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// failedResult digs the container exit code out of the job's pod, if it still exists.
func (h *KubernetesHandle) failedResult(ctx context.Context) ExitResult {
	result := ExitResult{ExitCode: -1, Error: fmt.Errorf("job %s failed", h.jobName)}

	pods, err := h.clientset.CoreV1().Pods(h.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("job-name=%s", h.jobName),
	})
	if err != nil || len(pods.Items) == 0 {
		return result
	}

	statuses := pods.Items[0].Status.ContainerStatuses
	if len(statuses) > 0 && statuses[0].State.Terminated != nil {
		term := statuses[0].State.Terminated
		result.ExitCode = int(term.ExitCode)
		if term.Reason != "" {
			result.Error = fmt.Errorf("%s", term.Reason)
		}
	}
	return result
}

// waitForPod waits for the job's pod to be created and returns its name.
func (h *KubernetesHandle) waitForPod(ctx context.Context) (string, error) {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		pods, err := h.clientset.CoreV1().Pods(h.namespace).List(ctx, metav1.ListOptions{
			LabelSelector: fmt.Sprintf("job-name=%s", h.jobName),
		})
		if err != nil {
			return "", err
		}
		if len(pods.Items) > 0 {
			return pods.Items[0].Name, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// StreamLogs returns a reader for the job's pod logs.
func (h *KubernetesHandle) StreamLogs(ctx context.Context) (io.ReadCloser, error) {
	if h.podName == "" {
		podName, err := h.waitForPod(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to find pod for job %s: %w", h.jobName, err)
		}
		h.podName = podName
	}

	if err := h.waitForContainerReady(ctx); err != nil {
		return nil, err
	}

	req := h.clientset.CoreV1().Pods(h.namespace).GetLogs(h.podName, &corev1.PodLogOptions{
		Container: "job",
		Follow:    true,
	})

	return req.Stream(ctx)
}

// waitForContainerReady waits for the container to start (or complete).
func (h *KubernetesHandle) waitForContainerReady(ctx context.Context) error {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		pod, err := h.clientset.CoreV1().Pods(h.namespace).Get(ctx, h.podName, metav1.GetOptions{})
		if err != nil {
			return err
		}
		switch pod.Status.Phase {
		case corev1.PodRunning, corev1.PodSucceeded, corev1.PodFailed:
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
