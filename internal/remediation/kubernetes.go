package remediation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const restartedAtAnnotation = "kubectl.kubernetes.io/restartedAt"

// NewKubernetesClient prefers the in-cluster config and falls back to a
// kubeconfig file (explicit path, then $KUBECONFIG, then ~/.kube/config).
func NewKubernetesClient(kubeconfigPath string) (kubernetes.Interface, error) {
	config, err := rest.InClusterConfig()
	if err == nil {
		return kubernetes.NewForConfig(config)
	}

	if kubeconfigPath == "" {
		kubeconfigPath = os.Getenv("KUBECONFIG")
	}
	if kubeconfigPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not get home directory: %w", err)
		}
		kubeconfigPath = filepath.Join(home, ".kube", "config")
	}

	if _, err := os.Stat(kubeconfigPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("kubeconfig not found at %s", kubeconfigPath)
	}

	config, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}
	return kubernetes.NewForConfig(config)
}

// KubernetesActions performs deployment-level remediations against a cluster.
type KubernetesActions struct {
	client    kubernetes.Interface
	namespace string
	dryRun    bool
	log       *zap.Logger
}

func NewKubernetesActions(client kubernetes.Interface, namespace string, dryRun bool, log *zap.Logger) *KubernetesActions {
	if namespace == "" {
		namespace = "default"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &KubernetesActions{client: client, namespace: namespace, dryRun: dryRun, log: log}
}

// Overlay returns a copy of actions with the cluster-backed actions swapped in.
func (k *KubernetesActions) Overlay(actions map[string]Registration) map[string]Registration {
	out := make(map[string]Registration, len(actions)+3)
	for id, reg := range actions {
		out[id] = reg
	}

	out["RESTART_APPLICATION_SERVERS"] = Registration{
		Function:    "restart_application_servers",
		Description: "Rollout restart of the target deployment",
		Action:      ActionFunc(k.RestartDeployment),
	}
	out["AUTO_SCALE_HORIZONTAL"] = Registration{
		Function:    "auto_scale_horizontal",
		Description: "Scale out the target deployment",
		Action:      ActionFunc(k.ScaleDeployment),
	}
	out["SCALE_UP_INFRASTRUCTURE"] = Registration{
		Function:    "scale_up_infrastructure",
		Description: "Scale out the target deployment",
		Action:      ActionFunc(k.ScaleDeployment),
	}
	return out
}

func (k *KubernetesActions) resolve(target string) (string, string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", "", fmt.Errorf("target deployment is required")
	}
	if ns, name, ok := strings.Cut(target, "/"); ok {
		if ns == "" || name == "" {
			return "", "", fmt.Errorf("invalid target %q, want namespace/name", target)
		}
		return ns, name, nil
	}
	return k.namespace, target, nil
}

func (k *KubernetesActions) updateOptions() metav1.UpdateOptions {
	if k.dryRun {
		return metav1.UpdateOptions{DryRun: []string{metav1.DryRunAll}}
	}
	return metav1.UpdateOptions{}
}

func (k *KubernetesActions) suffix() string {
	if k.dryRun {
		return " (dry run)"
	}
	return ""
}

// RestartDeployment stamps the pod template so the deployment controller
// rolls every pod.
func (k *KubernetesActions) RestartDeployment(ctx context.Context, req Request) (Outcome, error) {
	ns, name, err := k.resolve(req.Target)
	if err != nil {
		return Outcome{}, err
	}

	deploy, err := k.client.AppsV1().Deployments(ns).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get deployment %s/%s: %w", ns, name, err)
	}

	if deploy.Spec.Template.Annotations == nil {
		deploy.Spec.Template.Annotations = map[string]string{}
	}
	deploy.Spec.Template.Annotations[restartedAtAnnotation] = time.Now().UTC().Format(time.RFC3339)

	if _, err := k.client.AppsV1().Deployments(ns).Update(ctx, deploy, k.updateOptions()); err != nil {
		return Outcome{}, fmt.Errorf("failed to restart deployment %s/%s: %w", ns, name, err)
	}

	k.log.Info("Deployment restarted",
		zap.String("namespace", ns),
		zap.String("deployment", name),
		zap.Bool("dry_run", k.dryRun),
	)
	return Outcome{
		Target:  ns + "/" + name,
		Details: fmt.Sprintf("Rollout restart triggered for deployment %s/%s.%s", ns, name, k.suffix()),
	}, nil
}

// ScaleDeployment sets the replica count to parameters.replicas, or one more
// than the current count when no count is given.
func (k *KubernetesActions) ScaleDeployment(ctx context.Context, req Request) (Outcome, error) {
	ns, name, err := k.resolve(req.Target)
	if err != nil {
		return Outcome{}, err
	}

	deploy, err := k.client.AppsV1().Deployments(ns).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get deployment %s/%s: %w", ns, name, err)
	}

	current := currentReplicas(deploy)
	desired, ok, err := replicasParam(req.Parameters)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		desired = current + 1
	}

	deploy.Spec.Replicas = &desired
	if _, err := k.client.AppsV1().Deployments(ns).Update(ctx, deploy, k.updateOptions()); err != nil {
		return Outcome{}, fmt.Errorf("failed to scale deployment %s/%s: %w", ns, name, err)
	}

	k.log.Info("Deployment scaled",
		zap.String("namespace", ns),
		zap.String("deployment", name),
		zap.Int32("from", current),
		zap.Int32("to", desired),
		zap.Bool("dry_run", k.dryRun),
	)
	return Outcome{
		Target:  ns + "/" + name,
		Details: fmt.Sprintf("Deployment %s/%s scaled from %d to %d replicas.%s", ns, name, current, desired, k.suffix()),
	}, nil
}

func currentReplicas(deploy *appsv1.Deployment) int32 {
	if deploy.Spec.Replicas == nil {
		return 1
	}
	return *deploy.Spec.Replicas
}

func replicasParam(params map[string]any) (int32, bool, error) {
	raw, ok := params["replicas"]
	if !ok {
		return 0, false, nil
	}

	var n int64
	switch v := raw.(type) {
	case float64:
		n = int64(v)
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	default:
		return 0, false, fmt.Errorf("replicas must be a number, got %T", raw)
	}

	if n < 0 || n > 1000 {
		return 0, false, fmt.Errorf("replicas out of range: %d", n)
	}
	return int32(n), true, nil
}
