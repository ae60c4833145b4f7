package cloud

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/serialexp/dbui/pkg/dbuierrors"
)

// KubeContext is one context entry from a kubeconfig file.
type KubeContext struct {
	Name    string `json:"name"`
	Cluster string `json:"cluster"`
	User    string `json:"user"`
}

// kubeconfig mirrors the parts of the kubeconfig schema the import flow
// reads.
type kubeconfig struct {
	Contexts []struct {
		Name    string `yaml:"name"`
		Context struct {
			Cluster string `yaml:"cluster"`
			User    string `yaml:"user"`
		} `yaml:"context"`
	} `yaml:"contexts"`
}

// KubeconfigPath honors KUBECONFIG and falls back to ~/.kube/config.
func KubeconfigPath() string {
	if path := os.Getenv("KUBECONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kube", "config")
}

// ListKubeContexts parses the kubeconfig at path and returns its contexts.
func ListKubeContexts(path string) ([]KubeContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dbuierrors.Newf(dbuierrors.ErrorTypeNotFound, "Kubeconfig not found at %s", path)
		}
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConfig, "failed to read kubeconfig")
	}

	var cfg kubeconfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeParse, "failed to parse kubeconfig")
	}

	contexts := make([]KubeContext, 0, len(cfg.Contexts))
	for _, c := range cfg.Contexts {
		contexts = append(contexts, KubeContext{
			Name:    c.Name,
			Cluster: c.Context.Cluster,
			User:    c.Context.User,
		})
	}
	return contexts, nil
}
