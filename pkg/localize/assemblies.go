package localize

import (
	_ "embed"
	"sync"

	"gopkg.in/yaml.v3"
)

// Assembly manifests embedded for runtime registration.
//
//go:embed assemblies.yaml
var assemblyManifest []byte

type assemblyDoc struct {
	Assemblies []Assembly `yaml:"assemblies"`
}

var (
	builtinOnce sync.Once
	builtins    []Assembly
	builtinErr  error
)

// BuiltinAssemblies returns the assembly manifests shipped with the package
// (GRCh37, GRCh38). The manifest is parsed once per process.
func BuiltinAssemblies() ([]Assembly, error) {
	builtinOnce.Do(func() {
		var doc assemblyDoc
		builtinErr = yaml.Unmarshal(assemblyManifest, &doc)
		if builtinErr == nil {
			builtins = doc.Assemblies
		}
	})
	if builtinErr != nil {
		return nil, builtinErr
	}
	out := make([]Assembly, len(builtins))
	copy(out, builtins)
	return out, nil
}
