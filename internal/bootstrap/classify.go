package bootstrap

import "github.com/routelens/routelens-backend/internal/api_consistency/classify"

// LoadClassify returns the server wide URL classification config, falling
// back to defaults when no file is configured.
func LoadClassify(path string) (classify.Config, error) {
	if path == "" {
		return classify.Defaults(), nil
	}
	return classify.Load(path)
}
