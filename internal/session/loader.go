package session

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"
)

// assetURLPrefix is the host's filesystem-serving URL prefix; appending
// ?init to a URL under it makes the host return a streaming-instantiate
// function for the binary asset.
const assetURLPrefix = "/@fs"

const plainLoaderTemplate = `import init from "{{.URL}}?init";

export { init };
export default (imports) => init(imports);
`

const builtinsLoaderTemplate = `import init from "{{.URL}}?init";
import * as builtins from "{{.Builtins}}";

export { init };
export default (imports) => init({ ...builtins, ...imports });
`

var (
	plainLoader    = template.Must(template.New("loader").Parse(plainLoaderTemplate))
	builtinsLoader = template.Must(template.New("loader-builtins").Parse(builtinsLoaderTemplate))
)

type loaderData struct {
	URL      string
	Builtins string
}

// loaderSnippet renders the module source served for a binary-backend
// artifact: a small default/init pair over the host's ?init URL
// import. When builtins names an import-configuration module, its
// exports are merged into the import object.
func loaderSnippet(artifactPath, builtins string) (string, error) {
	data := loaderData{
		URL:      assetURLPrefix + filepath.ToSlash(artifactPath),
		Builtins: builtins,
	}

	tmpl := plainLoader
	if builtins != "" {
		tmpl = builtinsLoader
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render loader snippet: %w", err)
	}
	return buf.String(), nil
}
