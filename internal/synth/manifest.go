package synth

import (
	"fmt"
	"strings"

	"appforge/internal/naming"
	"appforge/internal/schema"
)

// buildGoMod emits the generated project's module manifest. Versions are
// pinned so every synthesis of the same schema produces the same manifest.
func buildGoMod(def schema.SchemaDefinition) string {
	module := naming.ToSnakeCase(def.EntityName) + "app"
	return fmt.Sprintf(`module %s

go 1.24

require (
	github.com/gin-gonic/gin v1.11.0
	modernc.org/sqlite v1.40.1
)
`, module)
}

// buildReadme emits the generated project's README.
func buildReadme(def schema.SchemaDefinition) string {
	route := naming.ToSnakeCase(def.EntityName)

	var ops []string
	if def.OperationEnabled(schema.OpCreate) {
		ops = append(ops, fmt.Sprintf("- `POST /%s/` create", route))
	}
	if def.OperationEnabled(schema.OpRead) {
		ops = append(ops, fmt.Sprintf("- `GET /%s/` list", route))
		ops = append(ops, fmt.Sprintf("- `GET /%s/:id` fetch one", route))
	}
	if def.OperationEnabled(schema.OpUpdate) && len(def.DataFields()) > 0 {
		ops = append(ops, fmt.Sprintf("- `PUT /%s/:id` update", route))
	}
	if def.OperationEnabled(schema.OpDelete) {
		ops = append(ops, fmt.Sprintf("- `DELETE /%s/:id` delete", route))
	}

	return fmt.Sprintf(`# %s Application

Generated by appforge

## Run

`+"```bash"+`
go mod tidy
go run .
`+"```"+`

Visit http://localhost:8000

## Endpoints

%s
`, def.EntityName, strings.Join(ops, "\n"))
}

// DeployInstructions returns per-target deployment steps for a generated
// project. The docker image tag derives from the lowercased entity name.
func DeployInstructions(projectID, entityName string) map[string]string {
	image := strings.ToLower(entityName) + "-app"
	return map[string]string{
		"railway": fmt.Sprintf("1. Install Railway CLI\n2. cd generated/%s\n3. railway init\n4. railway up", projectID),
		"render":  "1. Connect GitHub repo\n2. Set build command: go build -o app .\n3. Set start command: ./app",
		"docker":  fmt.Sprintf("1. Create Dockerfile in generated/%s\n2. docker build -t %s .\n3. docker run -p 8000:8000 %s", projectID, image, image),
	}
}
