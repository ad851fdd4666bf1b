// Package openapi reads the API's published OpenAPI document and lists its
// routes.
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/brendan.keane/stackcheck/pkg/apiclient"
	"github.com/pb33f/libopenapi"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// SpecPath is where FastAPI publishes the document.
const SpecPath = "/openapi.json"

// Document is a parsed OpenAPI v3 document.
type Document struct {
	model *libopenapi.DocumentModel[v3.Document]
}

// Fetch downloads SpecPath through c and parses it.
func Fetch(ctx context.Context, c *apiclient.Client) (*Document, error) {
	raw, err := apiclient.Get[json.RawMessage](ctx, c, SpecPath)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse builds a Document from JSON or YAML bytes.
func Parse(data []byte) (*Document, error) {
	document, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	model, errs := document.BuildV3Model()
	if errs != nil {
		return nil, fmt.Errorf("building v3 model: %v", errs)
	}
	if model == nil {
		return nil, fmt.Errorf("building v3 model: not an OpenAPI 3 document")
	}

	return &Document{model: model}, nil
}

func (d *Document) Title() string {
	if d.model.Model.Info == nil {
		return ""
	}
	return d.model.Model.Info.Title
}

func (d *Document) Version() string {
	if d.model.Model.Info == nil {
		return ""
	}
	return d.model.Model.Info.Version
}

func (d *Document) Description() string {
	if d.model.Model.Info == nil {
		return ""
	}
	return d.model.Model.Info.Description
}

// Parameter is one operation parameter.
type Parameter struct {
	Name        string
	In          string
	Required    bool
	Type        string
	Description string
}

// Route is one (path, method) operation.
type Route struct {
	Path        string
	Method      string
	Summary     string
	Description string
	Tags        []string
	Parameters  []Parameter
	HasBody     bool
	Responses   []string
}

// Routes returns the operations matching pathFilter and methodFilter, sorted
// by path and then method. A pathFilter ending in "*" matches by prefix; ""
// or "*" matches everything. methodFilter may be "", "*", "ANY" or a
// comma-separated list.
func (d *Document) Routes(pathFilter, methodFilter string) []Route {
	var routes []Route

	if d.model.Model.Paths == nil || d.model.Model.Paths.PathItems == nil {
		return routes
	}

	for pathPattern, pathItem := range d.model.Model.Paths.PathItems.FromOldest() {
		if !matchesPathFilter(pathPattern, pathFilter) {
			continue
		}

		for method, op := range getOperations(pathItem) {
			if !matchesMethodFilter(method, methodFilter) {
				continue
			}

			route := Route{
				Path:        pathPattern,
				Method:      strings.ToUpper(method),
				Summary:     op.Summary,
				Description: op.Description,
				Tags:        op.Tags,
				Parameters:  mergeParameters(pathItem.Parameters, op.Parameters),
				HasBody:     op.RequestBody != nil,
			}
			if op.Responses != nil && op.Responses.Codes != nil {
				for code := range op.Responses.Codes.FromOldest() {
					route.Responses = append(route.Responses, code)
				}
			}
			routes = append(routes, route)
		}
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return methodOrder(routes[i].Method) < methodOrder(routes[j].Method)
	})

	return routes
}

func matchesPathFilter(path, filter string) bool {
	if filter == "" || filter == "*" {
		return true
	}
	if strings.HasSuffix(filter, "*") {
		return strings.HasPrefix(path, strings.TrimSuffix(filter, "*"))
	}
	return path == filter
}

func matchesMethodFilter(method, filter string) bool {
	if filter == "" || strings.EqualFold(filter, "ANY") || filter == "*" {
		return true
	}
	for _, m := range strings.Split(filter, ",") {
		if strings.EqualFold(method, strings.TrimSpace(m)) {
			return true
		}
	}
	return false
}

func getOperations(pathItem *v3.PathItem) map[string]*v3.Operation {
	ops := make(map[string]*v3.Operation)

	if pathItem.Get != nil {
		ops["get"] = pathItem.Get
	}
	if pathItem.Post != nil {
		ops["post"] = pathItem.Post
	}
	if pathItem.Put != nil {
		ops["put"] = pathItem.Put
	}
	if pathItem.Delete != nil {
		ops["delete"] = pathItem.Delete
	}
	if pathItem.Patch != nil {
		ops["patch"] = pathItem.Patch
	}
	if pathItem.Head != nil {
		ops["head"] = pathItem.Head
	}
	if pathItem.Options != nil {
		ops["options"] = pathItem.Options
	}

	return ops
}

// mergeParameters lets operation parameters override path-level ones with
// the same location and name.
func mergeParameters(pathParams, opParams []*v3.Parameter) []Parameter {
	byKey := make(map[string]*v3.Parameter)
	for _, params := range [][]*v3.Parameter{pathParams, opParams} {
		for _, p := range params {
			if p.Name != "" && p.In != "" {
				byKey[p.In+":"+p.Name] = p
			}
		}
	}

	result := make([]Parameter, 0, len(byKey))
	for _, p := range byKey {
		param := Parameter{
			Name:        p.Name,
			In:          p.In,
			Required:    p.Required != nil && *p.Required,
			Description: p.Description,
		}
		if p.Schema != nil {
			if schema := p.Schema.Schema(); schema != nil && len(schema.Type) > 0 {
				param.Type = schema.Type[0]
			}
		}
		result = append(result, param)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].In != result[j].In {
			return parameterInOrder(result[i].In) < parameterInOrder(result[j].In)
		}
		return result[i].Name < result[j].Name
	})

	return result
}

func methodOrder(method string) int {
	order := map[string]int{
		"GET":     0,
		"POST":    1,
		"PUT":     2,
		"PATCH":   3,
		"DELETE":  4,
		"HEAD":    5,
		"OPTIONS": 6,
	}
	if v, ok := order[method]; ok {
		return v
	}
	return 999
}

func parameterInOrder(in string) int {
	order := map[string]int{
		"path":   0,
		"query":  1,
		"header": 2,
		"cookie": 3,
	}
	if v, ok := order[in]; ok {
		return v
	}
	return 999
}
