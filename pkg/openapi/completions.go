package openapi

// PathCompletions returns every distinct path with an operation matching
// method. The shell does the prefix filtering.
func (d *Document) PathCompletions(method string) []string {
	var completions []string
	seen := make(map[string]bool)
	for _, route := range d.Routes("*", method) {
		if !seen[route.Path] {
			completions = append(completions, route.Path)
			seen[route.Path] = true
		}
	}
	return completions
}

// MethodCompletions returns the methods defined for an exact path.
func (d *Document) MethodCompletions(path string) []string {
	var methods []string
	for _, route := range d.Routes(path, "*") {
		methods = append(methods, route.Method)
	}
	return methods
}
