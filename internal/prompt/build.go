package prompt

const (
	contextMarker = "Context from uploaded files:\n"
	queryMarker   = "\n\nUser Query: "
	instruction   = "\n\nProvide a natural language answer based on the context above."
)

// Build wraps an assembled context and the user's question in the fixed
// instruction template. Callers reject empty queries before getting here.
func Build(context, query string) string {
	return contextMarker + context + queryMarker + query + instruction
}
