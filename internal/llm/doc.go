// Package llm provides the semantic inference capability used to classify
// placeholders and match them to spreadsheet columns. It supports OpenAI,
// Anthropic and Gemini, with retry logic, rate limiting, response caching and a
// strict JSON boundary: callers only ever see schema-valid JSON or an error.
package llm
