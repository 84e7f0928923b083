// Package normalize converts raw tile fields into typed domain values:
// localized date text into concrete dates, titles into taxonomy categories,
// city identifiers into canonical names and titles into URL-safe slugs.
// Every conversion resolves to a safe default instead of failing; the
// upstream markup is too irregular for strict parsing to be useful.
package normalize
