// Package infobox converts wiki infobox markup into typed records and back.
//
// Locate and LocateAll find {{Infobox <Type>|key = value|...}} blocks and
// split them into tokens, tracking brace and link nesting so that pipes of
// nested templates are not taken as separators. A Schema maps the tokens of a
// block to a Record, converting each field to its declared kind, and
// Serialize writes an edited Record back into the original text, changing
// only the spans of fields whose value actually changed.
//
// Schemas and enum domains are plain data (see schemas.yaml); a Registry
// holds the loaded set. All functions are pure and safe for concurrent use.
package infobox
