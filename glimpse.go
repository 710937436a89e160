// Package glimpse extracts link previews (title, description, representative
// image, site name) from rendered web pages, including single-page
// applications that render their content asynchronously.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, sqlite/).
package glimpse
